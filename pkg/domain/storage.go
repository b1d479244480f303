package domain

import "context"

// CollectionHandle is a pipeline-capable view of one collection.
// Implementations wrap every failure in a *StoreError.
type CollectionHandle interface {
	Name() string
	Aggregate(ctx context.Context, pipeline Pipeline) ([]Document, error)
	InsertOne(ctx context.Context, doc Document) error
	InsertMany(ctx context.Context, docs []Document) error
	DeleteOne(ctx context.Context, filter Attributes) (int64, error)
	DeleteMany(ctx context.Context, filter Attributes) (int64, error)
}

// Store is the document store collaborator shared by all operations
type Store interface {
	Collection(name string) CollectionHandle
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

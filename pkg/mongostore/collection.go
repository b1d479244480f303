package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

type collection struct {
	name string
	coll *mongo.Collection
}

func (c *collection) Name() string {
	return c.name
}

func (c *collection) Aggregate(ctx context.Context, p domain.Pipeline) ([]domain.Document, error) {
	cursor, err := c.coll.Aggregate(ctx, renderPipeline(p))
	if err != nil {
		return nil, classify("aggregate", c.name, err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, classify("aggregate", c.name, err)
	}

	docs := make([]domain.Document, len(raw))
	for i, m := range raw {
		docs[i] = documentFromBSON(m)
	}
	return docs, nil
}

func (c *collection) InsertOne(ctx context.Context, doc domain.Document) error {
	_, err := c.coll.InsertOne(ctx, mapToBSON(doc))
	return classify("insert", c.name, err)
}

func (c *collection) InsertMany(ctx context.Context, docs []domain.Document) error {
	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		batch[i] = mapToBSON(doc)
	}
	_, err := c.coll.InsertMany(ctx, batch)
	return classify("insert many", c.name, err)
}

func (c *collection) DeleteOne(ctx context.Context, filter domain.Attributes) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, filterDoc(filter))
	if err != nil {
		return 0, classify("delete", c.name, err)
	}
	return res.DeletedCount, nil
}

func (c *collection) DeleteMany(ctx context.Context, filter domain.Attributes) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filterDoc(filter))
	if err != nil {
		return 0, classify("delete many", c.name, err)
	}
	return res.DeletedCount, nil
}

package accessor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
	"github.com/adfharrison1/go-docpipe/pkg/metadata"
	"github.com/adfharrison1/go-docpipe/pkg/pipeline"
)

// Accessor performs CRUD and array mutation on any collection of a store
// by composing pipelines. It holds no state besides the store handle and
// is safe for concurrent use when the store is.
//
// No operation is atomic across its read, write and read-back steps. In
// particular, attribute-scoped writes resolve the affected pids with one
// read, write against the attribute filter, then read back by the resolved
// pids; a concurrent writer can change which documents match in between.
type Accessor struct {
	store  domain.Store
	meta   *metadata.Service
	logger *zap.Logger
}

// Option configures an Accessor
type Option func(*Accessor)

// WithMetadata overrides the identity and audit field generator
func WithMetadata(meta *metadata.Service) Option {
	return func(a *Accessor) {
		if meta != nil {
			a.meta = meta
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Accessor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an accessor over store
func New(store domain.Store, opts ...Option) *Accessor {
	a := &Accessor{
		store:  store,
		meta:   metadata.NewService(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ping checks that the store is reachable
func (a *Accessor) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// Close releases the store handle
func (a *Accessor) Close(ctx context.Context) error {
	return a.store.Close(ctx)
}

func (a *Accessor) collection(table string) (domain.CollectionHandle, error) {
	if strings.TrimSpace(table) == "" {
		return nil, domain.InvalidArgumentf("table name must not be empty")
	}
	return a.store.Collection(table), nil
}

func pidFilter(pid string) (domain.Attributes, error) {
	if pid == "" {
		return nil, domain.InvalidArgumentf("pid must not be empty")
	}
	return domain.Attributes{domain.FieldPID: pid}, nil
}

// validatePIDs rejects empty and duplicate pids
func validatePIDs(pids []string) error {
	seen := make(map[string]bool, len(pids))
	for i, pid := range pids {
		if pid == "" {
			return domain.InvalidArgumentf("pid at position %d is empty", i)
		}
		if seen[pid] {
			return domain.InvalidArgumentf("pid %q appears more than once", pid)
		}
		seen[pid] = true
	}
	return nil
}

func pidsFilter(pids []string) domain.Attributes {
	values := make([]interface{}, len(pids))
	for i, pid := range pids {
		values[i] = pid
	}
	return domain.Attributes{domain.FieldPID: domain.Document{"$in": values}}
}

// findOne returns the first document matching filter, or nil
func (a *Accessor) findOne(ctx context.Context, coll domain.CollectionHandle, filter domain.Attributes, fields domain.FieldSelector, stages []domain.Stage) (domain.Document, error) {
	projection, err := pipeline.BuildProjection(fields)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.ComposeQuery(pipeline.Query{
		Filter:     filter,
		Stages:     stages,
		Projection: projection,
		FirstOnly:  true,
	})
	if err != nil {
		return nil, err
	}

	docs, err := coll.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// findAll returns every document matching filter with all fields
func (a *Accessor) findAll(ctx context.Context, coll domain.CollectionHandle, filter domain.Attributes) ([]domain.Document, error) {
	p, err := pipeline.ComposeQuery(pipeline.Query{
		Filter:     filter,
		Projection: domain.ProjectionSpec{IncludeAll: true},
	})
	if err != nil {
		return nil, err
	}
	docs, err := coll.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// resolvePIDs reads the pids of documents matching filter, in store order.
// With firstOnly only the first match is resolved.
func (a *Accessor) resolvePIDs(ctx context.Context, coll domain.CollectionHandle, filter domain.Attributes, firstOnly bool) ([]string, error) {
	p, err := pipeline.ComposeQuery(pipeline.Query{
		Filter:    filter,
		FirstOnly: firstOnly,
	})
	if err != nil {
		return nil, err
	}
	docs, err := coll.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	pids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if pid := doc.PID(); pid != "" {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// readBackOne re-reads a written document by pid with all fields
func (a *Accessor) readBackOne(ctx context.Context, coll domain.CollectionHandle, pid string) (domain.Document, error) {
	return a.findOne(ctx, coll, domain.Attributes{domain.FieldPID: pid}, domain.AllFields(), nil)
}

// composeWrite builds a write pipeline with fresh update metadata
func (a *Accessor) composeWrite(coll domain.CollectionHandle, filter domain.Attributes, firstOnly bool, fields []domain.DerivedField, actor string) (domain.Pipeline, error) {
	return pipeline.ComposeWrite(pipeline.Write{
		Collection: coll.Name(),
		Filter:     filter,
		FirstOnly:  firstOnly,
		Fields:     fields,
		Metadata:   a.meta.Update(actor),
	})
}

func (a *Accessor) runWrite(ctx context.Context, coll domain.CollectionHandle, p domain.Pipeline) error {
	if _, err := coll.Aggregate(ctx, p); err != nil {
		return err
	}
	a.logger.Debug("write pipeline applied",
		zap.String("collection", coll.Name()),
		zap.Strings("stages", p.Operators()))
	return nil
}

// toInt64 reads a count returned by a store, which may use any integer width
func toInt64(v interface{}) (int64, error) {
	if n, ok := domain.AsInt64(v); ok {
		return n, nil
	}
	return 0, fmt.Errorf("unexpected count type %T", v)
}

package accessor

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// prepare copies a caller item and attaches creation metadata. Metadata
// fields supplied by the caller are overwritten or dropped.
func (a *Accessor) prepare(item domain.Document, actor string) (domain.Document, error) {
	for name := range item {
		if name == domain.FieldInternalID {
			return nil, domain.InvalidArgumentf("items must not carry the internal %s field", domain.FieldInternalID)
		}
		if name == "" || strings.HasPrefix(name, "$") {
			return nil, domain.InvalidArgumentf("invalid field name %q", name)
		}
	}

	doc := item.Clone()
	if doc == nil {
		doc = domain.Document{}
	}
	delete(doc, domain.FieldCreatedBy)
	delete(doc, domain.FieldUpdatedBy)
	for k, v := range a.meta.Creation(actor) {
		doc[k] = v
	}
	return doc, nil
}

// Create stores an item with fresh identity and audit fields and returns
// the stored item with all fields.
func (a *Accessor) Create(ctx context.Context, table string, item domain.Document, actor string) (domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	doc, err := a.prepare(item, actor)
	if err != nil {
		return nil, err
	}

	if err := coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}

	created, err := a.readBackOne(ctx, coll, doc.PID())
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, domain.NewStoreError("create", table, errors.New("created item not found on read-back"))
	}
	a.logger.Debug("item created", zap.String("collection", table), zap.String("pid", doc.PID()))
	return created, nil
}

// CreateMany stores a batch of items. The batch is inserted in one call and
// fails as a whole; created items are returned in store order.
func (a *Accessor) CreateMany(ctx context.Context, table string, items []domain.Document, actor string) ([]domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.InvalidArgumentf("create many requires at least one item")
	}

	docs := make([]domain.Document, len(items))
	pids := make([]string, len(items))
	for i, item := range items {
		doc, err := a.prepare(item, actor)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
		pids[i] = doc.PID()
	}

	if err := coll.InsertMany(ctx, docs); err != nil {
		return nil, err
	}

	created, err := a.findAll(ctx, coll, pidsFilter(pids))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("items created", zap.String("collection", table), zap.Int("count", len(created)))
	return created, nil
}

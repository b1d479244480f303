package accessor

import (
	"context"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
	"github.com/adfharrison1/go-docpipe/pkg/pipeline"
)

// UpdateByPID sets the given fields on the item with pid and returns the
// updated item, or nil when no item has that pid. Fields not named are
// kept, as are the identity and creation fields.
func (a *Accessor) UpdateByPID(ctx context.Context, table, pid string, updates domain.Document, actor string) (domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	filter, err := pidFilter(pid)
	if err != nil {
		return nil, err
	}
	fields, err := pipeline.FieldUpdates(updates)
	if err != nil {
		return nil, err
	}
	return a.writeOne(ctx, coll, filter, fields, actor, false)
}

// UpdateByAttributes updates the first item matching attrs in store order
func (a *Accessor) UpdateByAttributes(ctx context.Context, table string, attrs domain.Attributes, updates domain.Document, actor string) (domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	fields, err := pipeline.FieldUpdates(updates)
	if err != nil {
		return nil, err
	}
	return a.writeOne(ctx, coll, attrs, fields, actor, true)
}

// UpdateManyByPIDs updates every item whose pid is listed. Pids that match
// nothing are skipped; updated items come back in store order.
func (a *Accessor) UpdateManyByPIDs(ctx context.Context, table string, pids []string, updates domain.Document, actor string) ([]domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	fields, err := pipeline.FieldUpdates(updates)
	if err != nil {
		return nil, err
	}
	return a.writeManyByPIDs(ctx, coll, pids, fields, actor)
}

// UpdateManyByAttributes updates every item matching attrs
func (a *Accessor) UpdateManyByAttributes(ctx context.Context, table string, attrs domain.Attributes, updates domain.Document, actor string) ([]domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	fields, err := pipeline.FieldUpdates(updates)
	if err != nil {
		return nil, err
	}
	return a.writeManyByAttributes(ctx, coll, attrs, fields, actor)
}

// writeOne applies fields to a single item. A pid filter identifies the item
// directly; an attribute filter is resolved to the first match's pid before
// writing so the read-back can find the item after its attributes change.
func (a *Accessor) writeOne(ctx context.Context, coll domain.CollectionHandle, filter domain.Attributes, fields []domain.DerivedField, actor string, byAttributes bool) (domain.Document, error) {
	p, err := a.composeWrite(coll, filter, byAttributes, fields, actor)
	if err != nil {
		return nil, err
	}

	var pid string
	if byAttributes {
		pids, err := a.resolvePIDs(ctx, coll, filter, true)
		if err != nil {
			return nil, err
		}
		if len(pids) == 0 {
			return nil, nil
		}
		pid = pids[0]
	} else {
		pid, _ = filter[domain.FieldPID].(string)
	}

	if err := a.runWrite(ctx, coll, p); err != nil {
		return nil, err
	}
	return a.readBackOne(ctx, coll, pid)
}

func (a *Accessor) writeManyByPIDs(ctx context.Context, coll domain.CollectionHandle, pids []string, fields []domain.DerivedField, actor string) ([]domain.Document, error) {
	if err := validatePIDs(pids); err != nil {
		return nil, err
	}
	filter := pidsFilter(pids)
	p, err := a.composeWrite(coll, filter, false, fields, actor)
	if err != nil {
		return nil, err
	}
	if len(pids) == 0 {
		return []domain.Document{}, nil
	}

	if err := a.runWrite(ctx, coll, p); err != nil {
		return nil, err
	}
	return a.findAll(ctx, coll, filter)
}

func (a *Accessor) writeManyByAttributes(ctx context.Context, coll domain.CollectionHandle, attrs domain.Attributes, fields []domain.DerivedField, actor string) ([]domain.Document, error) {
	p, err := a.composeWrite(coll, attrs, false, fields, actor)
	if err != nil {
		return nil, err
	}

	pids, err := a.resolvePIDs(ctx, coll, attrs, false)
	if err != nil {
		return nil, err
	}
	if len(pids) == 0 {
		return []domain.Document{}, nil
	}

	if err := a.runWrite(ctx, coll, p); err != nil {
		return nil, err
	}
	return a.findAll(ctx, coll, pidsFilter(pids))
}

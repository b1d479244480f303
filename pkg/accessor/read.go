package accessor

import (
	"context"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
	"github.com/adfharrison1/go-docpipe/pkg/pipeline"
)

// ListOptions controls List. A zero Limit means unbounded. When Stages is
// set, the stages run after the attribute filter and shape the output
// themselves, so Fields is ignored.
type ListOptions struct {
	Attributes domain.Attributes
	Fields     domain.FieldSelector
	Sort       domain.SortSpec
	Skip       int64
	Limit      int64
	WithStats  bool
	Stages     []domain.Stage
}

// GetByPID returns the item with the given pid, or nil when there is none
func (a *Accessor) GetByPID(ctx context.Context, table, pid string, fields domain.FieldSelector, stages ...domain.Stage) (domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	filter, err := pidFilter(pid)
	if err != nil {
		return nil, err
	}
	return a.findOne(ctx, coll, filter, fields, stages)
}

// GetByAttributes returns the first item matching attrs in store order, or
// nil when nothing matches
func (a *Accessor) GetByAttributes(ctx context.Context, table string, attrs domain.Attributes, fields domain.FieldSelector, stages ...domain.Stage) (domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	return a.findOne(ctx, coll, attrs, fields, stages)
}

// List returns the items matching opts.Attributes with sorting, pagination
// and optional page statistics. Items is never nil.
func (a *Accessor) List(ctx context.Context, table string, opts ListOptions) (*domain.Page, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	projection, err := pipeline.BuildProjection(opts.Fields)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.ComposeQuery(pipeline.Query{
		Filter:     opts.Attributes,
		Stages:     opts.Stages,
		Sort:       opts.Sort,
		Skip:       opts.Skip,
		Limit:      opts.Limit,
		Projection: projection,
	})
	if err != nil {
		return nil, err
	}

	var total int64
	if opts.WithStats {
		total, err = a.count(ctx, coll, opts.Attributes, opts.Stages)
		if err != nil {
			return nil, err
		}
	}

	items, err := coll.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Document{}
	}

	page := &domain.Page{Items: items}
	if opts.WithStats {
		stats := domain.ComputePageStats(total, opts.Skip, opts.Limit, int64(len(items)))
		page.Stats = &stats
	}
	return page, nil
}

// count returns the number of documents the filter and stages produce
// before sorting and pagination
func (a *Accessor) count(ctx context.Context, coll domain.CollectionHandle, filter domain.Attributes, stages []domain.Stage) (int64, error) {
	docs, err := coll.Aggregate(ctx, pipeline.ComposeCount(filter, stages))
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	total, err := toInt64(docs[0][pipeline.CountField])
	if err != nil {
		return 0, domain.NewStoreError("count", coll.Name(), err)
	}
	return total, nil
}

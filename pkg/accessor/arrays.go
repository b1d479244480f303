package accessor

import (
	"context"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
	"github.com/adfharrison1/go-docpipe/pkg/pipeline"
)

// ArrayAppendByPID appends element to the array field of the item with pid.
// A missing or null field is treated as an empty array.
func (a *Accessor) ArrayAppendByPID(ctx context.Context, table, pid, field string, element interface{}, actor string) (domain.Document, error) {
	return a.arrayByPID(ctx, table, pid, field, element, actor, pipeline.AppendElement)
}

// ArrayAppendByAttributes appends element to the array field of every item
// matching attrs
func (a *Accessor) ArrayAppendByAttributes(ctx context.Context, table string, attrs domain.Attributes, field string, element interface{}, actor string) ([]domain.Document, error) {
	return a.arrayByAttributes(ctx, table, attrs, field, element, actor, pipeline.AppendElement)
}

// ArrayRemoveByPID removes every element equal to element from the array
// field of the item with pid
func (a *Accessor) ArrayRemoveByPID(ctx context.Context, table, pid, field string, element interface{}, actor string) (domain.Document, error) {
	return a.arrayByPID(ctx, table, pid, field, element, actor, pipeline.RemoveElement)
}

// ArrayRemoveByAttributes removes element from the array field of every item
// matching attrs
func (a *Accessor) ArrayRemoveByAttributes(ctx context.Context, table string, attrs domain.Attributes, field string, element interface{}, actor string) ([]domain.Document, error) {
	return a.arrayByAttributes(ctx, table, attrs, field, element, actor, pipeline.RemoveElement)
}

type arrayOp func(field string, element interface{}) (domain.DerivedField, error)

func (a *Accessor) arrayByPID(ctx context.Context, table, pid, field string, element interface{}, actor string, op arrayOp) (domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	filter, err := pidFilter(pid)
	if err != nil {
		return nil, err
	}
	derived, err := op(field, element)
	if err != nil {
		return nil, err
	}
	return a.writeOne(ctx, coll, filter, []domain.DerivedField{derived}, actor, false)
}

func (a *Accessor) arrayByAttributes(ctx context.Context, table string, attrs domain.Attributes, field string, element interface{}, actor string, op arrayOp) ([]domain.Document, error) {
	coll, err := a.collection(table)
	if err != nil {
		return nil, err
	}
	derived, err := op(field, element)
	if err != nil {
		return nil, err
	}
	return a.writeManyByAttributes(ctx, coll, attrs, []domain.DerivedField{derived}, actor)
}

package accessor

import (
	"context"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// DeleteByPID removes the item with pid and reports whether one was removed
func (a *Accessor) DeleteByPID(ctx context.Context, table, pid string) (bool, error) {
	coll, err := a.collection(table)
	if err != nil {
		return false, err
	}
	filter, err := pidFilter(pid)
	if err != nil {
		return false, err
	}
	n, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByAttributes removes the first item matching attrs in store order
func (a *Accessor) DeleteByAttributes(ctx context.Context, table string, attrs domain.Attributes) (bool, error) {
	coll, err := a.collection(table)
	if err != nil {
		return false, err
	}
	n, err := coll.DeleteOne(ctx, attrs)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteManyByPIDs removes every listed item and returns how many existed
func (a *Accessor) DeleteManyByPIDs(ctx context.Context, table string, pids []string) (int64, error) {
	coll, err := a.collection(table)
	if err != nil {
		return 0, err
	}
	if err := validatePIDs(pids); err != nil {
		return 0, err
	}
	if len(pids) == 0 {
		return 0, nil
	}
	n, err := coll.DeleteMany(ctx, pidsFilter(pids))
	if err != nil {
		return 0, err
	}
	a.logger.Debug("items deleted", zap.String("collection", table), zap.Int64("count", n))
	return n, nil
}

// DeleteManyByAttributes removes every item matching attrs
func (a *Accessor) DeleteManyByAttributes(ctx context.Context, table string, attrs domain.Attributes) (int64, error) {
	coll, err := a.collection(table)
	if err != nil {
		return 0, err
	}
	n, err := coll.DeleteMany(ctx, attrs)
	if err != nil {
		return 0, err
	}
	a.logger.Debug("items deleted", zap.String("collection", table), zap.Int64("count", n))
	return n, nil
}

package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/accessor"
)

// IndexManager is implemented by stores that expose index administration
type IndexManager interface {
	EnsureIndex(ctx context.Context, coll, field string) error
	Indexes(ctx context.Context, coll string) ([]string, error)
}

// Handler provides HTTP handlers for the collection accessor
type Handler struct {
	accessor *accessor.Accessor
	indexes  IndexManager
	logger   *zap.SugaredLogger
}

// NewHandler creates a new API handler. indexes may be nil when the store
// has no index administration.
func NewHandler(acc *accessor.Accessor, indexes IndexManager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		accessor: acc,
		indexes:  indexes,
		logger:   logger.Sugar(),
	}
}

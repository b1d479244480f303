package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/api"
	"github.com/adfharrison1/go-docpipe/pkg/config"
	"github.com/adfharrison1/go-docpipe/pkg/domain"
	"github.com/adfharrison1/go-docpipe/pkg/mongostore"
	"github.com/adfharrison1/go-docpipe/pkg/storage"
)

// backend is a store that also manages indexes
type backend interface {
	domain.Store
	api.IndexManager
}

// openStore opens the configured store. For mongo, database selects the
// database; the memory engine has a single namespace and ignores it.
func openStore(ctx context.Context, cfg *config.Config, database string, logger *zap.Logger) (backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		store, err := mongostore.Connect(ctx, mongostore.Config{
			URI:         cfg.Mongo.URI,
			Database:    database,
			Timeout:     cfg.Mongo.Timeout,
			TLSInsecure: cfg.Mongo.TLSInsecure,
			AppName:     "docpipe",
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		opts := []storage.StorageOption{storage.WithLogger(logger)}
		if cfg.DataFile != "" {
			opts = append(opts, storage.WithDataFile(cfg.DataFile))
			logger.Info("using snapshot file", zap.String("file", cfg.DataFile))
		}
		if cfg.SnapshotInterval > 0 {
			opts = append(opts, storage.WithBackgroundSave(cfg.SnapshotInterval))
			logger.Info("background save enabled", zap.Duration("interval", cfg.SnapshotInterval))
		} else {
			logger.Warn("background save disabled - data only saved on graceful shutdown")
		}
		engine := storage.NewStorageEngine(opts...)
		if err := engine.Open(); err != nil {
			return nil, err
		}
		return engine, nil
	}
}

func closeStore(store domain.Store) {
	if err := store.Close(context.Background()); err != nil {
		logger.Error("failed to close store", zap.Error(err))
	}
}

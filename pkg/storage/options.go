package storage

import (
	"time"

	"go.uber.org/zap"
)

type StorageOption func(*StorageEngine)

// WithDataFile sets the snapshot file loaded by Open and written by Close
func WithDataFile(path string) StorageOption {
	return func(engine *StorageEngine) {
		engine.dataFile = path
	}
}

// WithBackgroundSave enables periodic snapshots while the engine is open
func WithBackgroundSave(interval time.Duration) StorageOption {
	return func(engine *StorageEngine) {
		engine.backgroundSave = interval > 0
		engine.saveInterval = interval
	}
}

// WithIndexedFields maintains equality indexes on top-level fields of every
// collection, in addition to pid
func WithIndexedFields(fields ...string) StorageOption {
	return func(engine *StorageEngine) {
		engine.indexedFields = append(engine.indexedFields, fields...)
	}
}

func WithLogger(logger *zap.Logger) StorageOption {
	return func(engine *StorageEngine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

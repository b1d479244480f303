package storage

import (
	"time"

	"go.uber.org/zap"
)

// StartBackgroundWorkers starts the periodic snapshot worker
func (se *StorageEngine) StartBackgroundWorkers() {
	if !se.backgroundSave || se.dataFile == "" {
		return
	}

	se.backgroundWg.Add(1)
	go func() {
		defer se.backgroundWg.Done()
		ticker := time.NewTicker(se.saveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				se.saveIfDirty()
			case <-se.stopChan:
				return
			}
		}
	}()
}

// StopBackgroundWorkers stops background workers
func (se *StorageEngine) StopBackgroundWorkers() {
	se.stopOnce.Do(func() {
		close(se.stopChan)
	})
	se.backgroundWg.Wait()
}

func (se *StorageEngine) saveIfDirty() {
	if !se.dirty.Load() {
		se.logger.Debug("no changes to snapshot")
		return
	}

	start := time.Now()
	if err := se.SaveToFile(se.dataFile); err != nil {
		se.logger.Error("background snapshot failed", zap.String("file", se.dataFile), zap.Error(err))
		return
	}
	se.logger.Info("background snapshot saved",
		zap.String("file", se.dataFile),
		zap.Duration("elapsed", time.Since(start)))
}

package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// SaveToFile writes every collection to a snapshot file. The file is
// written beside the target and renamed into place.
func (se *StorageEngine) SaveToFile(filename string) error {
	// Writers hold the write lock, so no change lands between the flag
	// reset and the export
	se.mu.RLock()
	se.dirty.Store(false)
	storageData := se.exportLocked()
	se.mu.RUnlock()

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			se.dirty.Store(true)
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	tempFile := filename + ".tmp"
	if err := writeSnapshot(tempFile, storageData); err != nil {
		os.Remove(tempFile)
		se.dirty.Store(true)
		return err
	}
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		se.dirty.Store(true)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}
	return nil
}

// exportLocked copies the engine state. Callers hold se.mu.
func (se *StorageEngine) exportLocked() *StorageData {
	storageData := NewStorageData()
	storageData.SavedAt = time.Now().UTC().UnixMilli()
	for name, coll := range se.collections {
		storageData.Collections[name] = &CollectionData{
			NextID:    coll.nextID,
			Indexes:   se.indexEngine.GetIndexes(name),
			Documents: se.snapshotDocs(name, nil),
		}
	}
	return storageData
}

func writeSnapshot(filename string, data *StorageData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	if err := WriteHeader(buf); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	zw := lz4.NewWriter(buf)
	if err := msgpack.NewEncoder(zw).Encode(data); err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to write compressed data: %w", err)
	}
	return file.Sync()
}

// LoadFromFile replaces the engine state with a snapshot. A missing file
// leaves the engine empty.
func (se *StorageEngine) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			se.logger.Info("no snapshot found, starting empty", zap.String("file", filename))
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	if _, err := ReadHeader(reader); err != nil {
		return fmt.Errorf("invalid file header: %w", err)
	}

	dec := msgpack.NewDecoder(lz4.NewReader(reader))
	dec.UseLooseInterfaceDecoding(true)
	var storageData StorageData
	if err := dec.Decode(&storageData); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	se.mu.Lock()
	defer se.mu.Unlock()

	for name := range se.collections {
		se.indexEngine.DropCollection(name)
	}
	se.collections = make(map[string]*collection, len(storageData.Collections))
	total := 0
	for name, data := range storageData.Collections {
		coll := se.getOrCreateCollection(name)
		for _, raw := range data.Documents {
			doc := normalizeDocument(raw)
			id, hasID := doc[domain.FieldInternalID]
			if !hasID {
				id = coll.newID()
				doc[domain.FieldInternalID] = id
			}
			coll.put(idKey(id), doc)
		}
		if data.NextID > coll.nextID {
			coll.nextID = data.NextID
		}
		// Rebuild indexes over the loaded documents
		for _, field := range append(append([]string(nil), se.indexedFields...), data.Indexes...) {
			se.indexEngine.CreateIndex(name, field, coll.docs)
		}
		total += len(coll.docs)
	}
	se.dirty.Store(false)

	se.logger.Info("snapshot loaded",
		zap.String("file", filename),
		zap.Int("collections", len(se.collections)),
		zap.Int("documents", total))
	return nil
}

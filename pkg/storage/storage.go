package storage

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
	"github.com/adfharrison1/go-docpipe/pkg/indexing"
)

// ErrEngineClosed is wrapped by every call made after Close
var ErrEngineClosed = errors.New("storage engine is closed")

// collection holds documents keyed by internal _id in insertion order
type collection struct {
	name    string
	docs    map[string]domain.Document
	seq     map[string]int64
	order   []string
	nextID  int64
	nextSeq int64
}

func newCollection(name string) *collection {
	return &collection{
		name: name,
		docs: make(map[string]domain.Document),
		seq:  make(map[string]int64),
	}
}

func (c *collection) put(id string, doc domain.Document) {
	if _, exists := c.docs[id]; !exists {
		c.seq[id] = c.nextSeq
		c.nextSeq++
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
}

func (c *collection) remove(id string) {
	delete(c.docs, id)
	delete(c.seq, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *collection) newID() string {
	c.nextID++
	return strconv.FormatInt(c.nextID, 10)
}

// observeID keeps generated IDs clear of numeric IDs supplied by callers
func (c *collection) observeID(id string) {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > c.nextID {
		c.nextID = n
	}
}

// StorageEngine is an in-memory, pipeline-capable document store. It
// implements domain.Store and can persist itself to a snapshot file.
type StorageEngine struct {
	mu            sync.RWMutex
	collections   map[string]*collection
	indexEngine   domain.IndexEngine
	indexedFields []string
	closed        bool
	dirty         atomic.Bool

	// Configuration
	dataFile       string
	backgroundSave bool
	saveInterval   time.Duration

	// Background workers
	backgroundWg sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once

	logger *zap.Logger
}

// NewStorageEngine creates a new storage engine. The engine is usable
// immediately; call Open to load a snapshot and start background saves.
func NewStorageEngine(options ...StorageOption) *StorageEngine {
	engine := &StorageEngine{
		collections:   make(map[string]*collection),
		indexEngine:   indexing.NewIndexEngine(),
		indexedFields: []string{domain.FieldPID},
		saveInterval:  5 * time.Minute,
		stopChan:      make(chan struct{}),
		logger:        zap.NewNop(),
	}

	for _, option := range options {
		option(engine)
	}

	return engine
}

// Open loads the snapshot file, if configured and present, and starts
// background workers.
func (se *StorageEngine) Open() error {
	if se.dataFile != "" {
		if err := se.LoadFromFile(se.dataFile); err != nil {
			return err
		}
	}
	se.StartBackgroundWorkers()
	return nil
}

// Collection returns a handle on a collection. Collections are created on
// first insert; reading a missing collection yields no documents.
func (se *StorageEngine) Collection(name string) domain.CollectionHandle {
	return &collectionHandle{engine: se, name: name}
}

// Ping reports whether the engine accepts calls
func (se *StorageEngine) Ping(ctx context.Context) error {
	return se.checkAvailable(ctx, "ping", "")
}

// Close stops background workers, writes a final snapshot and rejects all
// later calls. Closing twice is a no-op.
func (se *StorageEngine) Close(ctx context.Context) error {
	se.mu.Lock()
	if se.closed {
		se.mu.Unlock()
		return nil
	}
	se.closed = true
	se.mu.Unlock()

	se.StopBackgroundWorkers()

	if se.dataFile == "" {
		return nil
	}
	if err := se.SaveToFile(se.dataFile); err != nil {
		se.logger.Error("final snapshot failed", zap.String("file", se.dataFile), zap.Error(err))
		return domain.NewStoreError("close", "", err)
	}
	se.logger.Info("snapshot saved on close", zap.String("file", se.dataFile))
	return nil
}

// checkAvailable must be called without holding se.mu
func (se *StorageEngine) checkAvailable(ctx context.Context, op, coll string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewUnavailableError(op, coll, err)
	}
	se.mu.RLock()
	closed := se.closed
	se.mu.RUnlock()
	if closed {
		return domain.NewUnavailableError(op, coll, ErrEngineClosed)
	}
	return nil
}

// getOrCreateCollection requires the write lock
func (se *StorageEngine) getOrCreateCollection(name string) *collection {
	coll, exists := se.collections[name]
	if !exists {
		coll = newCollection(name)
		se.collections[name] = coll
		for _, field := range se.indexedFields {
			se.indexEngine.CreateIndex(name, field, coll.docs)
		}
	}
	return coll
}

// EnsureIndex maintains an equality index on a top-level field
func (se *StorageEngine) EnsureIndex(ctx context.Context, collName, field string) error {
	if err := se.checkAvailable(ctx, "createIndex", collName); err != nil {
		return err
	}
	if field == "" || strings.ContainsAny(field, ".$") {
		return domain.NewStoreError("createIndex", collName, errors.New("indexes are limited to top-level field names"))
	}

	se.mu.Lock()
	defer se.mu.Unlock()
	coll := se.getOrCreateCollection(collName)
	for _, existing := range se.indexEngine.GetIndexes(collName) {
		if existing == field {
			return nil
		}
	}
	se.indexEngine.CreateIndex(collName, field, coll.docs)
	se.logger.Info("index created", zap.String("collection", collName), zap.String("field", field))
	return nil
}

// Indexes lists the indexed fields of a collection
func (se *StorageEngine) Indexes(ctx context.Context, collName string) ([]string, error) {
	if err := se.checkAvailable(ctx, "listIndexes", collName); err != nil {
		return nil, err
	}
	return se.indexEngine.GetIndexes(collName), nil
}

// CollectionNames returns the names of all collections, sorted
func (se *StorageEngine) CollectionNames() []string {
	se.mu.RLock()
	defer se.mu.RUnlock()
	names := make([]string, 0, len(se.collections))
	for name := range se.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// snapshotDocs returns deep copies of a collection's documents in insertion
// order. Callers hold se.mu.
func (se *StorageEngine) snapshotDocs(name string, ids []string) []domain.Document {
	coll, exists := se.collections[name]
	if !exists {
		return []domain.Document{}
	}
	if ids == nil {
		ids = coll.order
	}
	out := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := coll.docs[id]; ok {
			out = append(out, doc.Clone())
		}
	}
	return out
}

// candidateIDs narrows a leading $match through indexes. It returns nil
// when the whole collection must be scanned.
func (se *StorageEngine) candidateIDs(name string, filter map[string]interface{}) []string {
	coll, exists := se.collections[name]
	if !exists {
		return nil
	}

	var sets []map[string]struct{}
	for field, cond := range filter {
		if strings.HasPrefix(field, "$") || strings.Contains(field, ".") {
			continue
		}
		if ids, ok := se.indexLookup(name, field, cond); ok {
			sets = append(sets, ids)
		}
	}
	if len(sets) == 0 {
		return nil
	}

	matched := IntersectIDSets(sets...)
	ids := make([]string, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return coll.seq[ids[i]] < coll.seq[ids[j]]
	})
	return ids
}

func (se *StorageEngine) indexLookup(name, field string, cond interface{}) (map[string]struct{}, bool) {
	ops, isOps := isOperatorDoc(cond)
	if !isOps {
		return se.indexEngine.Lookup(name, field, cond)
	}
	if eq, ok := ops["$eq"]; ok {
		return se.indexEngine.Lookup(name, field, eq)
	}
	if in, ok := ops["$in"]; ok {
		values, isArr := asArray(in)
		if !isArr {
			return nil, false
		}
		union := map[string]struct{}{}
		for _, v := range values {
			ids, ok := se.indexEngine.Lookup(name, field, v)
			if !ok {
				return nil, false
			}
			for id := range ids {
				union[id] = struct{}{}
			}
		}
		return union, true
	}
	return nil, false
}

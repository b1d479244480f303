package indexing

import (
	"sort"
	"sync"
	"time"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

var _ domain.IndexEngine = (*IndexEngine)(nil)

// IndexEngine implements domain.IndexEngine with per-field equality indexes
type IndexEngine struct {
	mu      sync.RWMutex
	indexes map[string]map[string]*Index // Collection name -> field name -> index
}

// NewIndexEngine creates a new index engine
func NewIndexEngine() *IndexEngine {
	return &IndexEngine{
		indexes: make(map[string]map[string]*Index),
	}
}

// Index stores a mapping from a field's value to document IDs. Array values
// are indexed once per element, so a lookup finds documents whose array
// contains the value.
type Index struct {
	Field    string
	Inverted map[interface{}]map[string]struct{}
}

// NewIndex creates an index on a specific field.
func NewIndex(field string) *Index {
	return &Index{
		Field:    field,
		Inverted: make(map[interface{}]map[string]struct{}),
	}
}

// timeKey is the comparable form of a time.Time
type timeKey int64

// Key normalises a value into a comparable index key. Numbers share one key
// space so 3 and 3.0 collide, matching the store's equality rules.
func Key(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return v, true
	case time.Time:
		return timeKey(v.UnixNano()), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return nil, false
}

func keysFor(doc domain.Document, field string) []interface{} {
	val, ok := doc[field]
	if !ok {
		return nil
	}
	if arr, ok := val.([]interface{}); ok {
		keys := make([]interface{}, 0, len(arr))
		for _, elem := range arr {
			if k, ok := Key(elem); ok {
				keys = append(keys, k)
			}
		}
		return keys
	}
	if k, ok := Key(val); ok {
		return []interface{}{k}
	}
	return nil
}

// BuildIndex indexes all documents by the index field.
func (idx *Index) BuildIndex(docs map[string]domain.Document) {
	for docID, doc := range docs {
		idx.add(docID, doc)
	}
}

// Query returns document IDs whose field equals or contains value
func (idx *Index) Query(value interface{}) map[string]struct{} {
	k, ok := Key(value)
	if !ok {
		return nil
	}
	return idx.Inverted[k]
}

// UpdateIndex updates index after an insert/update/delete operation.
func (idx *Index) UpdateIndex(docID string, oldDoc, newDoc domain.Document) {
	if oldDoc != nil {
		for _, k := range keysFor(oldDoc, idx.Field) {
			if ids, ok := idx.Inverted[k]; ok {
				delete(ids, docID)
				if len(ids) == 0 {
					delete(idx.Inverted, k)
				}
			}
		}
	}
	if newDoc != nil {
		idx.add(docID, newDoc)
	}
}

func (idx *Index) add(docID string, doc domain.Document) {
	for _, k := range keysFor(doc, idx.Field) {
		ids, ok := idx.Inverted[k]
		if !ok {
			ids = make(map[string]struct{})
			idx.Inverted[k] = ids
		}
		ids[docID] = struct{}{}
	}
}

// CreateIndex creates or rebuilds an index on a field of a collection
func (ie *IndexEngine) CreateIndex(collectionName, fieldName string, docs map[string]domain.Document) {
	ie.mu.Lock()
	defer ie.mu.Unlock()

	if ie.indexes[collectionName] == nil {
		ie.indexes[collectionName] = make(map[string]*Index)
	}
	index := NewIndex(fieldName)
	index.BuildIndex(docs)
	ie.indexes[collectionName][fieldName] = index
}

// DropCollection removes every index of a collection
func (ie *IndexEngine) DropCollection(collectionName string) {
	ie.mu.Lock()
	defer ie.mu.Unlock()
	delete(ie.indexes, collectionName)
}

// UpdateIndexes applies a document change to every index of the collection.
// oldDoc is nil for inserts and newDoc is nil for deletes.
func (ie *IndexEngine) UpdateIndexes(collectionName, docID string, oldDoc, newDoc domain.Document) {
	ie.mu.Lock()
	defer ie.mu.Unlock()
	for _, index := range ie.indexes[collectionName] {
		index.UpdateIndex(docID, oldDoc, newDoc)
	}
}

// Lookup returns the IDs of documents whose field equals or contains value.
// The boolean is false when no index can answer the lookup, in which case
// the caller must scan.
func (ie *IndexEngine) Lookup(collectionName, fieldName string, value interface{}) (map[string]struct{}, bool) {
	ie.mu.RLock()
	defer ie.mu.RUnlock()

	index, exists := ie.indexes[collectionName][fieldName]
	if !exists {
		return nil, false
	}
	if _, ok := Key(value); !ok {
		return nil, false
	}
	ids := index.Query(value)
	out := make(map[string]struct{}, len(ids))
	for id := range ids {
		out[id] = struct{}{}
	}
	return out, true
}

// GetIndexes returns the indexed field names of a collection, sorted
func (ie *IndexEngine) GetIndexes(collectionName string) []string {
	ie.mu.RLock()
	defer ie.mu.RUnlock()

	names := make([]string, 0, len(ie.indexes[collectionName]))
	for fieldName := range ie.indexes[collectionName] {
		names = append(names, fieldName)
	}
	sort.Strings(names)
	return names
}

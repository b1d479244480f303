package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// collectionHandle implements domain.CollectionHandle on the engine
type collectionHandle struct {
	engine *StorageEngine
	name   string
}

func (h *collectionHandle) Name() string {
	return h.name
}

// Aggregate runs a pipeline. A trailing $merge writes its input into the
// target collection under the engine write lock and yields no documents.
func (h *collectionHandle) Aggregate(ctx context.Context, p domain.Pipeline) ([]domain.Document, error) {
	const op = "aggregate"
	se := h.engine
	if err := se.checkAvailable(ctx, op, h.name); err != nil {
		return nil, err
	}

	stages := renderPipeline(p)
	var merge *rawStage
	if n := len(stages); n > 0 && stages[n-1].op == domain.OpMerge {
		merge = &stages[n-1]
		stages = stages[:n-1]
	}

	if merge != nil {
		se.mu.Lock()
		defer se.mu.Unlock()
	} else {
		se.mu.RLock()
		defer se.mu.RUnlock()
	}
	if se.closed {
		return nil, domain.NewUnavailableError(op, h.name, ErrEngineClosed)
	}

	docs, err := h.execute(stages)
	if err != nil {
		return nil, domain.NewStoreError(op, h.name, err)
	}
	if merge == nil {
		return docs, nil
	}

	written, err := se.mergeInto(h.name, merge.body, docs)
	if err != nil {
		return nil, domain.NewStoreError(op, h.name, err)
	}
	se.logger.Debug("merge applied",
		zap.String("collection", h.name),
		zap.Int("input", len(docs)),
		zap.Int("written", written))
	return []domain.Document{}, nil
}

// execute runs the read stages. Callers hold the engine lock.
func (h *collectionHandle) execute(stages []rawStage) ([]domain.Document, error) {
	se := h.engine

	var ids []string
	if len(stages) > 0 && stages[0].op == domain.OpMatch {
		if filter, ok := asMap(stages[0].body); ok {
			ids = se.candidateIDs(h.name, filter)
		}
	}
	docs := se.snapshotDocs(h.name, ids)

	read := func(name string) []domain.Document {
		return se.snapshotDocs(name, nil)
	}
	for _, st := range stages {
		var err error
		docs, err = runStage(st, docs, read)
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// mergeInto applies a $merge stage. Callers hold the write lock.
func (se *StorageEngine) mergeInto(source string, body interface{}, docs []domain.Document) (int, error) {
	spec, ok := asMap(body)
	if !ok {
		return 0, fmt.Errorf("$merge requires a document")
	}
	into, _ := spec["into"].(string)
	if into == "" {
		into = source
	}
	if on, ok := spec["on"]; ok && on != domain.FieldInternalID {
		return 0, fmt.Errorf("$merge only supports on: %q", domain.FieldInternalID)
	}
	whenMatched, _ := spec["whenMatched"].(string)
	if whenMatched == "" {
		whenMatched = "merge"
	}
	whenNotMatched, _ := spec["whenNotMatched"].(string)
	if whenNotMatched == "" {
		whenNotMatched = "insert"
	}
	switch whenMatched {
	case "replace", "keepExisting", "merge", "fail":
	default:
		return 0, fmt.Errorf("unsupported $merge whenMatched %q", whenMatched)
	}
	switch whenNotMatched {
	case "insert", "discard", "fail":
	default:
		return 0, fmt.Errorf("unsupported $merge whenNotMatched %q", whenNotMatched)
	}

	// Validate the whole batch before touching the target
	for _, doc := range docs {
		id, hasID := doc[domain.FieldInternalID]
		if !hasID {
			if whenNotMatched == "insert" {
				continue
			}
			return 0, fmt.Errorf("$merge input document has no %s", domain.FieldInternalID)
		}
		target := se.collections[into]
		_, matched := lookupByID(target, id)
		if matched && whenMatched == "fail" {
			return 0, fmt.Errorf("$merge found an existing document with %s %v", domain.FieldInternalID, id)
		}
		if !matched && whenNotMatched == "fail" {
			return 0, fmt.Errorf("$merge found no document with %s %v", domain.FieldInternalID, id)
		}
	}

	coll := se.getOrCreateCollection(into)
	written := 0
	for _, doc := range docs {
		doc = normalizeDocument(doc)
		id, hasID := doc[domain.FieldInternalID]
		if !hasID {
			id = coll.newID()
			doc[domain.FieldInternalID] = id
		}
		key := idKey(id)
		existing, matched := coll.docs[key]

		var next domain.Document
		switch {
		case matched && whenMatched == "replace":
			next = doc
		case matched && whenMatched == "merge":
			next = existing.Clone()
			for k, v := range doc {
				next[k] = v
			}
		case matched:
			continue
		case whenNotMatched == "insert":
			next = doc
			if s, ok := id.(string); ok {
				coll.observeID(s)
			}
		default:
			continue
		}

		coll.put(key, next)
		se.indexEngine.UpdateIndexes(into, key, existing, next)
		written++
	}
	if written > 0 {
		se.dirty.Store(true)
	}
	return written, nil
}

func idKey(id interface{}) string {
	return canonicalKey(id)
}

func lookupByID(coll *collection, id interface{}) (domain.Document, bool) {
	if coll == nil {
		return nil, false
	}
	doc, ok := coll.docs[idKey(id)]
	return doc, ok
}

// InsertOne stores a copy of doc, assigning an _id when it has none
func (h *collectionHandle) InsertOne(ctx context.Context, doc domain.Document) error {
	return h.insert(ctx, "insertOne", []domain.Document{doc})
}

// InsertMany stores copies of docs. The batch is rejected as a whole if any
// document collides on _id.
func (h *collectionHandle) InsertMany(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return domain.NewStoreError("insertMany", h.name, errors.New("no documents to insert"))
	}
	return h.insert(ctx, "insertMany", docs)
}

func (h *collectionHandle) insert(ctx context.Context, op string, docs []domain.Document) error {
	se := h.engine
	if err := se.checkAvailable(ctx, op, h.name); err != nil {
		return err
	}

	se.mu.Lock()
	defer se.mu.Unlock()
	if se.closed {
		return domain.NewUnavailableError(op, h.name, ErrEngineClosed)
	}

	existing := se.collections[h.name]
	seen := make(map[string]bool, len(docs))
	prepared := make([]domain.Document, len(docs))
	for i, doc := range docs {
		if doc == nil {
			return domain.NewStoreError(op, h.name, fmt.Errorf("document %d is nil", i))
		}
		prepared[i] = normalizeDocument(doc)
		id, hasID := prepared[i][domain.FieldInternalID]
		if !hasID {
			continue
		}
		key := idKey(id)
		if _, dup := lookupByID(existing, id); dup || seen[key] {
			return domain.NewStoreError(op, h.name, fmt.Errorf("duplicate key: %s %v", domain.FieldInternalID, id))
		}
		seen[key] = true
	}

	coll := se.getOrCreateCollection(h.name)
	for _, doc := range prepared {
		id, hasID := doc[domain.FieldInternalID]
		if !hasID {
			id = coll.newID()
			doc[domain.FieldInternalID] = id
		} else if s, ok := id.(string); ok {
			coll.observeID(s)
		}
		key := idKey(id)
		coll.put(key, doc)
		se.indexEngine.UpdateIndexes(h.name, key, nil, doc)
	}
	se.dirty.Store(true)
	return nil
}

// DeleteOne removes the first document matching filter
func (h *collectionHandle) DeleteOne(ctx context.Context, filter domain.Attributes) (int64, error) {
	return h.delete(ctx, "deleteOne", filter, 1)
}

// DeleteMany removes every document matching filter. An empty filter
// matches all documents.
func (h *collectionHandle) DeleteMany(ctx context.Context, filter domain.Attributes) (int64, error) {
	return h.delete(ctx, "deleteMany", filter, 0)
}

func (h *collectionHandle) delete(ctx context.Context, op string, filter domain.Attributes, max int) (int64, error) {
	se := h.engine
	if err := se.checkAvailable(ctx, op, h.name); err != nil {
		return 0, err
	}

	se.mu.Lock()
	defer se.mu.Unlock()
	if se.closed {
		return 0, domain.NewUnavailableError(op, h.name, ErrEngineClosed)
	}

	coll, exists := se.collections[h.name]
	if !exists {
		return 0, nil
	}

	ids := se.candidateIDs(h.name, filter)
	if ids == nil {
		ids = append([]string(nil), coll.order...)
	}

	var victims []string
	for _, id := range ids {
		matched, err := MatchesFilter(coll.docs[id], filter)
		if err != nil {
			return 0, domain.NewStoreError(op, h.name, err)
		}
		if matched {
			victims = append(victims, id)
			if max > 0 && len(victims) == max {
				break
			}
		}
	}

	for _, id := range victims {
		se.indexEngine.UpdateIndexes(h.name, id, coll.docs[id], nil)
		coll.remove(id)
	}
	if len(victims) > 0 {
		se.dirty.Store(true)
	}
	return int64(len(victims)), nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docpipe/pkg/accessor"
	"github.com/adfharrison1/go-docpipe/pkg/storage"
)

type testServer struct {
	engine  *storage.StorageEngine
	handler *Handler
	router  *mux.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	engine := storage.NewStorageEngine()
	handler := NewHandler(accessor.New(engine), engine, nil)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return &testServer{engine: engine, handler: handler, router: router}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, actor string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) create(t *testing.T, coll string, item map[string]interface{}) string {
	t.Helper()
	w := s.do(t, "POST", "/collections/"+coll+"/items", item, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeMap(t, w)["pid"].(string)
}

func TestHandler_HandleCreate(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		actor          string
		expectedStatus int
	}{
		{
			name:           "valid item",
			body:           map[string]interface{}{"name": "Alice", "age": 30},
			actor:          "admin",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "item with internal id",
			body:           map[string]interface{}{"_id": "123", "name": "Bob"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			body:           "{not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, "POST", "/collections/users/items", tt.body, tt.actor)
			assert.Equal(t, tt.expectedStatus, w.Code)

			body := decodeMap(t, w)
			if tt.expectedStatus == http.StatusCreated {
				assert.NotEmpty(t, body["pid"])
				assert.Equal(t, "Alice", body["name"])
				assert.Equal(t, tt.actor, body["created_by"])
				assert.Equal(t, body["created_at"], body["updated_at"])
				assert.NotContains(t, body, "_id")
			} else {
				assert.EqualValues(t, tt.expectedStatus, body["code"])
				assert.Equal(t, http.StatusText(tt.expectedStatus), body["error"])
			}
		})
	}
}

func TestHandler_HandleGetByPID(t *testing.T) {
	s := newTestServer(t)
	pid := s.create(t, "users", map[string]interface{}{"name": "Alice", "age": 30})

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedKeys   []string
	}{
		{"pid only by default", "/collections/users/items/" + pid, http.StatusOK, []string{"pid"}},
		{"empty fields means all", "/collections/users/items/" + pid + "?fields=", http.StatusOK, []string{"pid", "name", "age", "created_at", "updated_at"}},
		{"field subset", "/collections/users/items/" + pid + "?fields=name", http.StatusOK, []string{"pid", "name"}},
		{"internal id rejected", "/collections/users/items/" + pid + "?fields=_id", http.StatusBadRequest, nil},
		{"unknown pid", "/collections/users/items/missing", http.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, "GET", tt.path, nil, "")
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedKeys != nil {
				body := decodeMap(t, w)
				keys := make([]string, 0, len(body))
				for k := range body {
					keys = append(keys, k)
				}
				assert.ElementsMatch(t, tt.expectedKeys, keys)
			}
		})
	}
}

func TestHandler_HandleUpdateByPID(t *testing.T) {
	s := newTestServer(t)
	pid := s.create(t, "users", map[string]interface{}{"name": "Alice", "age": 30})

	tests := []struct {
		name           string
		pid            string
		updates        map[string]interface{}
		expectedStatus int
	}{
		{"valid update", pid, map[string]interface{}{"age": 31, "city": "Boston"}, http.StatusOK},
		{"managed field", pid, map[string]interface{}{"pid": "other"}, http.StatusBadRequest},
		{"internal id", pid, map[string]interface{}{"_id": "999"}, http.StatusBadRequest},
		{"unknown item", "missing", map[string]interface{}{"age": 31}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, "PATCH", "/collections/users/items/"+tt.pid, tt.updates, "editor")
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				body := decodeMap(t, w)
				assert.Equal(t, pid, body["pid"])
				assert.EqualValues(t, 31, body["age"])
				assert.Equal(t, "Boston", body["city"])
				assert.Equal(t, "Alice", body["name"])
				assert.Equal(t, "editor", body["updated_by"])
			}
		})
	}
}

func TestHandler_HandleDeleteByPID(t *testing.T) {
	s := newTestServer(t)
	pid := s.create(t, "users", map[string]interface{}{"name": "Alice"})

	w := s.do(t, "DELETE", "/collections/users/items/"+pid, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, "DELETE", "/collections/users/items/"+pid, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_HandleQuery(t *testing.T) {
	s := newTestServer(t)
	items := make([]map[string]interface{}, 23)
	for i := range items {
		items[i] = map[string]interface{}{"name": fmt.Sprintf("user%02d", i), "team": []string{"red", "blue"}[i%2]}
	}
	w := s.do(t, "POST", "/collections/users/items/batch", map[string]interface{}{"items": items}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("paged with stats", func(t *testing.T) {
		w := s.do(t, "POST", "/collections/users/query?fields=name", map[string]interface{}{
			"sort":  []map[string]interface{}{{"field": "name", "order": 1}},
			"skip":  20,
			"limit": 10,
			"stats": true,
		}, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeMap(t, w)
		assert.Len(t, body["items"], 3)
		assert.Equal(t, map[string]interface{}{
			"itemsCount":         float64(23),
			"pagesCount":         float64(3),
			"firstIndexReturned": float64(20),
			"lastIndexReturned":  float64(22),
			"itemsReturned":      float64(3),
		}, body["stats"])
	})

	t.Run("attributes without stats", func(t *testing.T) {
		w := s.do(t, "POST", "/collections/users/query", map[string]interface{}{
			"attributes": map[string]interface{}{"team": "red"},
		}, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeMap(t, w)
		assert.Len(t, body["items"], 12)
		assert.NotContains(t, body, "stats")
	})

	t.Run("raw stages", func(t *testing.T) {
		w := s.do(t, "POST", "/collections/users/query", map[string]interface{}{
			"stages": []map[string]interface{}{
				{"$group": map[string]interface{}{"_id": "$team", "n": map[string]interface{}{"$sum": 1}}},
			},
			"sort": []map[string]interface{}{{"field": "_id", "order": 1}},
		}, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeMap(t, w)
		assert.Equal(t, []interface{}{
			map[string]interface{}{"_id": "blue", "n": float64(11)},
			map[string]interface{}{"_id": "red", "n": float64(12)},
		}, body["items"])
	})

	t.Run("empty collection", func(t *testing.T) {
		w := s.do(t, "POST", "/collections/nothing/query", map[string]interface{}{}, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []interface{}{}, decodeMap(t, w)["items"])
	})

	for name, body := range map[string]interface{}{
		"negative skip":    map[string]interface{}{"skip": -1},
		"bad sort order":   map[string]interface{}{"sort": []map[string]interface{}{{"field": "name", "order": 0}}},
		"merge stage":      map[string]interface{}{"stages": []map[string]interface{}{{"$merge": map[string]interface{}{"into": "x"}}}},
		"multi-key stage":  map[string]interface{}{"stages": []map[string]interface{}{{"$match": map[string]interface{}{}, "$limit": 1}}},
		"bad fields value": map[string]interface{}{"fields": 5},
	} {
		t.Run(name, func(t *testing.T) {
			w := s.do(t, "POST", "/collections/users/query", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandler_First(t *testing.T) {
	s := newTestServer(t)
	first := s.create(t, "users", map[string]interface{}{"name": "Alice", "role": "admin"})
	s.create(t, "users", map[string]interface{}{"name": "Bob", "role": "admin"})

	w := s.do(t, "POST", "/collections/users/first", map[string]interface{}{
		"attributes": map[string]interface{}{"role": "admin"},
		"fields":     []string{"name"},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"pid": first, "name": "Alice"}, decodeMap(t, w))

	w = s.do(t, "PATCH", "/collections/users/first", map[string]interface{}{
		"attributes": map[string]interface{}{"role": "admin"},
		"updates":    map[string]interface{}{"role": "owner"},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeMap(t, w)
	assert.Equal(t, first, body["pid"])
	assert.Equal(t, "owner", body["role"])

	w = s.do(t, "DELETE", "/collections/users/first", map[string]interface{}{
		"attributes": map[string]interface{}{"role": "owner"},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeMap(t, w)["deleted_count"])

	for _, method := range []string{"POST", "PATCH", "DELETE"} {
		w = s.do(t, method, "/collections/users/first", map[string]interface{}{
			"attributes": map[string]interface{}{"role": "owner"},
			"updates":    map[string]interface{}{"x": 1},
		}, "")
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
}

func TestHandler_Batch(t *testing.T) {
	s := newTestServer(t)
	var pids []string
	for i := 0; i < 4; i++ {
		pids = append(pids, s.create(t, "users", map[string]interface{}{"n": i, "active": true}))
	}

	w := s.do(t, "PATCH", "/collections/users/batch", map[string]interface{}{
		"pids":    []string{pids[0], pids[2], "missing"},
		"updates": map[string]interface{}{"active": false},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeMap(t, w)["updated_count"])

	w = s.do(t, "PATCH", "/collections/users/batch", map[string]interface{}{
		"attributes": map[string]interface{}{"active": true},
		"updates":    map[string]interface{}{"checked": true},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeMap(t, w)["updated_count"])

	w = s.do(t, "DELETE", "/collections/users/batch", map[string]interface{}{
		"attributes": map[string]interface{}{"active": false},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeMap(t, w)["deleted_count"])

	w = s.do(t, "DELETE", "/collections/users/batch", map[string]interface{}{
		"pids": []string{pids[0], pids[1], pids[3]},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeMap(t, w)["deleted_count"])

	for name, body := range map[string]interface{}{
		"neither":        map[string]interface{}{"updates": map[string]interface{}{"a": 1}},
		"both":           map[string]interface{}{"pids": []string{"a"}, "attributes": map[string]interface{}{}},
		"duplicate pids": map[string]interface{}{"pids": []string{"a", "a"}},
	} {
		t.Run(name, func(t *testing.T) {
			w := s.do(t, "DELETE", "/collections/users/batch", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w = s.do(t, "POST", "/collections/users/items/batch", map[string]interface{}{"items": []interface{}{}}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Arrays(t *testing.T) {
	s := newTestServer(t)
	pid := s.create(t, "users", map[string]interface{}{"name": "Alice"})
	s.create(t, "users", map[string]interface{}{"name": "Bob", "tags": []string{"x"}})

	w := s.do(t, "POST", "/collections/users/items/"+pid+"/arrays/tags", map[string]interface{}{"element": "x"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"x"}, decodeMap(t, w)["tags"])

	w = s.do(t, "POST", "/collections/users/items/"+pid+"/arrays/tags", map[string]interface{}{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "POST", "/collections/users/items/missing/arrays/tags", map[string]interface{}{"element": "x"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, "DELETE", "/collections/users/arrays/tags", map[string]interface{}{
		"attributes": map[string]interface{}{"tags": "x"},
		"element":    "x",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeMap(t, w)
	assert.EqualValues(t, 2, body["updated_count"])
	for _, doc := range body["documents"].([]interface{}) {
		assert.Equal(t, []interface{}{}, doc.(map[string]interface{})["tags"])
	}

	w = s.do(t, "POST", "/collections/users/arrays/tags", map[string]interface{}{
		"attributes": map[string]interface{}{"name": "Bob"},
		"element":    map[string]interface{}{"k": 1},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	docs := decodeMap(t, w)["documents"].([]interface{})
	require.Len(t, docs, 1)
	assert.Equal(t, []interface{}{map[string]interface{}{"k": float64(1)}}, docs[0].(map[string]interface{})["tags"])

	w = s.do(t, "DELETE", "/collections/users/items/"+pid+"/arrays/pid", map[string]interface{}{"element": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Indexes(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "users", map[string]interface{}{"email": "a@example.com"})

	w := s.do(t, "POST", "/collections/users/indexes/email", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, "POST", "/collections/users/indexes/_id", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "GET", "/collections/users/indexes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeMap(t, w)
	assert.Equal(t, []interface{}{"email", "pid"}, body["indexes"])
	assert.EqualValues(t, 2, body["index_count"])

	noIndexes := NewHandler(accessor.New(storage.NewStorageEngine()), nil, nil)
	router := mux.NewRouter()
	noIndexes.RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/collections/users/indexes", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandler_Health(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeMap(t, w)["status"])

	require.NoError(t, s.engine.Close(context.Background()))
	w = s.do(t, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decodeMap(t, w)["status"])
}

func TestHandler_StoreUnavailable(t *testing.T) {
	s := newTestServer(t)
	pid := s.create(t, "users", map[string]interface{}{"name": "Alice"})
	require.NoError(t, s.engine.Close(context.Background()))

	w := s.do(t, "GET", "/collections/users/items/"+pid, nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.EqualValues(t, http.StatusServiceUnavailable, decodeMap(t, w)["code"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("boom")))
}

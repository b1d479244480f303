package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

func TestComputePageStats(t *testing.T) {
	tests := []struct {
		name                         string
		total, skip, limit, returned int64
		expected                     domain.PageStats
	}{
		{
			name: "middle page", total: 23, skip: 10, limit: 10, returned: 10,
			expected: domain.PageStats{ItemsCount: 23, PagesCount: 3, FirstIndexReturned: 10, LastIndexReturned: 19, ItemsReturned: 10},
		},
		{
			name: "last partial page", total: 23, skip: 20, limit: 10, returned: 3,
			expected: domain.PageStats{ItemsCount: 23, PagesCount: 3, FirstIndexReturned: 20, LastIndexReturned: 22, ItemsReturned: 3},
		},
		{
			name: "unbounded", total: 7, skip: 0, limit: 0, returned: 7,
			expected: domain.PageStats{ItemsCount: 7, PagesCount: 1, FirstIndexReturned: 0, LastIndexReturned: 6, ItemsReturned: 7},
		},
		{
			name: "skip past the end", total: 5, skip: 10, limit: 5, returned: 0,
			expected: domain.PageStats{ItemsCount: 5, PagesCount: 1, FirstIndexReturned: 10, LastIndexReturned: 10, ItemsReturned: 0},
		},
		{
			name: "empty collection with limit", total: 0, skip: 0, limit: 10, returned: 0,
			expected: domain.PageStats{ItemsCount: 0, PagesCount: 0, FirstIndexReturned: 0, LastIndexReturned: 0, ItemsReturned: 0},
		},
		{
			name: "negative inputs clamp", total: -1, skip: -3, limit: -2, returned: -4,
			expected: domain.PageStats{PagesCount: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.ComputePageStats(tt.total, tt.skip, tt.limit, tt.returned))
		})
	}
}

func TestPageStatsJSONNames(t *testing.T) {
	data, err := json.Marshal(domain.ComputePageStats(23, 10, 10, 10))
	require.NoError(t, err)
	assert.JSONEq(t, `{"itemsCount":23,"pagesCount":3,"firstIndexReturned":10,"lastIndexReturned":19,"itemsReturned":10}`, string(data))
}

func TestFieldSelectorJSON(t *testing.T) {
	tests := []struct {
		input string
		kind  domain.SelectorKind
		names []string
	}{
		{`null`, domain.SelectUnspecified, nil},
		{`[]`, domain.SelectAll, nil},
		{`["name","age"]`, domain.SelectSubset, []string{"name", "age"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var sel domain.FieldSelector
			require.NoError(t, json.Unmarshal([]byte(tt.input), &sel))
			assert.Equal(t, tt.kind, sel.Kind())
			assert.Equal(t, tt.names, sel.Names())

			out, err := json.Marshal(sel)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(out))
		})
	}

	var sel domain.FieldSelector
	err := json.Unmarshal([]byte(`"name"`), &sel)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestFieldSelectorAbsentMember(t *testing.T) {
	var req struct {
		Fields domain.FieldSelector `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.Equal(t, domain.SelectUnspecified, req.Fields.Kind())
}

func TestStoreErrorClassification(t *testing.T) {
	cause := errors.New("connection reset")

	failure := domain.NewStoreError("aggregate", "users", cause)
	assert.True(t, errors.Is(failure, domain.ErrStoreFailure))
	assert.False(t, errors.Is(failure, domain.ErrStoreUnavailable))
	assert.True(t, errors.Is(failure, cause))
	assert.Equal(t, "aggregate users: store operation failed: connection reset", failure.Error())

	unavailable := domain.NewUnavailableError("ping", "", cause)
	wrapped := fmt.Errorf("seeding: %w", unavailable)
	assert.True(t, errors.Is(wrapped, domain.ErrStoreFailure))
	assert.True(t, errors.Is(wrapped, domain.ErrStoreUnavailable))
	assert.Equal(t, "ping: store unavailable: connection reset", unavailable.Error())

	var storeErr *domain.StoreError
	require.True(t, errors.As(wrapped, &storeErr))
	assert.Equal(t, "ping", storeErr.Op)
}

func TestCloneIsDeep(t *testing.T) {
	doc := domain.Document{
		"tags":    []interface{}{"a", "b"},
		"address": map[string]interface{}{"city": "Paris"},
		"names":   []string{"x"},
	}
	clone := doc.Clone()

	clone["tags"].([]interface{})[0] = "z"
	clone["address"].(map[string]interface{})["city"] = "Lyon"
	clone["names"].([]string)[0] = "y"

	assert.Equal(t, "a", doc["tags"].([]interface{})[0])
	assert.Equal(t, "Paris", doc["address"].(map[string]interface{})["city"])
	assert.Equal(t, "x", doc["names"].([]string)[0])
}

func TestSortSpecThenDoesNotAlias(t *testing.T) {
	base := make(domain.SortSpec, 1, 4)
	base[0] = domain.SortKey{Field: "a", Order: domain.Ascending}

	left := base.Then("b", domain.Descending)
	right := base.Then("c", domain.Ascending)

	assert.Equal(t, "b", left[1].Field)
	assert.Equal(t, "c", right[1].Field)
}

func TestAsInt64(t *testing.T) {
	for _, v := range []interface{}{int(4), int32(4), int64(4), float64(4)} {
		n, ok := domain.AsInt64(v)
		assert.True(t, ok)
		assert.Equal(t, int64(4), n)
	}
	_, ok := domain.AsInt64("4")
	assert.False(t, ok)
}

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

func TestMatchesFilter(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	doc := domain.Document{
		"name":     "Alice",
		"age":      30,
		"score":    4.5,
		"active":   true,
		"tags":     []interface{}{"go", "db"},
		"address":  domain.Document{"city": "Paris", "zip": "75001"},
		"members":  []interface{}{domain.Document{"name": "Bob", "role": "dev"}, domain.Document{"name": "Eve", "role": "ops"}},
		"deadline": deadline,
		"nothing":  nil,
	}

	tests := []struct {
		name     string
		filter   domain.Attributes
		expected bool
	}{
		{"empty filter", domain.Attributes{}, true},
		{"exact string", domain.Attributes{"name": "Alice"}, true},
		{"string is case sensitive", domain.Attributes{"name": "alice"}, false},
		{"numbers across types", domain.Attributes{"age": 30.0}, true},
		{"number is not a string", domain.Attributes{"age": "30"}, false},
		{"array contains", domain.Attributes{"tags": "go"}, true},
		{"array equality", domain.Attributes{"tags": []interface{}{"go", "db"}}, true},
		{"array order matters", domain.Attributes{"tags": []interface{}{"db", "go"}}, false},
		{"nested document path", domain.Attributes{"address.city": "Paris"}, true},
		{"path through array of documents", domain.Attributes{"members.role": "ops"}, true},
		{"array index path", domain.Attributes{"members.0.name": "Bob"}, true},
		{"missing field", domain.Attributes{"missing": "x"}, false},
		{"null matches missing", domain.Attributes{"missing": nil}, true},
		{"null matches null", domain.Attributes{"nothing": nil}, true},
		{"gt", domain.Attributes{"age": domain.Document{"$gt": 25}}, true},
		{"gte lte range", domain.Attributes{"age": domain.Document{"$gte": 30, "$lte": 30}}, true},
		{"lt fails", domain.Attributes{"score": domain.Document{"$lt": 4}}, false},
		{"gt ignores other types", domain.Attributes{"name": domain.Document{"$gt": 1}}, false},
		{"time range", domain.Attributes{"deadline": domain.Document{"$gte": deadline.Add(-time.Hour)}}, true},
		{"ne", domain.Attributes{"name": domain.Document{"$ne": "Bob"}}, true},
		{"ne on array element", domain.Attributes{"tags": domain.Document{"$ne": "go"}}, false},
		{"in", domain.Attributes{"name": domain.Document{"$in": []interface{}{"Bob", "Alice"}}}, true},
		{"in on array", domain.Attributes{"tags": domain.Document{"$in": []interface{}{"db"}}}, true},
		{"nin", domain.Attributes{"name": domain.Document{"$nin": []interface{}{"Alice"}}}, false},
		{"all", domain.Attributes{"tags": domain.Document{"$all": []interface{}{"db", "go"}}}, true},
		{"all missing element", domain.Attributes{"tags": domain.Document{"$all": []interface{}{"db", "rust"}}}, false},
		{"exists true", domain.Attributes{"address": domain.Document{"$exists": true}}, true},
		{"exists false", domain.Attributes{"missing": domain.Document{"$exists": false}}, true},
		{"exists on null", domain.Attributes{"nothing": domain.Document{"$exists": true}}, true},
		{"regex", domain.Attributes{"name": domain.Document{"$regex": "^al", "$options": "i"}}, true},
		{"regex on array", domain.Attributes{"tags": domain.Document{"$regex": "^d"}}, true},
		{"size", domain.Attributes{"tags": domain.Document{"$size": 2}}, true},
		{"elemMatch document", domain.Attributes{"members": domain.Document{"$elemMatch": domain.Document{"name": "Eve", "role": "ops"}}}, true},
		{"elemMatch crosses elements", domain.Attributes{"members": domain.Document{"$elemMatch": domain.Document{"name": "Bob", "role": "ops"}}}, false},
		{"not", domain.Attributes{"age": domain.Document{"$not": domain.Document{"$gt": 40}}}, true},
		{"and", domain.Attributes{"$and": []interface{}{domain.Document{"age": 30}, domain.Document{"active": true}}}, true},
		{"or", domain.Attributes{"$or": []interface{}{domain.Document{"age": 1}, domain.Document{"name": "Alice"}}}, true},
		{"nor", domain.Attributes{"$nor": []interface{}{domain.Document{"age": 30}}}, false},
		{"nested document equality", domain.Attributes{"address": domain.Document{"zip": "75001", "city": "Paris"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, err := MatchesFilter(doc, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, matched)
		})
	}
}

func TestMatchesFilterErrors(t *testing.T) {
	doc := domain.Document{"age": 30}
	filters := []domain.Attributes{
		{"$where": "1"},
		{"age": domain.Document{"$unknown": 1}},
		{"age": domain.Document{"$in": 5}},
		{"age": domain.Document{"$regex": "("}},
		{"$or": []interface{}{}},
		{"age": domain.Document{"$not": 5}},
	}
	for _, filter := range filters {
		_, err := MatchesFilter(doc, filter)
		assert.Error(t, err, "%v", filter)
	}
}

func TestValuesMatch(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, ValuesMatch(nil, nil))
	assert.False(t, ValuesMatch(nil, 0))
	assert.True(t, ValuesMatch(int32(5), 5.0))
	assert.True(t, ValuesMatch(uint8(5), int64(5)))
	assert.True(t, ValuesMatch(at, at.In(time.FixedZone("X", 3600))))
	assert.True(t, ValuesMatch(map[string]interface{}{"a": 1}, domain.Document{"a": 1.0}))
	assert.True(t, ValuesMatch([]string{"a"}, []interface{}{"a"}))
	assert.False(t, ValuesMatch("Go", "go"))
}

func TestCompareValuesTypeOrder(t *testing.T) {
	ordered := []interface{}{
		nil,
		-1,
		2.5,
		"a",
		"b",
		domain.Document{"a": 1},
		[]interface{}{1},
		false,
		true,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Equal(t, -1, compareValues(ordered[i], ordered[i+1]), "%v < %v", ordered[i], ordered[i+1])
		assert.Equal(t, 1, compareValues(ordered[i+1], ordered[i]))
	}
	assert.Equal(t, 0, compareValues(3, 3.0))
}

func TestPathHelpers(t *testing.T) {
	doc := domain.Document{"a": domain.Document{"b": 1}}

	setPath(doc, "a.c.d", "x")
	assert.Equal(t, "x", fieldValue(doc, "a.c.d"))

	setPath(doc, "ignored", missing)
	assert.NotContains(t, doc, "ignored")

	unsetPath(doc, "a.b")
	assert.True(t, isMissing(fieldValue(doc, "a.b")))

	unsetPath(doc, "no.such.path")
	assert.Equal(t, domain.Document{"a": domain.Document{"c": domain.Document{"d": "x"}}}, doc)
}

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, canonicalKey(3), canonicalKey(3.0))
	assert.Equal(t, canonicalKey(domain.Document{"a": 1, "b": 2}), canonicalKey(map[string]interface{}{"b": 2, "a": 1}))
	assert.NotEqual(t, canonicalKey("3"), canonicalKey(3))
	assert.Equal(t, canonicalKey(nil), canonicalKey(missing))
}

func TestIntersectIDSets(t *testing.T) {
	a := map[string]struct{}{"1": {}, "2": {}, "3": {}}
	b := map[string]struct{}{"2": {}, "3": {}, "4": {}}
	assert.Equal(t, map[string]struct{}{"2": {}, "3": {}}, IntersectIDSets(a, b))
	assert.Nil(t, IntersectIDSets())
}

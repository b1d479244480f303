package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

func moviesEngine(t *testing.T) *StorageEngine {
	t.Helper()
	engine := NewStorageEngine()
	ctx := context.Background()
	require.NoError(t, engine.Collection("movies").InsertMany(ctx, []domain.Document{
		{"_id": "m1", "title": "Alpha", "year": 1999, "genres": []interface{}{"Drama", "Comedy"}, "runtime": 120, "imdb": domain.Document{"rating": 7.5, "votes": 1000}},
		{"_id": "m2", "title": "Beta", "year": 2005, "genres": []interface{}{"Comedy"}, "runtime": 95, "imdb": domain.Document{"rating": 6.0, "votes": 5000}},
		{"_id": "m3", "title": "Gamma", "year": 2005, "genres": []interface{}{"Drama"}, "runtime": 150, "imdb": domain.Document{"rating": 8.5, "votes": 300}},
	}))
	require.NoError(t, engine.Collection("comments").InsertMany(ctx, []domain.Document{
		{"movie_id": "m1", "name": "ann", "text": "great"},
		{"movie_id": "m1", "name": "bob", "text": "meh"},
		{"movie_id": "m3", "name": "ann", "text": "wow"},
	}))
	return engine
}

func aggregate(t *testing.T, engine *StorageEngine, coll string, stages ...domain.Stage) []domain.Document {
	t.Helper()
	docs, err := engine.Collection(coll).Aggregate(context.Background(), domain.Pipeline(stages))
	require.NoError(t, err)
	return docs
}

func TestSortSkipLimit(t *testing.T) {
	engine := moviesEngine(t)

	docs := aggregate(t, engine, "movies",
		domain.SortStage{Keys: domain.SortBy("year", domain.Descending).Then("title", domain.Ascending)},
		domain.SkipStage{Count: 1},
		domain.LimitStage{Count: 1},
	)
	require.Len(t, docs, 1)
	assert.Equal(t, "Gamma", docs[0]["title"])

	docs = aggregate(t, engine, "movies", domain.Custom(domain.OpSort, domain.Document{"imdb.rating": -1}))
	assert.Equal(t, "Gamma", docs[0]["title"])
	assert.Equal(t, "Beta", docs[2]["title"])

	docs = aggregate(t, engine, "movies", domain.SkipStage{Count: 10})
	assert.Empty(t, docs)
}

func TestLimitMustBePositive(t *testing.T) {
	engine := moviesEngine(t)
	_, err := engine.Collection("movies").Aggregate(context.Background(), domain.Pipeline{domain.LimitStage{Count: 0}})
	assert.Error(t, err)
}

func TestProjectModes(t *testing.T) {
	engine := moviesEngine(t)
	match := domain.MatchStage{Filter: domain.Attributes{"_id": "m2"}}

	docs := aggregate(t, engine, "movies", match, domain.ProjectStage{Spec: domain.ProjectionSpec{Fields: []string{"title", "imdb.rating"}}})
	require.Len(t, docs, 1)
	assert.Equal(t, domain.Document{"title": "Beta", "imdb": domain.Document{"rating": 6.0}}, docs[0])

	docs = aggregate(t, engine, "movies", match, domain.ProjectStage{Spec: domain.ProjectionSpec{IncludeAll: true}})
	assert.NotContains(t, docs[0], "_id")
	assert.Equal(t, 95, docs[0]["runtime"])

	docs = aggregate(t, engine, "movies", match, domain.Custom(domain.OpProject, domain.Document{
		"title":      1,
		"genreCount": domain.Document{"$size": "$genres"},
	}))
	assert.Equal(t, domain.Document{"_id": "m2", "title": "Beta", "genreCount": int64(1)}, docs[0])

	_, err := engine.Collection("movies").Aggregate(context.Background(), domain.Pipeline{
		domain.Custom(domain.OpProject, domain.Document{"title": 1, "year": 0}),
	})
	assert.Error(t, err)
}

func TestCountStage(t *testing.T) {
	engine := moviesEngine(t)

	docs := aggregate(t, engine, "movies", domain.MatchStage{Filter: domain.Attributes{"year": 2005}}, domain.CountStage{Field: "total"})
	assert.Equal(t, []domain.Document{{"total": int64(2)}}, docs)

	docs = aggregate(t, engine, "movies", domain.MatchStage{Filter: domain.Attributes{"year": 1800}}, domain.CountStage{Field: "total"})
	assert.Empty(t, docs)
}

func TestGroupStage(t *testing.T) {
	engine := moviesEngine(t)

	docs := aggregate(t, engine, "movies",
		domain.Custom(domain.OpUnwind, "$genres"),
		domain.Custom(domain.OpGroup, domain.Document{
			"_id":       "$genres",
			"count":     domain.Document{"$sum": 1},
			"avgRating": domain.Document{"$avg": "$imdb.rating"},
			"maxRun":    domain.Document{"$max": "$runtime"},
			"titles":    domain.Document{"$push": "$title"},
			"years":     domain.Document{"$addToSet": "$year"},
		}),
	)
	require.Len(t, docs, 2)
	assert.Equal(t, "Drama", docs[0]["_id"], "groups keep first-appearance order")
	assert.Equal(t, int64(2), docs[0]["count"])
	assert.InDelta(t, 8.0, docs[0]["avgRating"], 1e-9)
	assert.Equal(t, 150, docs[0]["maxRun"])
	assert.Equal(t, []interface{}{"Alpha", "Gamma"}, docs[0]["titles"])
	assert.Equal(t, []interface{}{1999, 2005}, docs[0]["years"])

	assert.Equal(t, "Comedy", docs[1]["_id"])
	assert.Equal(t, int64(2), docs[1]["count"])
	assert.Equal(t, []interface{}{1999, 2005}, docs[1]["years"])
}

func TestGroupWholeCollection(t *testing.T) {
	engine := moviesEngine(t)
	docs := aggregate(t, engine, "movies", domain.Custom(domain.OpGroup, domain.Document{
		"_id":   nil,
		"total": domain.Document{"$sum": "$runtime"},
		"n":     domain.Document{"$count": domain.Document{}},
	}))
	assert.Equal(t, []domain.Document{{"_id": nil, "total": int64(365), "n": int64(3)}}, docs)
}

func TestUnwindPreserve(t *testing.T) {
	engine := NewStorageEngine()
	require.NoError(t, engine.Collection("c").InsertMany(context.Background(), []domain.Document{
		{"_id": "a", "xs": []interface{}{1, 2}},
		{"_id": "b", "xs": []interface{}{}},
		{"_id": "c"},
	}))

	docs := aggregate(t, engine, "c", domain.Custom(domain.OpUnwind, "$xs"))
	assert.Len(t, docs, 2)

	docs = aggregate(t, engine, "c", domain.Custom(domain.OpUnwind, domain.Document{"path": "$xs", "preserveNullAndEmptyArrays": true}))
	assert.Len(t, docs, 4)
}

func TestLookupStage(t *testing.T) {
	engine := moviesEngine(t)

	docs := aggregate(t, engine, "movies",
		domain.Custom(domain.OpLookup, domain.Document{
			"from":         "comments",
			"localField":   "_id",
			"foreignField": "movie_id",
			"as":           "comments",
		}),
		domain.Custom(domain.OpProject, domain.Document{
			"title": 1,
			"n":     domain.Document{"$size": "$comments"},
		}),
	)
	require.Len(t, docs, 3)
	assert.Equal(t, int64(2), docs[0]["n"])
	assert.Equal(t, int64(0), docs[1]["n"])
	assert.Equal(t, int64(1), docs[2]["n"])
}

func TestAddFieldsArrayExpressions(t *testing.T) {
	engine := moviesEngine(t)

	docs := aggregate(t, engine, "movies",
		domain.MatchStage{Filter: domain.Attributes{"_id": "m1"}},
		domain.AddFieldsStage{Fields: []domain.DerivedField{
			{Name: "genres", Value: domain.FilterOut{
				Input: domain.IfNull{Value: domain.FieldRef{Path: "genres"}, Fallback: domain.ArrayOf{}},
				Value: "Drama",
			}},
			{Name: "awards", Value: domain.ConcatArrays{Inputs: []domain.Expr{
				domain.IfNull{Value: domain.FieldRef{Path: "awards"}, Fallback: domain.ArrayOf{}},
				domain.ArrayOf{Items: []domain.Expr{domain.Literal{Value: domain.Document{"name": "Oscar"}}}},
			}}},
		}},
	)
	require.Len(t, docs, 1)
	assert.Equal(t, []interface{}{"Comedy"}, docs[0]["genres"])
	assert.Equal(t, []interface{}{domain.Document{"name": "Oscar"}}, docs[0]["awards"])
}

func TestAddFieldsExpressionsSeeIncomingDocument(t *testing.T) {
	engine := moviesEngine(t)

	docs := aggregate(t, engine, "movies",
		domain.MatchStage{Filter: domain.Attributes{"_id": "m2"}},
		domain.Custom(domain.OpAddFields, domain.Document{
			"runtime":  domain.Document{"$literal": 0},
			"previous": "$runtime",
			"long":     domain.Document{"$gt": []interface{}{"$runtime", 100}},
			"label":    domain.Document{"$literal": "$notAPath"},
		}),
	)
	require.Len(t, docs, 1)
	assert.Equal(t, 0, docs[0]["runtime"])
	assert.Equal(t, 95, docs[0]["previous"])
	assert.Equal(t, false, docs[0]["long"])
	assert.Equal(t, "$notAPath", docs[0]["label"])
}

func TestUnsetStage(t *testing.T) {
	engine := moviesEngine(t)
	docs := aggregate(t, engine, "movies",
		domain.MatchStage{Filter: domain.Attributes{"_id": "m2"}},
		domain.Custom(domain.OpUnset, []interface{}{"imdb.votes", "genres"}),
	)
	require.Len(t, docs, 1)
	assert.NotContains(t, docs[0], "genres")
	assert.Equal(t, domain.Document{"rating": 6.0}, docs[0]["imdb"])
}

func TestUnknownStage(t *testing.T) {
	engine := moviesEngine(t)
	_, err := engine.Collection("movies").Aggregate(context.Background(), domain.Pipeline{domain.Custom("$facet", domain.Document{})})
	assert.Error(t, err)
}

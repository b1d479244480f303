package pipeline

import (
	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// CountField is the output field of count pipelines
const CountField = "total"

// Query describes a read. A zero Limit means unbounded.
type Query struct {
	Filter     domain.Attributes
	Stages     []domain.Stage // Caller stages, passed through verbatim
	Sort       domain.SortSpec
	Skip       int64
	Limit      int64
	Projection domain.ProjectionSpec
	FirstOnly  bool // Limit to the first match, before any caller stages
}

// ComposeQuery assembles the read pipeline:
// match, first-only limit, caller stages, sort, skip, limit, project.
// The project stage is left out when caller stages are given since they
// shape the output themselves.
func ComposeQuery(q Query) (domain.Pipeline, error) {
	if q.Skip < 0 {
		return nil, domain.InvalidArgumentf("skip must not be negative, got %d", q.Skip)
	}
	if q.Limit < 0 {
		return nil, domain.InvalidArgumentf("limit must not be negative, got %d", q.Limit)
	}
	for _, key := range q.Sort {
		if err := ValidateFieldPath(key.Field); err != nil {
			return nil, err
		}
		if key.Order != domain.Ascending && key.Order != domain.Descending {
			return nil, domain.InvalidArgumentf("sort order for %q must be 1 or -1", key.Field)
		}
	}

	p := make(domain.Pipeline, 0, len(q.Stages)+6)
	if len(q.Filter) > 0 {
		p = append(p, domain.MatchStage{Filter: q.Filter})
	}
	if q.FirstOnly {
		p = append(p, domain.LimitStage{Count: 1})
	}
	p = append(p, q.Stages...)
	if len(q.Sort) > 0 {
		p = append(p, domain.SortStage{Keys: q.Sort})
	}
	if q.Skip > 0 {
		p = append(p, domain.SkipStage{Count: q.Skip})
	}
	if q.Limit > 0 {
		p = append(p, domain.LimitStage{Count: q.Limit})
	}
	if len(q.Stages) == 0 {
		p = append(p, domain.ProjectStage{Spec: q.Projection})
	}
	return p, nil
}

// ComposeCount counts the documents a query would see before sorting and
// pagination. The result is one {total: n} document, or none when n is 0.
func ComposeCount(filter domain.Attributes, stages []domain.Stage) domain.Pipeline {
	p := make(domain.Pipeline, 0, len(stages)+2)
	if len(filter) > 0 {
		p = append(p, domain.MatchStage{Filter: filter})
	}
	p = append(p, stages...)
	return append(p, domain.CountStage{Field: CountField})
}

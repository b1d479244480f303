package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// rawStage is a rendered pipeline stage
type rawStage struct {
	op   string
	body interface{}
}

func renderPipeline(p domain.Pipeline) []rawStage {
	stages := make([]rawStage, len(p))
	for i, s := range p {
		stages[i].op, stages[i].body = s.Render()
	}
	return stages
}

// collectionReader gives stages such as $lookup read access to other
// collections. Callers hold the engine lock.
type collectionReader func(name string) []domain.Document

// runStage applies one non-terminal stage to the document stream
func runStage(st rawStage, docs []domain.Document, read collectionReader) ([]domain.Document, error) {
	switch st.op {
	case domain.OpMatch:
		return stageMatch(docs, st.body)
	case domain.OpSort:
		return stageSort(docs, st.body)
	case domain.OpSkip:
		n, ok := toInt64(st.body)
		if !ok || n < 0 {
			return nil, fmt.Errorf("$skip requires a non-negative integer, got %v", st.body)
		}
		if n >= int64(len(docs)) {
			return []domain.Document{}, nil
		}
		return docs[n:], nil
	case domain.OpLimit:
		n, ok := toInt64(st.body)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("$limit requires a positive integer, got %v", st.body)
		}
		if n < int64(len(docs)) {
			return docs[:n], nil
		}
		return docs, nil
	case domain.OpProject:
		return stageProject(docs, st.body)
	case domain.OpAddFields, domain.OpSet:
		return stageAddFields(docs, st.op, st.body)
	case domain.OpUnset:
		return stageUnset(docs, st.body)
	case domain.OpCount:
		return stageCount(docs, st.body)
	case domain.OpGroup:
		return stageGroup(docs, st.body)
	case domain.OpUnwind:
		return stageUnwind(docs, st.body)
	case domain.OpLookup:
		return stageLookup(docs, st.body, read)
	case domain.OpMerge:
		return nil, fmt.Errorf("$merge can only be the final stage of a pipeline")
	}
	return nil, fmt.Errorf("unrecognized pipeline stage %s", st.op)
}

func stageMatch(docs []domain.Document, body interface{}) ([]domain.Document, error) {
	filter, ok := asMap(body)
	if !ok {
		return nil, fmt.Errorf("$match requires a document, got %T", body)
	}
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		matched, err := MatchesFilter(doc, filter)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, doc)
		}
	}
	return out, nil
}

func sortKeys(body interface{}) (domain.SortSpec, error) {
	switch spec := body.(type) {
	case domain.SortSpec:
		return spec, nil
	case []domain.SortKey:
		return domain.SortSpec(spec), nil
	}
	m, ok := asMap(body)
	if !ok {
		return nil, fmt.Errorf("$sort requires a sort specification, got %T", body)
	}
	if len(m) != 1 {
		return nil, fmt.Errorf("$sort given as a document must have exactly one key; use an ordered sort spec")
	}
	for field, dir := range m {
		n, ok := toInt64(dir)
		if !ok {
			return nil, fmt.Errorf("$sort direction for %s must be 1 or -1", field)
		}
		return domain.SortBy(field, domain.SortOrder(n)), nil
	}
	return nil, nil
}

func stageSort(docs []domain.Document, body interface{}) ([]domain.Document, error) {
	keys, err := sortKeys(body)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("$sort requires at least one key")
	}
	for _, k := range keys {
		if k.Order != domain.Ascending && k.Order != domain.Descending {
			return nil, fmt.Errorf("$sort direction for %s must be 1 or -1", k.Field)
		}
	}

	out := append([]domain.Document(nil), docs...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(nullIfMissing(fieldValue(out[i], k.Field)), nullIfMissing(fieldValue(out[j], k.Field)))
			if c != 0 {
				return (c < 0) == (k.Order == domain.Ascending)
			}
		}
		return false
	})
	return out, nil
}

func projectionFlag(v interface{}) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	if n, ok := ToFloat64(v); ok {
		return n != 0, true
	}
	return false, false
}

func stageProject(docs []domain.Document, body interface{}) ([]domain.Document, error) {
	spec, ok := asMap(body)
	if !ok || len(spec) == 0 {
		return nil, fmt.Errorf("$project requires a non-empty document")
	}

	includeID := true
	var includes, excludes []string
	computed := map[string]interface{}{}
	for field, v := range spec {
		flag, isFlag := projectionFlag(v)
		switch {
		case field == domain.FieldInternalID && isFlag:
			includeID = flag
		case isFlag && flag:
			includes = append(includes, field)
		case isFlag:
			excludes = append(excludes, field)
		default:
			computed[field] = v
		}
	}
	if len(excludes) > 0 && (len(includes) > 0 || len(computed) > 0) {
		return nil, fmt.Errorf("$project cannot mix inclusion and exclusion")
	}

	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if len(excludes) > 0 || (len(includes) == 0 && len(computed) == 0) {
			shaped := doc.Clone()
			for _, f := range excludes {
				unsetPath(shaped, f)
			}
			if !includeID {
				delete(shaped, domain.FieldInternalID)
			}
			out = append(out, shaped)
			continue
		}

		shaped := domain.Document{}
		if id, exists := doc[domain.FieldInternalID]; exists && includeID {
			shaped[domain.FieldInternalID] = id
		}
		for _, f := range includes {
			if v := fieldValue(doc, f); !isMissing(v) {
				if _, throughArray := arrayOnPath(doc, f); !throughArray {
					setPath(shaped, f, domain.CloneValue(v))
				}
			}
		}
		ctx := newExprContext(doc)
		for f, e := range computed {
			v, err := evalExpr(ctx, e)
			if err != nil {
				return nil, err
			}
			setPath(shaped, f, v)
		}
		out = append(out, shaped)
	}
	return out, nil
}

// arrayOnPath reports whether a dotted path crosses an array before its
// last segment. Such inclusions are not projected.
func arrayOnPath(doc domain.Document, path string) (interface{}, bool) {
	segs := strings.Split(path, ".")
	var cur interface{} = doc
	for _, seg := range segs[:len(segs)-1] {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur = m[seg]
		if _, isArr := asArray(cur); isArr {
			return cur, true
		}
	}
	return nil, false
}

func stageAddFields(docs []domain.Document, op string, body interface{}) ([]domain.Document, error) {
	spec, ok := asMap(body)
	if !ok {
		return nil, fmt.Errorf("%s requires a document, got %T", op, body)
	}
	fields := sortedKeys(spec)

	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		ctx := newExprContext(doc)
		shaped := doc.Clone()
		for _, f := range fields {
			v, err := evalExpr(ctx, spec[f])
			if err != nil {
				return nil, err
			}
			if isMissing(v) {
				unsetPath(shaped, f)
				continue
			}
			setPath(shaped, f, v)
		}
		out = append(out, shaped)
	}
	return out, nil
}

func stageUnset(docs []domain.Document, body interface{}) ([]domain.Document, error) {
	var fields []string
	if s, ok := body.(string); ok {
		fields = []string{s}
	} else if arr, ok := asArray(body); ok {
		for _, f := range arr {
			s, ok := f.(string)
			if !ok {
				return nil, fmt.Errorf("$unset fields must be strings")
			}
			fields = append(fields, s)
		}
	} else {
		return nil, fmt.Errorf("$unset requires a field name or list of names")
	}

	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		shaped := doc.Clone()
		for _, f := range fields {
			unsetPath(shaped, f)
		}
		out = append(out, shaped)
	}
	return out, nil
}

func stageCount(docs []domain.Document, body interface{}) ([]domain.Document, error) {
	field, ok := body.(string)
	if !ok || field == "" || strings.HasPrefix(field, "$") || strings.Contains(field, ".") {
		return nil, fmt.Errorf("$count requires a plain field name, got %v", body)
	}
	if len(docs) == 0 {
		return []domain.Document{}, nil
	}
	return []domain.Document{{field: int64(len(docs))}}, nil
}

func stageUnwind(docs []domain.Document, body interface{}) ([]domain.Document, error) {
	var (
		path     string
		preserve bool
	)
	switch spec := body.(type) {
	case string:
		path = spec
	default:
		m, ok := asMap(body)
		if !ok {
			return nil, fmt.Errorf("$unwind requires a path or a document")
		}
		path, _ = m["path"].(string)
		preserve, _ = m["preserveNullAndEmptyArrays"].(bool)
	}
	if !strings.HasPrefix(path, "$") || len(path) < 2 {
		return nil, fmt.Errorf("$unwind path must start with '$'")
	}
	path = path[1:]

	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		v := fieldValue(doc, path)
		arr, isArr := asArray(v)
		switch {
		case isArr && len(arr) > 0:
			for _, elem := range arr {
				shaped := doc.Clone()
				setPath(shaped, path, domain.CloneValue(elem))
				out = append(out, shaped)
			}
		case isArr || isNullish(v):
			if preserve {
				shaped := doc.Clone()
				if isArr {
					unsetPath(shaped, path)
				}
				out = append(out, shaped)
			}
		default:
			out = append(out, doc)
		}
	}
	return out, nil
}

func stageLookup(docs []domain.Document, body interface{}, read collectionReader) ([]domain.Document, error) {
	spec, ok := asMap(body)
	if !ok {
		return nil, fmt.Errorf("$lookup requires a document")
	}
	from, _ := spec["from"].(string)
	local, _ := spec["localField"].(string)
	foreign, _ := spec["foreignField"].(string)
	as, _ := spec["as"].(string)
	if from == "" || local == "" || foreign == "" || as == "" {
		return nil, fmt.Errorf("$lookup requires from, localField, foreignField and as")
	}

	foreignDocs := read(from)
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		localValues, exists := lookupPath(doc, local)
		if !exists {
			localValues = []interface{}{nil}
		}
		localValues = expandCandidates(localValues)

		joined := []interface{}{}
		for _, fdoc := range foreignDocs {
			foreignValues, fexists := lookupPath(fdoc, foreign)
			for _, lv := range localValues {
				if equalsAny(foreignValues, fexists, lv) {
					joined = append(joined, fdoc.Clone())
					break
				}
			}
		}

		shaped := doc.Clone()
		setPath(shaped, as, joined)
		out = append(out, shaped)
	}
	return out, nil
}

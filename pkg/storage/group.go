package storage

import (
	"fmt"
	"strings"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// accumulator folds the documents of one group into a value
type accumulator interface {
	add(v interface{})
	result() interface{}
}

type sumAcc struct {
	intSum   int64
	floatSum float64
	isFloat  bool
}

func (a *sumAcc) add(v interface{}) {
	if n, ok := toInt64(v); ok && !isFloatValue(v) {
		a.intSum += n
		return
	}
	if f, ok := ToFloat64(v); ok {
		a.isFloat = true
		a.floatSum += f
	}
}

func (a *sumAcc) result() interface{} {
	if a.isFloat {
		return a.floatSum + float64(a.intSum)
	}
	return a.intSum
}

func isFloatValue(v interface{}) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

type avgAcc struct {
	sum   float64
	count int64
}

func (a *avgAcc) add(v interface{}) {
	if f, ok := ToFloat64(v); ok {
		a.sum += f
		a.count++
	}
}

func (a *avgAcc) result() interface{} {
	if a.count == 0 {
		return nil
	}
	return a.sum / float64(a.count)
}

type extremeAcc struct {
	max   bool
	value interface{}
	set   bool
}

func (a *extremeAcc) add(v interface{}) {
	if isNullish(v) {
		return
	}
	if !a.set {
		a.value, a.set = v, true
		return
	}
	c := compareValues(v, a.value)
	if (a.max && c > 0) || (!a.max && c < 0) {
		a.value = v
	}
}

func (a *extremeAcc) result() interface{} {
	return a.value
}

type firstAcc struct {
	value interface{}
	set   bool
}

func (a *firstAcc) add(v interface{}) {
	if !a.set {
		a.value, a.set = nullIfMissing(v), true
	}
}

func (a *firstAcc) result() interface{} { return a.value }

type lastAcc struct {
	value interface{}
}

func (a *lastAcc) add(v interface{}) { a.value = nullIfMissing(v) }

func (a *lastAcc) result() interface{} { return a.value }

type pushAcc struct {
	values []interface{}
	unique bool
}

func (a *pushAcc) add(v interface{}) {
	if isMissing(v) {
		return
	}
	if a.unique {
		for _, existing := range a.values {
			if ValuesMatch(existing, v) {
				return
			}
		}
	}
	a.values = append(a.values, domain.CloneValue(v))
}

func (a *pushAcc) result() interface{} {
	if a.values == nil {
		return []interface{}{}
	}
	return a.values
}

type countAcc struct {
	n int64
}

func (a *countAcc) add(interface{}) { a.n++ }

func (a *countAcc) result() interface{} { return a.n }

func newAccumulator(op string) (accumulator, error) {
	switch op {
	case "$sum":
		return &sumAcc{}, nil
	case "$avg":
		return &avgAcc{}, nil
	case "$min":
		return &extremeAcc{}, nil
	case "$max":
		return &extremeAcc{max: true}, nil
	case "$first":
		return &firstAcc{}, nil
	case "$last":
		return &lastAcc{}, nil
	case "$push":
		return &pushAcc{}, nil
	case "$addToSet":
		return &pushAcc{unique: true}, nil
	case "$count":
		return &countAcc{}, nil
	}
	return nil, fmt.Errorf("unknown group accumulator %s", op)
}

type groupField struct {
	name string
	op   string
	expr interface{}
}

type groupBucket struct {
	id   interface{}
	accs []accumulator
}

// stageGroup buckets documents by the _id expression. Groups are emitted in
// order of first appearance.
func stageGroup(docs []domain.Document, body interface{}) ([]domain.Document, error) {
	spec, ok := asMap(body)
	if !ok {
		return nil, fmt.Errorf("$group requires a document")
	}
	idExpr, ok := spec[domain.FieldInternalID]
	if !ok {
		return nil, fmt.Errorf("$group requires an _id expression")
	}

	var fields []groupField
	for _, name := range sortedKeys(spec) {
		if name == domain.FieldInternalID {
			continue
		}
		if strings.Contains(name, ".") {
			return nil, fmt.Errorf("$group field %q cannot contain '.'", name)
		}
		acc, ok := asMap(spec[name])
		if !ok || len(acc) != 1 {
			return nil, fmt.Errorf("$group field %q must be a single accumulator", name)
		}
		for op, expr := range acc {
			if _, err := newAccumulator(op); err != nil {
				return nil, err
			}
			fields = append(fields, groupField{name: name, op: op, expr: expr})
		}
	}

	var order []string
	buckets := map[string]*groupBucket{}
	for _, doc := range docs {
		ctx := newExprContext(doc)
		id, err := evalExpr(ctx, idExpr)
		if err != nil {
			return nil, err
		}
		id = nullIfMissing(id)
		key := canonicalKey(id)

		bucket, exists := buckets[key]
		if !exists {
			bucket = &groupBucket{id: id, accs: make([]accumulator, len(fields))}
			for i, f := range fields {
				bucket.accs[i], _ = newAccumulator(f.op)
			}
			buckets[key] = bucket
			order = append(order, key)
		}

		for i, f := range fields {
			v, err := evalExpr(ctx, f.expr)
			if err != nil {
				return nil, err
			}
			bucket.accs[i].add(v)
		}
	}

	out := make([]domain.Document, 0, len(order))
	for _, key := range order {
		bucket := buckets[key]
		doc := domain.Document{domain.FieldInternalID: bucket.id}
		for i, f := range fields {
			doc[f.name] = bucket.accs[i].result()
		}
		out = append(out, doc)
	}
	return out, nil
}

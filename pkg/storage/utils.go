package storage

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// missingValue marks a field that does not exist, as opposed to one holding null
type missingValue struct{}

var missing = missingValue{}

func isMissing(v interface{}) bool {
	_, ok := v.(missingValue)
	return ok
}

func isNullish(v interface{}) bool {
	return v == nil || isMissing(v)
}

// ToFloat64 converts various numeric types to float64 for comparison
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
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
	default:
		return 0, false
	}
}

// toInt64 reads an integral stage argument such as a $skip count
func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

// asMap returns v as a document when it is any map shape the store accepts
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case domain.Document:
		return m, true
	case domain.Attributes:
		return m, true
	case map[string]interface{}:
		return m, true
	}
	return nil, false
}

// asArray returns v as a generic slice. Byte slices are scalars.
func asArray(v interface{}) ([]interface{}, bool) {
	switch a := v.(type) {
	case []interface{}:
		return a, true
	case []domain.Document:
		out := make([]interface{}, len(a))
		for i, d := range a {
			out[i] = d
		}
		return out, true
	case []string:
		out := make([]interface{}, len(a))
		for i, s := range a {
			out[i] = s
		}
		return out, true
	case []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// normalize converts a value tree into the store's canonical shapes:
// maps become Documents, slices become []interface{} and times are UTC.
func normalize(v interface{}) interface{} {
	if m, ok := asMap(v); ok {
		out := make(domain.Document, len(m))
		for k, val := range m {
			out[k] = normalize(val)
		}
		return out
	}
	if arr, ok := asArray(v); ok {
		out := make([]interface{}, len(arr))
		for i, val := range arr {
			out[i] = normalize(val)
		}
		return out
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

func normalizeDocument(doc map[string]interface{}) domain.Document {
	return normalize(doc).(domain.Document)
}

// ValuesMatch compares two values for equality. Numbers compare by value
// across types; strings compare exactly.
func ValuesMatch(actual, expected interface{}) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	if actualStr, ok1 := actual.(string); ok1 {
		expectedStr, ok2 := expected.(string)
		return ok2 && actualStr == expectedStr
	}

	if actualNum, ok1 := ToFloat64(actual); ok1 {
		expectedNum, ok2 := ToFloat64(expected)
		return ok2 && actualNum == expectedNum
	}

	if actualTime, ok1 := actual.(time.Time); ok1 {
		expectedTime, ok2 := expected.(time.Time)
		return ok2 && actualTime.Equal(expectedTime)
	}

	if am, ok1 := asMap(actual); ok1 {
		em, ok2 := asMap(expected)
		if !ok2 || len(am) != len(em) {
			return false
		}
		for k, av := range am {
			ev, exists := em[k]
			if !exists || !ValuesMatch(av, ev) {
				return false
			}
		}
		return true
	}

	if aa, ok1 := asArray(actual); ok1 {
		ea, ok2 := asArray(expected)
		if !ok2 || len(aa) != len(ea) {
			return false
		}
		for i := range aa {
			if !ValuesMatch(aa[i], ea[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(actual, expected)
}

// typeRank orders values of different types for sorting and comparison
func typeRank(v interface{}) int {
	if isNullish(v) {
		return 0
	}
	if _, ok := ToFloat64(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case bool:
		return 5
	case time.Time:
		return 6
	}
	if _, ok := asMap(v); ok {
		return 3
	}
	if _, ok := asArray(v); ok {
		return 4
	}
	return 7
}

// compareValues returns -1, 0 or 1 under a total order across types:
// null < numbers < strings < documents < arrays < booleans < times.
func compareValues(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case 0:
		return 0
	case 1:
		fa, _ := ToFloat64(a)
		fb, _ := ToFloat64(b)
		return compareOrdered(fa, fb)
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 3:
		ma, _ := asMap(a)
		mb, _ := asMap(b)
		return compareMaps(ma, mb)
	case 4:
		aa, _ := asArray(a)
		ab, _ := asArray(b)
		for i := 0; i < len(aa) && i < len(ab); i++ {
			if c := compareValues(aa[i], ab[i]); c != 0 {
				return c
			}
		}
		return compareOrdered(len(aa), len(ab))
	case 5:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case 6:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareOrdered[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareMaps(a, b map[string]interface{}) int {
	ka, kb := sortedKeys(a), sortedKeys(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if c := strings.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := compareValues(a[ka[i]], b[kb[i]]); c != 0 {
			return c
		}
	}
	return compareOrdered(len(ka), len(kb))
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// canonicalKey renders a value as a string that is equal for equal values,
// used to bucket $group keys.
func canonicalKey(v interface{}) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v interface{}) {
	if isNullish(v) {
		b.WriteString("n")
		return
	}
	if f, ok := ToFloat64(v); ok {
		b.WriteString("f")
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		return
	}
	switch t := v.(type) {
	case string:
		b.WriteString("s")
		b.WriteString(strconv.Quote(t))
		return
	case bool:
		b.WriteString("b")
		b.WriteString(strconv.FormatBool(t))
		return
	case time.Time:
		b.WriteString("t")
		b.WriteString(strconv.FormatInt(t.UnixNano(), 10))
		return
	}
	if m, ok := asMap(v); ok {
		b.WriteString("{")
		for _, k := range sortedKeys(m) {
			b.WriteString(strconv.Quote(k))
			b.WriteString(":")
			writeCanonical(b, m[k])
			b.WriteString(",")
		}
		b.WriteString("}")
		return
	}
	if arr, ok := asArray(v); ok {
		b.WriteString("[")
		for _, elem := range arr {
			writeCanonical(b, elem)
			b.WriteString(",")
		}
		b.WriteString("]")
		return
	}
	fmt.Fprintf(b, "?%T:%v", v, v)
}

// lookupPath resolves a dotted path. Arrays along the path fan out: each
// document element contributes its own value, and a numeric segment
// indexes into the array. The boolean reports whether any value was found.
func lookupPath(v interface{}, path string) ([]interface{}, bool) {
	return lookupSegments(v, strings.Split(path, "."))
}

func lookupSegments(v interface{}, segs []string) ([]interface{}, bool) {
	if len(segs) == 0 {
		return []interface{}{v}, true
	}
	if m, ok := asMap(v); ok {
		next, exists := m[segs[0]]
		if !exists {
			return nil, false
		}
		return lookupSegments(next, segs[1:])
	}
	arr, ok := asArray(v)
	if !ok {
		return nil, false
	}
	if i, err := strconv.Atoi(segs[0]); err == nil {
		if i < 0 || i >= len(arr) {
			return nil, false
		}
		return lookupSegments(arr[i], segs[1:])
	}
	var out []interface{}
	found := false
	for _, elem := range arr {
		if _, isMap := asMap(elem); !isMap {
			continue
		}
		vals, ok := lookupSegments(elem, segs)
		if ok {
			found = true
			out = append(out, vals...)
		}
	}
	return out, found
}

// fieldValue resolves a dotted path to a single value as aggregation
// expressions see it: a path through an array of documents yields the
// array of values, and an absent field yields missing.
func fieldValue(v interface{}, path string) interface{} {
	cur := v
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		if m, ok := asMap(cur); ok {
			next, exists := m[seg]
			if !exists {
				return missing
			}
			cur = next
			continue
		}
		if arr, ok := asArray(cur); ok {
			rest := strings.Join(segs[i:], ".")
			out := make([]interface{}, 0, len(arr))
			for _, elem := range arr {
				if _, isMap := asMap(elem); !isMap {
					continue
				}
				if val := fieldValue(elem, rest); !isMissing(val) {
					out = append(out, val)
				}
			}
			return out
		}
		return missing
	}
	return cur
}

// setPath assigns a dotted path, creating intermediate documents. A
// missing value leaves the document untouched.
func setPath(doc domain.Document, path string, value interface{}) {
	if isMissing(value) {
		return
	}
	segs := strings.Split(path, ".")
	cur := map[string]interface{}(doc)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(cur[seg])
		if !ok {
			next = domain.Document{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// unsetPath removes a dotted path if present
func unsetPath(doc domain.Document, path string) {
	segs := strings.Split(path, ".")
	cur := map[string]interface{}(doc)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(cur[seg])
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
}

// IntersectIDSets returns the IDs present in every set
func IntersectIDSets(sets ...map[string]struct{}) map[string]struct{} {
	if len(sets) == 0 {
		return nil
	}
	smallest := sets[0]
	for _, s := range sets[1:] {
		if len(s) < len(smallest) {
			smallest = s
		}
	}
	out := make(map[string]struct{}, len(smallest))
	for id := range smallest {
		inAll := true
		for _, s := range sets {
			if _, ok := s[id]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out[id] = struct{}{}
		}
	}
	return out
}

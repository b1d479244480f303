package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchesFilter reports whether a document satisfies a filter. Fields are
// ANDed; values are either literals (equality, where an array field matches
// on any element) or operator documents such as {"$gte": 18}.
func MatchesFilter(doc map[string]interface{}, filter map[string]interface{}) (bool, error) {
	for key, cond := range filter {
		var (
			ok  bool
			err error
		)
		switch key {
		case "$and", "$or", "$nor":
			ok, err = matchLogical(doc, key, cond)
		default:
			if strings.HasPrefix(key, "$") {
				return false, fmt.Errorf("unknown top-level operator %s", key)
			}
			ok, err = matchField(doc, key, cond)
		}
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchLogical(doc map[string]interface{}, op string, cond interface{}) (bool, error) {
	clauses, ok := asArray(cond)
	if !ok || len(clauses) == 0 {
		return false, fmt.Errorf("%s requires a non-empty array of filters", op)
	}
	for _, clause := range clauses {
		sub, ok := asMap(clause)
		if !ok {
			return false, fmt.Errorf("%s clauses must be documents", op)
		}
		matched, err := MatchesFilter(doc, sub)
		if err != nil {
			return false, err
		}
		switch {
		case op == "$and" && !matched:
			return false, nil
		case op == "$or" && matched:
			return true, nil
		case op == "$nor" && matched:
			return false, nil
		}
	}
	return op != "$or", nil
}

// isOperatorDoc reports whether cond is a non-empty map of $-operators
func isOperatorDoc(cond interface{}) (map[string]interface{}, bool) {
	m, ok := asMap(cond)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func matchField(doc map[string]interface{}, path string, cond interface{}) (bool, error) {
	values, exists := lookupPath(doc, path)
	ops, isOps := isOperatorDoc(cond)
	if !isOps {
		return equalsAny(values, exists, cond), nil
	}
	return matchOperators(values, exists, ops)
}

func matchOperators(values []interface{}, exists bool, ops map[string]interface{}) (bool, error) {
	if _, hasRegex := ops["$regex"]; !hasRegex {
		if _, hasOptions := ops["$options"]; hasOptions {
			return false, fmt.Errorf("$options requires $regex")
		}
	}

	for op, arg := range ops {
		var (
			ok  bool
			err error
		)
		switch op {
		case "$eq":
			ok = equalsAny(values, exists, arg)
		case "$ne":
			ok = !equalsAny(values, exists, arg)
		case "$gt", "$gte", "$lt", "$lte":
			ok = compareAny(values, op, arg)
		case "$in":
			ok, err = inAny(values, exists, arg)
		case "$nin":
			ok, err = inAny(values, exists, arg)
			ok = !ok
		case "$all":
			ok, err = containsAll(values, arg)
		case "$exists":
			want, isBool := arg.(bool)
			if !isBool {
				n, isNum := ToFloat64(arg)
				if !isNum {
					return false, fmt.Errorf("$exists requires a boolean")
				}
				want = n != 0
			}
			ok = exists == want
		case "$regex":
			ok, err = regexAny(values, arg, ops["$options"])
		case "$options":
			continue
		case "$size":
			ok, err = sizeAny(values, arg)
		case "$elemMatch":
			ok, err = elemMatchAny(values, arg)
		case "$not":
			inner, isOps := isOperatorDoc(arg)
			if !isOps {
				return false, fmt.Errorf("$not requires an operator document")
			}
			ok, err = matchOperators(values, exists, inner)
			ok = !ok
		default:
			return false, fmt.Errorf("unknown operator %s", op)
		}
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// expandCandidates yields each value and, for arrays, each element too
func expandCandidates(values []interface{}) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
		if arr, ok := asArray(v); ok {
			out = append(out, arr...)
		}
	}
	return out
}

func equalsAny(values []interface{}, exists bool, expected interface{}) bool {
	if expected == nil && !exists {
		return true
	}
	for _, v := range expandCandidates(values) {
		if ValuesMatch(v, expected) {
			return true
		}
	}
	return false
}

func compareAny(values []interface{}, op string, arg interface{}) bool {
	for _, v := range expandCandidates(values) {
		if typeRank(v) != typeRank(arg) || isNullish(v) {
			continue
		}
		c := compareValues(v, arg)
		switch op {
		case "$gt":
			if c > 0 {
				return true
			}
		case "$gte":
			if c >= 0 {
				return true
			}
		case "$lt":
			if c < 0 {
				return true
			}
		case "$lte":
			if c <= 0 {
				return true
			}
		}
	}
	return false
}

func inAny(values []interface{}, exists bool, arg interface{}) (bool, error) {
	set, ok := asArray(arg)
	if !ok {
		return false, fmt.Errorf("$in/$nin requires an array")
	}
	for _, expected := range set {
		if equalsAny(values, exists, expected) {
			return true, nil
		}
	}
	return false, nil
}

func containsAll(values []interface{}, arg interface{}) (bool, error) {
	required, ok := asArray(arg)
	if !ok {
		return false, fmt.Errorf("$all requires an array")
	}
	if len(required) == 0 {
		return false, nil
	}
	for _, expected := range required {
		if !equalsAny(values, true, expected) {
			return false, nil
		}
	}
	return true, nil
}

func regexAny(values []interface{}, pattern, options interface{}) (bool, error) {
	expr, ok := pattern.(string)
	if !ok {
		return false, fmt.Errorf("$regex requires a string pattern")
	}
	flags := ""
	if options != nil {
		opts, ok := options.(string)
		if !ok {
			return false, fmt.Errorf("$options must be a string")
		}
		for _, o := range opts {
			switch o {
			case 'i', 'm', 's':
				flags += string(o)
			case 'x':
			default:
				return false, fmt.Errorf("unsupported regex option %q", o)
			}
		}
	}
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false, fmt.Errorf("invalid $regex: %w", err)
	}
	for _, v := range expandCandidates(values) {
		if s, ok := v.(string); ok && re.MatchString(s) {
			return true, nil
		}
	}
	return false, nil
}

func sizeAny(values []interface{}, arg interface{}) (bool, error) {
	n, ok := toInt64(arg)
	if !ok || n < 0 {
		return false, fmt.Errorf("$size requires a non-negative integer")
	}
	for _, v := range values {
		if arr, ok := asArray(v); ok && int64(len(arr)) == n {
			return true, nil
		}
	}
	return false, nil
}

func elemMatchAny(values []interface{}, arg interface{}) (bool, error) {
	cond, ok := asMap(arg)
	if !ok {
		return false, fmt.Errorf("$elemMatch requires a document")
	}
	ops, isOps := isOperatorDoc(cond)
	for _, v := range values {
		arr, ok := asArray(v)
		if !ok {
			continue
		}
		for _, elem := range arr {
			var (
				matched bool
				err     error
			)
			if isOps && !hasLogical(ops) {
				matched, err = matchOperators([]interface{}{elem}, true, ops)
			} else if m, isMap := asMap(elem); isMap {
				matched, err = MatchesFilter(m, cond)
			}
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
	}
	return false, nil
}

func hasLogical(ops map[string]interface{}) bool {
	for k := range ops {
		if k == "$and" || k == "$or" || k == "$nor" {
			return true
		}
	}
	return false
}

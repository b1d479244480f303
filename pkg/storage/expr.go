package storage

import (
	"fmt"
	"strings"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// exprContext is the evaluation scope of an aggregation expression
type exprContext struct {
	root domain.Document
	vars map[string]interface{}
}

func newExprContext(root domain.Document) *exprContext {
	return &exprContext{root: root, vars: map[string]interface{}{}}
}

func (c *exprContext) with(name string, value interface{}) *exprContext {
	vars := make(map[string]interface{}, len(c.vars)+1)
	for k, v := range c.vars {
		vars[k] = v
	}
	vars[name] = value
	return &exprContext{root: c.root, vars: vars}
}

// evalExpr evaluates an aggregation expression. Strings starting with "$"
// are field paths and "$$name" reads a variable; single-key documents
// whose key starts with "$" are operators; other documents and arrays are
// evaluated element-wise.
func evalExpr(ctx *exprContext, expr interface{}) (interface{}, error) {
	if s, ok := expr.(string); ok {
		return evalPath(ctx, s)
	}
	if m, ok := asMap(expr); ok {
		if len(m) == 1 {
			for op, arg := range m {
				if strings.HasPrefix(op, "$") {
					return evalOperator(ctx, op, arg)
				}
			}
		}
		out := make(domain.Document, len(m))
		for k, v := range m {
			if strings.HasPrefix(k, "$") {
				return nil, fmt.Errorf("operator %s must be the only key of its expression", k)
			}
			val, err := evalExpr(ctx, v)
			if err != nil {
				return nil, err
			}
			setPath(out, k, val)
		}
		return out, nil
	}
	if arr, ok := asArray(expr); ok {
		out := make([]interface{}, len(arr))
		for i, elem := range arr {
			val, err := evalExpr(ctx, elem)
			if err != nil {
				return nil, err
			}
			if isMissing(val) {
				val = nil
			}
			out[i] = val
		}
		return out, nil
	}
	return expr, nil
}

func evalPath(ctx *exprContext, s string) (interface{}, error) {
	if !strings.HasPrefix(s, "$") {
		return s, nil
	}
	if strings.HasPrefix(s, "$$") {
		name, rest, _ := strings.Cut(s[2:], ".")
		var base interface{}
		switch name {
		case "ROOT", "CURRENT":
			base = ctx.root
		default:
			v, ok := ctx.vars[name]
			if !ok {
				return nil, fmt.Errorf("undefined variable $$%s", name)
			}
			base = v
		}
		if rest == "" {
			return base, nil
		}
		return fieldValue(base, rest), nil
	}
	if len(s) == 1 {
		return nil, fmt.Errorf("empty field path")
	}
	return fieldValue(ctx.root, s[1:]), nil
}

func evalArgs(ctx *exprContext, arg interface{}) ([]interface{}, error) {
	arr, ok := asArray(arg)
	if !ok {
		arr = []interface{}{arg}
	}
	out := make([]interface{}, len(arr))
	for i, a := range arr {
		v, err := evalExpr(ctx, a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func evalOperator(ctx *exprContext, op string, arg interface{}) (interface{}, error) {
	switch op {
	case "$literal":
		return domain.CloneValue(arg), nil

	case "$ifNull":
		args, err := evalArgs(ctx, arg)
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			return nil, fmt.Errorf("$ifNull requires at least two arguments")
		}
		for _, v := range args[:len(args)-1] {
			if !isNullish(v) {
				return v, nil
			}
		}
		return args[len(args)-1], nil

	case "$concatArrays":
		args, err := evalArgs(ctx, arg)
		if err != nil {
			return nil, err
		}
		out := []interface{}{}
		for _, v := range args {
			if isNullish(v) {
				return nil, nil
			}
			arr, ok := asArray(v)
			if !ok {
				return nil, fmt.Errorf("$concatArrays only supports arrays, got %T", v)
			}
			out = append(out, arr...)
		}
		return out, nil

	case "$filter":
		spec, ok := asMap(arg)
		if !ok {
			return nil, fmt.Errorf("$filter requires a document")
		}
		input, err := evalExpr(ctx, spec["input"])
		if err != nil {
			return nil, err
		}
		if isNullish(input) {
			return nil, nil
		}
		arr, ok := asArray(input)
		if !ok {
			return nil, fmt.Errorf("$filter input must be an array, got %T", input)
		}
		as := "this"
		if name, ok := spec["as"].(string); ok && name != "" {
			as = name
		}
		out := []interface{}{}
		for _, elem := range arr {
			keep, err := evalExpr(ctx.with(as, elem), spec["cond"])
			if err != nil {
				return nil, err
			}
			if truthy(keep) {
				out = append(out, elem)
			}
		}
		return out, nil

	case "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
		args, err := evalArgs(ctx, arg)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("%s requires exactly two arguments", op)
		}
		a, b := nullIfMissing(args[0]), nullIfMissing(args[1])
		switch op {
		case "$eq":
			return ValuesMatch(a, b), nil
		case "$ne":
			return !ValuesMatch(a, b), nil
		}
		c := compareValues(a, b)
		switch op {
		case "$gt":
			return c > 0, nil
		case "$gte":
			return c >= 0, nil
		case "$lt":
			return c < 0, nil
		default:
			return c <= 0, nil
		}

	case "$in":
		args, err := evalArgs(ctx, arg)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("$in requires exactly two arguments")
		}
		arr, ok := asArray(args[1])
		if !ok {
			return nil, fmt.Errorf("$in requires an array as its second argument")
		}
		for _, elem := range arr {
			if ValuesMatch(nullIfMissing(args[0]), elem) {
				return true, nil
			}
		}
		return false, nil

	case "$size":
		args, err := evalArgs(ctx, arg)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("$size requires exactly one argument")
		}
		arr, ok := asArray(args[0])
		if !ok {
			return nil, fmt.Errorf("$size argument must be an array, got %T", args[0])
		}
		return int64(len(arr)), nil

	case "$and", "$or":
		args, err := evalArgs(ctx, arg)
		if err != nil {
			return nil, err
		}
		for _, v := range args {
			if op == "$and" && !truthy(v) {
				return false, nil
			}
			if op == "$or" && truthy(v) {
				return true, nil
			}
		}
		return op == "$and", nil

	case "$not":
		args, err := evalArgs(ctx, arg)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("$not requires exactly one argument")
		}
		return !truthy(args[0]), nil
	}
	return nil, fmt.Errorf("unsupported expression operator %s", op)
}

func nullIfMissing(v interface{}) interface{} {
	if isMissing(v) {
		return nil
	}
	return v
}

func truthy(v interface{}) bool {
	if isNullish(v) {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	if f, ok := ToFloat64(v); ok {
		return f != 0
	}
	return true
}

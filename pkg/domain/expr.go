package domain

// Expr is a field-derivation expression used by AddFieldsStage
type Expr interface {
	Render() interface{}
}

// Literal is a constant value, never interpreted as a field path
type Literal struct {
	Value interface{}
}

func (e Literal) Render() interface{} {
	return Document{"$literal": e.Value}
}

// FieldRef reads a (possibly dotted) field of the current document
type FieldRef struct {
	Path string
}

func (e FieldRef) Render() interface{} {
	return "$" + e.Path
}

// IfNull evaluates to Fallback when Value is null or missing
type IfNull struct {
	Value    Expr
	Fallback Expr
}

func (e IfNull) Render() interface{} {
	return Document{"$ifNull": []interface{}{e.Value.Render(), e.Fallback.Render()}}
}

// ArrayOf builds an array from expressions
type ArrayOf struct {
	Items []Expr
}

func (e ArrayOf) Render() interface{} {
	items := make([]interface{}, len(e.Items))
	for i, item := range e.Items {
		items[i] = item.Render()
	}
	return items
}

// ConcatArrays joins array expressions in order
type ConcatArrays struct {
	Inputs []Expr
}

func (e ConcatArrays) Render() interface{} {
	inputs := make([]interface{}, len(e.Inputs))
	for i, in := range e.Inputs {
		inputs[i] = in.Render()
	}
	return Document{"$concatArrays": inputs}
}

// FilterOut keeps the elements of Input that are not equal to Value
type FilterOut struct {
	Input Expr
	Value interface{}
}

func (e FilterOut) Render() interface{} {
	return Document{"$filter": Document{
		"input": e.Input.Render(),
		"as":    "item",
		"cond":  Document{"$ne": []interface{}{"$$item", Document{"$literal": e.Value}}},
	}}
}

package domain

// Stage operators understood by the store collaborators
const (
	OpMatch     = "$match"
	OpSort      = "$sort"
	OpSkip      = "$skip"
	OpLimit     = "$limit"
	OpProject   = "$project"
	OpAddFields = "$addFields"
	OpSet       = "$set"
	OpUnset     = "$unset"
	OpMerge     = "$merge"
	OpCount     = "$count"
	OpGroup     = "$group"
	OpUnwind    = "$unwind"
	OpLookup    = "$lookup"
)

// Stage is one step of a pipeline. Render returns the stage operator and a
// store-neutral body built from Document, Attributes, SortSpec, slices and
// scalars.
type Stage interface {
	Render() (string, interface{})
}

// Pipeline is an ordered sequence of stages
type Pipeline []Stage

// Operators lists the operator of every stage, in order
func (p Pipeline) Operators() []string {
	ops := make([]string, len(p))
	for i, s := range p {
		ops[i], _ = s.Render()
	}
	return ops
}

// MatchStage keeps documents satisfying Filter
type MatchStage struct {
	Filter Attributes
}

func (s MatchStage) Render() (string, interface{}) {
	if s.Filter == nil {
		return OpMatch, Attributes{}
	}
	return OpMatch, s.Filter
}

// CustomStage is a caller-supplied stage passed through verbatim
type CustomStage struct {
	Operator string
	Body     interface{}
}

// Custom builds a verbatim stage
func Custom(operator string, body interface{}) CustomStage {
	return CustomStage{Operator: operator, Body: body}
}

func (s CustomStage) Render() (string, interface{}) {
	return s.Operator, s.Body
}

// SortStage orders documents by Keys
type SortStage struct {
	Keys SortSpec
}

func (s SortStage) Render() (string, interface{}) {
	return OpSort, s.Keys
}

// SkipStage drops the first Count documents
type SkipStage struct {
	Count int64
}

func (s SkipStage) Render() (string, interface{}) {
	return OpSkip, s.Count
}

// LimitStage keeps at most Count documents
type LimitStage struct {
	Count int64
}

func (s LimitStage) Render() (string, interface{}) {
	return OpLimit, s.Count
}

// ProjectStage shapes output documents
type ProjectStage struct {
	Spec ProjectionSpec
}

func (s ProjectStage) Render() (string, interface{}) {
	return OpProject, s.Spec.Document()
}

// DerivedField assigns the result of an expression to a field
type DerivedField struct {
	Name  string
	Value Expr
}

// AddFieldsStage computes fields on every document. Expressions are
// evaluated against the incoming document.
type AddFieldsStage struct {
	Fields []DerivedField
}

func (s AddFieldsStage) Render() (string, interface{}) {
	body := make(Document, len(s.Fields))
	for _, f := range s.Fields {
		body[f.Name] = f.Value.Render()
	}
	return OpAddFields, body
}

// MergeStage writes the pipeline output into a collection, replacing
// documents that match on the internal identity. Unmatched output is
// discarded.
type MergeStage struct {
	Into string
}

func (s MergeStage) Render() (string, interface{}) {
	return OpMerge, Document{
		"into":           s.Into,
		"on":             FieldInternalID,
		"whenMatched":    "replace",
		"whenNotMatched": "discard",
	}
}

// CountStage replaces the stream with a single {Field: n} document
type CountStage struct {
	Field string
}

func (s CountStage) Render() (string, interface{}) {
	return OpCount, s.Field
}

// SortOrder is the direction of a sort key
type SortOrder int

const (
	Ascending  SortOrder = 1
	Descending SortOrder = -1
)

// SortKey is one field of a sort specification
type SortKey struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// SortSpec is an ordered list of sort keys
type SortSpec []SortKey

// SortBy starts a sort specification
func SortBy(field string, order SortOrder) SortSpec {
	return SortSpec{{Field: field, Order: order}}
}

// Then appends a tie-break key
func (s SortSpec) Then(field string, order SortOrder) SortSpec {
	out := append(SortSpec(nil), s...)
	return append(out, SortKey{Field: field, Order: order})
}

package domain

import (
	"bytes"
	"encoding/json"
)

// SelectorKind distinguishes the three field selector states
type SelectorKind int

const (
	// SelectUnspecified returns only the pid
	SelectUnspecified SelectorKind = iota
	// SelectAll returns every stored field
	SelectAll
	// SelectSubset returns the pid plus the named fields
	SelectSubset
)

func (k SelectorKind) String() string {
	switch k {
	case SelectAll:
		return "all"
	case SelectSubset:
		return "subset"
	default:
		return "unspecified"
	}
}

// FieldSelector is the caller's choice of output fields. The zero value is
// the unspecified selector.
type FieldSelector struct {
	kind   SelectorKind
	fields []string
}

// Unspecified selects the pid only
func Unspecified() FieldSelector {
	return FieldSelector{}
}

// AllFields selects the full document
func AllFields() FieldSelector {
	return FieldSelector{kind: SelectAll}
}

// Fields selects the pid plus the given fields
func Fields(first string, rest ...string) FieldSelector {
	names := make([]string, 0, len(rest)+1)
	names = append(names, first)
	names = append(names, rest...)
	return FieldSelector{kind: SelectSubset, fields: names}
}

// SelectorFromList maps a caller list onto a selector: nil is unspecified,
// an empty list selects everything.
func SelectorFromList(list []string) FieldSelector {
	switch {
	case list == nil:
		return Unspecified()
	case len(list) == 0:
		return AllFields()
	default:
		return Fields(list[0], list[1:]...)
	}
}

// Kind returns the selector state
func (s FieldSelector) Kind() SelectorKind {
	return s.kind
}

// Names returns a copy of the selected field names
func (s FieldSelector) Names() []string {
	return append([]string(nil), s.fields...)
}

// MarshalJSON renders unspecified as null and all as []
func (s FieldSelector) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case SelectAll:
		return []byte("[]"), nil
	case SelectSubset:
		return json.Marshal(s.fields)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, [] or a list of field names
func (s *FieldSelector) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Unspecified()
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return InvalidArgumentf("fields must be null or a list of names: %v", err)
	}
	if list == nil {
		list = []string{}
	}
	*s = SelectorFromList(list)
	return nil
}

// ProjectionSpec is the output shaping derived from a FieldSelector. The
// store's internal identity is always suppressed.
type ProjectionSpec struct {
	IncludeAll bool
	Fields     []string // Included alongside the pid when IncludeAll is false
}

// Document renders the projection in inclusion/exclusion form
func (p ProjectionSpec) Document() Document {
	spec := Document{FieldInternalID: 0}
	if p.IncludeAll {
		return spec
	}
	spec[FieldPID] = 1
	for _, f := range p.Fields {
		spec[f] = 1
	}
	return spec
}

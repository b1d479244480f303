package pipeline

import (
	"sort"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// Write describes a replace-on-match update of the documents matching Filter
type Write struct {
	Collection string
	Filter     domain.Attributes
	FirstOnly  bool
	Fields     []domain.DerivedField
	Metadata   domain.Document // Update metadata, stored as literals
}

// ComposeWrite assembles the write pipeline: match, first-only limit,
// derive fields merged with the update metadata, then merge back into the
// same collection. Matched documents are fully replaced by the derived
// result; nothing is written when nothing matches.
func ComposeWrite(w Write) (domain.Pipeline, error) {
	if w.Collection == "" {
		return nil, domain.InvalidArgumentf("collection name must not be empty")
	}

	derived := make([]domain.DerivedField, 0, len(w.Fields)+len(w.Metadata))
	names := make(map[string]bool, len(w.Fields)+len(w.Metadata))
	for _, f := range w.Fields {
		if err := validateUpdateField(f.Name); err != nil {
			return nil, err
		}
		if f.Value == nil {
			return nil, domain.InvalidArgumentf("field %q has no value expression", f.Name)
		}
		for existing := range names {
			if isPathPrefix(existing, f.Name) || isPathPrefix(f.Name, existing) {
				return nil, domain.InvalidArgumentf("update paths %q and %q overlap", existing, f.Name)
			}
		}
		names[f.Name] = true
		derived = append(derived, f)
	}

	metaNames := make([]string, 0, len(w.Metadata))
	for name := range w.Metadata {
		metaNames = append(metaNames, name)
	}
	sort.Strings(metaNames)
	for _, name := range metaNames {
		derived = append(derived, domain.DerivedField{Name: name, Value: domain.Literal{Value: w.Metadata[name]}})
	}

	p := domain.Pipeline{domain.MatchStage{Filter: w.Filter}}
	if w.FirstOnly {
		p = append(p, domain.LimitStage{Count: 1})
	}
	return append(p,
		domain.AddFieldsStage{Fields: derived},
		domain.MergeStage{Into: w.Collection},
	), nil
}

// FieldUpdates turns caller field updates into literal assignments, sorted
// by field name. Accessor-managed fields are rejected.
func FieldUpdates(updates domain.Document) ([]domain.DerivedField, error) {
	names := make([]string, 0, len(updates))
	for name := range updates {
		if err := validateUpdateField(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]domain.DerivedField, len(names))
	for i, name := range names {
		fields[i] = domain.DerivedField{Name: name, Value: domain.Literal{Value: updates[name]}}
	}
	return fields, nil
}

// AppendElement derives field = field ++ [element]. A missing or null
// array is treated as empty.
func AppendElement(field string, element interface{}) (domain.DerivedField, error) {
	if err := validateArrayField(field); err != nil {
		return domain.DerivedField{}, err
	}
	return domain.DerivedField{
		Name: field,
		Value: domain.ConcatArrays{Inputs: []domain.Expr{
			domain.IfNull{Value: domain.FieldRef{Path: field}, Fallback: domain.ArrayOf{}},
			domain.ArrayOf{Items: []domain.Expr{domain.Literal{Value: element}}},
		}},
	}, nil
}

// RemoveElement derives field = [x for x in field if x != element]. A
// missing or null array is treated as empty.
func RemoveElement(field string, element interface{}) (domain.DerivedField, error) {
	if err := validateArrayField(field); err != nil {
		return domain.DerivedField{}, err
	}
	return domain.DerivedField{
		Name: field,
		Value: domain.FilterOut{
			Input: domain.IfNull{Value: domain.FieldRef{Path: field}, Fallback: domain.ArrayOf{}},
			Value: element,
		},
	}, nil
}

func validateUpdateField(name string) error {
	if err := ValidateFieldPath(name); err != nil {
		return err
	}
	if IsReserved(name) {
		return domain.InvalidArgumentf("field %q is managed by the accessor and cannot be updated", name)
	}
	return nil
}

func validateArrayField(field string) error {
	if field == "" {
		return domain.InvalidArgumentf("array field name must not be empty")
	}
	return validateUpdateField(field)
}

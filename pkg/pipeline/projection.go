package pipeline

import (
	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// BuildProjection translates a field selector into output shaping:
// unspecified yields the pid only, all yields every stored field and a
// subset yields the pid plus the named fields. The internal identity is
// always suppressed.
func BuildProjection(sel domain.FieldSelector) (domain.ProjectionSpec, error) {
	switch sel.Kind() {
	case domain.SelectUnspecified:
		return domain.ProjectionSpec{}, nil
	case domain.SelectAll:
		return domain.ProjectionSpec{IncludeAll: true}, nil
	}

	names := sel.Names()
	if len(names) == 0 {
		return domain.ProjectionSpec{}, domain.InvalidArgumentf("field subset must name at least one field")
	}

	fields := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := ValidateFieldPath(name); err != nil {
			return domain.ProjectionSpec{}, err
		}
		if rootSegment(name) == domain.FieldInternalID {
			return domain.ProjectionSpec{}, domain.InvalidArgumentf("field %q exposes the internal identity", name)
		}
		if name == domain.FieldPID || seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, name)
	}

	// pid is always included, so it takes part in the collision check
	all := append([]string{domain.FieldPID}, fields...)
	for i := range all {
		for j := range all {
			if i != j && isPathPrefix(all[i], all[j]) {
				return domain.ProjectionSpec{}, domain.InvalidArgumentf("projection paths %q and %q overlap", all[i], all[j])
			}
		}
	}

	return domain.ProjectionSpec{Fields: fields}, nil
}

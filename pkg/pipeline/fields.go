package pipeline

import (
	"strings"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// reservedFields are managed by the accessor and never accepted in update sets
var reservedFields = map[string]bool{
	domain.FieldInternalID: true,
	domain.FieldPID:        true,
	domain.FieldCreatedAt:  true,
	domain.FieldUpdatedAt:  true,
	domain.FieldCreatedBy:  true,
	domain.FieldUpdatedBy:  true,
}

// IsReserved reports whether a field path targets an accessor-managed field
func IsReserved(path string) bool {
	return reservedFields[rootSegment(path)]
}

// ValidateFieldPath checks that a name can be used as a field path
func ValidateFieldPath(path string) error {
	if path == "" {
		return domain.InvalidArgumentf("field name must not be empty")
	}
	if strings.HasPrefix(path, "$") {
		return domain.InvalidArgumentf("field name %q must not start with '$'", path)
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return domain.InvalidArgumentf("field name %q has an empty path segment", path)
		}
	}
	return nil
}

func rootSegment(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// isPathPrefix reports whether a is b or an ancestor of b
func isPathPrefix(a, b string) bool {
	return a == b || strings.HasPrefix(b, a+".")
}

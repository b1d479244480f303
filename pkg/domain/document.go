package domain

import "reflect"

// Document represents a schemaless item stored in a collection
type Document map[string]interface{}

// Attributes is a match filter evaluated against document fields
type Attributes map[string]interface{}

// Field names managed by the accessor and the store
const (
	FieldInternalID = "_id"
	FieldPID        = "pid"
	FieldCreatedAt  = "created_at"
	FieldUpdatedAt  = "updated_at"
	FieldCreatedBy  = "created_by"
	FieldUpdatedBy  = "updated_by"
)

// PID returns the document's pid, or "" when it has none
func (d Document) PID() string {
	pid, _ := d[FieldPID].(string)
	return pid
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return CloneValue(d).(Document)
}

// CloneValue deep-copies maps and slices nested in a document value.
// Scalars (strings, numbers, times) are returned as-is.
func CloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Document:
		if t == nil {
			return t
		}
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = CloneValue(val)
		}
		return out
	case Attributes:
		if t == nil {
			return t
		}
		out := make(Attributes, len(t))
		for k, val := range t {
			out[k] = CloneValue(val)
		}
		return out
	case map[string]interface{}:
		if t == nil {
			return t
		}
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = CloneValue(val)
		}
		return out
	case []interface{}:
		if t == nil {
			return t
		}
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = CloneValue(val)
		}
		return out
	case []Document:
		if t == nil {
			return t
		}
		out := make([]Document, len(t))
		for i, val := range t {
			out[i] = val.Clone()
		}
		return out
	case []string:
		if t == nil {
			return t
		}
		return append([]string(nil), t...)
	}

	// Other slice types are copied element by element
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && !rv.IsNil() && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = CloneValue(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// AsInt64 reads an integral count of any width, as returned by stores
func AsInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// Package docstore defines the document store contract the profile layer
// persists through, plus a shared merge function and an in-memory store.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when an update's version guard does not match
	// the stored document.
	ErrConflict = errors.New("document version conflict")

	// ErrFieldType is returned when an operation does not fit the stored
	// field, such as incrementing a string.
	ErrFieldType = errors.New("field type mismatch")
)

// Document is a stored record. Fields hold JSON-compatible values.
type Document struct {
	Fields map[string]any

	// Version is maintained by the store: 1 after the first write, then
	// incremented on every Set or Update.
	Version int64
}

// Store is a collection-scoped key/document store.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Set creates or overwrites a document. doc.Version is ignored.
	Set(ctx context.Context, collection, id string, doc Document) error

	// Update applies field operations to an existing document.
	Update(ctx context.Context, collection, id string, upd Update) error
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}

// OpKind is the kind of a field operation.
type OpKind int

const (
	OpReplace   OpKind = iota // Overwrite the field
	OpIncrement               // Add a number to the field
	OpAppend                  // Push onto an array field
)

func (k OpKind) String() string {
	switch k {
	case OpReplace:
		return "replace"
	case OpIncrement:
		return "increment"
	case OpAppend:
		return "append"
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// FieldUpdate is one operation on a top-level field.
type FieldUpdate struct {
	Field string
	Op    OpKind
	Value any
}

// Replace overwrites field with v.
func Replace(field string, v any) FieldUpdate {
	return FieldUpdate{Field: field, Op: OpReplace, Value: v}
}

// Increment adds n to a numeric field. A missing field counts as 0.
func Increment(field string, n int64) FieldUpdate {
	return FieldUpdate{Field: field, Op: OpIncrement, Value: n}
}

// Append pushes v onto an array field. A missing field counts as empty.
func Append(field string, v any) FieldUpdate {
	return FieldUpdate{Field: field, Op: OpAppend, Value: v}
}

// Update is an atomic batch of field operations.
type Update struct {
	Fields []FieldUpdate

	// IfVersion, when non-zero, makes the update fail with ErrConflict
	// unless the stored version matches.
	IfVersion int64
}

// Apply merges upd into fields and returns the result. fields is not
// modified. The version guard is the caller's concern.
func Apply(fields map[string]any, upd Update) (map[string]any, error) {
	out := make(map[string]any, len(fields)+len(upd.Fields))
	for k, v := range fields {
		out[k] = v
	}

	for _, fu := range upd.Fields {
		switch fu.Op {
		case OpReplace:
			out[fu.Field] = fu.Value
		case OpIncrement:
			cur, ok := ToInt64(out[fu.Field])
			if !ok {
				return nil, fmt.Errorf("%w: increment %q holding %T", ErrFieldType, fu.Field, out[fu.Field])
			}
			n, ok := ToInt64(fu.Value)
			if !ok {
				return nil, fmt.Errorf("%w: increment %q by %T", ErrFieldType, fu.Field, fu.Value)
			}
			out[fu.Field] = cur + n
		case OpAppend:
			var list []any
			switch cur := out[fu.Field].(type) {
			case nil:
			case []any:
				list = append(list, cur...)
			default:
				return nil, fmt.Errorf("%w: append to %q holding %T", ErrFieldType, fu.Field, cur)
			}
			out[fu.Field] = append(list, fu.Value)
		default:
			return nil, fmt.Errorf("unknown operation %v on %q", fu.Op, fu.Field)
		}
	}
	return out, nil
}

// ToInt64 reads an integral number from a decoded value. nil reads as 0.
func ToInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), t == float64(int64(t))
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	}
	return 0, false
}

// Normalize converts fields to plain JSON values (maps, []any, float64,
// strings, bools) so every backend hands back the same shapes.
func Normalize(fields map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}

// Encode converts a struct into document fields via its JSON form.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// Decode fills v from document fields via their JSON form.
func Decode(fields map[string]any, v any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

package docstore

import (
	"reflect"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shape is the observed form of a value headed into or out of a collection.
type Shape int

const (
	// EmptyShape: nil, an empty list or an empty document. Nothing to store.
	EmptyShape Shape = iota
	// ListShape: a non-empty list; each element is one document.
	ListShape
	// DocShape: a single non-empty document.
	DocShape
	// UnknownShape: a scalar or anything else that cannot be stored as documents.
	UnknownShape
)

func (s Shape) String() string {
	switch s {
	case EmptyShape:
		return "empty"
	case ListShape:
		return "list"
	case DocShape:
		return "document"
	default:
		return "unknown"
	}
}

// ShapeOf classifies v once so callers branch on a single tag.
// primitive.D counts as a document, primitive.A as a list.
func ShapeOf(v any) Shape {
	switch t := v.(type) {
	case nil:
		return EmptyShape
	case primitive.D:
		if len(t) == 0 {
			return EmptyShape
		}
		return DocShape
	case primitive.A:
		if len(t) == 0 {
			return EmptyShape
		}
		return ListShape
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return EmptyShape
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return EmptyShape
		}
		return ListShape
	case reflect.Map:
		if rv.Len() == 0 {
			return EmptyShape
		}
		return DocShape
	case reflect.Struct:
		if rv.IsZero() {
			return EmptyShape
		}
		return DocShape
	default:
		return UnknownShape
	}
}

// listItems returns the elements of a ListShape value.
func listItems(v any) []any {
	if a, ok := v.(primitive.A); ok {
		return []any(a)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// asDocument converts the document forms the driver hands back into a Document.
func asDocument(v any) (Document, bool) {
	switch t := v.(type) {
	case Document:
		return t, true
	case primitive.M:
		return Document(t), true
	case primitive.D:
		m := make(Document, len(t))
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

package nullbind

import (
	"encoding"
	"reflect"
	"time"

	js "github.com/reoring/nullbind/jsonschema"
)

// JSONSchema projects s into JSON Schema. No property is required because an
// absent key is always accepted; only Fail properties reject null.
func (s *Schema[T]) JSONSchema() *js.Schema {
	return objectSchema(s.name, s.props)
}

func (s *Schema[T]) nestedJSONSchema() *js.Schema { return s.JSONSchema() }

func objectSchema(title string, props []Property) *js.Schema {
	out := &js.Schema{Title: title, Type: "object", Properties: make(map[string]*js.Schema, len(props))}
	for _, p := range props {
		var ps *js.Schema
		if n, ok := p.nested.(interface{ nestedJSONSchema() *js.Schema }); ok {
			ps = n.nestedJSONSchema()
			ps.Title = ""
		} else {
			ps = typeSchema(p.typ, 0)
		}
		if p.def != nil {
			ps.Default = p.def()
		}
		if p.policy != Fail {
			ps = js.Nullable(ps)
		}
		out.Properties[p.name] = ps
	}
	return out
}

const maxSchemaDepth = 16

func typeSchema(t reflect.Type, depth int) *js.Schema {
	if depth > maxSchemaDepth {
		return &js.Schema{}
	}
	if t == reflect.TypeFor[time.Time]() {
		return &js.Schema{Type: "string", Format: "date-time"}
	}
	if reflect.PointerTo(t).Implements(reflect.TypeFor[encoding.TextUnmarshaler]()) {
		return &js.Schema{Type: "string"}
	}
	switch t.Kind() {
	case reflect.Pointer:
		return typeSchema(t.Elem(), depth+1)
	case reflect.String:
		return &js.Schema{Type: "string"}
	case reflect.Bool:
		return &js.Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &js.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &js.Schema{Type: "number"}
	case reflect.Slice, reflect.Array:
		return &js.Schema{Type: "array", Items: typeSchema(t.Elem(), depth+1)}
	case reflect.Map:
		return &js.Schema{Type: "object", AdditionalProperties: typeSchema(t.Elem(), depth+1)}
	case reflect.Struct:
		return &js.Schema{Type: "object"}
	default:
		return &js.Schema{}
	}
}

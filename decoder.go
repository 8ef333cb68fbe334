package nullbind

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// Decoder converts a raw document value into a value of type t. The returned
// value must have dynamic type t (or be assignable to t when t is an
// interface). Raw values are the tree produced by the document parsers:
// map[string]any, []any, string, json.Number, bool. Decoders are never called
// with a null raw value.
type Decoder interface {
	Decode(raw any, t reflect.Type) (any, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(raw any, t reflect.Type) (any, error)

func (f DecoderFunc) Decode(raw any, t reflect.Type) (any, error) { return f(raw, t) }

// DefaultDecoder handles scalars directly and round-trips composite values
// and types with custom unmarshalers through goccy/go-json.
var DefaultDecoder Decoder = jsonDecoder{}

type jsonDecoder struct{}

var (
	jsonUnmarshalerType = reflect.TypeFor[json.Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

func (jsonDecoder) Decode(raw any, t reflect.Type) (any, error) {
	if t.Kind() == reflect.Interface && raw != nil && reflect.TypeOf(raw).Implements(t) {
		return raw, nil
	}
	pt := reflect.PointerTo(t)
	if pt.Implements(jsonUnmarshalerType) || pt.Implements(textUnmarshalerType) {
		return viaJSON(raw, t)
	}
	// Untyped containers keep the document tree as is, numbers included.
	if k := t.Kind(); k == reflect.Map || k == reflect.Slice {
		if rt := reflect.TypeOf(raw); rt != nil && rt.AssignableTo(t) {
			return reflect.ValueOf(raw).Convert(t).Interface(), nil
		}
	}
	switch t.Kind() {
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return nil, kindMismatch("string", raw)
		}
		return reflect.ValueOf(s).Convert(t).Interface(), nil
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return nil, kindMismatch("boolean", raw)
		}
		return reflect.ValueOf(b).Convert(t).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, kindMismatch("integer", raw)
		}
		i, err := strconv.ParseInt(string(n), 10, t.Bits())
		if err != nil {
			return nil, err
		}
		v := reflect.New(t).Elem()
		v.SetInt(i)
		return v.Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, kindMismatch("unsigned integer", raw)
		}
		u, err := strconv.ParseUint(string(n), 10, t.Bits())
		if err != nil {
			return nil, err
		}
		v := reflect.New(t).Elem()
		v.SetUint(u)
		return v.Interface(), nil
	case reflect.Float32, reflect.Float64:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, kindMismatch("number", raw)
		}
		f, err := strconv.ParseFloat(string(n), t.Bits())
		if err != nil {
			return nil, err
		}
		v := reflect.New(t).Elem()
		v.SetFloat(f)
		return v.Interface(), nil
	}
	return viaJSON(raw, t)
}

func viaJSON(raw any, t reflect.Type) (any, error) {
	b, err := gojson.Marshal(raw)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(t)
	if err := gojson.Unmarshal(b, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

func kindMismatch(want string, raw any) error {
	return fmt.Errorf("expected %s, got %s", want, rawKind(raw))
}

func rawKind(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", raw)
	}
}

package register

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	y "gopkg.in/yaml.v3"

	"github.com/reoring/nullbind"
	"github.com/reoring/nullbind/codec"
	yamlsrc "github.com/reoring/nullbind/source/yaml"
)

// Record is the target of declared schemas: one entry per bound property.
type Record map[string]any

// Declaration is a schema written as YAML:
//
//	name: Bean
//	strategy: constructor
//	nulls: skip
//	properties:
//	  - name: intVal
//	    type: int
//	    nulls: fail
//	  - name: listVal
//	    type: strings
//	    default: []
//	  - name: beanVal
//	    type: object
//	    properties:
//	      - name: stringVal
//	        type: string
type Declaration struct {
	Name       string         `yaml:"name"`
	Strategy   string         `yaml:"strategy"`
	Nulls      string         `yaml:"nulls"`
	Properties []PropertyDecl `yaml:"properties"`
}

// PropertyDecl declares one property. Type is one of string, int, float,
// bool, time, duration, list, strings, map, any or object; object requires
// Properties. time reads RFC3339 strings and duration reads Go duration
// strings or nanosecond counts.
type PropertyDecl struct {
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Nulls      string         `yaml:"nulls"`
	Default    y.Node         `yaml:"default"`
	Empty      y.Node         `yaml:"empty"`
	Properties []PropertyDecl `yaml:"properties"`
}

var declTypes = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"int":      reflect.TypeFor[int64](),
	"float":    reflect.TypeFor[float64](),
	"bool":     reflect.TypeFor[bool](),
	"time":     reflect.TypeFor[time.Time](),
	"duration": reflect.TypeFor[time.Duration](),
	"list":     reflect.TypeFor[[]any](),
	"strings":  reflect.TypeFor[[]string](),
	"map":      reflect.TypeFor[map[string]any](),
	"any":      reflect.TypeFor[any](),
	"object":   reflect.TypeFor[Record](),
}

// LoadDeclaration parses a YAML declaration. Unknown fields are rejected.
func LoadDeclaration(data []byte) (*Declaration, error) {
	dec := y.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d Declaration
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty declaration", nullbind.ErrInvalidSchema)
		}
		return nil, fmt.Errorf("%w: %v", nullbind.ErrInvalidSchema, err)
	}
	return &d, nil
}

// Schema compiles d with its declared strategy.
func (d *Declaration) Schema() (*nullbind.Schema[Record], error) {
	st, err := nullbind.ParseStrategy(d.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nullbind.ErrInvalidSchema, err)
	}
	return d.SchemaFor(st)
}

// SchemaFor compiles d with strategy st, ignoring the declared one. Both
// strategies of one declaration bind identical records.
func (d *Declaration) SchemaFor(st nullbind.Strategy) (*nullbind.Schema[Record], error) {
	s, err := compile(d.Properties, d.Nulls, st)
	if err != nil {
		return nil, err
	}
	if d.Name != "" {
		s = s.Named(d.Name)
	}
	return s, nil
}

func compile(decls []PropertyDecl, nulls string, st nullbind.Strategy) (*nullbind.Schema[Record], error) {
	fallback := nullbind.Skip
	if nulls != "" {
		p, err := nullbind.ParseNullPolicy(nulls)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", nullbind.ErrInvalidSchema, err)
		}
		fallback = p
	}
	props := make([]nullbind.Property, len(decls))
	for i, pd := range decls {
		p, err := compileProperty(pd, fallback, st)
		if err != nil {
			return nil, err
		}
		props[i] = p
	}
	var (
		s   *nullbind.Schema[Record]
		err error
	)
	if st == nullbind.ConstructorStrategy {
		s, err = nullbind.NewConstructorSchema(func(a nullbind.Args) (Record, error) {
			r := make(Record, a.Len())
			for i := 0; i < a.Len(); i++ {
				r[a.Name(i)] = a.Value(i)
			}
			return r, nil
		}, props...)
	} else {
		s, err = newRecordSetter(props)
	}
	if err != nil {
		return nil, err
	}
	return s.WithDecoder(codec.Standard()), nil
}

func newRecordSetter(props []nullbind.Property) (*nullbind.Schema[Record], error) {
	fields := make([]nullbind.Field[Record], len(props))
	for i, p := range props {
		name := p.Name()
		fields[i] = nullbind.SetField(p, func(r *Record, v any) { (*r)[name] = v })
	}
	return nullbind.NewSetterSchema(func() Record {
		r := make(Record, len(props))
		for _, p := range props {
			r[p.Name()] = p.DefaultValue()
		}
		return r
	}, fields...)
}

func compileProperty(pd PropertyDecl, fallback nullbind.NullPolicy, st nullbind.Strategy) (nullbind.Property, error) {
	var zero nullbind.Property
	if pd.Name == "" {
		return zero, fmt.Errorf("%w: property without name", nullbind.ErrInvalidSchema)
	}
	kind := pd.Type
	if kind == "" {
		kind = "any"
	}
	t, ok := declTypes[kind]
	if !ok {
		return zero, fmt.Errorf("%w: property %q: unknown type %q", nullbind.ErrInvalidSchema, pd.Name, pd.Type)
	}
	policy := fallback
	if pd.Nulls != "" {
		p, err := nullbind.ParseNullPolicy(pd.Nulls)
		if err != nil {
			return zero, fmt.Errorf("%w: property %q: %v", nullbind.ErrInvalidSchema, pd.Name, err)
		}
		policy = p
	}
	opts := []nullbind.PropOption{nullbind.Nulls(policy)}
	if kind == "object" {
		if len(pd.Properties) == 0 {
			return zero, fmt.Errorf("%w: property %q: object without properties", nullbind.ErrInvalidSchema, pd.Name)
		}
		nested, err := compile(pd.Properties, "", st)
		if err != nil {
			return zero, fmt.Errorf("property %q: %w", pd.Name, err)
		}
		opts = append(opts, nullbind.WithSchema(nested))
	} else if len(pd.Properties) > 0 {
		return zero, fmt.Errorf("%w: property %q: properties require type object", nullbind.ErrInvalidSchema, pd.Name)
	}
	if pd.Default.Kind != 0 {
		def, err := nodeSupplier(&pd.Default, t)
		if err != nil {
			return zero, fmt.Errorf("%w: property %q default: %v", nullbind.ErrInvalidSchema, pd.Name, err)
		}
		opts = append(opts, nullbind.DefaultFunc(def))
	}
	if pd.Empty.Kind != 0 {
		empty, err := nodeSupplier(&pd.Empty, t)
		if err != nil {
			return zero, fmt.Errorf("%w: property %q empty: %v", nullbind.ErrInvalidSchema, pd.Name, err)
		}
		opts = append(opts, nullbind.EmptyWith(empty))
	}
	return nullbind.NewProperty(pd.Name, t, opts...), nil
}

// nodeSupplier checks that n decodes to t and returns a supplier decoding a
// fresh value on every call, so bound records never share default storage.
func nodeSupplier(n *y.Node, t reflect.Type) (func() any, error) {
	node := *n
	decode := func() (any, error) {
		raw, err := yamlsrc.NodeValue(&node)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return reflect.Zero(t).Interface(), nil
		}
		return codec.Standard().Decode(raw, t)
	}
	if _, err := decode(); err != nil {
		return nil, err
	}
	return func() any {
		v, _ := decode()
		return v
	}, nil
}

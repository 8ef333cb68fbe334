// Package register builds nullbind schemas from external declarations:
// struct tags (reflection, once at startup) and YAML documents.
package register

import (
	"fmt"
	"reflect"

	"github.com/reoring/nullbind"
	"github.com/reoring/nullbind/codec"
)

// Option configures reflective registration.
type Option func(*options)

type options struct {
	factory       any
	defaultPolicy nullbind.NullPolicy
	policies      map[string]nullbind.NullPolicy
	decoder       nullbind.Decoder
}

// Factory sets the function producing a target holding every default. The
// setter form starts from it and the constructor form draws its per-property
// defaults from it, which keeps both forms equivalent. Without a factory the
// zero value of T is used.
func Factory[T any](f func() T) Option {
	return func(o *options) { o.factory = f }
}

// DefaultPolicy applies to fields whose tag names no policy.
func DefaultPolicy(p nullbind.NullPolicy) Option {
	return func(o *options) { o.defaultPolicy = p }
}

// Policies overrides policies by document key, taking precedence over tags.
func Policies(m map[string]nullbind.NullPolicy) Option {
	return func(o *options) {
		if o.policies == nil {
			o.policies = make(map[string]nullbind.NullPolicy, len(m))
		}
		for k, v := range m {
			o.policies[k] = v
		}
	}
}

// Decoder sets the decoder of the produced schema. The default is
// codec.Standard(), which also reads RFC3339 times and duration strings.
func Decoder(d nullbind.Decoder) Option {
	return func(o *options) { o.decoder = d }
}

type structField struct {
	index []int
	prop  nullbind.Property
}

// Setters registers T as a SetterStrategy schema. Every exported field not
// disabled by a "-" tag becomes a property, in field order.
func Setters[T any](opts ...Option) (*nullbind.Schema[T], error) {
	o := collect(opts)
	factory, err := factoryOf[T](o)
	if err != nil {
		return nil, err
	}
	fields, err := structFields[T](o, nil)
	if err != nil {
		return nil, err
	}
	fs := make([]nullbind.Field[T], len(fields))
	for i, f := range fields {
		idx := f.index
		fs[i] = nullbind.SetField(f.prop, func(t *T, v any) {
			assign(reflect.ValueOf(t).Elem().FieldByIndex(idx), v)
		})
	}
	s, err := nullbind.NewSetterSchema(factory, fs...)
	if err != nil {
		return nil, err
	}
	return withDecoder(s, o), nil
}

// Constructors registers T as a ConstructorStrategy schema over the same
// properties Setters would produce. The constructor builds T from its zero
// value and assigns each slot.
func Constructors[T any](opts ...Option) (*nullbind.Schema[T], error) {
	o := collect(opts)
	factory, err := factoryOf[T](o)
	if err != nil {
		return nil, err
	}
	fields, err := structFields[T](o, factory)
	if err != nil {
		return nil, err
	}
	params := make([]nullbind.Property, len(fields))
	for i, f := range fields {
		params[i] = f.prop
	}
	invoke := func(a nullbind.Args) (T, error) {
		var t T
		rv := reflect.ValueOf(&t).Elem()
		for i, f := range fields {
			assign(rv.FieldByIndex(f.index), a.Value(i))
		}
		return t, nil
	}
	s, err := nullbind.NewConstructorSchema(invoke, params...)
	if err != nil {
		return nil, err
	}
	return withDecoder(s, o), nil
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func factoryOf[T any](o options) (func() T, error) {
	if o.factory == nil {
		return func() T {
			var zero T
			return zero
		}, nil
	}
	f, ok := o.factory.(func() T)
	if !ok {
		return nil, fmt.Errorf("%w: factory %T does not produce %s", nullbind.ErrInvalidSchema, o.factory, reflect.TypeFor[T]())
	}
	return f, nil
}

// structFields walks the exported fields of T. When factory is non-nil each
// property's default supplier reads the field from a fresh factory value.
func structFields[T any](o options, factory func() T) ([]structField, error) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", nullbind.ErrInvalidSchema, rt)
	}
	var out []structField
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, ok, err := resolveFieldTag(sf)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", nullbind.ErrInvalidSchema, rt, err)
		}
		if !ok {
			continue
		}
		policy := o.defaultPolicy
		if tag.hasPolicy {
			policy = tag.policy
		}
		if p, ok := o.policies[tag.key]; ok {
			policy = p
		}
		popts := []nullbind.PropOption{nullbind.Nulls(policy)}
		if factory != nil {
			idx := sf.Index
			popts = append(popts, nullbind.DefaultFunc(func() any {
				return reflect.ValueOf(factory()).FieldByIndex(idx).Interface()
			}))
		}
		out = append(out, structField{index: sf.Index, prop: nullbind.NewProperty(tag.key, sf.Type, popts...)})
	}
	return out, nil
}

func withDecoder[T any](s *nullbind.Schema[T], o options) *nullbind.Schema[T] {
	if o.decoder == nil {
		return s.WithDecoder(codec.Standard())
	}
	return s.WithDecoder(o.decoder)
}

// assign stores v in fv, mapping nil to the field's zero value.
func assign(fv reflect.Value, v any) {
	if v == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return
	}
	fv.Set(reflect.ValueOf(v))
}

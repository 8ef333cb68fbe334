package nullbind

import (
	"fmt"
	"reflect"
)

// Property is the static description of one target property. It is a value
// type; once placed in a Schema it is never modified.
type Property struct {
	name   string
	typ    reflect.Type
	policy NullPolicy
	def    func() any // nil: zero value of typ
	empty  func() any // nil: EmptyValue(typ)
	nested nestedSchema
	err    error // first option error, reported when the schema is built
}

// PropOption configures a Property.
type PropOption func(*Property)

// NewProperty describes a property of type t. It is the untyped entry point
// used by reflective registration; prefer Param or Set in hand-written code.
func NewProperty(name string, t reflect.Type, opts ...PropOption) Property {
	p := Property{name: name, typ: t}
	for _, o := range opts {
		if o != nil {
			o(&p)
		}
	}
	return p
}

// Param describes a constructor parameter of type V whose default is V's
// zero value.
func Param[V any](name string, opts ...PropOption) Property {
	return NewProperty(name, reflect.TypeFor[V](), opts...)
}

// ParamDefault describes a constructor parameter of type V with a default
// supplier used when the document omits the key or a Skip policy absorbs a
// null.
func ParamDefault[V any](name string, def func() V, opts ...PropOption) Property {
	p := Param[V](name, opts...)
	if def != nil {
		p.def = func() any { return def() }
	}
	return p
}

// Nulls sets the property's null policy. The default is Skip.
func Nulls(policy NullPolicy) PropOption {
	return func(p *Property) {
		if policy < Skip || policy > DefaultEmpty {
			p.setErr(fmt.Errorf("unknown null policy %d", int(policy)))
			return
		}
		p.policy = policy
	}
}

// DefaultFunc sets an untyped default supplier. The supplied value is type
// checked when the schema is built.
func DefaultFunc(def func() any) PropOption {
	return func(p *Property) { p.def = def }
}

// EmptyWith overrides the value DefaultEmpty assigns. The supplied value is
// type checked when the schema is built.
func EmptyWith(empty func() any) PropOption {
	return func(p *Property) { p.empty = empty }
}

// WithSchema resolves a present object value through s, applying its null
// policies at the nested level. The property type must be V or *V.
func WithSchema[V any](s *Schema[V]) PropOption {
	return func(p *Property) {
		if s == nil {
			p.setErr(fmt.Errorf("nil nested schema"))
			return
		}
		p.nested = s
	}
}

// Name returns the document key of the property.
func (p Property) Name() string { return p.name }

// Type returns the declared Go type.
func (p Property) Type() reflect.Type { return p.typ }

// Policy returns the null policy.
func (p Property) Policy() NullPolicy { return p.policy }

// HasDefault reports whether a default supplier was configured explicitly.
func (p Property) HasDefault() bool { return p.def != nil }

// DefaultValue returns a fresh default for the property.
func (p Property) DefaultValue() any {
	if p.def != nil {
		return p.def()
	}
	return reflect.Zero(p.typ).Interface()
}

func (p Property) emptyValue() any {
	if p.empty != nil {
		return p.empty()
	}
	return EmptyValue(p.typ)
}

func (p *Property) setErr(err error) {
	if p.err == nil {
		p.err = err
	}
}

// validate reports configuration errors for one property.
func (p Property) validate() error {
	if p.err != nil {
		return fmt.Errorf("%w: property %q: %v", ErrInvalidSchema, p.name, p.err)
	}
	if p.name == "" {
		return fmt.Errorf("%w: property name must not be empty", ErrInvalidSchema)
	}
	if p.typ == nil {
		return fmt.Errorf("%w: property %q has no type", ErrInvalidSchema, p.name)
	}
	if p.def != nil {
		if err := checkAssignable(p.def(), p.typ); err != nil {
			return fmt.Errorf("%w: property %q default: %v", ErrInvalidSchema, p.name, err)
		}
	}
	if p.empty != nil {
		if err := checkAssignable(p.empty(), p.typ); err != nil {
			return fmt.Errorf("%w: property %q empty value: %v", ErrInvalidSchema, p.name, err)
		}
	}
	if p.nested != nil {
		nt := p.nested.targetType()
		if p.typ != nt && p.typ != reflect.PointerTo(nt) {
			return fmt.Errorf("%w: property %q of type %s cannot hold nested %s", ErrInvalidSchema, p.name, p.typ, nt)
		}
	}
	return nil
}

func checkAssignable(v any, t reflect.Type) error {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return nil
		}
		return fmt.Errorf("nil is not a valid %s", t)
	}
	if vt := reflect.TypeOf(v); !vt.AssignableTo(t) {
		return fmt.Errorf("%s is not assignable to %s", vt, t)
	}
	return nil
}

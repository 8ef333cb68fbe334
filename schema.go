package nullbind

import (
	"fmt"
	"reflect"
)

// Strategy selects how resolved values materialize a target.
type Strategy int

const (
	// SetterStrategy starts from a factory value and assigns each non-skipped
	// property through its mutator.
	SetterStrategy Strategy = iota
	// ConstructorStrategy fills every positional slot and constructs the
	// target in one call.
	ConstructorStrategy
)

func (s Strategy) String() string {
	switch s {
	case SetterStrategy:
		return "setter"
	case ConstructorStrategy:
		return "constructor"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "setter" and "constructor".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "setter", "":
		return SetterStrategy, nil
	case "constructor":
		return ConstructorStrategy, nil
	}
	return SetterStrategy, fmt.Errorf("nullbind: unknown strategy %q", s)
}

// Field pairs a property with the mutator a SetterStrategy schema uses.
type Field[T any] struct {
	prop Property
	set  func(*T, any)
}

// Property returns the described property.
func (f Field[T]) Property() Property { return f.prop }

// Set describes a property of type V assigned through set.
func Set[T, V any](name string, set func(*T, V), opts ...PropOption) Field[T] {
	f := Field[T]{prop: Param[V](name, opts...)}
	if set != nil {
		f.set = func(t *T, v any) { set(t, as[V](v)) }
	}
	return f
}

// SetField pairs an already described property with an untyped mutator. The
// mutator receives values of the property's declared type, or nil for a
// SetNull on a nillable type.
func SetField[T any](p Property, set func(*T, any)) Field[T] {
	return Field[T]{prop: p, set: set}
}

// Args is the positional argument list handed to a constructor.
type Args struct {
	names  []string
	values []any
}

// Len returns the number of slots.
func (a Args) Len() int { return len(a.values) }

// Name returns the property name bound to slot i.
func (a Args) Name(i int) string { return a.names[i] }

// Value returns slot i.
func (a Args) Value(i int) any { return a.values[i] }

// Arg returns slot i as V. A nil slot yields V's zero value.
func Arg[V any](a Args, i int) V { return as[V](a.values[i]) }

// ArgNamed returns the slot bound to the named property as V.
func ArgNamed[V any](a Args, name string) V {
	for i, n := range a.names {
		if n == name {
			return as[V](a.values[i])
		}
	}
	var zero V
	return zero
}

// Schema describes a target type T: its ordered properties and the strategy
// that materializes it. A Schema is immutable and safe for concurrent use.
type Schema[T any] struct {
	name     string
	strategy Strategy
	props    []Property
	decoder  Decoder
	binder   Binder[T]
}

// NewSetterSchema builds a SetterStrategy schema. factory must return a fresh
// target holding every property's default.
func NewSetterSchema[T any](factory func() T, fields ...Field[T]) (*Schema[T], error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil factory", ErrInvalidSchema)
	}
	props := make([]Property, len(fields))
	setters := make([]func(*T, any), len(fields))
	for i, f := range fields {
		if f.set == nil {
			return nil, fmt.Errorf("%w: property %q has no mutator", ErrInvalidSchema, f.prop.name)
		}
		props[i] = f.prop
		setters[i] = f.set
	}
	if err := validateProps(props); err != nil {
		return nil, err
	}
	return &Schema[T]{
		name:     targetName[T](),
		strategy: SetterStrategy,
		props:    props,
		decoder:  DefaultDecoder,
		binder:   &SetterBinder[T]{props: props, factory: factory, setters: setters},
	}, nil
}

// NewConstructorSchema builds a ConstructorStrategy schema. invoke receives
// one slot per parameter, in declared order.
func NewConstructorSchema[T any](invoke func(Args) (T, error), params ...Property) (*Schema[T], error) {
	if invoke == nil {
		return nil, fmt.Errorf("%w: nil constructor", ErrInvalidSchema)
	}
	props := append([]Property(nil), params...)
	if err := validateProps(props); err != nil {
		return nil, err
	}
	return &Schema[T]{
		name:     targetName[T](),
		strategy: ConstructorStrategy,
		props:    props,
		decoder:  DefaultDecoder,
		binder:   &ConstructorBinder[T]{props: props, invoke: invoke},
	}, nil
}

// MustSchema panics when err is non-nil. It suits package-level schema
// variables built at startup.
func MustSchema[T any](s *Schema[T], err error) *Schema[T] {
	if err != nil {
		panic(err)
	}
	return s
}

func validateProps(props []Property) error {
	seen := make(map[string]struct{}, len(props))
	for _, p := range props {
		if err := p.validate(); err != nil {
			return err
		}
		if _, dup := seen[p.name]; dup {
			return fmt.Errorf("%w: duplicate property %q", ErrInvalidSchema, p.name)
		}
		seen[p.name] = struct{}{}
	}
	return nil
}

// WithDecoder returns a copy of s that decodes present values with d.
func (s *Schema[T]) WithDecoder(d Decoder) *Schema[T] {
	out := *s
	if d == nil {
		d = DefaultDecoder
	}
	out.decoder = d
	return &out
}

// Named returns a copy of s with a display name used in JSON Schema export.
func (s *Schema[T]) Named(name string) *Schema[T] {
	out := *s
	out.name = name
	return &out
}

// Name returns the display name (the Go type name unless overridden).
func (s *Schema[T]) Name() string { return s.name }

// Strategy returns the binding strategy.
func (s *Schema[T]) Strategy() Strategy { return s.strategy }

// Properties returns a copy of the ordered properties.
func (s *Schema[T]) Properties() []Property { return append([]Property(nil), s.props...) }

// Binder returns the strategy-specific binder.
func (s *Schema[T]) Binder() Binder[T] { return s.binder }

// Resolve computes the resolved values of doc against s.
func (s *Schema[T]) Resolve(doc Document) ([]ResolvedValue, error) {
	return Resolver{Decoder: s.decoder}.resolveAt(doc, s.props, "")
}

// Bind materializes a target from values resolved against s.
func (s *Schema[T]) Bind(values []ResolvedValue) (T, error) { return s.binder.Bind(values) }

// nestedSchema lets a property resolve its object value through another
// schema regardless of that schema's target type.
type nestedSchema interface {
	targetType() reflect.Type
	resolveNested(doc Document, base string) ([]ResolvedValue, error)
	bindNested(values []ResolvedValue) (any, error)
}

func (s *Schema[T]) targetType() reflect.Type { return reflect.TypeFor[T]() }

func (s *Schema[T]) resolveNested(doc Document, base string) ([]ResolvedValue, error) {
	return Resolver{Decoder: s.decoder}.resolveAt(doc, s.props, base)
}

func (s *Schema[T]) bindNested(values []ResolvedValue) (any, error) { return s.binder.Bind(values) }

func targetName[T any]() string {
	t := reflect.TypeFor[T]()
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// as converts v to V, mapping nil to V's zero value.
func as[V any](v any) V {
	out, _ := v.(V)
	return out
}

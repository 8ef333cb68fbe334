package nullbind

import (
	"fmt"

	eng "github.com/reoring/nullbind/internal/engine"
)

// Binder materializes a target from resolved values.
type Binder[T any] interface {
	Bind(values []ResolvedValue) (T, error)
	Strategy() Strategy
}

// SetterBinder starts from a factory value and assigns every non-skipped
// property through its mutator. Nested targets are built before the factory
// runs. Skipped properties keep the factory default, which makes Skip and
// Absent indistinguishable in the result.
type SetterBinder[T any] struct {
	props   []Property
	factory func() T
	setters []func(*T, any)
}

func (b *SetterBinder[T]) Strategy() Strategy { return SetterStrategy }

func (b *SetterBinder[T]) Bind(values []ResolvedValue) (T, error) {
	var zero T
	if err := checkSlots(b.props, values); err != nil {
		return zero, err
	}
	finals := make([]any, len(values))
	for i, v := range values {
		if v.skip {
			continue
		}
		f, err := finalValue(v)
		if err != nil {
			return zero, err
		}
		finals[i] = f
	}
	t := b.factory()
	for i, v := range values {
		if v.skip {
			continue
		}
		b.setters[i](&t, finals[i])
	}
	return t, nil
}

// ConstructorBinder fills one positional slot per property and invokes the
// constructor once. Skipped slots receive the property's default supplier,
// which keeps the result equal to what a SetterBinder with a matching
// factory produces.
type ConstructorBinder[T any] struct {
	props  []Property
	invoke func(Args) (T, error)
}

func (b *ConstructorBinder[T]) Strategy() Strategy { return ConstructorStrategy }

func (b *ConstructorBinder[T]) Bind(values []ResolvedValue) (T, error) {
	var zero T
	if err := checkSlots(b.props, values); err != nil {
		return zero, err
	}
	args := Args{names: make([]string, len(values)), values: make([]any, len(values))}
	for i, v := range values {
		args.names[i] = b.props[i].name
		if v.skip {
			args.values[i] = b.props[i].DefaultValue()
			continue
		}
		f, err := finalValue(v)
		if err != nil {
			return zero, err
		}
		args.values[i] = f
	}
	t, err := b.invoke(args)
	if err != nil {
		return zero, fmt.Errorf("nullbind: construct: %w", err)
	}
	return t, nil
}

// checkSlots verifies that values were resolved against props: same count,
// same names, same order.
func checkSlots(props []Property, values []ResolvedValue) error {
	for i, p := range props {
		if i >= len(values) {
			return &SchemaMismatchError{Property: p.name, Path: "/" + eng.EscapePointerToken(p.name), Reason: fmt.Sprintf("no resolved value for slot %d", i)}
		}
		if got := values[i].Property.name; got != p.name {
			return &SchemaMismatchError{Property: p.name, Path: values[i].Path, Reason: fmt.Sprintf("slot %d holds %q", i, got)}
		}
	}
	if len(values) > len(props) {
		extra := values[len(props)]
		return &SchemaMismatchError{Property: extra.Property.name, Path: extra.Path, Reason: "resolved value has no slot in the schema"}
	}
	return nil
}

// BindDocument resolves doc against s and binds the result. On failure no
// target is returned.
func BindDocument[T any](doc Document, s *Schema[T]) (T, error) {
	var zero T
	values, err := s.Resolve(doc)
	if err != nil {
		return zero, err
	}
	return s.Bind(values)
}

// BindDocumentWithMeta is BindDocument plus per-property provenance keyed by
// JSON Pointer.
func BindDocumentWithMeta[T any](doc Document, s *Schema[T]) (Decoded[T], error) {
	values, err := s.Resolve(doc)
	if err != nil {
		return Decoded[T]{}, err
	}
	t, err := s.Bind(values)
	if err != nil {
		return Decoded[T]{}, err
	}
	return Decoded[T]{Value: t, Presence: presenceOf(values)}, nil
}

package nullbind

import (
	"errors"
	"fmt"
	"reflect"

	eng "github.com/reoring/nullbind/internal/engine"
)

// ResolvedValue is the outcome of resolving one property against one
// document. It lives for a single binding call.
type ResolvedValue struct {
	Property Property
	Path     string // JSON Pointer of the property in the document.
	Presence ValuePresence
	// Final is the value handed to the binder. It is meaningless when
	// Skipped reports true. For a present property declared WithSchema it is
	// the raw object; the binder builds the nested target from Nested.
	Final any
	// Nested holds the resolved values of a property declared WithSchema.
	Nested []ResolvedValue

	skip     bool
	deferred bool // Final is built from Nested at bind time.
	flags    Presence
}

// Skipped reports whether the binder must leave the property at its default.
func (r ResolvedValue) Skipped() bool { return r.skip }

// Provenance returns the presence flags describing where Final came from.
func (r ResolvedValue) Provenance() Presence { return r.flags }

// Resolver computes ValuePresence per property and applies null policies.
// The zero Resolver uses DefaultDecoder.
type Resolver struct {
	Decoder Decoder
}

// Resolve resolves doc against every property of s, in declared order. It
// stops at the first error. Resolution has no side effects, so one schema can
// serve any number of concurrent calls.
func Resolve[T any](doc Document, s *Schema[T]) ([]ResolvedValue, error) {
	return s.Resolve(doc)
}

// Resolve resolves doc against props, in order.
func (r Resolver) Resolve(doc Document, props []Property) ([]ResolvedValue, error) {
	return r.resolveAt(doc, props, "")
}

func (r Resolver) resolveAt(doc Document, props []Property, base string) ([]ResolvedValue, error) {
	if doc == nil {
		doc = Object(nil)
	}
	dec := r.Decoder
	if dec == nil {
		dec = DefaultDecoder
	}
	out := make([]ResolvedValue, 0, len(props))
	for _, p := range props {
		rv, err := resolveOne(doc, p, base+"/"+eng.EscapePointerToken(p.name), dec)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, nil
}

func resolveOne(doc Document, p Property, path string, dec Decoder) (ResolvedValue, error) {
	rv := ResolvedValue{Property: p, Path: path}
	if !doc.Has(p.name) {
		// Absent never consults the policy.
		rv.Presence = AbsentValue()
		rv.skip = true
		rv.flags = PresenceDefaultApplied
		return rv, nil
	}
	if doc.IsNull(p.name) {
		rv.Presence = NullValue()
		rv.flags = PresenceSeen | PresenceWasNull
		switch p.policy {
		case Fail:
			return ResolvedValue{}, &NullNotAllowedError{Property: p.name, Path: path}
		case SetNull:
			rv.Final = nullValue(p.typ)
		case DefaultEmpty:
			rv.Final = p.emptyValue()
			rv.flags |= PresenceEmptyApplied
		default:
			rv.skip = true
			rv.flags |= PresenceDefaultApplied
		}
		return rv, nil
	}

	raw := doc.Raw(p.name)
	rv.flags = PresenceSeen
	if p.nested != nil {
		children, err := resolveNestedValue(p, path, raw)
		if err != nil {
			return ResolvedValue{}, err
		}
		rv.Presence = PresentValue(raw)
		rv.Final = raw
		rv.Nested = children
		rv.deferred = true
		return rv, nil
	}
	v, err := decodeValue(dec, p, path, raw)
	if err != nil {
		return ResolvedValue{}, err
	}
	rv.Presence = PresentValue(v)
	rv.Final = v
	return rv, nil
}

func decodeValue(dec Decoder, p Property, path string, raw any) (any, error) {
	v, err := dec.Decode(raw, p.typ)
	if err == nil {
		err = checkAssignable(v, p.typ)
	}
	if err != nil {
		var tce *TypeConversionError
		if errors.As(err, &tce) {
			err = tce.Cause
		}
		return nil, &TypeConversionError{Property: p.name, Path: path, Expected: p.typ, Raw: raw, Cause: err}
	}
	return v, nil
}

// resolveNestedValue resolves a present object through the property's nested
// schema. No target is built here.
func resolveNestedValue(p Property, path string, raw any) ([]ResolvedValue, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &TypeConversionError{Property: p.name, Path: path, Expected: p.typ, Raw: raw, Cause: kindMismatch("object", raw)}
	}
	return p.nested.resolveNested(Object(m), path)
}

// finalValue returns what a binder assigns for v, materializing nested
// targets from their resolved children.
func finalValue(v ResolvedValue) (any, error) {
	if !v.deferred {
		return v.Final, nil
	}
	p := v.Property
	out, err := p.nested.bindNested(v.Nested)
	if err != nil {
		return nil, err
	}
	if p.typ.Kind() == reflect.Pointer && p.typ.Elem() == p.nested.targetType() {
		ptr := reflect.New(p.typ.Elem())
		if out != nil {
			ptr.Elem().Set(reflect.ValueOf(out))
		}
		out = ptr.Interface()
	}
	return out, nil
}

// presenceOf flattens resolved values, including nested ones, into a
// PresenceMap rooted at "/".
func presenceOf(values []ResolvedValue) PresenceMap {
	pm := PresenceMap{"/": PresenceSeen}
	var walk func([]ResolvedValue)
	walk = func(vs []ResolvedValue) {
		for _, v := range vs {
			pm[v.Path] |= v.flags
			walk(v.Nested)
		}
	}
	walk(values)
	return pm
}

// String renders a resolved value for diagnostics.
func (r ResolvedValue) String() string {
	if r.skip {
		return fmt.Sprintf("%s=%s(skip)", r.Path, r.Presence.Kind)
	}
	return fmt.Sprintf("%s=%s(%v)", r.Path, r.Presence.Kind, r.Final)
}

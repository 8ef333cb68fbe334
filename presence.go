package nullbind

import "strings"

// PresenceKind classifies how a document mentions a declared property.
type PresenceKind uint8

const (
	Absent  PresenceKind = iota // Key not in the document.
	Null                        // Key mapped to the null literal.
	Present                     // Key mapped to a concrete value.
)

func (k PresenceKind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Null:
		return "null"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// ValuePresence is the tri-state observed for one property of one document.
// Value is only meaningful when Kind is Present.
type ValuePresence struct {
	Kind  PresenceKind
	Value any
}

// AbsentValue reports a key missing from the document.
func AbsentValue() ValuePresence { return ValuePresence{Kind: Absent} }

// NullValue reports a key explicitly mapped to null.
func NullValue() ValuePresence { return ValuePresence{Kind: Null} }

// PresentValue wraps a decoded value.
func PresentValue(v any) ValuePresence { return ValuePresence{Kind: Present, Value: v} }

// PresentAs returns the decoded value as V when the presence is Present.
func PresentAs[V any](p ValuePresence) (V, bool) {
	if p.Kind != Present {
		var zero V
		return zero, false
	}
	v, ok := p.Value.(V)
	return v, ok
}

// Presence is the bit flag collected by WithMeta APIs.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Key appeared in the input.
	PresenceWasNull                             // Key value was null.
	PresenceDefaultApplied                      // Target kept or received the property default.
	PresenceEmptyApplied                        // Null replaced by the type's empty value.
)

// PresenceMap maps JSON Pointers to Presence flags.
type PresenceMap map[string]Presence

// Decoded carries the bound value along with presence metadata.
type Decoded[T any] struct {
	Value    T
	Presence PresenceMap
}

// Has reports whether every bit in flags is set for the pointer p.
func (pm PresenceMap) Has(p string, flags Presence) bool {
	return pm[p]&flags == flags
}

var presenceNames = [...]string{"seen", "was_null", "default_applied", "empty_applied"}

// String lists the set flags joined by "|", or "-" when none is set.
func (p Presence) String() string {
	var parts []string
	for i, n := range presenceNames {
		if p&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "|")
}

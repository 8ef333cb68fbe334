package nullbind

import (
	"fmt"
	"reflect"
	"strings"
)

// NullPolicy selects the reaction to an explicit null for one property.
// Absent keys are never subject to the policy.
type NullPolicy int

const (
	Skip         NullPolicy = iota // Leave the target's default untouched.
	Fail                           // Reject the document.
	SetNull                        // Assign nil (or the zero value for non-nillable types).
	DefaultEmpty                   // Assign the type's canonical empty value.
)

var policyNames = [...]string{
	Skip:         "skip",
	Fail:         "fail",
	SetNull:      "set_null",
	DefaultEmpty: "default_empty",
}

func (p NullPolicy) String() string {
	if p >= 0 && int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("NullPolicy(%d)", int(p))
}

// ParseNullPolicy accepts the textual forms skip, fail, set_null and
// default_empty (case-insensitive, '-' accepted for '_').
func ParseNullPolicy(s string) (NullPolicy, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range policyNames {
		if n == norm {
			return NullPolicy(i), nil
		}
	}
	return Skip, fmt.Errorf("nullbind: unknown null policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p NullPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler, which also makes the
// policy usable in YAML declarations and env configuration.
func (p *NullPolicy) UnmarshalText(b []byte) error {
	v, err := ParseNullPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// EmptyValue returns the canonical empty value of t: zero for scalars and
// structs, a non-nil empty slice or map for collections, and nil for
// pointers and interfaces (an absent optional).
func EmptyValue(t reflect.Type) any {
	switch t.Kind() {
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0).Interface()
	case reflect.Map:
		return reflect.MakeMap(t).Interface()
	default:
		return reflect.Zero(t).Interface()
	}
}

// nullValue is what SetNull assigns: the typed zero value, which is nil for
// nillable kinds.
func nullValue(t reflect.Type) any { return reflect.Zero(t).Interface() }

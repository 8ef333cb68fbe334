package register

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/nullbind"
)

// fieldTag is the parsed binding configuration of one struct field.
type fieldTag struct {
	key       string
	policy    nullbind.NullPolicy
	hasPolicy bool
}

// resolveFieldTag applies the key rule for struct fields:
// nullbind:"key" > json tag name > field name; "-" in either tag disables the
// field. Options after the key are comma separated, e.g.
// `nullbind:"intVal,nulls=fail"` or `nullbind:",nulls=default_empty"`.
func resolveFieldTag(sf reflect.StructField) (fieldTag, bool, error) {
	var ft fieldTag
	if nt, ok := sf.Tag.Lookup("nullbind"); ok {
		parts := strings.Split(nt, ",")
		name := strings.TrimSpace(parts[0])
		if name == "-" {
			return ft, false, nil
		}
		ft.key = name
		for _, p := range parts[1:] {
			p = strings.TrimSpace(p)
			switch {
			case p == "":
			case strings.HasPrefix(p, "nulls="):
				pol, err := nullbind.ParseNullPolicy(strings.TrimPrefix(p, "nulls="))
				if err != nil {
					return ft, false, fmt.Errorf("field %s: %w", sf.Name, err)
				}
				ft.policy, ft.hasPolicy = pol, true
			default:
				return ft, false, fmt.Errorf("field %s: unknown tag option %q", sf.Name, p)
			}
		}
	}
	if ft.key == "" {
		if jt := sf.Tag.Get("json"); jt != "" {
			name, _, _ := strings.Cut(jt, ",")
			if name == "-" {
				return ft, false, nil
			}
			ft.key = name
		}
	}
	if ft.key == "" {
		ft.key = sf.Name
	}
	return ft, true, nil
}

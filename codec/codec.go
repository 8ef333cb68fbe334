// Package codec provides nullbind decoders for values whose wire form
// differs from their Go form, and a Registry routing target types to them.
package codec

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/reoring/nullbind"
)

// Registry is a nullbind.Decoder that dispatches on the target type and
// falls back to another decoder for unregistered types. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byType   map[reflect.Type]nullbind.Decoder
	fallback nullbind.Decoder
}

var _ nullbind.Decoder = (*Registry)(nil)

// NewRegistry returns an empty registry. A nil fallback means
// nullbind.DefaultDecoder.
func NewRegistry(fallback nullbind.Decoder) *Registry {
	if fallback == nil {
		fallback = nullbind.DefaultDecoder
	}
	return &Registry{byType: map[reflect.Type]nullbind.Decoder{}, fallback: fallback}
}

// Register routes target type t to d, replacing any earlier entry.
func (r *Registry) Register(t reflect.Type, d nullbind.Decoder) *Registry {
	r.mu.Lock()
	r.byType[t] = d
	r.mu.Unlock()
	return r
}

// RegisterFunc routes V to fn.
func RegisterFunc[V any](r *Registry, fn func(raw any) (V, error)) *Registry {
	return r.Register(reflect.TypeFor[V](), nullbind.DecoderFunc(func(raw any, _ reflect.Type) (any, error) {
		return fn(raw)
	}))
}

// Decode implements nullbind.Decoder. A pointer target whose element type is
// registered decodes the element and returns its address.
func (r *Registry) Decode(raw any, t reflect.Type) (any, error) {
	r.mu.RLock()
	d, ok := r.byType[t]
	var elem nullbind.Decoder
	if !ok && t.Kind() == reflect.Pointer {
		elem = r.byType[t.Elem()]
	}
	r.mu.RUnlock()

	switch {
	case ok:
		return d.Decode(raw, t)
	case elem != nil:
		v, err := elem.Decode(raw, t.Elem())
		if err != nil {
			return nil, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(reflect.ValueOf(v))
		return ptr.Interface(), nil
	}
	return r.fallback.Decode(raw, t)
}

var (
	standardOnce sync.Once
	standard     *Registry
)

// Standard returns the shared registry with RFC3339 times and durations
// registered over nullbind.DefaultDecoder.
func Standard() *Registry {
	standardOnce.Do(func() {
		standard = NewRegistry(nil)
		RegisterFunc(standard, TimeRFC3339)
		RegisterFunc(standard, Duration)
	})
	return standard
}

func expected(want string, raw any) error {
	return fmt.Errorf("expected %s, got %T", want, raw)
}

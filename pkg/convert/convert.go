// Package convert provides the registry of named value converters applied
// to declared method parameters before validation.
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrDuplicateConverter is returned when registering a name twice.
var ErrDuplicateConverter = fmt.Errorf("converter already registered")

// Func converts a raw parameter value into its declared form.
type Func func(v any) (any, error)

// Registry maps converter names to converter functions.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]Func
}

// NewRegistry creates a registry preloaded with the default converters:
// int, float, bool, string, trim, lower, upper, time.
func NewRegistry() *Registry {
	r := &Registry{fns: make(map[string]Func, len(defaults))}
	for name, fn := range defaults {
		r.fns[name] = fn
	}
	return r
}

// Register adds a converter under name. Registering an existing name
// returns ErrDuplicateConverter.
func (r *Registry) Register(name string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fns[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateConverter, name)
	}
	r.fns[name] = fn
	return nil
}

// Has reports whether a converter is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.fns[name]
	return ok
}

// Apply runs the named converter on v. Unknown names are an error; they
// are expected to be rejected at method registration time, not here.
func (r *Registry) Apply(name string, v any) (any, error) {
	r.mu.RLock()
	fn, ok := r.fns[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown converter %q", name)
	}
	return fn(v)
}

var defaults = map[string]Func{
	"int": func(v any) (any, error) {
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			return int(n), nil
		case string:
			i, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil {
				return nil, fmt.Errorf("cannot convert %q to int", n)
			}
			return i, nil
		}
		return nil, fmt.Errorf("cannot convert %T to int", v)
	},
	"float": func(v any) (any, error) {
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case float64:
			return n, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot convert %q to float", n)
			}
			return f, nil
		}
		return nil, fmt.Errorf("cannot convert %T to float", v)
	},
	"bool": func(v any) (any, error) {
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("cannot convert %q to bool", b)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("cannot convert %T to bool", v)
	},
	"string": func(v any) (any, error) {
		if v == nil {
			return "", nil
		}
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	},
	"trim": func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot trim %T", v)
		}
		return strings.TrimSpace(s), nil
	},
	"lower": func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot lowercase %T", v)
		}
		return strings.ToLower(s), nil
	},
	"upper": func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot uppercase %T", v)
		}
		return strings.ToUpper(s), nil
	},
	"time": func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot convert %T to time", v)
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to time: %w", s, err)
		}
		return ts, nil
	},
}

package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// ValidatorFunc is a named validator implementation. It returns true when
// the value is valid. Extra args come from the Spec, flattened into the
// call.
type ValidatorFunc func(value any, args ...any) bool

// Library is a registry of named validator implementations.
type Library struct {
	mu  sync.RWMutex
	fns map[string]ValidatorFunc
}

// NewLibrary creates a library preloaded with the built-in validators.
func NewLibrary() *Library {
	l := &Library{fns: make(map[string]ValidatorFunc)}
	for name, fn := range builtins {
		l.fns[name] = fn
	}
	return l
}

// Register adds or replaces a named validator.
func (l *Library) Register(name string, fn ValidatorFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns[name] = fn
}

// Lookup returns the validator registered under name.
func (l *Library) Lookup(name string) (ValidatorFunc, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, ok := l.fns[name]
	return fn, ok
}

var defaultLibrary = NewLibrary()

// RegisterValidator adds a named validator to the default library used by
// Validate.
func RegisterValidator(name string, fn ValidatorFunc) {
	defaultLibrary.Register(name, fn)
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var builtins = map[string]ValidatorFunc{
	"len": func(v any, args ...any) bool {
		n, ok := valueLen(v)
		if !ok || len(args) == 0 {
			return false
		}
		want, ok := asInt(args[0])
		return ok && n == want
	},
	"minLen": func(v any, args ...any) bool {
		n, ok := valueLen(v)
		if !ok || len(args) == 0 {
			return false
		}
		want, ok := asInt(args[0])
		return ok && n >= want
	},
	"maxLen": func(v any, args ...any) bool {
		n, ok := valueLen(v)
		if !ok || len(args) == 0 {
			return false
		}
		want, ok := asInt(args[0])
		return ok && n <= want
	},
	"min": func(v any, args ...any) bool {
		f, ok := asFloat(v)
		if !ok || len(args) == 0 {
			return false
		}
		bound, ok := asFloat(args[0])
		return ok && f >= bound
	},
	"max": func(v any, args ...any) bool {
		f, ok := asFloat(v)
		if !ok || len(args) == 0 {
			return false
		}
		bound, ok := asFloat(args[0])
		return ok && f <= bound
	},
	"match": func(v any, args ...any) bool {
		s, ok := v.(string)
		if !ok || len(args) == 0 {
			return false
		}
		expr, ok := args[0].(string)
		if !ok {
			return false
		}
		// A malformed expression panics; the engine recovers and logs it.
		return regexp.MustCompile(expr).MatchString(s)
	},
	"email": func(v any, _ ...any) bool {
		s, ok := v.(string)
		return ok && emailRe.MatchString(s)
	},
	"in": func(v any, args ...any) bool {
		for _, a := range args {
			if v == a {
				return true
			}
			if fmt.Sprint(v) == fmt.Sprint(a) {
				return true
			}
		}
		return false
	},
	"numeric": func(v any, _ ...any) bool {
		if _, ok := asFloat(v); ok {
			return true
		}
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	},
	"semver": func(v any, args ...any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		ver, err := semver.NewVersion(s)
		if err != nil {
			return false
		}
		if len(args) == 0 {
			return true
		}
		expr, ok := args[0].(string)
		if !ok {
			return false
		}
		c, err := semver.NewConstraint(expr)
		if err != nil {
			return false
		}
		return c.Check(ver)
	},
}

// valueLen returns the length of strings, slices, arrays, and maps.
func valueLen(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return len(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Package validate implements declarative parameter validation: a
// parameter bag is checked against per-parameter validator rules and
// failures are aggregated per parameter and per validator.
package validate

import (
	"fmt"
	"log/slog"
	"strings"
)

const logPrefix = "validate:engine"

// RequiredName is the reserved validator name for required-ness checks.
// A required spec only applies to empty values; all other validators only
// apply to non-empty values.
const RequiredName = "required"

// Params is the parameter bag under validation.
type Params map[string]any

// CheckFunc is a custom validator function. It receives the parameter
// value and the whole bag; a non-empty return is recorded as the failure
// message, an empty return passes.
type CheckFunc func(value any, params Params) string

// Spec configures one named validator for a parameter. When Check is set
// it is called directly; otherwise Name is looked up in the validator
// library and applied to the value with Args flattened into the call.
// Message overrides the default failure message.
type Spec struct {
	Name    string
	Check   CheckFunc
	Args    []any
	Message string
}

// Required builds a required spec with an optional override message.
func Required(message string) Spec {
	return Spec{Name: RequiredName, Message: message}
}

// Rule binds one accepted parameter to its ordered validator specs.
type Rule struct {
	Arg       string
	Validates []Spec
}

// failure is one recorded (parameter, validator) failure.
type failure struct {
	Param     string
	Validator string
	Message   string
}

// ValidationError aggregates validation failures for one Validate call.
// The zero value is not usable; Validate always returns a fresh instance.
type ValidationError struct {
	failures []failure
}

// Any reports whether at least one validator failed. Callers use this to
// decide whether to abort an invocation before hooks and handler run.
func (e *ValidationError) Any() bool {
	return len(e.failures) > 0
}

// AsJSON returns the structured per-parameter, per-validator failure map.
func (e *ValidationError) AsJSON() map[string]map[string]string {
	out := make(map[string]map[string]string, len(e.failures))
	for _, f := range e.failures {
		if out[f.Param] == nil {
			out[f.Param] = make(map[string]string)
		}
		out[f.Param][f.Validator] = f.Message
	}
	return out
}

// Flatten returns one message per failing (parameter, validator) pair, in
// parameter-then-validator order.
func (e *ValidationError) Flatten() []string {
	if len(e.failures) == 0 {
		return nil
	}
	out := make([]string, len(e.failures))
	for i, f := range e.failures {
		out[i] = f.Message
	}
	return out
}

func (e *ValidationError) Error() string {
	if !e.Any() {
		return "validation passed"
	}
	return "validation failed: " + strings.Join(e.Flatten(), "; ")
}

func (e *ValidationError) add(param, validator, message string) {
	e.failures = append(e.failures, failure{Param: param, Validator: validator, Message: message})
}

// Empty is the emptiness predicate used by the required check: absent
// keys, nil values, and empty strings all count as empty.
func Empty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Validate checks params against rules using the default validator
// library and returns the aggregated result. A panicking validator is
// recovered and logged, never propagated; validation continues with the
// next validator and parameter.
func Validate(params Params, rules []Rule) *ValidationError {
	return ValidateWith(defaultLibrary, params, rules)
}

// ValidateWith is Validate with an explicit validator library.
func ValidateWith(lib *Library, params Params, rules []Rule) *ValidationError {
	verr := &ValidationError{}

	for _, rule := range rules {
		value := params[rule.Arg]

		if Empty(value) {
			// Only the required spec applies to empty values.
			for _, spec := range rule.Validates {
				if spec.Name != RequiredName {
					continue
				}
				runRequired(verr, rule.Arg, spec, value, params)
			}
			continue
		}

		for _, spec := range rule.Validates {
			switch {
			case spec.Name == "":
				continue
			case spec.Name == RequiredName:
				// Non-empty value: required never fires.
				continue
			case spec.Check != nil:
				if msg := safeCheck(spec, value, params); msg != "" {
					verr.add(rule.Arg, spec.Name, msg)
				}
			default:
				fn, ok := lib.Lookup(spec.Name)
				if !ok {
					slog.Warn(fmt.Sprintf("%s - unknown validator %q for parameter %q, skipping", logPrefix, spec.Name, rule.Arg))
					continue
				}
				if !safeApply(spec.Name, fn, value, spec.Args) {
					verr.add(rule.Arg, spec.Name, failureMessage(rule.Arg, spec))
				}
			}
		}
	}

	return verr
}

func runRequired(verr *ValidationError, arg string, spec Spec, value any, params Params) {
	if spec.Check != nil {
		if msg := safeCheck(spec, value, params); msg != "" {
			verr.add(arg, RequiredName, msg)
		}
		return
	}
	verr.add(arg, RequiredName, failureMessage(arg, spec))
}

func failureMessage(arg string, spec Spec) string {
	if spec.Message != "" {
		return spec.Message
	}
	if spec.Name == RequiredName {
		return fmt.Sprintf("%s is required", arg)
	}
	return fmt.Sprintf("%s failed validation %s", arg, spec.Name)
}

// safeCheck runs a custom check function, recovering a panic as a pass.
func safeCheck(spec Spec, value any, params Params) (msg string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error(fmt.Sprintf("%s - validator %q panicked: %v", logPrefix, spec.Name, rec))
			msg = ""
		}
	}()
	return spec.Check(value, params)
}

// safeApply runs a library validator, recovering a panic as a pass.
func safeApply(name string, fn ValidatorFunc, value any, args []any) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error(fmt.Sprintf("%s - validator %q panicked: %v", logPrefix, name, rec))
			ok = true
		}
	}()
	return fn(value, args...)
}

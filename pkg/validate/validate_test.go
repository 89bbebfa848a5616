package validate

import (
	"testing"
)

const engineTestPrefix = "validate:validate_test"

func TestValidate_RequiredOnEmptyValue(t *testing.T) {
	// A required rule on an empty value and no other rule set must
	// produce exactly one error entry under key "required".
	params := Params{"email": ""}
	rules := []Rule{
		{Arg: "email", Validates: []Spec{Required("email is required")}},
	}

	verr := Validate(params, rules)

	if !verr.Any() {
		t.Fatalf("%s - Any() = false, want true", engineTestPrefix)
	}
	flat := verr.Flatten()
	if len(flat) != 1 || flat[0] != "email is required" {
		t.Errorf("%s - Flatten() = %v, want [email is required]", engineTestPrefix, flat)
	}
	asJSON := verr.AsJSON()
	if len(asJSON) != 1 {
		t.Fatalf("%s - AsJSON() has %d entries, want 1", engineTestPrefix, len(asJSON))
	}
	if got := asJSON["email"][RequiredName]; got != "email is required" {
		t.Errorf("%s - AsJSON()[email][required] = %q", engineTestPrefix, got)
	}
}

func TestValidate_RequiredSkippedOnNonEmptyValue(t *testing.T) {
	// A non-empty value must never trigger the required check even when
	// other validators fail.
	params := Params{"email": "not-an-email"}
	rules := []Rule{
		{Arg: "email", Validates: []Spec{
			Required("email is required"),
			{Name: "email", Message: "email must be valid"},
		}},
	}

	verr := Validate(params, rules)

	asJSON := verr.AsJSON()
	if _, ok := asJSON["email"][RequiredName]; ok {
		t.Errorf("%s - required fired on non-empty value", engineTestPrefix)
	}
	if got := asJSON["email"]["email"]; got != "email must be valid" {
		t.Errorf("%s - email validator message = %q", engineTestPrefix, got)
	}
}

func TestValidate_AbsentAndNilCountAsEmpty(t *testing.T) {
	params := Params{"nickname": nil}
	rules := []Rule{
		{Arg: "nickname", Validates: []Spec{Required("")}},
		{Arg: "missing", Validates: []Spec{Required("")}},
	}

	verr := Validate(params, rules)

	flat := verr.Flatten()
	if len(flat) != 2 {
		t.Fatalf("%s - Flatten() = %v, want 2 default messages", engineTestPrefix, flat)
	}
	if flat[0] != "nickname is required" || flat[1] != "missing is required" {
		t.Errorf("%s - default messages = %v", engineTestPrefix, flat)
	}
}

func TestValidate_FlattenOrderIsParamThenValidator(t *testing.T) {
	params := Params{"age": "abc", "name": "x"}
	rules := []Rule{
		{Arg: "age", Validates: []Spec{
			{Name: "numeric", Message: "age must be numeric"},
			{Name: "minLen", Args: []any{2}, Message: "age too short"},
		}},
		{Arg: "name", Validates: []Spec{
			{Name: "minLen", Args: []any{3}, Message: "name too short"},
		}},
	}

	verr := Validate(params, rules)

	want := []string{"age must be numeric", "age too short", "name too short"}
	flat := verr.Flatten()
	if len(flat) != len(want) {
		t.Fatalf("%s - Flatten() = %v, want %v", engineTestPrefix, flat, want)
	}
	for i := range want {
		if flat[i] != want[i] {
			t.Errorf("%s - Flatten()[%d] = %q, want %q", engineTestPrefix, i, flat[i], want[i])
		}
	}
}

func TestValidate_CustomCheckFunction(t *testing.T) {
	params := Params{"password": "secret", "confirm": "different"}
	rules := []Rule{
		{Arg: "confirm", Validates: []Spec{
			{Name: "matchesPassword", Check: func(value any, p Params) string {
				if value != p["password"] {
					return "passwords do not match"
				}
				return ""
			}},
		}},
	}

	verr := Validate(params, rules)

	flat := verr.Flatten()
	if len(flat) != 1 || flat[0] != "passwords do not match" {
		t.Errorf("%s - Flatten() = %v", engineTestPrefix, flat)
	}
}

func TestValidate_CustomRequiredCheck(t *testing.T) {
	// A required spec with a check function decides required-ness itself.
	params := Params{"coupon": "", "plan": "paid"}
	rules := []Rule{
		{Arg: "coupon", Validates: []Spec{
			{Name: RequiredName, Check: func(_ any, p Params) string {
				if p["plan"] == "paid" {
					return "coupon is required for paid plans"
				}
				return ""
			}},
		}},
	}

	verr := Validate(params, rules)

	flat := verr.Flatten()
	if len(flat) != 1 || flat[0] != "coupon is required for paid plans" {
		t.Errorf("%s - Flatten() = %v", engineTestPrefix, flat)
	}
}

func TestValidate_UnknownValidatorSkipped(t *testing.T) {
	params := Params{"name": "ada"}
	rules := []Rule{
		{Arg: "name", Validates: []Spec{
			{Name: "noSuchValidator"},
			{Name: "minLen", Args: []any{5}, Message: "too short"},
		}},
	}

	verr := Validate(params, rules)

	// Unknown validator is skipped, the rest still run.
	flat := verr.Flatten()
	if len(flat) != 1 || flat[0] != "too short" {
		t.Errorf("%s - Flatten() = %v, want [too short]", engineTestPrefix, flat)
	}
}

func TestValidate_PanickingValidatorIsCaught(t *testing.T) {
	lib := NewLibrary()
	lib.Register("explode", func(any, ...any) bool {
		panic("validator exploded")
	})

	params := Params{"a": "x", "b": "y"}
	rules := []Rule{
		{Arg: "a", Validates: []Spec{{Name: "explode"}}},
		{Arg: "b", Validates: []Spec{{Name: "minLen", Args: []any{2}, Message: "b too short"}}},
	}

	verr := ValidateWith(lib, params, rules)

	// The panic counts as no failure for that validator; validation
	// continues with the next parameter.
	flat := verr.Flatten()
	if len(flat) != 1 || flat[0] != "b too short" {
		t.Errorf("%s - Flatten() = %v, want [b too short]", engineTestPrefix, flat)
	}
}

func TestValidate_MalformedRegexpIsCaught(t *testing.T) {
	params := Params{"name": "ada"}
	rules := []Rule{
		{Arg: "name", Validates: []Spec{{Name: "match", Args: []any{"("}}}},
	}

	verr := Validate(params, rules)

	if verr.Any() {
		t.Errorf("%s - malformed regexp should be logged and skipped, got %v", engineTestPrefix, verr.Flatten())
	}
}

func TestValidate_NoFailures(t *testing.T) {
	params := Params{"email": "ada@example.com"}
	rules := []Rule{
		{Arg: "email", Validates: []Spec{Required(""), {Name: "email"}}},
	}

	verr := Validate(params, rules)

	if verr.Any() {
		t.Errorf("%s - Any() = true, want false: %v", engineTestPrefix, verr.Flatten())
	}
	if got := verr.Flatten(); got != nil {
		t.Errorf("%s - Flatten() = %v, want nil", engineTestPrefix, got)
	}
	if got := len(verr.AsJSON()); got != 0 {
		t.Errorf("%s - AsJSON() has %d entries, want 0", engineTestPrefix, got)
	}
}

func TestEmpty(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, true},
		{"", true},
		{"x", false},
		{0, false},
		{false, false},
		{[]string{}, false},
	}
	for _, tt := range tests {
		if got := Empty(tt.v); got != tt.want {
			t.Errorf("%s - Empty(%#v) = %v, want %v", engineTestPrefix, tt.v, got, tt.want)
		}
	}
}

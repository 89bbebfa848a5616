package natsrpc

import "testing"

const subjectsTestPrefix = "natsrpc:subjects_test"

func TestMethodSubject(t *testing.T) {
	if got := MethodSubject("methodbus", "users.login"); got != "methodbus.users.login" {
		t.Errorf("%s - MethodSubject = %q", subjectsTestPrefix, got)
	}
}

func TestWildcardSubject(t *testing.T) {
	if got := WildcardSubject("methodbus"); got != "methodbus.>" {
		t.Errorf("%s - WildcardSubject = %q", subjectsTestPrefix, got)
	}
}

func TestMethodFromSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
		ok      bool
	}{
		{"methodbus.users.login", "users.login", true},
		{"methodbus.system.health", "system.health", true},
		{"methodbus.users", "", false},
		{"methodbus.a.b.c", "", false},
		{"other.users.login", "", false},
		{"methodbus.", "", false},
	}
	for _, tt := range tests {
		got, ok := MethodFromSubject("methodbus", tt.subject)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s - MethodFromSubject(%q) = (%q, %v), want (%q, %v)",
				subjectsTestPrefix, tt.subject, got, ok, tt.want, tt.ok)
		}
	}
}

package natsrpc

import "strings"

// DefaultPrefix is the default subject prefix for method invocation
// requests.
const DefaultPrefix = "methodbus"

// MethodSubject builds the request subject for a fully-qualified method
// name, e.g. MethodSubject("methodbus", "users.login") ==
// "methodbus.users.login".
func MethodSubject(prefix, method string) string {
	return prefix + "." + method
}

// WildcardSubject builds the subscription subject covering every method
// under the prefix.
func WildcardSubject(prefix string) string {
	return prefix + ".>"
}

// MethodFromSubject extracts the fully-qualified method name from a
// request subject. It returns false when the subject does not carry a
// "<prefix>.<collection>.<method>" shape.
func MethodFromSubject(prefix, subject string) (string, bool) {
	rest, ok := strings.CutPrefix(subject, prefix+".")
	if !ok || rest == "" {
		return "", false
	}
	if strings.Count(rest, ".") != 1 {
		return "", false
	}
	return rest, true
}

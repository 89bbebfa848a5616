// Package pattern implements glob matching over dot-separated method names.
//
// Patterns are matched segment by segment: "*" matches any run of characters
// within a single segment, and a segment consisting solely of "**" matches
// zero or more whole segments. There is no other special syntax.
//
// Examples:
//   - "users.*" matches "users.login" but not "accounts.login"
//   - "*.login" matches "users.login" and "accounts.login"
//   - "before.**" matches "before.users.login" and "before.x"
//   - "us*rs.login" matches "users.login"
package pattern

import "strings"

const (
	// WildcardSingle matches any run of characters within one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more whole segments. It is only special
	// when it makes up an entire segment.
	WildcardMulti = "**"

	// Separator splits names and patterns into segments.
	Separator = "."
)

// Split splits a dotted name into its segments. An empty string has no
// segments.
func Split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, Separator)
}

// HasWildcard reports whether s contains any wildcard character.
func HasWildcard(s string) bool {
	return strings.Contains(s, WildcardSingle)
}

// Match reports whether name matches the glob pattern. The name is a concrete
// dotted string without wildcards; the pattern may contain "*" and "**".
func Match(name, pattern string) bool {
	return matchSegments(Split(name), Split(pattern))
}

// matchSegments matches name segments against pattern segments, recursing to
// try every span a "**" segment could absorb.
func matchSegments(name, pattern []string) bool {
	ni, pi := 0, 0

	for pi < len(pattern) {
		seg := pattern[pi]

		if seg == WildcardMulti {
			// "**" may absorb zero or more remaining name segments.
			for skip := ni; skip <= len(name); skip++ {
				if matchSegments(name[skip:], pattern[pi+1:]) {
					return true
				}
			}
			return false
		}

		if ni >= len(name) {
			return false
		}
		if !matchSegment(name[ni], seg) {
			return false
		}
		ni++
		pi++
	}

	return ni == len(name)
}

// matchSegment matches a single name segment against a single pattern
// segment, where "*" stands for any run of characters (including none).
func matchSegment(s, pat string) bool {
	si, pi := 0, 0
	star, mark := -1, 0

	for si < len(s) {
		switch {
		case pi < len(pat) && pat[pi] == '*':
			// Remember the star; try matching it against nothing first.
			star, mark = pi, si
			pi++
		case pi < len(pat) && pat[pi] == s[si]:
			si++
			pi++
		case star >= 0:
			// Mismatch after a star: widen the star by one character.
			mark++
			si = mark
			pi = star + 1
		default:
			return false
		}
	}

	// Trailing stars match the empty run.
	for pi < len(pat) && pat[pi] == '*' {
		pi++
	}
	return pi == len(pat)
}

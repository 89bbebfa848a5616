package hooks

import (
	"sync/atomic"

	"github.com/methodbus/methodbus/pkg/pattern"
)

// treeEntry holds the ordered matching pattern lists for one method, one
// list per phase.
type treeEntry struct {
	before     []string
	after      []string
	afterError []string
}

func (e *treeEntry) phase(p Phase) []string {
	switch p {
	case PhaseBefore:
		return e.before
	case PhaseAfter:
		return e.after
	case PhaseAfterError:
		return e.afterError
	}
	return nil
}

// Tree is the precomputed per-method listener cache: for every known
// method it stores the ordered pattern lists that match it per phase,
// avoiding a full registry scan on every invocation. The tree is derived
// and disposable; Rebuild replaces it wholesale, so lookups never observe
// a half-built tree.
type Tree struct {
	entries atomic.Pointer[map[string]*treeEntry]
}

// NewTree creates an empty tree. Lookups on an empty tree return nil.
func NewTree() *Tree {
	t := &Tree{}
	empty := make(map[string]*treeEntry)
	t.entries.Store(&empty)
	return t
}

// Rebuild recomputes the whole tree for the given method names against
// the given patterns (in registry insertion order) and swaps it in
// atomically. Ties keep registry insertion order: first registered,
// first run.
func (t *Tree) Rebuild(methods []string, patterns []string) {
	next := make(map[string]*treeEntry, len(methods))
	for _, method := range methods {
		entry := &treeEntry{}
		for _, pat := range patterns {
			for _, phase := range Phases {
				if !pattern.Match(Candidate(phase, method), pat) {
					continue
				}
				switch phase {
				case PhaseBefore:
					entry.before = append(entry.before, pat)
				case PhaseAfter:
					entry.after = append(entry.after, pat)
				case PhaseAfterError:
					entry.afterError = append(entry.afterError, pat)
				}
			}
		}
		next[method] = entry
	}
	t.entries.Store(&next)
}

// Lookup returns the cached ordered pattern list for a method and phase,
// or nil when the method is unknown to the cache. Callers fall back to a
// live registry scan on nil.
func (t *Tree) Lookup(method string, phase Phase) []string {
	entries := *t.entries.Load()
	entry, ok := entries[method]
	if !ok {
		return nil
	}
	return entry.phase(phase)
}

// Known reports whether the tree has an entry for method.
func (t *Tree) Known(method string) bool {
	entries := *t.entries.Load()
	_, ok := entries[method]
	return ok
}

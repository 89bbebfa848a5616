// Package events defines event types and publisher interfaces for
// registry change events.
package events

// ChangedEvent is emitted after every successful registry mutation: a
// collection merge or a hook registration.
type ChangedEvent struct {
	// Collection is the merged collection's name; empty for pure hook
	// registrations.
	Collection string `json:"collection,omitempty"`

	// Methods lists the fully-qualified method names the mutation added.
	Methods []string `json:"methods,omitempty"`

	// Hooks is the number of hook functions the mutation added.
	Hooks int `json:"hooks"`

	// Revision is the registry revision after the mutation.
	Revision int `json:"revision"`

	Timestamp string `json:"timestamp"`
}

package events

import (
	"context"
	"testing"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.PublishChanged(context.Background(), &ChangedEvent{
		Collection: "users",
		Revision:   1,
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *ChangedEvent

	pub := NewCallbackPublisher(func(_ context.Context, event *ChangedEvent) error {
		captured = event
		return nil
	})

	event := &ChangedEvent{
		Collection: "users",
		Methods:    []string{"users.login", "users.logout"},
		Hooks:      2,
		Revision:   5,
		Timestamp:  "2026-08-28T00:00:00Z",
	}

	err := pub.PublishChanged(context.Background(), event)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if captured == nil {
		t.Fatal("expected callback to be called")
	}
	if captured.Collection != "users" {
		t.Errorf("expected collection users, got %s", captured.Collection)
	}
	if captured.Revision != 5 {
		t.Errorf("expected revision 5, got %d", captured.Revision)
	}
	if len(captured.Methods) != 2 {
		t.Errorf("expected 2 methods, got %d", len(captured.Methods))
	}
}

func TestBuildChangeSubject(t *testing.T) {
	if got := BuildChangeSubject("users"); got != "methodbus.changed.users" {
		t.Errorf("BuildChangeSubject = %q", got)
	}
}

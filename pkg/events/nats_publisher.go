package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

const natsPublisherLogPrefix = "events:nats_publisher"

// SubjectChanged is the default global change event subject.
const SubjectChanged = "methodbus.changed"

// BuildChangeSubject builds the granular change event subject for one
// collection.
func BuildChangeSubject(collection string) string {
	return fmt.Sprintf("%s.%s", SubjectChanged, collection)
}

// NatsPublisherOpts configures NatsPublisher. Nil or zero values use
// defaults.
type NatsPublisherOpts struct {
	// GlobalSubject overrides the global change event subject.
	GlobalSubject string
}

// NatsPublisher publishes registry change events to NATS subjects.
type NatsPublisher struct {
	nc            *nats.Conn
	globalSubject string
}

// NewNatsPublisher creates a new NatsPublisher. Pass nil for opts to use
// defaults.
func NewNatsPublisher(nc *nats.Conn, opts *NatsPublisherOpts) *NatsPublisher {
	global := SubjectChanged
	if opts != nil && opts.GlobalSubject != "" {
		global = opts.GlobalSubject
	}
	return &NatsPublisher{nc: nc, globalSubject: global}
}

// PublishChanged publishes a ChangedEvent to the global change event
// subject, and to the collection's granular subject when the event names
// one.
func (p *NatsPublisher) PublishChanged(_ context.Context, event *ChangedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", natsPublisherLogPrefix, err)
	}

	if event.Collection != "" {
		granular := BuildChangeSubject(event.Collection)
		if err := p.nc.Publish(granular, data); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", natsPublisherLogPrefix, granular, err))
			return err
		}
	}

	if err := p.nc.Publish(p.globalSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", natsPublisherLogPrefix, p.globalSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published change event rev=%d collection=%s", natsPublisherLogPrefix, event.Revision, event.Collection))
	return nil
}

// Package natsrpc provides the NATS transport adapter: connection
// helpers, subject layout, and the request/reply loop that feeds the
// invocation dispatcher.
package natsrpc

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const connectLogPrefix = "natsrpc:connect"

// Connect creates a NATS connection to the given URL.
func Connect(url, name string) (*nats.Conn, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to NATS at %s as %s", connectLogPrefix, url, name))

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(60),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - NATS disconnected: %v", connectLogPrefix, err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info(fmt.Sprintf("%s - NATS reconnected to %s", connectLogPrefix, nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.Info(fmt.Sprintf("%s - NATS connection closed", connectLogPrefix))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to NATS: %w", connectLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", connectLogPrefix, nc.ConnectedUrl()))
	return nc, nil
}

package natsrpc

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/methodbus/methodbus/pkg/api"
)

const transportLogPrefix = "natsrpc:transport"

const (
	defaultQueue   = "methodbus"
	defaultTimeout = 25 * time.Second
)

// TransportParams holds parameters for NewTransport.
type TransportParams struct {
	Conn       *nats.Conn
	Dispatcher *api.Dispatcher
	// Prefix is the request subject prefix (default "methodbus").
	Prefix string
	// Queue is the queue group name (default "methodbus").
	Queue string
	// Timeout bounds one invocation; the dispatch core itself never
	// times out.
	Timeout time.Duration
}

// Transport is the NATS request/reply adapter. It constructs one
// invocation context per request and always goes through the dispatcher.
type Transport struct {
	nc      *nats.Conn
	disp    *api.Dispatcher
	prefix  string
	queue   string
	timeout time.Duration
	sub     *nats.Subscription
}

// NewTransport creates a NATS transport over an established connection.
func NewTransport(params TransportParams) *Transport {
	prefix := params.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	queue := params.Queue
	if queue == "" {
		queue = defaultQueue
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Transport{
		nc:      params.Conn,
		disp:    params.Dispatcher,
		prefix:  prefix,
		queue:   queue,
		timeout: timeout,
	}
}

// Start queue-subscribes to every method subject under the prefix.
func (t *Transport) Start() error {
	subject := WildcardSubject(t.prefix)
	sub, err := t.nc.QueueSubscribe(subject, t.queue, t.handle)
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", transportLogPrefix, subject, err)
	}
	t.sub = sub
	slog.Info(fmt.Sprintf("%s - Subscribed to %s (queue %s)", transportLogPrefix, subject, t.queue))
	return nil
}

// Stop unsubscribes from the request subject.
func (t *Transport) Stop() {
	if t.sub != nil {
		t.sub.Unsubscribe()
		t.sub = nil
	}
}

func (t *Transport) handle(msg *nats.Msg) {
	var req api.Request
	if err := DecodePayload(msg.Data, &req); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", transportLogPrefix, err))
		t.respond(msg, &api.Response{
			Ok:    false,
			Error: api.NewError(api.CodeInvalidArgument, "failed to decode request"),
		})
		return
	}

	method := req.Method
	if method == "" {
		if fromSubject, ok := MethodFromSubject(t.prefix, msg.Subject); ok {
			method = fromSubject
		}
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	ictx := api.NewContext(id, "nats", req.Params)
	for k, v := range req.Meta {
		ictx.Meta[k] = v
	}

	type outcome struct {
		result any
		err    error
	}
	ch := make(chan outcome, 1)
	go t.disp.Dispatch(method, ictx, func(err error, result any) {
		ch <- outcome{result: result, err: err}
	})

	// Per-request timeout around the dispatch; an invocation that never
	// signals completion would otherwise stall the reply forever.
	select {
	case o := <-ch:
		t.respond(msg, api.NewResponse(id, o.result, o.err))
	case <-time.After(t.timeout):
		slog.Warn(fmt.Sprintf("%s - invocation of %s timed out after %s", transportLogPrefix, method, t.timeout))
		t.respond(msg, &api.Response{
			ID:    id,
			Ok:    false,
			Error: api.NewError(api.CodeTimeout, fmt.Sprintf("invocation of %s timed out", method)),
		})
	}
}

func (t *Transport) respond(msg *nats.Msg, resp *api.Response) {
	data, err := EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", transportLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to respond: %v", transportLogPrefix, err))
	}
}

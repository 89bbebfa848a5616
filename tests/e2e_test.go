// Package tests contains end-to-end tests for methodbus. These tests
// start an embedded NATS server and exercise the full request/response
// flow through the transport and dispatcher, simulating real clients.
package tests

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/methodbus/methodbus/pkg/api"
	"github.com/methodbus/methodbus/pkg/events"
	"github.com/methodbus/methodbus/pkg/hooks"
	"github.com/methodbus/methodbus/pkg/natsrpc"
	"github.com/methodbus/methodbus/pkg/validate"
)

const (
	e2ePrefix = "tests:e2e_test"
	e2ePort   = 14240
)

// testEnv holds the test environment for E2E tests.
type testEnv struct {
	nc   *nats.Conn
	ns   *natsserver.Server
	reg  *api.Registry
	disp *api.Dispatcher

	mu       sync.Mutex
	captured []*events.ChangedEvent
	log      []string
}

func (env *testEnv) append(entry string) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.log = append(env.log, entry)
}

func (env *testEnv) entries() []string {
	env.mu.Lock()
	defer env.mu.Unlock()
	out := make([]string, len(env.log))
	copy(out, env.log)
	return out
}

// setupE2E starts an embedded NATS server and wires the full pipeline:
// registry, hooks, dispatcher and NATS transport.
func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   e2ePort,
		NoLog:  true,
		NoSigs: true,
	}
	ns, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("%s - failed to create NATS server: %v", e2ePrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal(e2ePrefix + " - NATS server failed to start")
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", e2ePrefix, err)
	}

	env := &testEnv{nc: nc, ns: ns}

	pub := events.NewCallbackPublisher(func(_ context.Context, event *events.ChangedEvent) error {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.captured = append(env.captured, event)
		return nil
	})

	reg := api.NewRegistry(api.NewRegistryParams{Publisher: pub})
	env.reg = reg

	users := api.NewCollection("users", "/users").
		Method("login", func(ictx *api.Context, reply api.ReplyFunc) {
			env.append("handler")
			reply(nil, map[string]any{"email": ictx.Params["email"]})
		},
			api.Param{Name: "email", Validates: []validate.Spec{
				validate.Required("email is required"),
				{Name: "email", Message: "email must be a valid address"},
			}},
			api.Param{Name: "password", Validates: []validate.Spec{validate.Required("password is required")}}).
		Method("boom", func(_ *api.Context, reply api.ReplyFunc) {
			env.append("handler")
			reply(errors.New("credentials rejected"), nil)
		}).
		Before("*", func(_ *api.Context, next hooks.Continuation) *hooks.Deferred {
			env.append("collection-before")
			next(nil)
			return nil
		})
	if err := reg.Merge(users); err != nil {
		nc.Close()
		ns.Shutdown()
		t.Fatalf("%s - Merge failed: %v", e2ePrefix, err)
	}

	reg.On(hooks.PhaseBefore, "users.*", func(_ *api.Context, next hooks.Continuation) *hooks.Deferred {
		env.append("global-before")
		next(nil)
		return nil
	})
	reg.On(hooks.PhaseAfter, "users.*", func(_ *api.Context, next hooks.Continuation) *hooks.Deferred {
		env.append("after")
		next(nil)
		return nil
	})
	reg.On(hooks.PhaseAfterError, "users.*", func(_ *api.Context, next hooks.Continuation) *hooks.Deferred {
		env.append("afterError")
		next(nil)
		return nil
	})

	disp := api.NewDispatcher(api.NewDispatcherParams{Registry: reg})
	env.disp = disp

	tr := natsrpc.NewTransport(natsrpc.TransportParams{
		Conn:       nc,
		Dispatcher: disp,
		Timeout:    2 * time.Second,
	})
	if err := tr.Start(); err != nil {
		nc.Close()
		ns.Shutdown()
		t.Fatalf("%s - transport Start failed: %v", e2ePrefix, err)
	}

	t.Cleanup(func() {
		tr.Stop()
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return env
}

// call sends a request envelope over NATS and returns the response.
func call(t *testing.T, env *testEnv, subject string, req *api.Request) *api.Response {
	t.Helper()

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("%s - failed to marshal request: %v", e2ePrefix, err)
	}
	msg, err := env.nc.Request(subject, data, 5*time.Second)
	if err != nil {
		t.Fatalf("%s - request failed: %v", e2ePrefix, err)
	}
	var resp api.Response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		t.Fatalf("%s - failed to unmarshal response: %v", e2ePrefix, err)
	}
	return &resp
}

func TestE2E_FullPipelineOrder(t *testing.T) {
	env := setupE2E(t)

	resp := call(t, env, "methodbus.users.login", &api.Request{
		ID:     "e-1",
		Params: validate.Params{"email": "dev@example.com", "password": "hunter2"},
	})

	if !resp.Ok {
		t.Fatalf("%s - expected Ok=true, got error %v", e2ePrefix, resp.Error)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok || result["email"] != "dev@example.com" {
		t.Errorf("%s - Result = %#v", e2ePrefix, resp.Result)
	}

	want := []string{"collection-before", "global-before", "handler", "after"}
	got := env.entries()
	if len(got) != len(want) {
		t.Fatalf("%s - log = %v, want %v", e2ePrefix, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s - log[%d] = %q, want %q", e2ePrefix, i, got[i], want[i])
		}
	}
}

func TestE2E_ValidationFailureOverWire(t *testing.T) {
	env := setupE2E(t)

	resp := call(t, env, "methodbus.users.login", &api.Request{
		ID:     "e-2",
		Params: validate.Params{"email": "not-an-address"},
	})

	if resp.Ok {
		t.Fatal(e2ePrefix + " - expected validation failure")
	}
	if resp.Error == nil || resp.Error.Code != api.CodeValidationFailed {
		t.Fatalf("%s - error = %+v, want %s", e2ePrefix, resp.Error, api.CodeValidationFailed)
	}

	// Aggregated failures ride along as details: both the malformed email
	// and the absent password must be reported.
	details, err := json.Marshal(resp.Error.Details)
	if err != nil {
		t.Fatalf("%s - failed to re-marshal details: %v", e2ePrefix, err)
	}
	var failures map[string]map[string]string
	if err := json.Unmarshal(details, &failures); err != nil {
		t.Fatalf("%s - details shape unexpected: %v", e2ePrefix, err)
	}
	if _, ok := failures["email"]; !ok {
		t.Errorf("%s - expected email failure in details: %v", e2ePrefix, failures)
	}
	if _, ok := failures["password"]; !ok {
		t.Errorf("%s - expected password failure in details: %v", e2ePrefix, failures)
	}

	// Validation aborts before any hook or the handler runs.
	if got := env.entries(); len(got) != 0 {
		t.Errorf("%s - expected no hook activity, got %v", e2ePrefix, got)
	}
}

func TestE2E_HandlerFailureRoutesThroughAfterError(t *testing.T) {
	env := setupE2E(t)

	resp := call(t, env, "methodbus.users.boom", &api.Request{ID: "e-3"})

	if resp.Ok {
		t.Fatal(e2ePrefix + " - expected Ok=false")
	}
	if resp.Error == nil || resp.Error.Message != "credentials rejected" {
		t.Errorf("%s - error = %+v", e2ePrefix, resp.Error)
	}

	want := []string{"collection-before", "global-before", "handler", "afterError"}
	got := env.entries()
	if len(got) != len(want) {
		t.Fatalf("%s - log = %v, want %v", e2ePrefix, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s - log[%d] = %q, want %q", e2ePrefix, i, got[i], want[i])
		}
	}
}

func TestE2E_ChangeEventsCaptured(t *testing.T) {
	env := setupE2E(t)

	env.mu.Lock()
	captured := make([]*events.ChangedEvent, len(env.captured))
	copy(captured, env.captured)
	env.mu.Unlock()

	// One merge plus three global hook registrations.
	if len(captured) != 4 {
		t.Fatalf("%s - captured %d events, want 4", e2ePrefix, len(captured))
	}
	first := captured[0]
	if first.Collection != "users" || first.Revision != 1 {
		t.Errorf("%s - first event = %+v", e2ePrefix, first)
	}
	if len(first.Methods) != 2 {
		t.Errorf("%s - first event methods = %v", e2ePrefix, first.Methods)
	}
}

func TestE2E_SecondCollectionIsolatedHooks(t *testing.T) {
	env := setupE2E(t)

	billing := api.NewCollection("billing", "/billing").
		Method("charge", func(_ *api.Context, reply api.ReplyFunc) {
			env.append("billing-handler")
			reply(nil, "charged")
		})
	if err := env.reg.Merge(billing); err != nil {
		t.Fatalf("%s - Merge failed: %v", e2ePrefix, err)
	}

	resp := call(t, env, "methodbus.billing.charge", &api.Request{ID: "e-4"})
	if !resp.Ok || resp.Result != "charged" {
		t.Fatalf("%s - resp = %+v", e2ePrefix, resp)
	}

	// The users hooks are scoped to "users.*"; only the billing handler
	// may appear in the log.
	for _, entry := range env.entries() {
		if entry != "billing-handler" {
			t.Errorf("%s - unexpected log entry %q for billing invocation", e2ePrefix, entry)
		}
	}
}

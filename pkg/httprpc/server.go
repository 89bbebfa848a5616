// Package httprpc provides the HTTP transport adapter: a chi router
// exposing every registered method as a POST endpoint, backed by the
// invocation dispatcher.
package httprpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/methodbus/methodbus/pkg/api"
	"github.com/methodbus/methodbus/pkg/validate"
)

const logPrefix = "httprpc:server"

const defaultTimeout = 25 * time.Second

// ServerParams holds parameters for NewServer.
type ServerParams struct {
	Registry   *api.Registry
	Dispatcher *api.Dispatcher
	// Timeout bounds one invocation (the dispatch core has none).
	Timeout time.Duration
	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
}

// Server is the HTTP transport adapter. Every method is reachable both
// as POST /rpc/<collection>.<method> and, when its collection declares a
// base path, as POST <basePath>/<method>.
type Server struct {
	router  chi.Router
	reg     *api.Registry
	disp    *api.Dispatcher
	timeout time.Duration
}

// NewServer builds the router from the registry's current namespace.
// Construct it after the configuration phase: methods merged later are
// only reachable through the /rpc route.
func NewServer(params ServerParams) *Server {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &Server{
		router:  chi.NewRouter(),
		reg:     params.Registry,
		disp:    params.Dispatcher,
		timeout: timeout,
	}

	s.router.Post("/rpc/{method}", s.handleRPC)

	for _, name := range params.Registry.MethodNames() {
		m, ok := params.Registry.Method(name)
		if !ok || m.BasePath() == "" {
			continue
		}
		route := path.Join(m.BasePath(), m.Bare())
		s.router.Post(route, s.handleMethod(m.Name()))
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if params.Metrics != nil {
		s.router.Handle("/metrics", params.Metrics)
	}

	return s
}

// Handler returns the HTTP handler for the transport.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "method")
	s.invoke(w, r, name)
}

func (s *Server) handleMethod(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.invoke(w, r, name)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.reg.Method("system.health"); ok {
		s.invoke(w, r, "system.health")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request, name string) {
	params := validate.Params{}
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
			writeResponse(w, &api.Response{
				Ok:    false,
				Error: api.NewError(api.CodeInvalidArgument, "failed to decode request body"),
			})
			return
		}
	}

	id := r.Header.Get("X-Request-Id")
	if id == "" {
		id = uuid.NewString()
	}

	ictx := api.NewContext(id, "http", params)
	ictx.Meta["remoteAddr"] = r.RemoteAddr

	type outcome struct {
		result any
		err    error
	}
	ch := make(chan outcome, 1)
	go s.disp.Dispatch(name, ictx, func(err error, result any) {
		ch <- outcome{result: result, err: err}
	})

	select {
	case o := <-ch:
		writeResponse(w, api.NewResponse(id, o.result, o.err))
	case <-time.After(s.timeout):
		slog.Warn(fmt.Sprintf("%s - invocation of %s timed out after %s", logPrefix, name, s.timeout))
		writeResponse(w, &api.Response{
			ID:    id,
			Ok:    false,
			Error: api.NewError(api.CodeTimeout, fmt.Sprintf("invocation of %s timed out", name)),
		})
	}
}

func writeResponse(w http.ResponseWriter, resp *api.Response) {
	writeJSON(w, statusFor(resp), resp)
}

// statusFor maps response error codes onto HTTP status codes.
func statusFor(resp *api.Response) int {
	if resp.Ok {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case api.CodeMethodNotFound:
		return http.StatusNotFound
	case api.CodeValidationFailed, api.CodeInvalidArgument:
		return http.StatusBadRequest
	case api.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
	}
}

package api

import "github.com/methodbus/methodbus/pkg/validate"

// Request is the JSON envelope for incoming invocation requests, shared
// by the NATS and HTTP transports.
type Request struct {
	ID     string            `json:"id"`
	Method string            `json:"method"`
	Params validate.Params   `json:"params"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// Response is the JSON envelope for invocation responses. Exactly one of
// Result or Error is set.
type Response struct {
	ID     string `json:"id"`
	Ok     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// NewResponse builds the response envelope for one invocation outcome.
func NewResponse(id string, result any, err error) *Response {
	if err != nil {
		return &Response{ID: id, Ok: false, Error: AsError(err)}
	}
	return &Response{ID: id, Ok: true, Result: result}
}

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/methodbus/methodbus/pkg/api"
	"github.com/methodbus/methodbus/pkg/hooks"
)

const recorderLogPrefix = "audit:recorder"

const defaultInsertTimeout = 5 * time.Second

// Sink receives invocation records. *Store satisfies it.
type Sink interface {
	Insert(ctx context.Context, rec Record) error
}

// RecorderParams holds parameters for NewRecorder.
type RecorderParams struct {
	Sink Sink
	// InsertTimeout bounds one Insert (default 5s).
	InsertTimeout time.Duration
}

// Recorder writes one record per completed invocation. It observes
// outcomes through after and afterError hooks on every method; a failed
// insert is logged and never aborts the invocation.
type Recorder struct {
	sink    Sink
	timeout time.Duration
}

// NewRecorder creates a Recorder over the given sink.
func NewRecorder(params RecorderParams) *Recorder {
	timeout := params.InsertTimeout
	if timeout <= 0 {
		timeout = defaultInsertTimeout
	}
	return &Recorder{sink: params.Sink, timeout: timeout}
}

// Attach registers the recorder's hooks on the registry under the
// match-all pattern.
func (r *Recorder) Attach(reg *api.Registry) error {
	if err := reg.On(hooks.PhaseAfter, "**", r.afterHook); err != nil {
		return fmt.Errorf("%s - failed to register after hook: %w", recorderLogPrefix, err)
	}
	if err := reg.On(hooks.PhaseAfterError, "**", r.errorHook); err != nil {
		return fmt.Errorf("%s - failed to register afterError hook: %w", recorderLogPrefix, err)
	}
	return nil
}

func (r *Recorder) afterHook(ictx *api.Context, next hooks.Continuation) *hooks.Deferred {
	r.record(ictx, "success", nil)
	next(nil)
	return nil
}

func (r *Recorder) errorHook(ictx *api.Context, next hooks.Continuation) *hooks.Deferred {
	var errText *string
	if ictx.Err != nil {
		s := ictx.Err.Error()
		errText = &s
	}
	r.record(ictx, "error", errText)
	next(nil)
	return nil
}

func (r *Recorder) record(ictx *api.Context, status string, errText *string) {
	rec := Record{
		RequestID:  ictx.RequestID,
		Method:     ictx.MethodName(),
		Transport:  ictx.Transport,
		Status:     status,
		Error:      errText,
		DurationMs: time.Since(ictx.Start).Milliseconds(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.sink.Insert(ctx, rec); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to record invocation of %s: %v", recorderLogPrefix, rec.Method, err))
	}
}

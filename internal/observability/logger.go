// Package observability provides per-request structured logging used
// across the gateway, orchestrator, and provider adapters.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Log field names kept stable so dashboards built against the JSON logs
// don't break when call sites move.
const (
	FieldRequestID      = "request_id"
	FieldConversationID = "conversation_id"
	FieldMode           = "mode"
	FieldDuration       = "duration_ms"
	FieldEventType      = "event_type"
	FieldIteration      = "iteration"
	FieldProvider       = "provider"
	FieldErrorCode      = "error_code"
)

// RequestContext bundles a logger with per-request identity so every log
// line for one request carries the same request/conversation id.
type RequestContext struct {
	RequestID      string
	ConversationID string
	StartTime      time.Time
	Logger         *slog.Logger
}

// New creates a RequestContext with a freshly generated request id.
func New(logger *slog.Logger, conversationID string) *RequestContext {
	return &RequestContext{
		RequestID:      uuid.New().String(),
		ConversationID: conversationID,
		StartTime:      time.Now(),
		Logger:         logger,
	}
}

func (r *RequestContext) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(FieldRequestID, r.RequestID),
		slog.String(FieldConversationID, r.ConversationID),
	}
}

// Info logs at info level with the request's base attributes attached.
func (r *RequestContext) Info(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, append(r.baseAttrs(), attrs...)...)
}

// Debug logs at debug level with the request's base attributes attached.
func (r *RequestContext) Debug(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, append(r.baseAttrs(), attrs...)...)
}

// Warn logs at warn level with the request's base attributes attached.
func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, append(r.baseAttrs(), attrs...)...)
}

// Error logs at error level, attaching err as a string field.
func (r *RequestContext) Error(msg string, err error, attrs ...slog.Attr) {
	all := append([]slog.Attr{slog.String("error", err.Error())}, attrs...)
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, append(r.baseAttrs(), all...)...)
}

// DurationMs returns the elapsed time since the request started, in
// milliseconds, for a closing log line.
func (r *RequestContext) DurationMs() int64 {
	return time.Since(r.StartTime).Milliseconds()
}

type ctxKey struct{}

// WithRequestContext stores rc on ctx for retrieval deeper in the call
// chain (e.g. inside a provider adapter that wants to log with the same
// request id).
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext retrieves a RequestContext previously stored by
// WithRequestContext.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return rc, ok
}

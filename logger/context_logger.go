package logger

import (
	"context"
	"log/slog"
	"time"
)

// ContextKey is the type for context keys used in logging
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	OperationKey ContextKey = "operation"

	// Business context keys following OpenTelemetry semantic
	// conventions with a 'forms.' prefix
	ResponseIDKey ContextKey = "forms.response.id"
	FormIDKey     ContextKey = "forms.form.id"
	RunIDKey      ContextKey = "forms.run.id"
)

// GlobalContext is the global ContextLogger instance
var GlobalContext *ContextLogger

// ContextLogger wraps a slog.Logger to add context-aware logging
type ContextLogger struct {
	logger *slog.Logger
}

// NewContextLogger creates a new ContextLogger wrapping the provided logger
func NewContextLogger(logger *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: logger}
}

// WithContext adds context values to log entries and returns a new logger
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	args := make([]any, 0)

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		args = append(args, "request_id", requestID.(string))
	}

	if operation := ctx.Value(OperationKey); operation != nil {
		args = append(args, "operation", operation.(string))
	}

	if responseID := ctx.Value(ResponseIDKey); responseID != nil {
		args = append(args, string(ResponseIDKey), responseID.(string))
	}

	if formID := ctx.Value(FormIDKey); formID != nil {
		args = append(args, string(FormIDKey), formID.(string))
	}

	if runID := ctx.Value(RunIDKey); runID != nil {
		args = append(args, string(RunIDKey), runID.(string))
	}

	return cl.logger.With(args...)
}

// LogDuration logs an operation completion with duration in milliseconds
func (cl *ContextLogger) LogDuration(ctx context.Context, operation string, durationMs int64) {
	cl.WithContext(ctx).Info("operation completed",
		"operation", operation,
		"duration_ms", durationMs,
	)
}

// LogError logs an operation failure with error details
func (cl *ContextLogger) LogError(ctx context.Context, operation string, err error) {
	cl.WithContext(ctx).Error("operation failed",
		"operation", operation,
		"error", err,
	)
}

// WithResponseID adds the form response id to context for observability
func WithResponseID(ctx context.Context, responseID string) context.Context {
	return context.WithValue(ctx, ResponseIDKey, responseID)
}

// WithFormID adds the form id to context for observability
func WithFormID(ctx context.Context, formID string) context.Context {
	return context.WithValue(ctx, FormIDKey, formID)
}

// WithRunID adds the reindex run id to context for observability
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// LogDurationTime is a convenience function that takes time.Duration
func (cl *ContextLogger) LogDurationTime(ctx context.Context, operation string, duration time.Duration) {
	cl.LogDuration(ctx, operation, duration.Milliseconds())
}

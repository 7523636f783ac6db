package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, enabling zero-touch logging where business
// context (plan_id, task_id, etc.) is automatically included in all log statements.
type LogFields struct {
	PlanID        *string // Plan UUIDv7
	TaskID        *string // Subtask id within the plan
	MessageID     *string // Redis stream message ID
	ThreadID      *string // Discord thread ID the plan was dispatched to
	Agent         *string // Agent tag (Food, Transport, History, Modern, Nature)
	CorrelationID *int64  // Snowflake id minted once per dispatch, carried across requeues
	Component     string  // Component name (OTel semantic convention style, e.g., "travelagency.orchestrator")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from 'new'.
func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.PlanID != nil {
		result.PlanID = new.PlanID
	}
	if new.TaskID != nil {
		result.TaskID = new.TaskID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.ThreadID != nil {
		result.ThreadID = new.ThreadID
	}
	if new.Agent != nil {
		result.Agent = new.Agent
	}
	if new.CorrelationID != nil {
		result.CorrelationID = new.CorrelationID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{PlanID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
// Useful for logging potentially long strings like queries or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

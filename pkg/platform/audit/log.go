package audit

import (
	"context"
	"log/slog"

	"bto/pkg/attrs"
	"bto/pkg/requestcontext"
)

// LogAudit writes a structured audit line and, when a publisher is configured,
// emits the matching Event. Publisher failures are logged, never returned.
//
// attributes are slog key/value pairs; "project_id", "actor", "flat_type",
// "decision" and "reason" are copied onto the published Event.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher Publisher, event AuditEvent, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if logger != nil {
		args := append([]any{"event", string(event), "log_type", "audit", "request_id", requestID}, attributes...)
		logger.InfoContext(ctx, string(event), args...)
	}
	if publisher == nil {
		return
	}

	actor := attrs.String(attributes, "actor")
	if actor == "" {
		actor = requestcontext.ActorNRIC(ctx)
	}
	err := publisher.Emit(ctx, Event{
		Category:  event.Category(),
		Timestamp: requestcontext.Now(ctx),
		Subject:   attrs.FirstString(attributes, "project_id", "registration_id"),
		Action:    string(event),
		ActorID:   actor,
		FlatType:  attrs.String(attributes, "flat_type"),
		Decision:  attrs.String(attributes, "decision"),
		Reason:    attrs.String(attributes, "reason"),
		RequestID: requestID,
	})
	if err != nil && logger != nil {
		logger.ErrorContext(ctx, "failed to publish audit event",
			"event", string(event),
			"request_id", requestID,
			"error", err,
		)
	}
}

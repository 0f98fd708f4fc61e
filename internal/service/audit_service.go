package service

import (
	"context"
	"log/slog"
	"time"

	"go-auth-service/internal/event"
	"go-auth-service/internal/model"
)

// AuditSink persists audit entries; the audit repository satisfies it.
type AuditSink interface {
	Record(ctx context.Context, entry model.AuditEntry) error
}

// AuditRecorder consumes auth events off the bus and appends them to the
// audit trail. It runs outside the request path; a failed write is
// logged and dropped, never surfaced to a client.
type AuditRecorder struct {
	sink AuditSink
	bus  event.Bus
}

func NewAuditRecorder(sink AuditSink, bus event.Bus) *AuditRecorder {
	return &AuditRecorder{sink: sink, bus: bus}
}

func (r *AuditRecorder) Run(ctx context.Context) {
	events, unsubscribe := r.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			r.record(ctx, e)
		}
	}
}

func (r *AuditRecorder) record(ctx context.Context, e event.Event) {
	occurredAt, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	entry := model.AuditEntry{
		ID:         e.ID,
		Action:     string(e.Type),
		UserUUID:   e.UserUUID,
		Username:   e.Username,
		Email:      e.Email,
		OccurredAt: occurredAt,
	}

	if err := r.sink.Record(ctx, entry); err != nil {
		slog.Warn("audit record failed", "action", entry.Action, "error", err)
	}
}

// Package audit writes action log records for authentication events and
// admin mutations.
package audit

import (
	"context"
	"log/slog"

	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/repository"
)

// RequestMeta is the client information attached to audit records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type metaKey struct{}

// WithRequestMeta returns a copy of ctx carrying meta.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns the request metadata stored in ctx, if any.
func MetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(metaKey{}).(RequestMeta)
	return meta
}

// Entry describes one audited action.
type Entry struct {
	Action       string
	UserID       string
	ResourceType string
	ResourceID   string
	Details      map[string]string
}

// Logger records entries through an ActionLogRepository.
type Logger struct {
	repo repository.ActionLogRepository
}

// NewLogger creates a Logger. A nil repo disables persistence.
func NewLogger(repo repository.ActionLogRepository) *Logger {
	return &Logger{repo: repo}
}

// Log writes e, filling client details from ctx. Failures are logged and
// swallowed so auditing never fails the audited action.
func (l *Logger) Log(ctx context.Context, e Entry) {
	if l == nil || l.repo == nil {
		return
	}
	meta := MetaFromContext(ctx)
	entry := &models.ActionLog{
		ActionType:   e.Action,
		UserID:       optional(e.UserID),
		ResourceType: optional(e.ResourceType),
		ResourceID:   optional(e.ResourceID),
		IPAddress:    optional(meta.IPAddress),
		UserAgent:    optional(meta.UserAgent),
		Details:      e.Details,
	}
	// The audited request may already be finished.
	if err := l.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		slog.WarnContext(ctx, "Failed to write action log", "action", e.Action, "request_id", meta.RequestID, "error", err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

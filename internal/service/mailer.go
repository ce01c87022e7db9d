package service

import (
	"context"
	"log/slog"
)

// Message is an outgoing transactional email.
type Message struct {
	To      string
	Subject string
	Body    string
	Link    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the structured log instead of sending them.
// It is used until an email provider is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer. A nil logger uses slog.Default.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "Email queued", "to", msg.To, "subject", msg.Subject, "link", msg.Link)
	return nil
}

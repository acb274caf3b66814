// Package mail composes and relays the contact-form notification emails.
package mail

import (
	"context"
	"log/slog"
)

// Sender is the interface that all email providers must implement.
// This abstraction allows swapping providers (SMTP relay, log driver, test fakes)
// without changing business logic.
type Sender interface {
	// Send delivers msg, giving up when ctx is done.
	Send(ctx context.Context, msg Message) error
}

// Message represents an email message to be sent.
type Message struct {
	From     string // sender address; empty means the sender's configured identity
	To       string // recipient email address
	Subject  string // email subject
	HTMLBody string // HTML email body
	TextBody string // plain-text fallback body
}

// LogSender writes messages to the log instead of delivering them.
// It is meant for local development without mail credentials.
type LogSender struct{}

// Send logs the envelope of msg.
func (LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "mail not sent (log driver)",
		"to", msg.To,
		"subject", msg.Subject,
		"text_bytes", len(msg.TextBody),
		"html_bytes", len(msg.HTMLBody),
	)
	return nil
}

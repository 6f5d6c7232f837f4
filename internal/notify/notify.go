// Package notify delivers outbound messages: simulated emails and admin alerts.
package notify

import (
	"context"
	"fmt"
	"strings"

	"yatrinivas/internal/metrics"

	"github.com/rs/zerolog"
)

// Email is an outbound message.
type Email struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends email.
type Mailer interface {
	SendEmail(ctx context.Context, msg Email) error
}

// LogMailer simulates delivery by logging the message.
type LogMailer struct {
	logger *zerolog.Logger
}

func NewLogMailer(logger *zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendEmail(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		metrics.IncEmail("rejected")
		return fmt.Errorf("email recipient is required")
	}
	m.logger.Info().
		Str("to", msg.To).
		Str("from", msg.From).
		Str("subject", msg.Subject).
		Int("body_len", len(msg.Body)).
		Msg("SendEmail (simulated)")
	metrics.IncEmail("sent")
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"yatrinivas/internal/events"
	"yatrinivas/internal/notify"

	"github.com/rs/zerolog"
)

// ContactInbox receives contact form submissions.
const ContactInbox = "info@kolharyatrinivas.com"

// ContactMessage is the contact form.
type ContactMessage struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=40"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactService delivers the contact form through the mailer and announces it as an event.
// Extra relays (Telegram) subscribe to the event, so their failures never fail a submission.
type ContactService struct {
	mailer notify.Mailer
	events Publisher
	logger *zerolog.Logger
}

func NewContactService(mailer notify.Mailer, pub Publisher, logger *zerolog.Logger) *ContactService {
	return &ContactService{mailer: mailer, events: pub, logger: logger}
}

func (s *ContactService) Submit(ctx context.Context, msg ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Phone = strings.TrimSpace(msg.Phone)
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Message = strings.TrimSpace(msg.Message)

	if err := validate.Struct(msg); err != nil {
		fields, malformed := failedFields(err)
		if malformed {
			return invalid("Please check: "+strings.Join(fields, ", "), fields...)
		}
		return invalid("Please fill in all required fields", fields...)
	}

	if err := s.mailer.SendEmail(ctx, ContactEmail(msg)); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishJSON(events.ContactReceived, msg.Email, msg); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish contact event")
		}
	}
	return nil
}

// ContactEmail is the message delivered for a contact submission.
func ContactEmail(msg ContactMessage) notify.Email {
	return notify.Email{
		To:      ContactInbox,
		From:    msg.Email,
		Subject: "Contact Form: " + msg.Subject,
		Body:    ContactBody(msg),
	}
}

// ContactBody renders the email body of a contact submission.
func ContactBody(msg ContactMessage) string {
	var sb strings.Builder
	sb.WriteString("New contact form submission:\n\n")
	fmt.Fprintf(&sb, "Name: %s\n", msg.Name)
	fmt.Fprintf(&sb, "Email: %s\n", msg.Email)
	fmt.Fprintf(&sb, "Phone: %s\n", msg.Phone)
	fmt.Fprintf(&sb, "Subject: %s\n\n", msg.Subject)
	fmt.Fprintf(&sb, "Message:\n%s\n", msg.Message)
	return sb.String()
}

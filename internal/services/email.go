package services

import (
	"context"
	"fmt"
	"log/slog"

	"conferencecompanion/internal/domain"
)

// EmailService sends domain-level emails through a Mailer.
type EmailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) *EmailService {
	return &EmailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendSessionReminder sends the "session_reminder" email.
func (s *EmailService) SendSessionReminder(ctx context.Context, data *domain.SessionReminderEmailData) error {
	if data == nil {
		return fmt.Errorf("session reminder data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("session_reminder", data)
	if err != nil {
		return fmt.Errorf("failed to render session_reminder template: %w", err)
	}
	msg := domain.EmailMessage{To: data.Email, Subject: subject, HTML: htmlBody, Text: textBody}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send session reminder email: %w", err)
	}
	s.logger.InfoContext(ctx, "session reminder sent", "to", data.Email, "url", data.URL)
	return nil
}

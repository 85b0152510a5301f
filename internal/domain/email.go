package domain

import "context"

// EmailMessage is one outgoing email. Either body may be empty.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers rendered emails.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailTemplateRenderer renders the subject and bodies of a named template.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// SessionReminderEmailData feeds the session_reminder template.
type SessionReminderEmailData struct {
	Email string
	Name  string
	Title string
	URL   string
}

package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"conferencecompanion/internal/domain"
)

const (
	ProviderSES  = "ses"
	ProviderNoop = "noop"
)

// SESConfig holds the AWS settings of the SES mailer.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailerConfig selects and configures the reminder mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// NewMailer returns the SES mailer for provider "ses" and a logging mailer
// otherwise. Reminders still work without SES; they are only logged.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case ProviderSES:
		if config.FromAddress == "" {
			return nil, fmt.Errorf("ses mailer: from address is required")
		}
		return newSESMailer(config, logger), nil
	case ProviderNoop, "":
		return logMailer{logger: logger}, nil
	default:
		logger.Warn("unknown mail provider, reminders will only be logged", "provider", config.Provider)
		return logMailer{logger: logger}, nil
	}
}

type sesMailer struct {
	client *ses.Client
	source string
	logger *slog.Logger
}

func newSESMailer(config MailerConfig, logger *slog.Logger) *sesMailer {
	if config.SES.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled for SES, use only in development")
	}
	client := ses.NewFromConfig(aws.Config{
		Region: config.SES.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(config.SES.AccessKeyID, config.SES.SecretAccessKey, ""),
		),
		HTTPClient: &http.Client{Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: config.SES.InsecureSkipVerify,
				MinVersion:         tls.VersionTLS12,
			},
		}},
	})
	from := mail.Address{Name: config.FromName, Address: config.FromAddress}
	return &sesMailer{client: client, source: from.String(), logger: logger}
}

func (s *sesMailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}
	if msg.Text != "" {
		body.Text = utf8Content(msg.Text)
	}
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.source),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message:     &types.Message{Subject: utf8Content(msg.Subject), Body: body},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", msg.To, err)
	}
	s.logger.InfoContext(ctx, "reminder email sent", "message_id", aws.ToString(out.MessageId))
	return nil
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

// logMailer records what would have been sent.
type logMailer struct {
	logger *slog.Logger
}

func (m logMailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	m.logger.InfoContext(ctx, "reminder email not sent, no mail provider", "to", msg.To, "subject", msg.Subject)
	return nil
}

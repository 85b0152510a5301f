package email

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecompanion/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewMailer(t *testing.T) {
	tests := []struct {
		name    string
		config  MailerConfig
		wantSES bool
		wantErr bool
	}{
		{name: "default logs only", config: MailerConfig{}},
		{name: "noop", config: MailerConfig{Provider: ProviderNoop}},
		{name: "unknown provider logs only", config: MailerConfig{Provider: "smtp"}},
		{name: "ses", config: MailerConfig{Provider: ProviderSES, FromAddress: "noreply@example.com", FromName: "Conference Companion", SES: SESConfig{Region: "us-east-1"}}, wantSES: true},
		{name: "ses without sender", config: MailerConfig{Provider: ProviderSES}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMailer(tt.config, testLogger)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			sm, ok := m.(*sesMailer)
			assert.Equal(t, tt.wantSES, ok)
			if ok {
				assert.Contains(t, sm.source, "Conference Companion")
				assert.Contains(t, sm.source, "<noreply@example.com>")
			}
		})
	}
}

func TestLogMailer_Send(t *testing.T) {
	m, err := NewMailer(MailerConfig{}, testLogger)
	require.NoError(t, err)
	assert.NoError(t, m.Send(context.Background(), domain.EmailMessage{To: "ana@example.com", Subject: "hi"}))
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	for _, k := range []string{"CATALOG_SOURCE", "EVENTS_FILE", "EVENTS_API_URL", "SESSIONIZE_ID", "JWT_SECRET", "PORT", "CORS_ALLOWED_ORIGINS", "SESSIONIZE_TIMEZONE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, CatalogPostgres, cfg.CatalogSource)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.True(t, cfg.AuthProviderEnabled)
	assert.Nil(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, "UTC", cfg.SessionizeTimeZone.String())
}

func TestLoad_CatalogSource(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    string
		wantErr string
	}{
		{name: "file wins", env: map[string]string{"EVENTS_FILE": "events.yaml", "EVENTS_API_URL": "https://x"}, want: CatalogFile},
		{name: "api", env: map[string]string{"EVENTS_API_URL": "https://x"}, want: CatalogHTTP},
		{name: "sessionize", env: map[string]string{"SESSIONIZE_ID": "abc"}, want: CatalogSessionize},
		{name: "explicit without url", env: map[string]string{"CATALOG_SOURCE": "http"}, wantErr: "requires EVENTS_API_URL"},
		{name: "unknown", env: map[string]string{"CATALOG_SOURCE": "ftp"}, wantErr: "unknown CATALOG_SOURCE"},
		{name: "bad timezone", env: map[string]string{"SESSIONIZE_TIMEZONE": "Mars/Olympus"}, wantErr: "invalid SESSIONIZE_TIMEZONE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GO_ENV", "test")
			for _, k := range []string{"CATALOG_SOURCE", "EVENTS_FILE", "EVENTS_API_URL", "SESSIONIZE_ID", "SESSIONIZE_TIMEZONE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.CatalogSource)
		})
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CATALOG_SOURCE", "")
	t.Setenv("EVENTS_FILE", "")
	t.Setenv("EVENTS_API_URL", "")
	t.Setenv("SESSIONIZE_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://a", "https://b"}, splitList(" https://a, ,https://b "))
	assert.Nil(t, splitList(""))
}

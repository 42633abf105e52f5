package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORTAL_POSTGRES_URL", "postgres://localhost/portal")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/", cfg.Server.DefaultLanding)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "@hourly", cfg.Session.SweepSchedule)
	assert.Equal(t, []string{"openid", "profile", "email"}, cfg.Identity.OIDCScopes)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORTAL_POSTGRES_URL", "postgres://db/portal")
	t.Setenv("PORTAL_PORT", "9999")
	t.Setenv("PORTAL_SESSION_TTL", "1h")
	t.Setenv("PORTAL_REDIS_ENABLED", "true")
	t.Setenv("PORTAL_OIDC_SCOPES", "openid, email")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"openid", "email"}, cfg.Identity.OIDCScopes)
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	t.Setenv("PORTAL_POSTGRES_URL", "postgres://db/portal")
	t.Setenv("PORTAL_PORT", "8080")

	path := filepath.Join(t.TempDir(), "portal.yaml")
	data := []byte("server:\n  port: \"7070\"\n  base_url: http://portal.example.com\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "http://portal.example.com", cfg.Server.BaseURL)
	// fields not in the file keep environment values
	assert.Equal(t, "postgres://db/portal", cfg.Database.URL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("PORTAL_POSTGRES_URL", "postgres://db/portal")

	_, err := LoadConfig("/nonexistent/portal.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, true},
		{"missing base url", func(c *Config) { c.Server.BaseURL = "" }, true},
		{"relative landing", func(c *Config) { c.Server.DefaultLanding = "services" }, true},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server: ServerConfig{
					BaseURL:        "http://localhost:8080",
					DefaultLanding: "/",
				},
				Database: DatabaseConfig{URL: "postgres://db/portal"},
				Session:  SessionConfig{TTL: time.Hour},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCallbackURL(t *testing.T) {
	cfg := &Config{Server: ServerConfig{BaseURL: "https://portal.example.com/"}}
	assert.Equal(t, "https://portal.example.com/auth/callback", cfg.CallbackURL())
}

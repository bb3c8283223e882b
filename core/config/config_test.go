package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{Telegram: TelegramConfig{Token: "123:abc"}}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, DefaultSessionTTLSeconds, cfg.Session.TTLSeconds)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL())
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval())
}

func TestNormalizeSession(t *testing.T) {
	cases := []struct {
		name    string
		session SessionConfig
		wantErr string
		wantTTL time.Duration
	}{
		{name: "negative ttl disables expiry", session: SessionConfig{TTLSeconds: -5}, wantTTL: 0},
		{name: "explicit ttl", session: SessionConfig{TTLSeconds: 90}, wantTTL: 90 * time.Second},
		{name: "redis needs url", session: SessionConfig{Backend: "redis"}, wantErr: "session.redis_url is required"},
		{name: "redis with url", session: SessionConfig{Backend: " Redis ", RedisURL: "redis://localhost:6379/0"}, wantTTL: 30 * time.Minute},
		{name: "unknown backend", session: SessionConfig{Backend: "etcd"}, wantErr: "session.backend \"etcd\""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Session = tc.session
			err := Normalize(cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantTTL, cfg.Session.TTL())
		})
	}
}

func TestNormalizeRejectsBadRunMode(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "carrier-pigeon"
	assert.Error(t, Normalize(cfg))

	cfg = validConfig()
	cfg.Telegram.RunMode = "webhook"
	assert.ErrorContains(t, Normalize(cfg), "webhook.url")

	cfg = validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", ""}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
}

func TestNormalizeReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{RunMode: "webhook"},
		Webhook:  WebhookConfig{URL: "https://bot.example.com/hook"},
		Session:  SessionConfig{Backend: "etcd"},
	}
	err := Normalize(cfg)
	require.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "telegram token is required")
	assert.ErrorContains(t, err, "webhook.listen, webhook.port required")
	assert.ErrorContains(t, err, "session.backend")
	assert.NotContains(t, err.Error(), "webhook.url")
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: from-file
session:
  backend: memory
  ttl_seconds: 120
`), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("SESSION_TTL_SECONDS", "300")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DEV_MODE", "true")
	t.Setenv("ANON_TOKEN_SECRET", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, CartBackendRemote, cfg.CartBackend)
	assert.Equal(t, "MAD", cfg.Currency)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, 720*time.Hour, cfg.AnonTokenTTL())
	assert.False(t, cfg.Mail.Configured())
	assert.Equal(t, DevAnonTokenSecret, cfg.AnonTokenSecret)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ANON_TOKEN_SECRET", "s3cret-device-key")
	t.Setenv("CART_BACKEND", "Device")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MAIL_API_URL", "https://mail.example/send")
	t.Setenv("MAIL_SERVICE_ID", "svc")
	t.Setenv("MAIL_TEMPLATE_ID", "tpl")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, CartBackendDevice, cfg.CartBackend)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.Mail.Configured())
	assert.Equal(t, "s3cret-device-key", cfg.AnonTokenSecret)
	assert.False(t, cfg.DevMode)
}

func TestFromEnvRejectsUnknownCartBackend(t *testing.T) {
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CART_BACKEND", "redis")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CART_BACKEND")
}

func TestFromEnvRequiresPrivateDeviceSecret(t *testing.T) {
	for name, secret := range map[string]string{"unset": "", "built-in": DevAnonTokenSecret} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DEV_MODE", "false")
			t.Setenv("ANON_TOKEN_SECRET", secret)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "ANON_TOKEN_SECRET")
		})
	}
}

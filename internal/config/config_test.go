package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClientRequiresEndpoints(t *testing.T) {
	t.Setenv("SUPPLIER_API_URL", "")
	t.Setenv("SUPPLIER_WS_URL", "")

	_, err := LoadClient()
	require.Error(t, err)
}

func TestLoadClientDefaults(t *testing.T) {
	t.Setenv("SUPPLIER_API_URL", "http://localhost:8090")
	t.Setenv("SUPPLIER_WS_URL", "ws://localhost:8090")
	t.Setenv("SUPPLIER_SESSION_TOKEN", "abc")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.SessionToken)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.Equal(t, time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 6, cfg.MaxReconnectAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.Empty(t, cfg.Tracing.Endpoint)
}

func TestLoadClientRejectsRelativeURL(t *testing.T) {
	t.Setenv("SUPPLIER_API_URL", "http://localhost:8090")
	t.Setenv("SUPPLIER_WS_URL", "/ws")

	_, err := LoadClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPPLIER_WS_URL")
}

func TestLoadRelayDefaults(t *testing.T) {
	t.Setenv("PORT", "9001")

	cfg, err := LoadRelay()
	require.NoError(t, err)
	assert.Equal(t, "9001", cfg.Port)
	assert.Equal(t, "chat.events", cfg.AMQPExchange)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

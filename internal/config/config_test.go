package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, "pos-invoices", cfg.InvoiceTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POS_HTTP_PORT", "9090")
	t.Setenv("POS_REQUEST_TIMEOUT", "3s")
	t.Setenv("POS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("POS_API_RATE_LIMIT", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.InDelta(t, 2.5, cfg.APIRateLimit, 0.0001)
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("POS_REQUEST_TIMEOUT", "0s")

	_, err := Load()
	require.ErrorContains(t, err, "REQUEST_TIMEOUT")
}

func TestLoad_RejectsNegativeRateLimit(t *testing.T) {
	t.Setenv("POS_API_RATE_LIMIT", "-1")

	_, err := Load()
	require.ErrorContains(t, err, "API_RATE_LIMIT")
}

package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karteekpv77/loggateway/internal/config"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "PORT", "MAX_QUEUE_SIZE", "BATCH_SIZE", "PROCESSING_INTERVAL",
		"HEALTH_CHECK_INTERVAL", "HEALTH_CHECK_TIMEOUT", "FAILURE_THRESHOLD",
		"SUCCESS_THRESHOLD", "SEND_TIMEOUT", "RETRY_ON_FAILURE", "ANALYZERS",
		"MAX_MESSAGES_PER_PACKET", "MAX_LOG_MESSAGE_LENGTH", "MAX_PACKET_SIZE_BYTES")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10000, cfg.MaxQueueSize)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.ProcessingInterval)
	assert.Equal(t, 30*time.Second, cfg.HealthCheckInterval)
	assert.Equal(t, 5*time.Second, cfg.HealthCheckTimeout)
	assert.Equal(t, 3, cfg.FailureThreshold)
	assert.Equal(t, 3, cfg.SuccessThreshold)
	assert.Equal(t, 5*time.Second, cfg.SendTimeout)
	assert.False(t, cfg.RetryOnFailure)
	assert.Equal(t, 1000, cfg.MaxMessagesPerPacket)
	assert.Equal(t, 10000, cfg.MaxLogMessageLength)
	assert.Equal(t, 1024*1024, cfg.MaxPacketSizeBytes)
	assert.Empty(t, cfg.Analyzers)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_QUEUE_SIZE", "500")
	t.Setenv("RETRY_ON_FAILURE", "true")
	defer clearEnv(t, "PORT", "MAX_QUEUE_SIZE", "RETRY_ON_FAILURE")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 500, cfg.MaxQueueSize)
	assert.True(t, cfg.RetryOnFailure)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("BATCH_SIZE", "not-a-number")
	defer clearEnv(t, "BATCH_SIZE")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.BatchSize)
}

func TestLoad_ParsesAnalyzersWithColonsInEndpoint(t *testing.T) {
	t.Setenv("ANALYZERS", "a1:http://a1:9000:1.5, a2:http://a2:9001:0.5")
	defer clearEnv(t, "ANALYZERS")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Len(t, cfg.Analyzers, 2)

	assert.Equal(t, "a1", cfg.Analyzers[0].ID)
	assert.Equal(t, "http://a1:9000", cfg.Analyzers[0].Endpoint)
	assert.Equal(t, 1.5, cfg.Analyzers[0].Weight)

	assert.Equal(t, "a2", cfg.Analyzers[1].ID)
	assert.Equal(t, "http://a2:9001", cfg.Analyzers[1].Endpoint)
	assert.Equal(t, 0.5, cfg.Analyzers[1].Weight)
}

func TestLoad_RejectsMalformedAnalyzerEntry(t *testing.T) {
	t.Setenv("ANALYZERS", "justanid")
	defer clearEnv(t, "ANALYZERS")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonNumericWeight(t *testing.T) {
	t.Setenv("ANALYZERS", "a1:http://a1:9000:notanumber")
	defer clearEnv(t, "ANALYZERS")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_EmptyAnalyzersStringYieldsNoAnalyzers(t *testing.T) {
	t.Setenv("ANALYZERS", "  ")
	defer clearEnv(t, "ANALYZERS")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Analyzers)
}

// Package config loads the gateway's environment-driven configuration,
// following the defaults and shape specified in spec.md §6.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every recognized environment option, with spec.md §6's
// defaults applied for anything unset.
type Config struct {
	Port string

	MaxQueueSize       int
	BatchSize          int
	ProcessingInterval time.Duration

	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
	FailureThreshold    int
	SuccessThreshold    int

	SendTimeout time.Duration

	RetryOnFailure bool

	MaxMessagesPerPacket int
	MaxLogMessageLength  int
	MaxPacketSizeBytes   int

	Analyzers []AnalyzerConfig
}

// AnalyzerConfig is one entry of the ANALYZERS environment variable.
type AnalyzerConfig struct {
	ID       string
	Endpoint string
	Weight   float64
}

// Load reads environment variables into a Config, applying spec.md §6
// defaults for anything unset or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		MaxQueueSize:        getEnvInt("MAX_QUEUE_SIZE", 10000),
		BatchSize:           getEnvInt("BATCH_SIZE", 100),
		ProcessingInterval:  getEnvDurationMs("PROCESSING_INTERVAL", 10),
		HealthCheckInterval: getEnvDurationMs("HEALTH_CHECK_INTERVAL", 30000),
		HealthCheckTimeout:  getEnvDurationMs("HEALTH_CHECK_TIMEOUT", 5000),
		FailureThreshold:    getEnvInt("FAILURE_THRESHOLD", 3),
		SuccessThreshold:    getEnvInt("SUCCESS_THRESHOLD", 3),
		SendTimeout:         getEnvDurationMs("SEND_TIMEOUT", 5000),
		RetryOnFailure:      getEnvBool("RETRY_ON_FAILURE", false),

		MaxMessagesPerPacket: getEnvInt("MAX_MESSAGES_PER_PACKET", 1000),
		MaxLogMessageLength:  getEnvInt("MAX_LOG_MESSAGE_LENGTH", 10000),
		MaxPacketSizeBytes:   getEnvInt("MAX_PACKET_SIZE_BYTES", 1024*1024),
	}

	analyzers, err := parseAnalyzers(os.Getenv("ANALYZERS"))
	if err != nil {
		return nil, fmt.Errorf("parsing ANALYZERS: %w", err)
	}
	cfg.Analyzers = analyzers

	return cfg, nil
}

// parseAnalyzers parses the comma-separated id:endpoint:weight triples
// from spec.md §6. endpoint may itself contain colons (e.g. a port); the
// *last* colon in each triple separates the weight.
func parseAnalyzers(raw string) ([]AnalyzerConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var out []AnalyzerConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		lastColon := strings.LastIndex(entry, ":")
		if lastColon < 0 {
			return nil, fmt.Errorf("malformed analyzer entry %q", entry)
		}
		weightStr := entry[lastColon+1:]
		rest := entry[:lastColon]

		firstColon := strings.Index(rest, ":")
		if firstColon < 0 {
			return nil, fmt.Errorf("malformed analyzer entry %q", entry)
		}
		id := rest[:firstColon]
		endpoint := rest[firstColon+1:]

		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed weight in %q: %w", entry, err)
		}

		out = append(out, AnalyzerConfig{ID: id, Endpoint: endpoint, Weight: weight})
	}
	return out, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDurationMs(key string, defMs int) time.Duration {
	ms := getEnvInt(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

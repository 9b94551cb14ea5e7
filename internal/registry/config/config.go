// Package config loads the registry server's configuration from environment
// variables, matching stigmer-server/pkg/config's getEnv helper + default-path
// shape rather than a flags package, since this server is meant to run as a
// long-lived daemon configured by its process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds everything the server entrypoint needs to wire up the
// registry: listen address, snapshot path, embedding dimension, and the
// rate-limit budgets from spec.md §4.5.
type Config struct {
	ListenAddr   string
	SnapshotPath string
	LogLevel     string
	Env          string

	// EmbeddingDim is a deployment-negotiated constant (DESIGN.md Open
	// Question decision): spec.md leaves the vector dimension open, so it
	// is read from the environment rather than hardcoded.
	EmbeddingDim int

	// Rate-limit budgets, spec.md §4.5(b). Per-minute request counts.
	ReadPerIPPerMinute      int
	ReadPerTokenPerMinute   int
	WritePerIPPerMinute     int
	WritePerTokenPerMinute  int
	RateLimiterIdleEvictAge time.Duration

	MaxRawFileReadBytes int64
	MaxMultipartBytes   int64
}

// Load reads configuration from the environment, applying the defaults a
// local/dev deployment would want.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:   getEnvString("CLAWDHUB_LISTEN_ADDR", ":8080"),
		SnapshotPath: getEnvString("CLAWDHUB_SNAPSHOT_PATH", defaultSnapshotPath()),
		LogLevel:     getEnvString("LOG_LEVEL", "info"),
		Env:          getEnvString("ENV", "local"),

		EmbeddingDim: getEnvInt("CLAWDHUB_EMBEDDING_DIM", 256),

		ReadPerIPPerMinute:      getEnvInt("CLAWDHUB_RATE_READ_IP", 120),
		ReadPerTokenPerMinute:   getEnvInt("CLAWDHUB_RATE_READ_TOKEN", 600),
		WritePerIPPerMinute:     getEnvInt("CLAWDHUB_RATE_WRITE_IP", 30),
		WritePerTokenPerMinute:  getEnvInt("CLAWDHUB_RATE_WRITE_TOKEN", 120),
		RateLimiterIdleEvictAge: time.Duration(getEnvInt("CLAWDHUB_RATE_IDLE_EVICT_SECONDS", 600)) * time.Second,

		MaxRawFileReadBytes: int64(getEnvInt("CLAWDHUB_MAX_FILE_READ_BYTES", 200*1024)),
		MaxMultipartBytes:   int64(getEnvInt("CLAWDHUB_MAX_MULTIPART_BYTES", 32<<20)),
	}

	if cfg.SnapshotPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.SnapshotPath), 0o770); err != nil {
			return nil, fmt.Errorf("ensure snapshot directory: %w", err)
		}
	}
	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("CLAWDHUB_EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func defaultSnapshotPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./clawdhub-data/registry.json"
	}
	return filepath.Join(home, ".clawdhub", "registry.json")
}

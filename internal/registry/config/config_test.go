package config

import (
	"path/filepath"
	"testing"
)

func clearRegistryEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"CLAWDHUB_LISTEN_ADDR", "CLAWDHUB_SNAPSHOT_PATH", "LOG_LEVEL", "ENV",
		"CLAWDHUB_EMBEDDING_DIM",
		"CLAWDHUB_RATE_READ_IP", "CLAWDHUB_RATE_READ_TOKEN",
		"CLAWDHUB_RATE_WRITE_IP", "CLAWDHUB_RATE_WRITE_TOKEN",
		"CLAWDHUB_RATE_IDLE_EVICT_SECONDS",
		"CLAWDHUB_MAX_FILE_READ_BYTES", "CLAWDHUB_MAX_MULTIPART_BYTES",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearRegistryEnv(t)
	t.Setenv("CLAWDHUB_SNAPSHOT_PATH", filepath.Join(t.TempDir(), "registry.json"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.EmbeddingDim != 256 {
		t.Errorf("EmbeddingDim = %d, want 256", cfg.EmbeddingDim)
	}
	if cfg.ReadPerIPPerMinute != 120 {
		t.Errorf("ReadPerIPPerMinute = %d, want 120", cfg.ReadPerIPPerMinute)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearRegistryEnv(t)
	t.Setenv("CLAWDHUB_SNAPSHOT_PATH", filepath.Join(t.TempDir(), "registry.json"))
	t.Setenv("CLAWDHUB_LISTEN_ADDR", ":9090")
	t.Setenv("CLAWDHUB_EMBEDDING_DIM", "64")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", cfg.ListenAddr)
	}
	if cfg.EmbeddingDim != 64 {
		t.Errorf("EmbeddingDim = %d, want 64", cfg.EmbeddingDim)
	}
}

func TestLoadRejectsNonPositiveEmbeddingDim(t *testing.T) {
	clearRegistryEnv(t)
	t.Setenv("CLAWDHUB_SNAPSHOT_PATH", filepath.Join(t.TempDir(), "registry.json"))
	t.Setenv("CLAWDHUB_EMBEDDING_DIM", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load: expected an error for a non-positive embedding dimension")
	}
}

func TestLoadIgnoresUnparsableInt(t *testing.T) {
	clearRegistryEnv(t)
	t.Setenv("CLAWDHUB_SNAPSHOT_PATH", filepath.Join(t.TempDir(), "registry.json"))
	t.Setenv("CLAWDHUB_EMBEDDING_DIM", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if cfg.EmbeddingDim != 256 {
		t.Errorf("EmbeddingDim = %d, want default 256 when the env var doesn't parse", cfg.EmbeddingDim)
	}
}

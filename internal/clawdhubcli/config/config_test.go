package config

import (
	"path/filepath"
	"testing"
)

func TestPathHonorsEnvOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom-config.yaml")
	t.Setenv(envConfig, want)
	got, err := Path()
	if err != nil {
		t.Fatalf("Path: unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoadDefaultsWhenNoFileExists(t *testing.T) {
	t.Setenv(envConfig, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(envRegistry, "")
	t.Setenv(envSite, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if cfg.Registry != defaultRegistry {
		t.Errorf("Registry = %q, want default %q", cfg.Registry, defaultRegistry)
	}
	if cfg.Token != "" {
		t.Errorf("Token = %q, want empty", cfg.Token)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv(envConfig, filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv(envRegistry, "")
	t.Setenv(envSite, "")

	want := &Config{Registry: "https://example.test", Site: "example", Token: "tok_abc"}
	if err := Save(want); err != nil {
		t.Fatalf("Save: unexpected error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if got.Registry != want.Registry || got.Site != want.Site || got.Token != want.Token {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadEnvOverridesSavedFile(t *testing.T) {
	t.Setenv(envConfig, filepath.Join(t.TempDir(), "config.yaml"))
	if err := Save(&Config{Registry: "https://saved.test"}); err != nil {
		t.Fatalf("Save: unexpected error: %v", err)
	}
	t.Setenv(envRegistry, "https://overridden.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if cfg.Registry != "https://overridden.test" {
		t.Errorf("Registry = %q, want env override to win", cfg.Registry)
	}
}

func TestWorkdirPrefersFlagThenEnvThenCwd(t *testing.T) {
	t.Setenv(envWorkdir, "")
	explicit := t.TempDir()
	got, err := Workdir(explicit)
	if err != nil {
		t.Fatalf("Workdir(flag): unexpected error: %v", err)
	}
	if got != explicit {
		t.Errorf("Workdir(flag) = %q, want %q", got, explicit)
	}

	envDir := t.TempDir()
	t.Setenv(envWorkdir, envDir)
	got, err = Workdir("")
	if err != nil {
		t.Fatalf("Workdir(env): unexpected error: %v", err)
	}
	if got != envDir {
		t.Errorf("Workdir(env) = %q, want %q", got, envDir)
	}
}

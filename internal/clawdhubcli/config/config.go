// Package config resolves the CLI's global configuration (spec.md §6.4):
// registry URL and auth token, persisted at a platform-specific path.
//
// Grounded on stigmer-stigmer/client-apps/cli/internal/cli/config/config.go's
// Load/Save/GetConfigPath shape (yaml.v3 + pkg/errors wrapping, 0600-mode
// writes), swapped from a hand-rolled ~/.stigmer path to adrg/xdg's standard
// config-home resolution (the teacher repo's own dependency, unused in the
// desktop app's CLI-less build, so this is where it earns a home) and with
// env-var overrides added per spec.md §6.3.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	appDirName  = "clawdhub"
	fileName    = "config.yaml"
	envSite     = "CLAWDHUB_SITE"
	envRegistry = "CLAWDHUB_REGISTRY"
	envWorkdir  = "CLAWDHUB_WORKDIR"
	envConfig   = "CLAWDHUB_CONFIG_PATH"
)

// Config is the persisted global CLI state: which registry to talk to, and
// the bearer token `login` obtained.
type Config struct {
	Registry string `yaml:"registry"`
	Site     string `yaml:"site,omitempty"`
	Token    string `yaml:"token,omitempty"`
}

const defaultRegistry = "https://registry.clawdhub.dev"

// Path resolves the config file location: CLAWDHUB_CONFIG_PATH if set, else
// the XDG config home.
func Path() (string, error) {
	if p := os.Getenv(envConfig); p != "" {
		return p, nil
	}
	p, err := xdg.ConfigFile(filepath.Join(appDirName, fileName))
	if err != nil {
		return "", errors.Wrap(err, "resolve clawdhub config path")
	}
	return p, nil
}

// Load reads the global config, returning defaults (with env overrides
// applied) if no file exists yet.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	cfg := &Config{Registry: defaultRegistry}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config at %s", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "read config at %s", path)
	}

	if v := os.Getenv(envRegistry); v != "" {
		cfg.Registry = v
	}
	if v := os.Getenv(envSite); v != "" {
		cfg.Site = v
	}
	return cfg, nil
}

// Save persists the config, creating its parent directory if needed.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "write config at %s", path)
	}
	return nil
}

// Workdir resolves the CLI's root working directory: CLAWDHUB_WORKDIR, or
// the process's current directory.
func Workdir(flagValue string) (string, error) {
	if flagValue != "" {
		return filepath.Abs(flagValue)
	}
	if v := os.Getenv(envWorkdir); v != "" {
		return filepath.Abs(v)
	}
	return os.Getwd()
}

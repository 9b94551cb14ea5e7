package cmdroot

import (
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/client"
	ccconfig "github.com/clawdhub/clawdhub/internal/clawdhubcli/config"
)

// loadConfig loads the CLI's persisted config, applying the --site/--registry
// flag overrides on top of it (spec.md §6.3's flag > env > file precedence).
func loadConfig() (*ccconfig.Config, error) {
	cfg, err := ccconfig.Load()
	if err != nil {
		return nil, err
	}
	if flagRegistry != "" {
		cfg.Registry = flagRegistry
	}
	if flagSite != "" {
		cfg.Site = flagSite
	}
	return cfg, nil
}

// newClient loads config and returns a ready-to-use registry client.
func newClient() (*client.Client, *ccconfig.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return client.New(cfg.Registry, cfg.Token), cfg, nil
}

func workdir() (string, error) {
	return ccconfig.Workdir(flagWorkdir)
}

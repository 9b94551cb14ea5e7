package cmdroot

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/clierr"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/client"
	ccconfig "github.com/clawdhub/clawdhub/internal/clawdhubcli/config"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/cliprint"
)

func newLoginCommand() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a registry access token",
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runLogin(cmd.Context(), token))
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (prompted for if omitted)")
	return cmd
}

func runLogin(ctx context.Context, token string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if token == "" {
		if flagNoInput {
			return fmt.Errorf("--token is required with --no-input")
		}
		prompt := &survey.Password{Message: "Registry access token:"}
		if err := survey.AskOne(prompt, &token); err != nil {
			return fmt.Errorf("read token prompt: %w", err)
		}
	}
	cfg.Token = token

	c := client.New(cfg.Registry, cfg.Token)
	who, err := c.Whoami(ctx)
	if err != nil {
		return fmt.Errorf("token rejected by %s: %w", cfg.Registry, err)
	}
	if err := ccconfig.Save(cfg); err != nil {
		return err
	}
	cliprint.Success("logged in to %s as %s", cfg.Registry, who.User.Handle)
	return nil
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runLogout())
		},
	}
}

func runLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Token = ""
	if err := ccconfig.Save(cfg); err != nil {
		return err
	}
	cliprint.Success("logged out")
	return nil
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the stored token belongs to",
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runWhoami(cmd.Context()))
		},
	}
}

func runWhoami(ctx context.Context) error {
	c, cfg, err := newClient()
	if err != nil {
		return err
	}
	who, err := c.Whoami(ctx)
	if err != nil {
		return err
	}
	cliprint.Info("registry:     %s", cfg.Registry)
	cliprint.Info("handle:       %s", who.User.Handle)
	cliprint.Info("display name: %s", who.User.DisplayName)
	return nil
}

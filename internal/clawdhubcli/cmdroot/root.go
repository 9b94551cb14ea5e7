// Package cmdroot assembles the clawdhub CLI's cobra command tree, grounded
// on stigmer-stigmer/client-apps/cli/cmd/stigmer/root.go's top-level command
// wiring and root/skill.go's per-command shape (flags, clierr.Handle,
// cliprint status lines).
package cmdroot

import (
	"github.com/spf13/cobra"
)

var (
	flagWorkdir  string
	flagSite     string
	flagRegistry string
	flagNoInput  bool
)

// NewRootCommand builds the clawdhub root command and its full subtree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clawdhub",
		Short: "ClawdHub - a public registry for versioned AI agent skill bundles",
		Long: `ClawdHub publishes and installs versioned, content-addressed
Markdown/text skill bundles for AI agents.

Skills live in local folders named after their slug, each containing a
SKILL.md file. clawdhub scans, hashes, and syncs those folders against
a registry.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagWorkdir, "workdir", "", "working directory (defaults to CLAWDHUB_WORKDIR or the current directory)")
	cmd.PersistentFlags().StringVar(&flagSite, "site", "", "override the configured site URL")
	cmd.PersistentFlags().StringVar(&flagRegistry, "registry", "", "override the configured registry URL")
	cmd.PersistentFlags().BoolVar(&flagNoInput, "no-input", false, "never prompt; fail instead of asking")

	cmd.AddCommand(newLoginCommand())
	cmd.AddCommand(newLogoutCommand())
	cmd.AddCommand(newWhoamiCommand())
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newExploreCommand())
	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newUpdateCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newPublishCommand())
	cmd.AddCommand(newSyncCommand())
	cmd.AddCommand(newDeleteCommand())
	cmd.AddCommand(newUndeleteCommand())

	return cmd
}

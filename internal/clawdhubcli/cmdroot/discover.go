package cmdroot

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/clierr"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/cliprint"
	"github.com/clawdhub/clawdhub/internal/registry/search"
)

func newSearchCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search published skills by keyword and meaning",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runSearch(cmd.Context(), strings.Join(args, " "), limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	return cmd
}

func runSearch(ctx context.Context, q string, limit int) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}
	results, err := c.Search(ctx, q, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		cliprint.Info("no results for %q", q)
		return nil
	}
	for _, r := range results {
		cliprint.Info("%-30s %-10s %.3f  %s", r.Slug, r.Version, r.Score, r.Summary)
	}
	return nil
}

func newExploreCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "List trending and recently published skills",
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runExplore(cmd.Context(), limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results (1-50)")
	return cmd
}

func runExplore(ctx context.Context, limit int) error {
	if limit < 1 || limit > 50 {
		limit = 20
	}
	c, _, err := newClient()
	if err != nil {
		return err
	}
	items, err := c.Explore(ctx, limit)
	if err != nil {
		return err
	}
	for _, it := range items {
		cliprint.Info("%-30s stars=%-4d downloads=%-6d %s", it.Slug, it.Stars, it.Downloads, search.TruncateForDisplay(it.Summary))
	}
	return nil
}

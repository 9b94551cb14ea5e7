package cmdroot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/clierr"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/cliprint"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/planner"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/publisher"
	"github.com/clawdhub/clawdhub/internal/registry/semverutil"
)

func newPublishCommand() *cobra.Command {
	var slug, name, version, changelog, forkOf string
	var tags []string
	cmd := &cobra.Command{
		Use:   "publish <path>",
		Short: "Publish one skill folder as a new version",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runPublish(cmd.Context(), args[0], publishFlags{slug, name, version, changelog, forkOf, tags}))
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "slug to publish under (defaults to the folder name)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&version, "version", "", "exact version to publish (defaults to an automatic bump)")
	cmd.Flags().StringVar(&changelog, "changelog", "", "changelog entry for this version")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")
	cmd.Flags().StringVar(&forkOf, "fork-of", "", "slug[@version] this skill was forked from")
	return cmd
}

type publishFlags struct {
	slug, name, version, changelog, forkOf string
	tags                                   []string
}

func runPublish(ctx context.Context, path string, flags publishFlags) error {
	c, cfg, err := newClient()
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	root := filepath.Dir(abs)
	skills, _, err := planner.Scan([]string{root})
	if err != nil {
		return err
	}
	var local *planner.LocalSkill
	for i := range skills {
		if skills[i].Dir == abs {
			local = &skills[i]
			break
		}
	}
	if local == nil {
		return fmt.Errorf("no SKILL.md found under %s", path)
	}
	if flags.slug != "" {
		local.Slug = flags.slug
	}
	if flags.name != "" {
		local.DisplayName = flags.name
	}

	items, err := planner.Classify(ctx, c, []planner.LocalSkill{*local}, 1)
	if err != nil {
		return err
	}

	result, err := publisher.Publish(ctx, c, items[0], publisher.Options{
		Changelog:    flags.changelog,
		Tags:         flags.tags,
		ForkOf:       flags.forkOf,
		NoInput:      flagNoInput,
		ExplicitVers: flags.version,
	}, cfg.Registry)
	if err != nil {
		return err
	}

	cliprint.Success("published %s@%s", result.Slug, result.Version)
	return nil
}

func newSyncCommand() *cobra.Command {
	var roots []string
	var all, dryRun bool
	var bump, changelog string
	var tags []string
	var concurrency int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Discover local skill folders and publish the ones that changed",
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runSync(cmd.Context(), roots, all, dryRun, semverutil.Bump(bump), changelog, tags, concurrency))
		},
	}
	cmd.Flags().StringArrayVar(&roots, "root", nil, "additional directory to scan (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "publish every new/updated skill without prompting for selection")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without publishing")
	cmd.Flags().StringVar(&bump, "bump", "patch", "version bump for updates: patch, minor, or major")
	cmd.Flags().StringVar(&changelog, "changelog", "", "changelog entry applied to every published skill")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags applied to every published skill")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "classification concurrency (1-32)")
	return cmd
}

func runSync(ctx context.Context, extraRoots []string, all, dryRun bool, bump semverutil.Bump, changelog string, tags []string, concurrency int) error {
	c, cfg, err := newClient()
	if err != nil {
		return err
	}
	wd, err := workdir()
	if err != nil {
		return err
	}

	roots, err := planner.Roots(wd, extraRoots)
	if err != nil {
		return err
	}
	local, skipped, err := planner.Scan(roots)
	if err != nil {
		return err
	}
	for _, dir := range skipped {
		cliprint.Warning("skipping duplicate slug found at %s", dir)
	}
	if len(local) == 0 {
		cliprint.Info("no skill folders found under %s", strings.Join(roots, ", "))
		return nil
	}

	items, err := planner.Classify(ctx, c, local, concurrency)
	if err != nil {
		return err
	}

	var toPublish []planner.PlanItem
	for _, item := range items {
		switch item.Status {
		case planner.StatusSynced:
			cliprint.Info("%-30s up to date (%s)", item.Skill.Slug, item.MatchedVersion)
		case planner.StatusNew:
			cliprint.Info("%-30s new", item.Skill.Slug)
			toPublish = append(toPublish, item)
		case planner.StatusUpdate:
			cliprint.Info("%-30s changed (latest published: %s)", item.Skill.Slug, item.LatestVersion)
			toPublish = append(toPublish, item)
		}
	}
	if len(toPublish) == 0 {
		cliprint.Info("everything is up to date")
		return nil
	}
	if !all && !dryRun && !flagNoInput {
		toPublish, err = selectItems(toPublish)
		if err != nil {
			return err
		}
	}

	for _, item := range toPublish {
		result, err := publisher.Publish(ctx, c, item, publisher.Options{
			Bump:      bump,
			Changelog: changelog,
			Tags:      tags,
			NoInput:   flagNoInput,
			DryRun:    dryRun,
		}, cfg.Registry)
		if err != nil {
			return fmt.Errorf("publish %s: %w", item.Skill.Slug, err)
		}
		if !dryRun {
			cliprint.Success("published %s@%s", result.Slug, result.Version)
		}
	}
	return nil
}

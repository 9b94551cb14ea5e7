// Package publisher turns one classified planner.PlanItem into a registry
// publish call: it picks the next version, resolves a changelog, and
// uploads the bundle, grounded on
// stigmer-stigmer/client-apps/cli/cmd/stigmer/root/skill.go's push step
// (bump version, prompt for a message if none was given, then upload).
package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/client"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/cliprint"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/lockfile"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/planner"
	"github.com/clawdhub/clawdhub/internal/registry/semverutil"
)

// Options controls one publish/sync invocation (spec.md §4.6 step 7, §6.3).
type Options struct {
	Bump         semverutil.Bump
	Changelog    string
	Tags         []string
	ForkOf       string
	NoInput      bool
	DryRun       bool
	ExplicitVers string // --version override, used by the standalone `publish` command
}

// Publish bumps item's version, resolves a changelog, and uploads it. It
// writes the per-skill origin marker on success; it does not touch the
// workdir lockfile.
func Publish(ctx context.Context, c *client.Client, item planner.PlanItem, opts Options, registry string) (*client.PublishResult, error) {
	version, err := nextVersion(item, opts)
	if err != nil {
		return nil, err
	}

	changelog := opts.Changelog
	if changelog == "" && !opts.NoInput && item.Status != planner.StatusNew {
		changelog, err = promptChangelog()
		if err != nil {
			return nil, err
		}
	}

	if opts.DryRun {
		cliprint.Info("would publish %s@%s (%s)", item.Skill.Slug, version, item.Status)
		return &client.PublishResult{Slug: item.Skill.Slug, Version: version}, nil
	}

	forkOfSlug, forkOfVersion := splitForkOf(opts.ForkOf)
	req := client.PublishRequest{
		Slug:          item.Skill.Slug,
		DisplayName:   item.Skill.DisplayName,
		Version:       version,
		Changelog:     changelog,
		Tags:          opts.Tags,
		ForkOfSlug:    forkOfSlug,
		ForkOfVersion: forkOfVersion,
	}
	for _, f := range item.Skill.Files {
		req.Files = append(req.Files, client.PublishFile{Path: f.Path, Data: f.Data})
	}

	result, err := c.Publish(ctx, req, func(path string) {
		cliprint.Info("  uploading %s", path)
	})
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", item.Skill.Slug, err)
	}

	if err := lockfile.WriteOrigin(item.Skill.Dir, lockfile.Origin{
		Version:          1,
		Registry:         registry,
		Slug:             item.Skill.Slug,
		InstalledVersion: result.Version,
	}); err != nil {
		cliprint.Warning("publish succeeded but failed to write origin marker: %v", err)
	}

	return result, nil
}

func nextVersion(item planner.PlanItem, opts Options) (string, error) {
	if opts.ExplicitVers != "" {
		if err := semverutil.Validate(opts.ExplicitVers); err != nil {
			return "", err
		}
		return opts.ExplicitVers, nil
	}
	if item.Status == planner.StatusNew {
		return semverutil.NewSkillVersion, nil
	}
	bump := opts.Bump
	if bump == "" {
		bump = semverutil.BumpPatch
	}
	base := item.LatestVersion
	if base == "" {
		base = item.MatchedVersion
	}
	return semverutil.Next(base, bump)
}

// splitForkOf parses the --fork-of flag's "slug[@version]" shape.
func splitForkOf(forkOf string) (slug, version string) {
	if forkOf == "" {
		return "", ""
	}
	if i := strings.LastIndex(forkOf, "@"); i >= 0 {
		return forkOf[:i], forkOf[i+1:]
	}
	return forkOf, ""
}

func promptChangelog() (string, error) {
	var answer string
	prompt := &survey.Input{Message: "Changelog for this version (optional):"}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", fmt.Errorf("read changelog prompt: %w", err)
	}
	return answer, nil
}

package cmdroot

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/clierr"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/cliprint"
	"github.com/clawdhub/clawdhub/internal/clawdhubcli/lockfile"
)

// flagSkillsDir is shared across install/update (spec.md §6.3's --dir).
var flagSkillsDir string

func newInstallCommand() *cobra.Command {
	var version string
	var force bool
	cmd := &cobra.Command{
		Use:   "install <slug>",
		Short: "Download and extract a skill into the local skills directory",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runInstall(cmd.Context(), args[0], version, force))
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version to install (defaults to latest)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing local copy")
	cmd.Flags().StringVar(&flagSkillsDir, "dir", "skills", "directory to install skills into")
	return cmd
}

func runInstall(ctx context.Context, slug, version string, force bool) error {
	c, cfg, err := newClient()
	if err != nil {
		return err
	}
	wd, err := workdir()
	if err != nil {
		return err
	}

	if version == "" {
		sk, err := c.GetSkill(ctx, slug)
		if err != nil {
			return err
		}
		if sk.LatestVersion == nil {
			return fmt.Errorf("%s has no published versions", slug)
		}
		version = sk.LatestVersion.Version
	}

	destRoot := filepath.Join(wd, flagSkillsDir)
	dest := filepath.Join(destRoot, slug)
	if _, err := os.Stat(dest); err == nil && !force {
		return fmt.Errorf("%s already exists; use --force to overwrite", dest)
	}

	data, err := c.Download(ctx, slug, version)
	if err != nil {
		return err
	}
	cliprint.Info("downloaded %s (%s)", slug, humanize.Bytes(uint64(len(data))))
	if err := extractZip(data, dest); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := lockfile.Put(wd, slug, lockfile.Entry{Version: version, InstalledAt: now}); err != nil {
		return err
	}
	if err := lockfile.WriteOrigin(dest, lockfile.Origin{
		Version: 1, Registry: cfg.Registry, Slug: slug, InstalledVersion: version, InstalledAt: now,
	}); err != nil {
		return err
	}

	cliprint.Success("installed %s@%s into %s", slug, version, dest)
	return nil
}

func extractZip(data []byte, dest string) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("read bundle zip: %w", err)
	}
	if err := os.MkdirAll(dest, 0o770); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	for _, f := range r.File {
		cleaned := filepath.Clean(f.Name)
		if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
			return fmt.Errorf("bundle entry %q escapes destination", f.Name)
		}
		target := filepath.Join(dest, cleaned)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o770); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o770); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o660)
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

func newUpdateCommand() *cobra.Command {
	var version string
	var force, all bool
	cmd := &cobra.Command{
		Use:   "update [slug]",
		Short: "Re-download an installed skill at a newer version",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runUpdate(cmd.Context(), args, version, force, all))
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version to update to (defaults to latest)")
	cmd.Flags().BoolVar(&force, "force", false, "accepted for symmetry with install; update always overwrites the local copy")
	cmd.Flags().BoolVar(&all, "all", false, "update every skill recorded in the lockfile")
	cmd.Flags().StringVar(&flagSkillsDir, "dir", "skills", "directory skills are installed into")
	return cmd
}

// runUpdate always overwrites the local copy; force only matters for a
// fresh install, but the flag is accepted here too so scripts can pass it
// uniformly across install and update.
func runUpdate(ctx context.Context, args []string, version string, force, all bool) error {
	_ = force
	wd, err := workdir()
	if err != nil {
		return err
	}
	lock, err := lockfile.Load(wd)
	if err != nil {
		return err
	}

	var slugs []string
	switch {
	case all:
		for slug := range lock.Skills {
			slugs = append(slugs, slug)
		}
	case len(args) == 1:
		slugs = []string{args[0]}
	default:
		return fmt.Errorf("specify a slug or pass --all")
	}

	for _, slug := range slugs {
		if _, tracked := lock.Skills[slug]; !tracked {
			cliprint.Warning("%s is not installed here; skipping", slug)
			continue
		}
		if err := runInstall(ctx, slug, version, true); err != nil {
			return fmt.Errorf("update %s: %w", slug, err)
		}
	}
	return nil
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List skills installed in this workdir (no network call)",
		Run: func(cmd *cobra.Command, args []string) {
			clierr.Handle(runList())
		},
	}
}

func runList() error {
	wd, err := workdir()
	if err != nil {
		return err
	}
	lock, err := lockfile.Load(wd)
	if err != nil {
		return err
	}
	if len(lock.Skills) == 0 {
		cliprint.Info("no skills installed in %s", wd)
		return nil
	}
	for slug, entry := range lock.Skills {
		cliprint.Info("%-30s %s", slug, entry.Version)
	}
	return nil
}

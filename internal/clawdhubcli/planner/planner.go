// Package planner implements spec.md §4.6's `sync` flow: discover local
// skill folders, hash them exactly as the server would, classify each
// against the registry, and produce a plan of new/update/synced items.
//
// Grounded on stigmer-stigmer/client-apps/cli/cmd/stigmer/root/skill.go's
// content-addressable push flow (walk a local tree, hash, compare against
// the remote before deciding to push) and on
// internal/registry/fingerprint's pure Compute function, reused verbatim so
// client and server agree on the fingerprint bit-for-bit.
package planner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/client"
	"github.com/clawdhub/clawdhub/internal/registry/fingerprint"
	"github.com/clawdhub/clawdhub/internal/registry/frontmatter"
	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

const (
	minConcurrency     = 1
	maxConcurrency     = 32
	defaultConcurrency = 4
)

// Status classifies one discovered local skill folder against the registry.
type Status string

const (
	StatusNew     Status = "new"
	StatusUpdate  Status = "update"
	StatusSynced  Status = "synced"
)

// LocalSkill is one SKILL.md-rooted folder found under a root.
type LocalSkill struct {
	Slug        string
	Dir         string
	DisplayName string
	Files       []LocalFile
	Fingerprint string
}

// LocalFile is one text file read and hashed from a local skill folder.
type LocalFile struct {
	Path   string // relative to the skill's root directory
	SHA256 string
	Data   []byte
}

// PlanItem is one classified local skill, ready for presentation/selection.
type PlanItem struct {
	Skill          LocalSkill
	Status         Status
	MatchedVersion string // populated for StatusSynced
	LatestVersion  string // populated for StatusUpdate
}

// Roots merges user-provided roots with the configured workdir, resolves
// each to its canonical absolute path, and dedups (spec.md §4.6 step 1).
func Roots(workdir string, userRoots []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) error {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			resolved = abs // root may not exist yet; keep the absolute form
		}
		if seen[resolved] {
			return nil
		}
		seen[resolved] = true
		out = append(out, resolved)
		return nil
	}
	if err := add(workdir); err != nil {
		return nil, err
	}
	for _, r := range userRoots {
		if err := add(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Scan walks each root for immediate subdirectories containing SKILL.md or
// skills.md (case-insensitively), hashing their text files and computing
// each one's bundle fingerprint. Folders that share a slug after the first
// are reported in skippedDuplicates rather than silently overwritten
// (spec.md §4.6 step 3).
func Scan(roots []string) (skills []LocalSkill, skippedDuplicates []string, err error) {
	seenSlugs := map[string]bool{}
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue // a root that doesn't exist yet just contributes nothing
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dir := filepath.Join(root, entry.Name())
			skillMD := findSkillManifest(dir)
			if skillMD == "" {
				continue
			}
			local, err := readLocalSkill(dir, skillMD)
			if err != nil {
				return nil, nil, err
			}
			if seenSlugs[local.Slug] {
				skippedDuplicates = append(skippedDuplicates, dir)
				continue
			}
			seenSlugs[local.Slug] = true
			skills = append(skills, local)
		}
	}
	return skills, skippedDuplicates, nil
}

func findSkillManifest(dir string) string {
	for _, name := range []string{"SKILL.md", "skill.md", "skills.md", "SKILLS.md"} {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func readLocalSkill(dir, skillMD string) (LocalSkill, error) {
	var files []LocalFile
	var fpEntries []fingerprint.FileEntry

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if strings.Contains(path, string(filepath.Separator)+".clawdhub"+string(filepath.Separator)) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if spec.ValidateTextFile(rel) != nil {
			return nil // binary/unrecognized files are skipped, not errors
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum := fingerprint.SHA256Hex(data)
		files = append(files, LocalFile{Path: rel, SHA256: sum, Data: data})
		fpEntries = append(fpEntries, fingerprint.FileEntry{Path: rel, SHA256: sum})
		return nil
	})
	if err != nil {
		return LocalSkill{}, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var skillMDData []byte
	for _, f := range files {
		if strings.EqualFold(f.Path, "SKILL.md") {
			skillMDData = f.Data
		}
	}
	displayName := filepath.Base(dir)
	if skillMDData != nil {
		if parsed, err := frontmatter.Parse(skillMDData); err == nil && parsed.Name != "" {
			displayName = parsed.Name
		}
	}

	return LocalSkill{
		Slug:        slugify(filepath.Base(dir)),
		Dir:         dir,
		DisplayName: displayName,
		Files:       files,
		Fingerprint: fingerprint.Compute(fpEntries),
	}, nil
}

func slugify(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "skill"
	}
	return slug
}

// Classify resolves each local skill against the registry, bounded by
// concurrency in [1, 32] (spec.md §4.6 step 5).
func Classify(ctx context.Context, c *client.Client, skills []LocalSkill, concurrency int) ([]PlanItem, error) {
	if concurrency < minConcurrency || concurrency > maxConcurrency {
		concurrency = defaultConcurrency
	}
	items := make([]PlanItem, len(skills))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, sk := range skills {
		i, sk := i, sk
		g.Go(func() error {
			item, err := classifyOne(gctx, c, sk)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func classifyOne(ctx context.Context, c *client.Client, sk LocalSkill) (PlanItem, error) {
	remote, err := c.GetSkill(ctx, sk.Slug)
	if err != nil {
		return PlanItem{Skill: sk, Status: StatusNew}, nil
	}
	resolved, err := c.Resolve(ctx, sk.Slug, sk.Fingerprint)
	if err != nil || !resolved.Match {
		latest := ""
		if remote.LatestVersion != nil {
			latest = remote.LatestVersion.Version
		}
		return PlanItem{Skill: sk, Status: StatusUpdate, LatestVersion: latest}, nil
	}
	return PlanItem{Skill: sk, Status: StatusSynced, MatchedVersion: resolved.LatestVersion}, nil
}

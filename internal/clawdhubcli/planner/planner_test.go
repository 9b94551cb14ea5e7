package planner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/client"
)

func writeSkillFolder(t *testing.T, root, name, skillMD string, extra map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		t.Fatalf("MkdirAll: unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(skillMD), 0o600); err != nil {
		t.Fatalf("WriteFile: unexpected error: %v", err)
	}
	for path, content := range extra {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o770); err != nil {
			t.Fatalf("MkdirAll: unexpected error: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile: unexpected error: %v", err)
		}
	}
	return dir
}

func TestRootsDedupsAndResolves(t *testing.T) {
	workdir := t.TempDir()
	roots, err := Roots(workdir, []string{workdir, workdir + "/"})
	if err != nil {
		t.Fatalf("Roots: unexpected error: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("Roots() = %v, want exactly one deduped entry", roots)
	}
}

func TestScanFindsSkillManifestAndSkipsDuplicateSlugs(t *testing.T) {
	root := t.TempDir()
	writeSkillFolder(t, root, "My Skill", "---\nname: My Skill\n---\nbody", nil)
	writeSkillFolder(t, root, "My_Skill", "---\nname: Duplicate\n---\nbody", nil) // slugifies the same as "My Skill"
	if err := os.MkdirAll(filepath.Join(root, "not-a-skill"), 0o770); err != nil {
		t.Fatalf("MkdirAll: unexpected error: %v", err)
	}

	skills, dupes, err := Scan([]string{root})
	if err != nil {
		t.Fatalf("Scan: unexpected error: %v", err)
	}
	if len(skills) != 1 {
		t.Fatalf("Scan found %d skills, want 1 (folder with no SKILL.md should be ignored)", len(skills))
	}
	if len(dupes) != 1 {
		t.Fatalf("Scan found %d duplicate slugs, want 1", len(dupes))
	}
}

func TestScanComputesFingerprintAndDisplayName(t *testing.T) {
	root := t.TempDir()
	writeSkillFolder(t, root, "cool-skill", "---\nname: Cool Skill\n---\nbody text", map[string]string{
		"helper.py":        "print('hi')",
		"binary.exe":       "\x00\x01\x02",
		".clawdhub/lock.json": "{}",
	})

	skills, _, err := Scan([]string{root})
	if err != nil {
		t.Fatalf("Scan: unexpected error: %v", err)
	}
	if len(skills) != 1 {
		t.Fatalf("Scan found %d skills, want 1", len(skills))
	}
	sk := skills[0]
	if sk.DisplayName != "Cool Skill" {
		t.Errorf("DisplayName = %q, want %q (from frontmatter name)", sk.DisplayName, "Cool Skill")
	}
	if sk.Fingerprint == "" {
		t.Error("Fingerprint should be non-empty")
	}
	for _, f := range sk.Files {
		if f.Path == "binary.exe" {
			t.Errorf("binary.exe should have been skipped as an unsupported file type")
		}
		if strings.HasPrefix(f.Path, ".clawdhub") {
			t.Errorf(".clawdhub directory contents should never be scanned, got %q", f.Path)
		}
	}
}

func TestSlugifyNormalizesAndTrimsSeparators(t *testing.T) {
	cases := map[string]string{
		"My Skill":   "my-skill",
		"My_Skill":   "my-skill",
		"  spaced  ": "spaced",
		"":           "skill",
		"!!!":        "skill",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifyFallsBackToNewWhenRegistryUnreachable(t *testing.T) {
	c := client.New("http://127.0.0.1:1", "")
	items, err := Classify(context.Background(), c, []LocalSkill{{Slug: "unreachable-skill", Fingerprint: "fp1"}}, 2)
	if err != nil {
		t.Fatalf("Classify: unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Classify returned %d items, want 1", len(items))
	}
	if items[0].Status != StatusNew {
		t.Errorf("Status = %q, want %q when the registry can't be reached", items[0].Status, StatusNew)
	}
}

func TestClassifyClampsOutOfRangeConcurrency(t *testing.T) {
	c := client.New("http://127.0.0.1:1", "")
	items, err := Classify(context.Background(), c, []LocalSkill{{Slug: "a"}, {Slug: "b"}}, 0)
	if err != nil {
		t.Fatalf("Classify: unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Classify returned %d items, want 2", len(items))
	}
}

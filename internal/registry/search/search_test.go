package search

import (
	"context"
	"testing"

	"github.com/clawdhub/clawdhub/internal/registry/embeddingsprovider"
	"github.com/clawdhub/clawdhub/internal/registry/spec"
	"github.com/clawdhub/clawdhub/internal/registry/store"
)

func seedVisibleSkill(t *testing.T, st *store.Store, id, slug, displayName string, vec []float32, vis spec.EmbeddingVisibility) {
	t.Helper()
	versionID := id + "-v1"
	if err := st.PutSkill(spec.Skill{ID: id, Slug: slug, DisplayName: displayName, LatestVersionID: versionID, Tags: map[string]string{}}); err != nil {
		t.Fatalf("PutSkill: unexpected error: %v", err)
	}
	if err := st.PutVersion(spec.SkillVersion{ID: versionID, SkillID: id, Version: "1.0.0"}); err != nil {
		t.Fatalf("PutVersion: unexpected error: %v", err)
	}
	if err := st.PutEmbedding(spec.SkillEmbedding{SkillID: id, VersionID: versionID, Vector: vec, IsLatest: true, Visibility: vis}); err != nil {
		t.Fatalf("PutEmbedding: unexpected error: %v", err)
	}
}

func TestSearchExactTokenMatch(t *testing.T) {
	st, err := store.New("")
	if err != nil {
		t.Fatalf("store.New: unexpected error: %v", err)
	}
	seedVisibleSkill(t, st, "sk1", "pdf-extractor", "PDF Extractor", []float32{1, 0, 0}, spec.VisibilityLatest)
	seedVisibleSkill(t, st, "sk2", "image-resizer", "Image Resizer", []float32{0, 1, 0}, spec.VisibilityLatest)

	eng := New(st, embeddingsprovider.NewDeterministic(3))
	hits, err := eng.Search(context.Background(), Query{Text: "pdf"})
	if err != nil {
		t.Fatalf("Search: unexpected error: %v", err)
	}
	found := false
	for _, h := range hits {
		if h.Skill.ID == "sk1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sk1 to be matched by the exact-token leg, got %+v", hits)
	}
}

func TestSearchRequireApprovedFiltersUnapproved(t *testing.T) {
	st, err := store.New("")
	if err != nil {
		t.Fatalf("store.New: unexpected error: %v", err)
	}
	seedVisibleSkill(t, st, "sk1", "approved-thing", "Approved Thing", []float32{1, 0, 0}, spec.VisibilityLatestApproved)
	seedVisibleSkill(t, st, "sk2", "unapproved-thing", "Unapproved Thing", []float32{1, 0, 0}, spec.VisibilityLatest)

	eng := New(st, embeddingsprovider.NewDeterministic(3))
	hits, err := eng.Search(context.Background(), Query{Text: "thing", RequireApproved: true})
	if err != nil {
		t.Fatalf("Search: unexpected error: %v", err)
	}
	for _, h := range hits {
		if h.Skill.ID == "sk2" {
			t.Fatalf("unapproved skill should be filtered out under RequireApproved, got %+v", hits)
		}
	}
}

func TestSearchExcludesSoftDeletedSkills(t *testing.T) {
	st, err := store.New("")
	if err != nil {
		t.Fatalf("store.New: unexpected error: %v", err)
	}
	seedVisibleSkill(t, st, "sk1", "gone-thing", "Gone Thing", []float32{1, 0, 0}, spec.VisibilityDeleted)
	sk, _ := st.GetSkillByID("sk1")
	now := sk.UpdatedAt
	sk.SoftDeletedAt = &now
	if err := st.PutSkill(sk); err != nil {
		t.Fatalf("PutSkill: unexpected error: %v", err)
	}

	eng := New(st, embeddingsprovider.NewDeterministic(3))
	hits, err := eng.Search(context.Background(), Query{Text: "gone"})
	if err != nil {
		t.Fatalf("Search: unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("a soft-deleted skill should never surface, got %+v", hits)
	}
}

func TestSearchDefaultsTopK(t *testing.T) {
	st, err := store.New("")
	if err != nil {
		t.Fatalf("store.New: unexpected error: %v", err)
	}
	eng := New(st, embeddingsprovider.NewDeterministic(3))
	if _, err := eng.Search(context.Background(), Query{Text: "anything"}); err != nil {
		t.Fatalf("Search with TopK unset: unexpected error: %v", err)
	}
}

func TestTruncateForDisplay(t *testing.T) {
	short := "a short query"
	if got := TruncateForDisplay(short); got != short {
		t.Errorf("TruncateForDisplay(short) = %q, want unchanged", got)
	}
	long := ""
	for i := 0; i < 60; i++ {
		long += "x"
	}
	got := TruncateForDisplay(long)
	runes := []rune(got)
	if len(runes) != 51 || runes[50] != '…' {
		t.Fatalf("TruncateForDisplay(long) = %q, want 50 runes + ellipsis", got)
	}
}

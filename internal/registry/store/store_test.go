package store

import (
	"errors"
	"testing"
	"time"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
	"github.com/clawdhub/clawdhub/internal/registry/vectorindex"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("")
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return s
}

func TestPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/registry.json"

	s1, err := New(path)
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	sk := spec.Skill{ID: "s1", Slug: "hello-world", Tags: map[string]string{}}
	if err := s1.PutSkill(sk); err != nil {
		t.Fatalf("PutSkill: unexpected error: %v", err)
	}
	emb := spec.SkillEmbedding{SkillID: "s1", VersionID: "v1", Vector: []float32{1, 2, 3}}
	if err := s1.PutEmbedding(emb); err != nil {
		t.Fatalf("PutEmbedding: unexpected error: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("New (reload): unexpected error: %v", err)
	}
	got, ok := s2.GetSkillBySlug("hello-world")
	if !ok {
		t.Fatal("reloaded store lost the skill")
	}
	if got.ID != "s1" {
		t.Errorf("reloaded skill ID = %q, want %q", got.ID, "s1")
	}
	// rebuildIndexes must have repopulated the vector index from disk.
	hits := s2.VectorTopK([]float32{1, 2, 3}, vectorindex.SearchOptions{TopK: 5})
	if len(hits) != 1 || hits[0].ID != "v1" {
		t.Fatalf("reloaded store's vector index is empty: %v", hits)
	}
}

func TestGetSkillBySlugUnknown(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.GetSkillBySlug("nope"); ok {
		t.Fatal("expected ok=false for an unknown slug")
	}
}

func TestUserAndHandleIndex(t *testing.T) {
	s := newTestStore(t)
	u := spec.User{ID: "u1", Handle: "alice", Role: spec.RoleUser}
	if err := s.PutUser(u); err != nil {
		t.Fatalf("PutUser: unexpected error: %v", err)
	}
	got, ok := s.GetUserByHandle("alice")
	if !ok || got.ID != "u1" {
		t.Fatalf("GetUserByHandle: got %+v, ok=%v", got, ok)
	}
}

func TestTokenRevoke(t *testing.T) {
	s := newTestStore(t)
	tok := spec.ApiToken{Hash: "h1", UserID: "u1"}
	if err := s.PutToken(tok); err != nil {
		t.Fatalf("PutToken: unexpected error: %v", err)
	}
	now := time.Now()
	if err := s.RevokeToken("h1", now); err != nil {
		t.Fatalf("RevokeToken: unexpected error: %v", err)
	}
	got, ok := s.GetTokenByHash("h1")
	if !ok {
		t.Fatal("GetTokenByHash: token should still exist after revocation")
	}
	if got.RevokedAt == nil {
		t.Fatal("RevokeToken did not set RevokedAt")
	}
	if err := s.RevokeToken("missing", now); !errors.Is(err, spec.ErrNotFound) {
		t.Fatalf("RevokeToken(missing): expected ErrNotFound, got %v", err)
	}
}

func TestAppendAudit(t *testing.T) {
	s := newTestStore(t)
	if err := s.AppendAudit(spec.AuditLog{ID: "a1", Action: "setBadge", TargetID: "sk1"}); err != nil {
		t.Fatalf("AppendAudit: unexpected error: %v", err)
	}
	if len(s.doc.AuditLogs) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(s.doc.AuditLogs))
	}
}

func TestHardDeleteSkillCascadesAndPatchesBackReferences(t *testing.T) {
	s := newTestStore(t)
	upstream := spec.Skill{ID: "up", Slug: "upstream", Tags: map[string]string{}}
	if err := s.PutSkill(upstream); err != nil {
		t.Fatalf("PutSkill: unexpected error: %v", err)
	}
	dependent := spec.Skill{
		ID: "dep", Slug: "dependent", Tags: map[string]string{},
		CanonicalSkillID: "up",
		ForkOf:           &spec.ForkOf{SkillID: "up", Kind: spec.ForkKindDuplicate},
	}
	if err := s.PutSkill(dependent); err != nil {
		t.Fatalf("PutSkill: unexpected error: %v", err)
	}
	if err := s.PutVersion(spec.SkillVersion{ID: "v1", SkillID: "up", Version: "1.0.0"}); err != nil {
		t.Fatalf("PutVersion: unexpected error: %v", err)
	}
	if err := s.PutEmbedding(spec.SkillEmbedding{SkillID: "up", VersionID: "v1", Vector: []float32{1}}); err != nil {
		t.Fatalf("PutEmbedding: unexpected error: %v", err)
	}

	if err := s.HardDeleteSkill("up"); err != nil {
		t.Fatalf("HardDeleteSkill: unexpected error: %v", err)
	}
	if _, ok := s.GetSkillByID("up"); ok {
		t.Fatal("upstream skill should be gone")
	}
	if _, ok := s.GetVersion("v1"); ok {
		t.Fatal("upstream's version should cascade-delete")
	}
	if _, ok := s.GetEmbeddingByVersion("v1"); ok {
		t.Fatal("upstream's embedding should cascade-delete")
	}
	after, ok := s.GetSkillByID("dep")
	if !ok {
		t.Fatal("dependent skill should survive the cascade")
	}
	if after.CanonicalSkillID != "" {
		t.Errorf("CanonicalSkillID should be cleared, still %q", after.CanonicalSkillID)
	}
	if after.ForkOf != nil {
		t.Errorf("ForkOf should be cleared, still %+v", after.ForkOf)
	}
}

func TestStarCounting(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutSkill(spec.Skill{ID: "sk1", Slug: "x", Tags: map[string]string{}}); err != nil {
		t.Fatalf("PutSkill: unexpected error: %v", err)
	}
	if err := s.PutStar("sk1", "u1", time.Now()); err != nil {
		t.Fatalf("PutStar: unexpected error: %v", err)
	}
	if err := s.PutStar("sk1", "u1", time.Now()); err != nil { // idempotent re-star
		t.Fatalf("PutStar (duplicate): unexpected error: %v", err)
	}
	if got := s.CountStars("sk1"); got != 1 {
		t.Fatalf("CountStars = %d, want 1", got)
	}
	sk, _ := s.GetSkillByID("sk1")
	if sk.Stats.Stars != 1 {
		t.Fatalf("Stats.Stars = %d, want 1", sk.Stats.Stars)
	}
	if !s.HasStar("sk1", "u1") {
		t.Fatal("HasStar should report true after PutStar")
	}
	if err := s.DeleteStar("sk1", "u1"); err != nil {
		t.Fatalf("DeleteStar: unexpected error: %v", err)
	}
	if s.HasStar("sk1", "u1") {
		t.Fatal("HasStar should report false after DeleteStar")
	}
}

func TestBadgeSetClearList(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetBadge(spec.SkillBadge{SkillID: "sk1", Kind: spec.BadgeHighlighted, ByUserID: "mod1"}); err != nil {
		t.Fatalf("SetBadge: unexpected error: %v", err)
	}
	badges := s.GetBadges("sk1")
	if len(badges) != 1 || badges[0].Kind != spec.BadgeHighlighted {
		t.Fatalf("GetBadges = %+v, want one highlighted badge", badges)
	}
	if err := s.ClearBadge("sk1", spec.BadgeHighlighted); err != nil {
		t.Fatalf("ClearBadge: unexpected error: %v", err)
	}
	if badges := s.GetBadges("sk1"); len(badges) != 0 {
		t.Fatalf("GetBadges after clear = %+v, want empty", badges)
	}
}

func TestListSkillsPagination(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		if err := s.PutSkill(spec.Skill{ID: id, Slug: id, Tags: map[string]string{}}); err != nil {
			t.Fatalf("PutSkill(%s): unexpected error: %v", id, err)
		}
	}
	page, err := s.ListSkills(ListSkillsOptions{Sort: SortUpdated, PageSize: 2})
	if err != nil {
		t.Fatalf("ListSkills: unexpected error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("first page len = %d, want 2", len(page.Items))
	}
	if page.NextCursor == "" {
		t.Fatal("expected a non-empty NextCursor for a partial page")
	}
	page2, err := s.ListSkills(ListSkillsOptions{Sort: SortUpdated, PageSize: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("ListSkills (page 2): unexpected error: %v", err)
	}
	if len(page2.Items) != 2 {
		t.Fatalf("second page len = %d, want 2", len(page2.Items))
	}
	for _, a := range page.Items {
		for _, b := range page2.Items {
			if a.ID == b.ID {
				t.Fatalf("page 1 and page 2 overlap on id %q", a.ID)
			}
		}
	}
}

func TestFindAnyFingerprintSkipsExcludedAndDeleted(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	deletedAt := now
	if err := s.PutSkill(spec.Skill{ID: "sk-deleted", Slug: "deleted", Tags: map[string]string{}, SoftDeletedAt: &deletedAt}); err != nil {
		t.Fatalf("PutSkill: unexpected error: %v", err)
	}
	if err := s.PutFingerprint(spec.VersionFingerprint{SkillID: "sk-deleted", VersionID: "v1", Fingerprint: "fp1"}); err != nil {
		t.Fatalf("PutFingerprint: unexpected error: %v", err)
	}
	if _, found := s.FindAnyFingerprint("fp1", ""); found {
		t.Fatal("a soft-deleted skill's fingerprint must not match")
	}

	if err := s.PutSkill(spec.Skill{ID: "sk-live", Slug: "live", Tags: map[string]string{}}); err != nil {
		t.Fatalf("PutSkill: unexpected error: %v", err)
	}
	if err := s.PutFingerprint(spec.VersionFingerprint{SkillID: "sk-live", VersionID: "v2", Fingerprint: "fp2"}); err != nil {
		t.Fatalf("PutFingerprint: unexpected error: %v", err)
	}
	if _, found := s.FindAnyFingerprint("fp2", "sk-live"); found {
		t.Fatal("excludeSkillID should suppress a match against itself")
	}
	match, found := s.FindAnyFingerprint("fp2", "")
	if !found || match.SkillID != "sk-live" {
		t.Fatalf("expected a match against sk-live, got %+v found=%v", match, found)
	}
}

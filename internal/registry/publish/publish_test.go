package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clawdhub/clawdhub/internal/registry/changelogprovider"
	"github.com/clawdhub/clawdhub/internal/registry/embeddingsprovider"
	"github.com/clawdhub/clawdhub/internal/registry/objectstore"
	"github.com/clawdhub/clawdhub/internal/registry/semverutil"
	"github.com/clawdhub/clawdhub/internal/registry/spec"
	"github.com/clawdhub/clawdhub/internal/registry/store"
)

func newTestPipeline(t *testing.T, embed embeddingsprovider.Provider) *Pipeline {
	t.Helper()
	st, err := store.New("")
	if err != nil {
		t.Fatalf("store.New: unexpected error: %v", err)
	}
	objects, err := objectstore.NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("objectstore.NewLocalFileStore: unexpected error: %v", err)
	}
	if embed == nil {
		embed = embeddingsprovider.NewDeterministic(16)
	}
	p := New(st, objects, embed, changelogprovider.Naive{})
	p.Now = func() time.Time { return time.Unix(1700000000, 0) }
	return p
}

func basicBundle(body string) []InputFile {
	return []InputFile{
		{Path: "SKILL.md", Data: []byte("---\nname: Test Skill\ndescription: a test\n---\n" + body)},
	}
}

func TestPublishCreatesNewSkill(t *testing.T) {
	p := newTestPipeline(t, nil)
	res, err := p.Publish(context.Background(), Request{
		Slug: "test-skill", DisplayName: "Test Skill", OwnerUserID: "u1",
		Files: basicBundle("hello"),
	})
	if err != nil {
		t.Fatalf("Publish: unexpected error: %v", err)
	}
	if res.AlreadyExists {
		t.Fatal("a brand-new skill should not report AlreadyExists")
	}
	if res.Version.Version != semverutil.NewSkillVersion {
		t.Errorf("Version = %q, want %q", res.Version.Version, semverutil.NewSkillVersion)
	}
	sk, ok := p.Store.GetSkillBySlug("test-skill")
	if !ok {
		t.Fatal("skill should be persisted")
	}
	if sk.Tags["latest"] != res.Version.ID {
		t.Errorf("Tags[latest] = %q, want %q", sk.Tags["latest"], res.Version.ID)
	}
	if _, ok := p.Store.GetEmbeddingByVersion(res.Version.ID); !ok {
		t.Fatal("an embedding should be recorded for the new version")
	}
}

func TestPublishRepublishUnchangedIsNoOp(t *testing.T) {
	p := newTestPipeline(t, nil)
	bundle := basicBundle("identical content")
	req := Request{Slug: "test-skill", DisplayName: "Test Skill", OwnerUserID: "u1", Files: bundle}

	first, err := p.Publish(context.Background(), req)
	if err != nil {
		t.Fatalf("first Publish: unexpected error: %v", err)
	}
	second, err := p.Publish(context.Background(), req)
	if err != nil {
		t.Fatalf("second Publish: unexpected error: %v", err)
	}
	if !second.AlreadyExists {
		t.Fatal("republishing identical content should report AlreadyExists")
	}
	if second.Version.ID != first.Version.ID {
		t.Errorf("republish should resolve to the same version, got %q vs %q", second.Version.ID, first.Version.ID)
	}
}

func TestPublishBumpsVersionOnChange(t *testing.T) {
	p := newTestPipeline(t, nil)
	first, err := p.Publish(context.Background(), Request{
		Slug: "test-skill", DisplayName: "Test Skill", OwnerUserID: "u1", Files: basicBundle("v1 content"),
	})
	if err != nil {
		t.Fatalf("first Publish: unexpected error: %v", err)
	}
	second, err := p.Publish(context.Background(), Request{
		Slug: "test-skill", DisplayName: "Test Skill", OwnerUserID: "u1", Files: basicBundle("v2 content, changed"),
	})
	if err != nil {
		t.Fatalf("second Publish: unexpected error: %v", err)
	}
	if second.Version.ID == first.Version.ID {
		t.Fatal("changed content must produce a new version")
	}
	less, err := semverutil.Less(first.Version.Version, second.Version.Version)
	if err != nil {
		t.Fatalf("semverutil.Less: unexpected error: %v", err)
	}
	if !less {
		t.Errorf("second version %q should be greater than first %q", second.Version.Version, first.Version.Version)
	}
	oldEmb, _ := p.Store.GetEmbeddingByVersion(first.Version.ID)
	if oldEmb.IsLatest {
		t.Error("the superseded version's embedding should be demoted")
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding service unavailable")
}
func (failingEmbedder) Dimension() int { return 16 }

func TestPublishEmbedFailureIsFatalAndCommitsNothing(t *testing.T) {
	p := newTestPipeline(t, failingEmbedder{})
	_, err := p.Publish(context.Background(), Request{
		Slug: "test-skill", DisplayName: "Test Skill", OwnerUserID: "u1", Files: basicBundle("hello"),
	})
	if !errors.Is(err, spec.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if _, ok := p.Store.GetSkillBySlug("test-skill"); ok {
		t.Fatal("an embed failure must not leave a durable skill behind")
	}
}

func TestPublishRejectsMissingSkillMD(t *testing.T) {
	p := newTestPipeline(t, nil)
	_, err := p.Publish(context.Background(), Request{
		Slug: "test-skill", OwnerUserID: "u1",
		Files: []InputFile{{Path: "README.md", Data: []byte("no SKILL.md here")}},
	})
	if !errors.Is(err, spec.ErrMissingSkillMd) {
		t.Fatalf("expected ErrMissingSkillMd, got %v", err)
	}
}

func TestPublishRejectsForeignOwnerOnExistingSlug(t *testing.T) {
	p := newTestPipeline(t, nil)
	if _, err := p.Publish(context.Background(), Request{
		Slug: "test-skill", DisplayName: "Test Skill", OwnerUserID: "u1", Files: basicBundle("v1"),
	}); err != nil {
		t.Fatalf("first Publish: unexpected error: %v", err)
	}
	_, err := p.Publish(context.Background(), Request{
		Slug: "test-skill", DisplayName: "Test Skill", OwnerUserID: "u2", Files: basicBundle("v2, different"),
	})
	if !errors.Is(err, spec.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a different owner on an existing slug, got %v", err)
	}
}

func TestPublishExtraTagsArePinned(t *testing.T) {
	p := newTestPipeline(t, nil)
	res, err := p.Publish(context.Background(), Request{
		Slug: "test-skill", DisplayName: "Test Skill", OwnerUserID: "u1",
		Files: basicBundle("hello"), ExtraTags: []string{"stable", "latest"},
	})
	if err != nil {
		t.Fatalf("Publish: unexpected error: %v", err)
	}
	sk, _ := p.Store.GetSkillBySlug("test-skill")
	if sk.Tags["stable"] != res.Version.ID {
		t.Errorf("Tags[stable] = %q, want %q", sk.Tags["stable"], res.Version.ID)
	}
}

func TestPublishResolvesForkLineage(t *testing.T) {
	p := newTestPipeline(t, nil)
	if _, err := p.Publish(context.Background(), Request{
		Slug: "upstream", DisplayName: "Upstream", OwnerUserID: "u1", Files: basicBundle("original"),
	}); err != nil {
		t.Fatalf("upstream Publish: unexpected error: %v", err)
	}
	res, err := p.Publish(context.Background(), Request{
		Slug: "forked", DisplayName: "Forked", OwnerUserID: "u2", Files: basicBundle("forked content"),
		ForkOfSlug: "upstream", ForkOfVersion: "1.0.0",
	})
	if err != nil {
		t.Fatalf("fork Publish: unexpected error: %v", err)
	}
	if res.Skill.ForkOf == nil || res.Skill.ForkOf.Kind != spec.ForkKindFork {
		t.Fatalf("ForkOf = %+v, want a fork-kind lineage record", res.Skill.ForkOf)
	}
	upstream, _ := p.Store.GetSkillBySlug("upstream")
	if res.Skill.CanonicalSkillID != upstream.ID {
		t.Errorf("CanonicalSkillID = %q, want upstream's id %q", res.Skill.CanonicalSkillID, upstream.ID)
	}
}

func TestPublishStoredRejectsUnuploadedObject(t *testing.T) {
	p := newTestPipeline(t, nil)
	_, err := p.PublishStored(context.Background(), StoredRequest{
		Slug: "test-skill", OwnerUserID: "u1",
		Files: []StoredFile{{Path: "SKILL.md", StorageID: "never-uploaded", SHA256: "deadbeef"}},
	})
	if !errors.Is(err, spec.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

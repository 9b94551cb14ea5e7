// Package publish implements the Publish Pipeline of spec.md §4.1: the one
// write path that creates a new SkillVersion (and, for a brand-new slug, the
// owning Skill).
//
// Grounded on the teacher's withUserWriteSaga in
// internal/skill/store/foreground.go: validate while holding no external
// resources, do the (possibly failing) external work next, commit the
// in-memory/persisted state last, and run anything fire-and-forget only
// after the commit has already succeeded — so a failure never leaves a
// half-published version visible to readers.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clawdhub/clawdhub/internal/registry/changelogprovider"
	"github.com/clawdhub/clawdhub/internal/registry/embeddingsprovider"
	"github.com/clawdhub/clawdhub/internal/registry/fingerprint"
	"github.com/clawdhub/clawdhub/internal/registry/frontmatter"
	"github.com/clawdhub/clawdhub/internal/registry/objectstore"
	"github.com/clawdhub/clawdhub/internal/registry/semverutil"
	"github.com/clawdhub/clawdhub/internal/registry/spec"
	"github.com/clawdhub/clawdhub/internal/registry/store"
)

// InputFile is one file of the bundle being published, as read from the
// multipart request or the CLI's local tree.
type InputFile struct {
	Path string
	Data []byte
}

// Request is everything the pipeline needs to publish one version from
// inline file bytes (the multipart/form-data variant of POST
// /api/v1/skills).
type Request struct {
	Slug             string
	DisplayName      string // only used when creating a brand-new skill
	Summary          string
	OwnerUserID      string
	RequestedVersion string // empty: auto-bump from latest, or 1.0.0 for new skills
	Bump             semverutil.Bump
	UserChangelog    string // non-empty: spec.ChangelogSourceUser, skip the auto-summarizer
	ForkOfSlug       string // optional: explicit lineage (spec.md §4.1 step 8)
	ForkOfVersion    string
	ExtraTags        []string // additional tag names pinned to this new version, beyond "latest" (spec.md §4.1 step 10)
	Files            []InputFile
}

// StoredFile is one file of a publish request whose bytes were already
// uploaded to the object store out of band (spec.md §6.1's "prior upload-url
// flow" variant of POST /api/v1/skills).
type StoredFile struct {
	Path        string
	StorageID   string
	SHA256      string
	Size        int64
	ContentType string
}

// StoredRequest is the JSON-body publish variant: files already live in the
// object store, so this path skips Objects.Put entirely and only re-reads
// the SKILL.md blob (needed for frontmatter + the embedding text).
type StoredRequest struct {
	Slug             string
	DisplayName      string
	Summary          string
	OwnerUserID      string
	RequestedVersion string
	Bump             semverutil.Bump
	UserChangelog    string
	ForkOfSlug       string
	ForkOfVersion    string
	ExtraTags        []string
	Files            []StoredFile
}

// Result is what the pipeline hands back to the HTTP/CLI callers.
type Result struct {
	Skill         spec.Skill
	Version       spec.SkillVersion
	AlreadyExists bool // true when Files fingerprinted identically to an existing version
}

// AsyncHook is invoked after a successful commit, outside any lock, for
// fire-and-forget side effects (spec.md §4.1 step 5: backup snapshot,
// webhook notification). A failing hook never rolls back the publish.
type AsyncHook func(ctx context.Context, skill spec.Skill, version spec.SkillVersion)

// Pipeline wires together the collaborators the publish flow needs.
type Pipeline struct {
	Store      *store.Store
	Objects    objectstore.Store
	Embeddings embeddingsprovider.Provider
	Changelog  changelogprovider.Provider
	Async      []AsyncHook
	Now        func() time.Time
}

func New(st *store.Store, objects objectstore.Store, embed embeddingsprovider.Provider, changelog changelogprovider.Provider) *Pipeline {
	return &Pipeline{Store: st, Objects: objects, Embeddings: embed, Changelog: changelog, Now: time.Now}
}

// preparedFile is the common shape both Publish and PublishStored reduce
// their input to before handing off to commit.
type preparedFile struct {
	entry fingerprint.FileEntry
	file  spec.SkillFile
}

// Publish runs the full pipeline over inline file bytes: validate, compute
// fingerprint, short circuit on an unchanged republish, write blobs, compute
// embedding + changelog, commit skill+version atomically, then fire async
// hooks.
func (p *Pipeline) Publish(ctx context.Context, req Request) (Result, error) {
	if err := p.validate(req); err != nil {
		return Result{}, err
	}

	prepared := make([]preparedFile, 0, len(req.Files))
	var skillMDData []byte
	for _, f := range req.Files {
		sum := fingerprint.SHA256Hex(f.Data)
		prepared = append(prepared, preparedFile{
			entry: fingerprint.FileEntry{Path: f.Path, SHA256: sum},
			file:  spec.SkillFile{Path: f.Path, Size: int64(len(f.Data)), SHA256: sum},
		})
		if f.Path == "SKILL.md" {
			skillMDData = f.Data
		}
	}
	if skillMDData == nil {
		return Result{}, fmt.Errorf("%w: bundle has no SKILL.md", spec.ErrMissingSkillMd)
	}
	skillMD, err := frontmatter.Parse(skillMDData)
	if err != nil {
		return Result{}, err
	}

	// Write blobs before committing metadata: a crash here just leaves
	// unreferenced objects, never a version pointing at missing bytes.
	for i, f := range req.Files {
		storageID, err := p.Objects.Put(f.Data)
		if err != nil {
			return Result{}, fmt.Errorf("%w: failed to store %s: %v", spec.ErrInternal, f.Path, err)
		}
		prepared[i].file.StorageID = storageID
	}

	return p.commit(ctx, commitRequest{
		slug: req.Slug, displayName: req.DisplayName, summary: req.Summary, ownerUserID: req.OwnerUserID,
		requestedVersion: req.RequestedVersion, bump: req.Bump, userChangelog: req.UserChangelog,
		forkOfSlug: req.ForkOfSlug, forkOfVersion: req.ForkOfVersion, extraTags: req.ExtraTags,
		prepared: prepared, skillMD: skillMD, fileCount: len(req.Files),
	})
}

// PublishStored runs the same pipeline as Publish but for files whose bytes
// are already in the object store, trusting the caller-supplied sha256s:
// only the existence of each StorageID is checked, and a sha256 that does
// not match the stored bytes is not detected.
func (p *Pipeline) PublishStored(ctx context.Context, req StoredRequest) (Result, error) {
	if err := spec.ValidateSlug(req.Slug); err != nil {
		return Result{}, err
	}
	if len(req.Files) == 0 {
		return Result{}, fmt.Errorf("%w: bundle has no files", spec.ErrValidation)
	}
	if err := validatePaths(storedPaths(req.Files)); err != nil {
		return Result{}, err
	}
	if req.RequestedVersion != "" {
		if err := semverutil.Validate(req.RequestedVersion); err != nil {
			return Result{}, err
		}
	}

	prepared := make([]preparedFile, 0, len(req.Files))
	var skillMDData []byte
	for _, f := range req.Files {
		if ok, err := p.Objects.Exists(f.StorageID); err != nil || !ok {
			return Result{}, fmt.Errorf("%w: file %q references an object that was never uploaded", spec.ErrValidation, f.Path)
		}
		prepared = append(prepared, preparedFile{
			entry: fingerprint.FileEntry{Path: f.Path, SHA256: f.SHA256},
			file:  spec.SkillFile{Path: f.Path, Size: f.Size, SHA256: f.SHA256, StorageID: f.StorageID, ContentType: f.ContentType},
		})
		if f.Path == "SKILL.md" {
			data, err := p.Objects.Get(f.StorageID)
			if err != nil {
				return Result{}, fmt.Errorf("%w: failed to read SKILL.md: %v", spec.ErrInternal, err)
			}
			skillMDData = data
		}
	}
	if skillMDData == nil {
		return Result{}, fmt.Errorf("%w: bundle has no SKILL.md", spec.ErrMissingSkillMd)
	}
	skillMD, err := frontmatter.Parse(skillMDData)
	if err != nil {
		return Result{}, err
	}

	return p.commit(ctx, commitRequest{
		slug: req.Slug, displayName: req.DisplayName, summary: req.Summary, ownerUserID: req.OwnerUserID,
		requestedVersion: req.RequestedVersion, bump: req.Bump, userChangelog: req.UserChangelog,
		forkOfSlug: req.ForkOfSlug, forkOfVersion: req.ForkOfVersion, extraTags: req.ExtraTags,
		prepared: prepared, skillMD: skillMD, fileCount: len(req.Files),
	})
}

// commitRequest is the shape Publish and PublishStored converge on once
// their files are reduced to prepared (path, sha256, storageID) triples.
type commitRequest struct {
	slug             string
	displayName      string
	summary          string
	ownerUserID      string
	requestedVersion string
	bump             semverutil.Bump
	userChangelog    string
	forkOfSlug       string
	forkOfVersion    string
	extraTags        []string
	prepared         []preparedFile
	skillMD          frontmatter.Parsed
	fileCount        int
}

// commit is the shared tail of both publish variants: duplicate detection,
// version assignment, embedding + changelog computation, and the atomic
// metadata write (spec.md §4.1 steps 3-5, §5's ordering guarantee that
// SkillVersion becomes visible before tags["latest"] is repointed).
func (p *Pipeline) commit(ctx context.Context, req commitRequest) (Result, error) {
	skill, existing := p.Store.GetSkillBySlug(req.slug)
	isNewSkill := !existing
	if existing && skill.OwnerUserID != req.ownerUserID {
		return Result{}, fmt.Errorf("%w: slug owned by another user", spec.ErrForbidden)
	}

	entries := make([]fingerprint.FileEntry, len(req.prepared))
	files := make([]spec.SkillFile, len(req.prepared))
	for i, pf := range req.prepared {
		entries[i] = pf.entry
		files[i] = pf.file
	}
	fp := fingerprint.Compute(entries)

	if existing {
		if match, found := p.Store.FindSkillFingerprint(skill.ID, fp); found {
			if v, ok := p.Store.GetVersion(match.VersionID); ok {
				return Result{Skill: skill, Version: v, AlreadyExists: true}, nil
			}
		}
	}

	version, err := p.nextVersion(skill, existing, req.requestedVersion, req.bump)
	if err != nil {
		return Result{}, err
	}

	headerText, err := frontmatter.HeaderText(req.skillMD.Data)
	if err != nil {
		return Result{}, err
	}
	vector, embedErr := p.Embeddings.Embed(ctx, headerText+"\n"+req.skillMD.Body)
	if embedErr != nil {
		return Result{}, fmt.Errorf("%w: %v", spec.ErrEmbeddingUnavailable, embedErr)
	}

	changelog := req.userChangelog
	changelogSource := spec.ChangelogSourceUser
	if changelog == "" {
		changelogSource = spec.ChangelogSourceAuto
		prevVersion := ""
		if existing && skill.LatestVersionID != "" {
			if lv, ok := p.Store.GetVersion(skill.LatestVersionID); ok {
				prevVersion = lv.Version
			}
		}
		if summary, err := p.Changelog.Summarize(ctx, req.displayName, prevVersion, version, req.fileCount); err == nil {
			changelog = summary
		}
	}

	now := p.Now()
	versionID := uuid.NewString()
	sv := spec.SkillVersion{
		ID:              versionID,
		SkillID:         skill.ID,
		Version:         version,
		Changelog:       changelog,
		ChangelogSource: changelogSource,
		Files:           files,
		Fingerprint:     fp,
		Frontmatter:     req.skillMD.Data,
		CreatedBy:       req.ownerUserID,
		CreatedAt:       now,
	}

	if isNewSkill {
		skill = spec.Skill{
			ID:               uuid.NewString(),
			Slug:             req.slug,
			DisplayName:      req.displayName,
			Summary:          req.summary,
			OwnerUserID:      req.ownerUserID,
			Tags:             map[string]string{},
			ModerationStatus: spec.ModerationActive,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if forkOf, err := p.resolveLineage(req, fp); err != nil {
			return Result{}, err
		} else if forkOf != nil {
			skill.ForkOf = forkOf
			skill.CanonicalSkillID = p.canonicalOf(forkOf.SkillID)
		}
	}
	sv.SkillID = skill.ID
	skill.LatestVersionID = versionID
	skill.Tags["latest"] = versionID
	for _, tag := range req.extraTags {
		if tag != "" && tag != "latest" {
			skill.Tags[tag] = versionID
		}
	}
	skill.Stats.Versions++
	skill.UpdatedAt = now

	if err := p.Store.PutVersion(sv); err != nil {
		return Result{}, fmt.Errorf("%w: %v", spec.ErrInternal, err)
	}
	if err := p.Store.PutSkill(skill); err != nil {
		return Result{}, fmt.Errorf("%w: %v", spec.ErrInternal, err)
	}
	if err := p.Store.PutFingerprint(spec.VersionFingerprint{
		SkillID: skill.ID, VersionID: versionID, Fingerprint: fp, CreatedAt: now,
	}); err != nil {
		return Result{}, fmt.Errorf("%w: %v", spec.ErrInternal, err)
	}

	emb := spec.SkillEmbedding{
		SkillID:    skill.ID,
		VersionID:  versionID,
		OwnerID:    skill.OwnerUserID,
		Vector:     vector,
		IsLatest:   true,
		IsApproved: false,
		UpdatedAt:  now,
	}
	emb.Visibility = spec.VisibilityFor(emb.IsLatest, emb.IsApproved, skill.SoftDeletedAt != nil)
	if err := p.Store.PutEmbedding(emb); err != nil {
		return Result{}, fmt.Errorf("%w: %v", spec.ErrInternal, err)
	}
	p.demoteOlderEmbeddings(skill.ID, versionID, now)

	for _, hook := range p.Async {
		go hook(context.WithoutCancel(ctx), skill, sv)
	}

	return Result{Skill: skill, Version: sv}, nil
}

// resolveLineage implements spec.md §4.1 steps 8-9 for a brand-new skill: an
// explicit --fork-of wins; otherwise probe for an existing non-soft-deleted
// skill whose bundle fingerprint already matches, recording it as a
// duplicate. Returns nil, nil when neither applies.
func (p *Pipeline) resolveLineage(req commitRequest, fp string) (*spec.ForkOf, error) {
	if req.forkOfSlug != "" {
		upstream, ok := p.Store.GetSkillBySlug(req.forkOfSlug)
		if !ok {
			return nil, fmt.Errorf("%w: forkOf skill %q not found", spec.ErrValidation, req.forkOfSlug)
		}
		return &spec.ForkOf{SkillID: upstream.ID, Kind: spec.ForkKindFork, Version: req.forkOfVersion}, nil
	}
	if match, found := p.Store.FindAnyFingerprint(fp, ""); found {
		return &spec.ForkOf{SkillID: match.SkillID, Kind: spec.ForkKindDuplicate}, nil
	}
	return nil, nil
}

// canonicalOf walks one step of upstream's own canonical pointer so fork
// chains collapse transitively to a single canonical skill (spec.md §4.1
// step 8: "set canonicalSkillId to the upstream's canonical (self-transitively)").
func (p *Pipeline) canonicalOf(upstreamSkillID string) string {
	upstream, ok := p.Store.GetSkillByID(upstreamSkillID)
	if !ok {
		return upstreamSkillID
	}
	if upstream.CanonicalSkillID != "" {
		return upstream.CanonicalSkillID
	}
	return upstreamSkillID
}

// demoteOlderEmbeddings flips every other version's embedding for this skill
// out of VisibilityLatest/VisibilityLatestApproved now that versionID is the
// new latest (spec.md §4.1's visibility mapping table).
func (p *Pipeline) demoteOlderEmbeddings(skillID, newLatestVersionID string, now time.Time) {
	for _, e := range p.Store.ListEmbeddingsBySkill(skillID) {
		if e.VersionID == newLatestVersionID || !e.IsLatest {
			continue
		}
		e.IsLatest = false
		e.Visibility = spec.VisibilityFor(false, e.IsApproved, false)
		e.UpdatedAt = now
		_ = p.Store.PutEmbedding(e)
	}
}

func (p *Pipeline) validate(req Request) error {
	if err := spec.ValidateSlug(req.Slug); err != nil {
		return err
	}
	if len(req.Files) == 0 {
		return fmt.Errorf("%w: bundle has no files", spec.ErrValidation)
	}
	paths := make([]string, len(req.Files))
	for i, f := range req.Files {
		paths[i] = f.Path
	}
	if err := validatePaths(paths); err != nil {
		return err
	}
	if req.RequestedVersion != "" {
		return semverutil.Validate(req.RequestedVersion)
	}
	return nil
}

func validatePaths(paths []string) error {
	seen := map[string]bool{}
	for _, path := range paths {
		if path == "" {
			return fmt.Errorf("%w: empty file path", spec.ErrInvalidPath)
		}
		if seen[path] {
			return fmt.Errorf("%w: duplicate path %q", spec.ErrValidation, path)
		}
		seen[path] = true
		if err := spec.ValidateTextFile(path); err != nil {
			return err
		}
	}
	return nil
}

func storedPaths(files []StoredFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func (p *Pipeline) nextVersion(skill spec.Skill, existing bool, requestedVersion string, bump semverutil.Bump) (string, error) {
	if requestedVersion != "" {
		if existing {
			if lv, ok := p.Store.GetVersion(skill.LatestVersionID); ok {
				less, err := semverutil.Less(lv.Version, requestedVersion)
				if err != nil {
					return "", err
				}
				if !less {
					return "", fmt.Errorf("%w: version %q is not newer than current %q", spec.ErrVersionExists, requestedVersion, lv.Version)
				}
			}
		}
		return requestedVersion, nil
	}
	if !existing {
		return semverutil.NewSkillVersion, nil
	}
	lv, ok := p.Store.GetVersion(skill.LatestVersionID)
	if !ok {
		return semverutil.NewSkillVersion, nil
	}
	return semverutil.Next(lv.Version, bump)
}

package spec

import "time"

// SchemaVersion is stamped on every persisted entity, matching the teacher's
// convention of tagging every document with a schema version.
const SchemaVersion = "2026-01-01"

// Role enumerates principal roles. OAuth/session handling itself is out of
// scope (spec.md §1) — the core only ever sees a Role + a stable user id.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

type User struct {
	SchemaVersion string     `json:"schemaVersion"`
	ID            string     `json:"id"`
	Handle        string     `json:"handle,omitempty"`
	DisplayName   string     `json:"displayName,omitempty"`
	Image         string     `json:"image,omitempty"`
	Role          Role       `json:"role"`
	CreatedAt     time.Time  `json:"createdAt"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
}

// ApiToken's raw opaque string is never persisted; only Hash is. The opaque
// string itself is generated/returned once by the (out of scope) auth flow.
type ApiToken struct {
	SchemaVersion string     `json:"schemaVersion"`
	Hash          string     `json:"hash"`
	UserID        string     `json:"userId"`
	Label         string     `json:"label,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
}

type ForkKind string

const (
	ForkKindFork      ForkKind = "fork"
	ForkKindDuplicate ForkKind = "duplicate"
)

type ForkOf struct {
	SkillID string   `json:"skillId"`
	Kind    ForkKind `json:"kind"`
	Version string   `json:"version,omitempty"`
}

type ModerationStatus string

const (
	ModerationActive ModerationStatus = "active"
	ModerationHidden ModerationStatus = "hidden"
)

type SkillStats struct {
	Downloads        int64 `json:"downloads"`
	Stars            int64 `json:"stars"`
	Versions         int64 `json:"versions"`
	Comments         int64 `json:"comments"`
	InstallsCurrent  int64 `json:"installsCurrent"`
	InstallsAllTime  int64 `json:"installsAllTime"`
}

// Skill is the stable, slug-addressed registry entry. Tags is always kept
// with a "latest" entry once the skill has ≥1 version (invariant, spec.md §3).
type Skill struct {
	SchemaVersion     string            `json:"schemaVersion"`
	ID                string            `json:"id"`
	Slug              string            `json:"slug"`
	DisplayName       string            `json:"displayName"`
	Summary           string            `json:"summary,omitempty"`
	OwnerUserID       string            `json:"ownerUserId"`
	LatestVersionID   string            `json:"latestVersionId,omitempty"`
	Tags              map[string]string `json:"tags"` // tag name -> versionId
	CanonicalSkillID  string            `json:"canonicalSkillId,omitempty"`
	ForkOf            *ForkOf           `json:"forkOf,omitempty"`
	ModerationStatus  ModerationStatus  `json:"moderationStatus"`
	SoftDeletedAt     *time.Time        `json:"softDeletedAt,omitempty"`
	ReportCount       int64             `json:"reportCount"`
	Stats             SkillStats        `json:"stats"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// SkillFile describes one file of a published version.
type SkillFile struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
	StorageID   string `json:"storageId"`
	ContentType string `json:"contentType,omitempty"`
}

type ChangelogSource string

const (
	ChangelogSourceAuto ChangelogSource = "auto"
	ChangelogSourceUser ChangelogSource = "user"
)

// FrontmatterData is the tagged-variant projection of YAML frontmatter
// described in spec.md §9: the raw map is kept alongside an optional typed
// projection (Metadata) so unknown keys are never lost.
type FrontmatterData struct {
	Raw         map[string]any `json:"raw,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type SkillVersion struct {
	SchemaVersion   string          `json:"schemaVersion"`
	ID              string          `json:"id"`
	SkillID         string          `json:"skillId"`
	Version         string          `json:"version"`
	Changelog       string          `json:"changelog"`
	ChangelogSource ChangelogSource `json:"changelogSource"`
	Files           []SkillFile     `json:"files"`
	Fingerprint     string          `json:"fingerprint"`
	Frontmatter     FrontmatterData `json:"frontmatter"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
	SoftDeletedAt   *time.Time      `json:"softDeletedAt,omitempty"`
}

type VersionFingerprint struct {
	SkillID     string    `json:"skillId"`
	VersionID   string    `json:"versionId"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"createdAt"`
}

type EmbeddingVisibility string

const (
	VisibilityLatest           EmbeddingVisibility = "latest"
	VisibilityLatestApproved   EmbeddingVisibility = "latest-approved"
	VisibilityArchived         EmbeddingVisibility = "archived"
	VisibilityArchivedApproved EmbeddingVisibility = "archived-approved"
	VisibilityDeleted          EmbeddingVisibility = "deleted"
)

// VisibilityFor implements the §4.1 mapping table.
func VisibilityFor(isLatest, isApproved, skillDeleted bool) EmbeddingVisibility {
	if skillDeleted {
		return VisibilityDeleted
	}
	switch {
	case isLatest && isApproved:
		return VisibilityLatestApproved
	case isLatest && !isApproved:
		return VisibilityLatest
	case !isLatest && isApproved:
		return VisibilityArchivedApproved
	default:
		return VisibilityArchived
	}
}

type SkillEmbedding struct {
	SkillID    string              `json:"skillId"`
	VersionID  string              `json:"versionId"`
	OwnerID    string              `json:"ownerId"`
	Vector     []float32           `json:"vector"`
	IsLatest   bool                `json:"isLatest"`
	IsApproved bool                `json:"isApproved"`
	Visibility EmbeddingVisibility `json:"visibility"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

type Star struct {
	UserID    string    `json:"userId"`
	SkillID   string    `json:"skillId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID            string     `json:"id"`
	SkillID       string     `json:"skillId"`
	UserID        string     `json:"userId"`
	Body          string     `json:"body"`
	CreatedAt     time.Time  `json:"createdAt"`
	SoftDeletedAt *time.Time `json:"softDeletedAt,omitempty"`
}

type BadgeKind string

const (
	BadgeHighlighted      BadgeKind = "highlighted"
	BadgeOfficial         BadgeKind = "official"
	BadgeDeprecated       BadgeKind = "deprecated"
	BadgeRedactionApproved BadgeKind = "redactionApproved"
)

type SkillBadge struct {
	SkillID string    `json:"skillId"`
	Kind    BadgeKind `json:"kind"`
	ByUserID string   `json:"byUserId"`
	At      time.Time `json:"at"`
}

type AuditLog struct {
	ID           string         `json:"id"`
	ActorUserID  string         `json:"actorUserId"`
	Action       string         `json:"action"`
	TargetType   string         `json:"targetType"`
	TargetID     string         `json:"targetId"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type RateLimitCounter struct {
	Key         string    `json:"key"`
	WindowStart time.Time `json:"windowStart"`
	Count       int64     `json:"count"`
}

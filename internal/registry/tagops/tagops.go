// Package tagops implements spec.md §4.4: named tag pointers into a skill's
// version history (the "latest" tag every skill always carries, plus any
// user-created pointer like "stable"), soft delete/undelete, fork lineage
// bookkeeping, ownership transfer, duplicate marking, badges, and hard
// delete. Every privileged mutation appends an AuditLog row.
package tagops

import (
	"fmt"
	"time"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
	"github.com/clawdhub/clawdhub/internal/registry/store"
)

// Ops bundles the Metadata Store methods tag/lineage operations need.
type Ops struct {
	Store *store.Store
	Now   func() time.Time
}

func New(st *store.Store) *Ops {
	return &Ops{Store: st, Now: time.Now}
}

// actorRole looks up actorUserID's role, defaulting to the least-privileged
// RoleUser if the user record can't be found (callers always reject on an
// insufficient role, never on a missing one, so this default only narrows).
func (o *Ops) actorRole(actorUserID string) spec.Role {
	u, ok := o.Store.GetUser(actorUserID)
	if !ok {
		return spec.RoleUser
	}
	return u.Role
}

func (o *Ops) audit(actorUserID, action, targetID string, metadata map[string]any) error {
	return o.Store.AppendAudit(spec.AuditLog{
		ID:          uuidLike(targetID, action, o.Now()),
		ActorUserID: actorUserID,
		Action:      action,
		TargetType:  "skill",
		TargetID:    targetID,
		Metadata:    metadata,
		CreatedAt:   o.Now(),
	})
}

// uuidLike builds a stable, collision-resistant audit id from its inputs
// without pulling in a UUID generator for a purely internal log key (the
// CLI/HTTP layers that need externally-visible ids already use google/uuid).
func uuidLike(targetID, action string, at time.Time) string {
	return fmt.Sprintf("audit_%s_%s_%d", action, targetID, at.UnixNano())
}

// SetTag points tagName at versionID, creating the tag if it doesn't exist.
// Retargeting "latest" is allowed (spec.md §4.4's updateTags): it also
// patches latestVersionId and every embedding's isLatest/visibility so the
// new latest version is the one search and listings surface.
func (o *Ops) SetTag(skillID, tagName, versionID, actorUserID string) error {
	sk, ok := o.Store.GetSkillByID(skillID)
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}
	if sk.OwnerUserID != actorUserID && o.actorRole(actorUserID) != spec.RoleModerator && o.actorRole(actorUserID) != spec.RoleAdmin {
		return fmt.Errorf("%w: only the owner or a moderator may retag a skill", spec.ErrForbidden)
	}
	if _, ok := o.Store.GetVersion(versionID); !ok {
		return fmt.Errorf("%w: version", spec.ErrNotFound)
	}
	if sk.Tags == nil {
		sk.Tags = map[string]string{}
	}
	sk.Tags[tagName] = versionID
	now := o.Now()
	if tagName == "latest" {
		sk.LatestVersionID = versionID
		if err := o.restampLatest(skillID, versionID); err != nil {
			return err
		}
	}
	sk.UpdatedAt = now
	if err := o.Store.PutSkill(sk); err != nil {
		return err
	}
	return o.audit(actorUserID, "updateTags", skillID, map[string]any{"tag": tagName, "versionId": versionID})
}

// restampLatest flips IsLatest on for newLatestVersionID's embedding and off
// for every other embedding of the skill, recomputing each one's Visibility.
// Mirrors the publish pipeline's own demotion of the previously-latest
// embedding, so a manual "latest" retarget ends in the same state a publish
// would have left it in.
func (o *Ops) restampLatest(skillID, newLatestVersionID string) error {
	skDeleted := false
	if sk, ok := o.Store.GetSkillByID(skillID); ok {
		skDeleted = sk.SoftDeletedAt != nil
	}
	now := o.Now()
	for _, e := range o.Store.ListEmbeddingsBySkill(skillID) {
		isLatest := e.VersionID == newLatestVersionID
		if e.IsLatest == isLatest {
			continue
		}
		e.IsLatest = isLatest
		e.Visibility = spec.VisibilityFor(e.IsLatest, e.IsApproved, skDeleted)
		e.UpdatedAt = now
		if err := o.Store.PutEmbedding(e); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTag removes a non-"latest" tag.
func (o *Ops) DeleteTag(skillID, tagName, actorUserID string) error {
	if tagName == "latest" {
		return fmt.Errorf("%w: the \"latest\" tag cannot be removed", spec.ErrValidation)
	}
	sk, ok := o.Store.GetSkillByID(skillID)
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}
	if sk.OwnerUserID != actorUserID && o.actorRole(actorUserID) != spec.RoleModerator && o.actorRole(actorUserID) != spec.RoleAdmin {
		return fmt.Errorf("%w: only the owner or a moderator may retag a skill", spec.ErrForbidden)
	}
	delete(sk.Tags, tagName)
	sk.UpdatedAt = o.Now()
	if err := o.Store.PutSkill(sk); err != nil {
		return err
	}
	return o.audit(actorUserID, "deleteTag", skillID, map[string]any{"tag": tagName})
}

// SoftDelete marks a skill deleted (spec.md §4.4's setSoftDeleted, owner or
// moderator): the get-skill and resolve routes treat it as missing and every embedding
// tied to it moves to VisibilityDeleted (spec.md §4.1's visibility table),
// but nothing is destroyed — Undelete reverses it within the grace period.
func (o *Ops) SoftDelete(skillID, actorUserID string) error {
	sk, ok := o.Store.GetSkillByID(skillID)
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}
	if sk.OwnerUserID != actorUserID && o.actorRole(actorUserID) != spec.RoleModerator && o.actorRole(actorUserID) != spec.RoleAdmin {
		return fmt.Errorf("%w: only the owner or a moderator may delete a skill", spec.ErrForbidden)
	}
	if sk.SoftDeletedAt != nil {
		return nil
	}
	now := o.Now()
	sk.SoftDeletedAt = &now
	sk.UpdatedAt = now
	if err := o.Store.PutSkill(sk); err != nil {
		return err
	}
	if err := o.restampEmbeddingVisibility(skillID, true); err != nil {
		return err
	}
	return o.audit(actorUserID, "setSoftDeleted", skillID, map[string]any{"deleted": true})
}

// Undelete reverses SoftDelete. Returns spec.ErrGone if the skill was never
// soft-deleted in the first place (there is nothing to undo).
func (o *Ops) Undelete(skillID, actorUserID string) error {
	sk, ok := o.Store.GetSkillByID(skillID)
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}
	if sk.OwnerUserID != actorUserID && o.actorRole(actorUserID) != spec.RoleModerator && o.actorRole(actorUserID) != spec.RoleAdmin {
		return fmt.Errorf("%w: only the owner or a moderator may undelete a skill", spec.ErrForbidden)
	}
	if sk.SoftDeletedAt == nil {
		return fmt.Errorf("%w: skill was not deleted", spec.ErrGone)
	}
	sk.SoftDeletedAt = nil
	sk.UpdatedAt = o.Now()
	if err := o.Store.PutSkill(sk); err != nil {
		return err
	}
	if err := o.restampEmbeddingVisibility(skillID, false); err != nil {
		return err
	}
	return o.audit(actorUserID, "setSoftDeleted", skillID, map[string]any{"deleted": false})
}

func (o *Ops) restampEmbeddingVisibility(skillID string, deleted bool) error {
	now := o.Now()
	for _, e := range o.Store.ListEmbeddingsBySkill(skillID) {
		e.Visibility = spec.VisibilityFor(e.IsLatest, e.IsApproved, deleted)
		e.UpdatedAt = now
		if err := o.Store.PutEmbedding(e); err != nil {
			return err
		}
	}
	return nil
}

// Fork creates a brand-new skill recorded as a fork/duplicate of sourceSkill,
// copying its latest version's files under a new slug (the caller supplies
// the already-published new skill/version; Fork only records lineage, since
// the actual copy goes through the normal Publish pipeline so fingerprinting
// and embeddings stay consistent for the new skill too). This is the
// publish-internal lineage recorder, distinct from the moderator-facing
// SetDuplicate op below.
func (o *Ops) Fork(newSkillID, sourceSkillID, version string, kind spec.ForkKind) error {
	sk, ok := o.Store.GetSkillByID(newSkillID)
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}
	sk.ForkOf = &spec.ForkOf{SkillID: sourceSkillID, Kind: kind, Version: version}
	sk.UpdatedAt = o.Now()
	return o.Store.PutSkill(sk)
}

// SetDuplicate implements spec.md §4.4's setDuplicate (moderator only):
// passing canonicalSlug == "" clears canonicalSkillId/forkOf, otherwise it
// looks up the canonical skill by slug, refuses a self-reference, and
// records forkOf = {skillId, kind: "duplicate", version: upstream's latest}.
func (o *Ops) SetDuplicate(skillID, canonicalSlug, actorUserID string) error {
	if o.actorRole(actorUserID) != spec.RoleModerator && o.actorRole(actorUserID) != spec.RoleAdmin {
		return fmt.Errorf("%w: only a moderator may mark a skill duplicate", spec.ErrForbidden)
	}
	sk, ok := o.Store.GetSkillByID(skillID)
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}

	if canonicalSlug == "" {
		sk.CanonicalSkillID = ""
		sk.ForkOf = nil
		sk.UpdatedAt = o.Now()
		if err := o.Store.PutSkill(sk); err != nil {
			return err
		}
		return o.audit(actorUserID, "setDuplicate", skillID, map[string]any{"canonical": nil})
	}

	upstream, ok := o.Store.GetSkillBySlug(canonicalSlug)
	if !ok {
		return fmt.Errorf("%w: canonical skill", spec.ErrNotFound)
	}
	if upstream.ID == skillID {
		return fmt.Errorf("%w: a skill cannot be marked a duplicate of itself", spec.ErrValidation)
	}

	var latestVersion string
	if upstream.LatestVersionID != "" {
		if v, ok := o.Store.GetVersion(upstream.LatestVersionID); ok {
			latestVersion = v.Version
		}
	}
	sk.CanonicalSkillID = upstream.ID
	sk.ForkOf = &spec.ForkOf{SkillID: upstream.ID, Kind: spec.ForkKindDuplicate, Version: latestVersion}
	sk.UpdatedAt = o.Now()
	if err := o.Store.PutSkill(sk); err != nil {
		return err
	}
	return o.audit(actorUserID, "setDuplicate", skillID, map[string]any{"canonicalSlug": canonicalSlug})
}

// ChangeOwner implements spec.md §4.4's changeOwner (admin only): updates the
// skill and every embedding's ownerId.
func (o *Ops) ChangeOwner(skillID, newOwnerUserID, actorUserID string) error {
	if o.actorRole(actorUserID) != spec.RoleAdmin {
		return fmt.Errorf("%w: only an admin may change a skill's owner", spec.ErrForbidden)
	}
	sk, ok := o.Store.GetSkillByID(skillID)
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}
	if _, ok := o.Store.GetUser(newOwnerUserID); !ok {
		return fmt.Errorf("%w: new owner", spec.ErrNotFound)
	}
	oldOwner := sk.OwnerUserID
	sk.OwnerUserID = newOwnerUserID
	sk.UpdatedAt = o.Now()
	if err := o.Store.PutSkill(sk); err != nil {
		return err
	}
	now := o.Now()
	for _, e := range o.Store.ListEmbeddingsBySkill(skillID) {
		e.OwnerID = newOwnerUserID
		e.UpdatedAt = now
		if err := o.Store.PutEmbedding(e); err != nil {
			return err
		}
	}
	return o.audit(actorUserID, "changeOwner", skillID, map[string]any{"from": oldOwner, "to": newOwnerUserID})
}

// SetApproved toggles spec.md §4.1's IsApproved flag on a version's
// embedding (moderator-only), which folds into Visibility via
// spec.VisibilityFor.
func (o *Ops) SetApproved(versionID, actorUserID string, approved bool) error {
	if o.actorRole(actorUserID) != spec.RoleModerator && o.actorRole(actorUserID) != spec.RoleAdmin {
		return fmt.Errorf("%w: only a moderator may approve a version", spec.ErrForbidden)
	}
	e, ok := o.Store.GetEmbeddingByVersion(versionID)
	if !ok {
		return fmt.Errorf("%w: version has no embedding to approve", spec.ErrNotFound)
	}
	sk, ok := o.Store.GetSkillByID(e.SkillID)
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}
	e.IsApproved = approved
	e.Visibility = spec.VisibilityFor(e.IsLatest, e.IsApproved, sk.SoftDeletedAt != nil)
	e.UpdatedAt = o.Now()
	if err := o.Store.PutEmbedding(e); err != nil {
		return err
	}
	return o.audit(actorUserID, "setApproved", e.SkillID, map[string]any{"versionId": versionID, "approved": approved})
}

// badgeRole reports which role may toggle kind: moderators may only set the
// purely editorial "highlighted" badge; the other three (official,
// deprecated, redactionApproved) carry enough weight to require an admin
// (spec.md §4.4's setBadge).
func badgeRole(kind spec.BadgeKind) spec.Role {
	if kind == spec.BadgeHighlighted {
		return spec.RoleModerator
	}
	return spec.RoleAdmin
}

// SetBadge implements spec.md §4.4's setBadge: upserts or deletes the
// (skillId, kind) row through the required role (moderator for
// "highlighted", admin for the rest), and for BadgeRedactionApproved also
// recomputes every embedding's IsApproved/Visibility — the same fold
// SetApproved applies, since a redaction approval is itself an approval
// signal.
func (o *Ops) SetBadge(skillID string, kind spec.BadgeKind, on bool, actorUserID string) error {
	required := badgeRole(kind)
	role := o.actorRole(actorUserID)
	if role != required && role != spec.RoleAdmin {
		return fmt.Errorf("%w: badge %q requires %s", spec.ErrForbidden, kind, required)
	}
	sk, ok := o.Store.GetSkillByID(skillID)
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}

	if on {
		if err := o.Store.SetBadge(spec.SkillBadge{SkillID: skillID, Kind: kind, ByUserID: actorUserID, At: o.Now()}); err != nil {
			return err
		}
	} else {
		if err := o.Store.ClearBadge(skillID, kind); err != nil {
			return err
		}
	}

	if kind == spec.BadgeRedactionApproved {
		now := o.Now()
		for _, e := range o.Store.ListEmbeddingsBySkill(skillID) {
			e.IsApproved = on
			e.Visibility = spec.VisibilityFor(e.IsLatest, e.IsApproved, sk.SoftDeletedAt != nil)
			e.UpdatedAt = now
			if err := o.Store.PutEmbedding(e); err != nil {
				return err
			}
		}
	}

	return o.audit(actorUserID, "setBadge", skillID, map[string]any{"kind": string(kind), "on": on})
}

// HardDelete implements spec.md §4.4's hardDelete (admin only): cascades to
// every entity the skill owns and patches any skill whose canonicalSkillId
// or forkOf.skillId pointed at it to clear the reference.
func (o *Ops) HardDelete(skillID, actorUserID string) error {
	if o.actorRole(actorUserID) != spec.RoleAdmin {
		return fmt.Errorf("%w: only an admin may hard-delete a skill", spec.ErrForbidden)
	}
	if err := o.Store.HardDeleteSkill(skillID); err != nil {
		return err
	}
	return o.audit(actorUserID, "hardDelete", skillID, nil)
}

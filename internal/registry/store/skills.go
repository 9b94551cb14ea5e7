package store

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

// --- Skills ---

func (s *Store) PutSkill(sk spec.Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk.SchemaVersion = spec.SchemaVersion
	s.doc.Skills[sk.ID] = sk
	s.doc.SlugIndex[sk.Slug] = sk.ID
	return s.save()
}

func (s *Store) GetSkillByID(id string) (spec.Skill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sk, ok := s.doc.Skills[id]
	return sk, ok
}

func (s *Store) GetSkillBySlug(slug string) (spec.Skill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.doc.SlugIndex[slug]
	if !ok {
		return spec.Skill{}, false
	}
	sk, ok := s.doc.Skills[id]
	return sk, ok
}

// ListSort enumerates the sort orders spec.md §6.1's list/search endpoints
// accept.
type ListSort string

const (
	SortNewest   ListSort = "newest"
	SortUpdated  ListSort = "updated"
	SortStars    ListSort = "stars"
	SortTrending ListSort = "trending"
)

// ListSkillsOptions controls ListSkills' cursor-paginated scan.
type ListSkillsOptions struct {
	Sort            ListSort
	Cursor          string
	PageSize        int
	IncludeDeleted  bool
	OwnerUserID     string // non-empty: filter to one owner
}

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// ListSkillsResult is one page of ListSkills.
type ListSkillsResult struct {
	Items      []spec.Skill
	NextCursor string
}

// sortKeyFor renders the field ListSkillsOptions.Sort ranks by into a string
// that is lexically comparable and stable across calls — this is what gets
// embedded in the opaque cursor token.
func sortKeyFor(sort_ ListSort, sk spec.Skill) string {
	switch sort_ {
	case SortStars:
		return fmt.Sprintf("%020d", sk.Stats.Stars)
	case SortTrending:
		return fmt.Sprintf("%020d", sk.Stats.Downloads+sk.Stats.Stars*10)
	case SortUpdated:
		return strconv.FormatInt(sk.UpdatedAt.UnixNano(), 10)
	default: // SortNewest
		return strconv.FormatInt(sk.CreatedAt.UnixNano(), 10)
	}
}

// ListSkills returns a cursor-paginated, descending-by-sort-key page of
// skills. Trending explicitly does not honor a stable cursor across pages
// (spec.md Open Question: trending is a point-in-time ranking, re-computed
// per request, so repeated pagination calls may reorder items that moved
// rank between calls — acceptable since trending is a discovery surface, not
// an enumeration one).
func (s *Store) ListSkills(opts ListSkillsOptions) (ListSkillsResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	cur, err := decodeCursor(opts.Cursor)
	if err != nil {
		return ListSkillsResult{}, err
	}

	all := make([]spec.Skill, 0, len(s.doc.Skills))
	for _, sk := range s.doc.Skills {
		if !opts.IncludeDeleted && sk.SoftDeletedAt != nil {
			continue
		}
		if opts.OwnerUserID != "" && sk.OwnerUserID != opts.OwnerUserID {
			continue
		}
		all = append(all, sk)
	}

	sortField := opts.Sort
	if sortField == "" {
		sortField = SortNewest
	}
	sort.Slice(all, func(i, j int) bool {
		ki, kj := sortKeyFor(sortField, all[i]), sortKeyFor(sortField, all[j])
		if ki == kj {
			return all[i].ID < all[j].ID
		}
		return ki > kj
	})

	start := 0
	if cur.SortKey != "" || cur.ID != "" {
		for i, sk := range all {
			k := sortKeyFor(sortField, sk)
			if k == cur.SortKey && sk.ID == cur.ID {
				start = i + 1
				break
			}
			if k < cur.SortKey || (k == cur.SortKey && sk.ID > cur.ID) {
				start = i
				break
			}
		}
	}
	if start > len(all) {
		start = len(all)
	}

	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	page := all[start:end]

	result := ListSkillsResult{Items: page}
	if end < len(all) {
		last := page[len(page)-1]
		result.NextCursor = encodeCursor(cursor{SortKey: sortKeyFor(sortField, last), ID: last.ID})
	}
	return result, nil
}

// HardDeleteSkill removes a skill and every entity that cascades from it
// (versions, fingerprints, embeddings, stars, comments, badges), then patches
// any other skill whose canonicalSkillId or forkOf.skillId pointed at it to
// clear the now-dangling reference (spec.md §4.4's hardDelete). Its only
// caller is the admin-only tagops.HardDelete, never the user-facing
// soft-delete path (spec.md §4.4's delete/undelete only ever toggle
// SoftDeletedAt).
func (s *Store) HardDeleteSkill(skillID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.doc.Skills[skillID]
	if !ok {
		return fmt.Errorf("%w: skill", spec.ErrNotFound)
	}
	delete(s.doc.Skills, skillID)
	delete(s.doc.SlugIndex, sk.Slug)

	for _, vID := range s.doc.VersionsBySkill[skillID] {
		delete(s.doc.Versions, vID)
		delete(s.doc.Embeddings, vID)
		s.vectors.Delete(vID)
	}
	delete(s.doc.VersionsBySkill, skillID)
	delete(s.doc.EmbeddingsBySkill, skillID)
	delete(s.doc.Stars, skillID)
	delete(s.doc.Comments, skillID)
	delete(s.doc.Badges, skillID)

	kept := s.doc.Fingerprints[:0]
	for _, fp := range s.doc.Fingerprints {
		if fp.SkillID != skillID {
			kept = append(kept, fp)
		}
	}
	s.doc.Fingerprints = kept

	for id, other := range s.doc.Skills {
		changed := false
		if other.CanonicalSkillID == skillID {
			other.CanonicalSkillID = ""
			changed = true
		}
		if other.ForkOf != nil && other.ForkOf.SkillID == skillID {
			other.ForkOf = nil
			changed = true
		}
		if changed {
			s.doc.Skills[id] = other
		}
	}

	return s.save()
}

// --- Versions ---

func (s *Store) PutVersion(v spec.SkillVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.SchemaVersion = spec.SchemaVersion
	if _, exists := s.doc.Versions[v.ID]; !exists {
		s.doc.VersionsBySkill[v.SkillID] = append(s.doc.VersionsBySkill[v.SkillID], v.ID)
	}
	s.doc.Versions[v.ID] = v
	return s.save()
}

func (s *Store) GetVersion(id string) (spec.SkillVersion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.doc.Versions[id]
	return v, ok
}

// ListVersions returns a skill's versions, newest first.
func (s *Store) ListVersions(skillID string) []spec.SkillVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.doc.VersionsBySkill[skillID]
	out := make([]spec.SkillVersion, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if v, ok := s.doc.Versions[ids[i]]; ok {
			out = append(out, v)
		}
	}
	return out
}

// --- Fingerprints (spec.md §4.2's duplicate-detection index) ---

func (s *Store) PutFingerprint(fp spec.VersionFingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Fingerprints = append(s.doc.Fingerprints, fp)
	return s.save()
}

// FindSkillFingerprint resolves (skillID, fingerprint) to the version it was
// first recorded against, implementing spec.md §4.2's resolver: a publish
// whose computed fingerprint matches an existing version of the same skill
// is a no-op republish, not a new version.
func (s *Store) FindSkillFingerprint(skillID, fingerprint string) (spec.VersionFingerprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fp := range s.doc.Fingerprints {
		if fp.SkillID == skillID && fp.Fingerprint == fingerprint {
			return fp, true
		}
	}
	return spec.VersionFingerprint{}, false
}

// FindAnyFingerprint scans every skill's recorded fingerprints for one that
// equals fingerprint, skipping soft-deleted skills and the skill excluded by
// excludeSkillID (the one currently being published). Implements spec.md
// §4.1 step 9's duplicate probe: "an existing non-soft-deleted skill with a
// version whose fingerprint equals the new bundle's".
func (s *Store) FindAnyFingerprint(fingerprint, excludeSkillID string) (spec.VersionFingerprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fp := range s.doc.Fingerprints {
		if fp.Fingerprint != fingerprint || fp.SkillID == excludeSkillID {
			continue
		}
		sk, ok := s.doc.Skills[fp.SkillID]
		if !ok || sk.SoftDeletedAt != nil {
			continue
		}
		return fp, true
	}
	return spec.VersionFingerprint{}, false
}

// ListFingerprints returns the most recent fingerprints across all skills,
// newest first, capped at limit; used by admin diagnostics.
func (s *Store) ListFingerprints(limit int) []spec.VersionFingerprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.doc.Fingerprints)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]spec.VersionFingerprint, limit)
	for i := 0; i < limit; i++ {
		out[i] = s.doc.Fingerprints[n-1-i]
	}
	return out
}

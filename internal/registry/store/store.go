// Package store is the Metadata Store of spec.md §2: the single source of
// truth for every entity except blob bytes (internal/registry/objectstore)
// and the embedding vectors' own similarity index (delegated to
// internal/registry/vectorindex, held as a field here so both live behind
// one lock).
//
// Grounded on the teacher's internal/skill/store/store.go: a single
// in-memory schema struct guarded by a sync.RWMutex, flushed to one JSON
// file on every mutation. The teacher delegates that flush to an external
// github.com/ppipada/mapstore-go, which is not part of the retrieval pack;
// Save below reimplements the same write-to-temp-then-rename durability
// pattern directly, so no library is fabricated.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
	"github.com/clawdhub/clawdhub/internal/registry/vectorindex"
)

// schema is the single persisted document.
type schema struct {
	SchemaVersion string `json:"schemaVersion"`

	Users   map[string]spec.User     `json:"users"`             // userID -> User
	Handles map[string]string        `json:"handles"`           // handle -> userID
	Tokens  map[string]spec.ApiToken `json:"tokens"`            // token hash -> ApiToken

	Skills    map[string]spec.Skill `json:"skills"`    // skillID -> Skill
	SlugIndex map[string]string     `json:"slugIndex"` // slug -> skillID

	Versions        map[string]spec.SkillVersion `json:"versions"`        // versionID -> SkillVersion
	VersionsBySkill map[string][]string          `json:"versionsBySkill"` // skillID -> versionIDs, oldest first

	Fingerprints []spec.VersionFingerprint `json:"fingerprints"`

	Embeddings        map[string]spec.SkillEmbedding `json:"embeddings"`        // versionID -> SkillEmbedding
	EmbeddingsBySkill map[string][]string            `json:"embeddingsBySkill"` // skillID -> versionIDs

	Stars    map[string]map[string]time.Time    `json:"stars"`    // skillID -> userID -> createdAt
	Comments map[string][]spec.Comment          `json:"comments"` // skillID -> comments, oldest first
	Badges   map[string]map[spec.BadgeKind]spec.SkillBadge `json:"badges"` // skillID -> kind -> badge

	AuditLogs []spec.AuditLog `json:"auditLogs"`
}

func newSchema() schema {
	return schema{
		SchemaVersion:     spec.SchemaVersion,
		Users:             map[string]spec.User{},
		Handles:           map[string]string{},
		Tokens:            map[string]spec.ApiToken{},
		Skills:            map[string]spec.Skill{},
		SlugIndex:         map[string]string{},
		Versions:          map[string]spec.SkillVersion{},
		VersionsBySkill:   map[string][]string{},
		Embeddings:        map[string]spec.SkillEmbedding{},
		EmbeddingsBySkill: map[string][]string{},
		Stars:             map[string]map[string]time.Time{},
		Comments:          map[string][]spec.Comment{},
		Badges:            map[string]map[spec.BadgeKind]spec.SkillBadge{},
	}
}

// Store is the Metadata Store: an in-memory document guarded by mu, flushed
// to a single JSON snapshot file after every mutating call. A zero path
// means run purely in memory (used by tests).
type Store struct {
	mu   sync.RWMutex
	path string
	doc  schema

	vectors *vectorindex.Index
}

// New opens (or creates) the store at path. An empty path runs in-memory
// only, never touching disk; this mirrors the teacher's pattern of letting
// baseDir-less stores run for unit tests.
func New(path string) (*Store, error) {
	s := &Store{path: path, doc: newSchema(), vectors: vectorindex.New()}
	if path == "" {
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := s.save(); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, fmt.Errorf("failed to read store snapshot: %w", err)
	}
	var doc schema
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse store snapshot: %w", err)
	}
	s.doc = doc
	s.rebuildIndexes()
	return s, nil
}

// rebuildIndexes restores derived in-memory-only state (the vector index)
// from the persisted document after a load.
func (s *Store) rebuildIndexes() {
	for versionID, e := range s.doc.Embeddings {
		s.vectors.Upsert(versionID, e.Vector)
	}
}

// save writes the current document to disk atomically (write to a temp file
// in the same directory, then rename). Must be called with mu held.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write store snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to commit store snapshot: %w", err)
	}
	return nil
}

// --- Users ---

func (s *Store) PutUser(u spec.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.SchemaVersion = spec.SchemaVersion
	s.doc.Users[u.ID] = u
	if u.Handle != "" {
		s.doc.Handles[u.Handle] = u.ID
	}
	return s.save()
}

func (s *Store) GetUser(id string) (spec.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.doc.Users[id]
	return u, ok
}

func (s *Store) GetUserByHandle(handle string) (spec.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.doc.Handles[handle]
	if !ok {
		return spec.User{}, false
	}
	u, ok := s.doc.Users[id]
	return u, ok
}

// --- Tokens ---

func (s *Store) PutToken(t spec.ApiToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.SchemaVersion = spec.SchemaVersion
	s.doc.Tokens[t.Hash] = t
	return s.save()
}

func (s *Store) GetTokenByHash(hash string) (spec.ApiToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.doc.Tokens[hash]
	return t, ok
}

func (s *Store) RevokeToken(hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.doc.Tokens[hash]
	if !ok {
		return fmt.Errorf("%w: token", spec.ErrNotFound)
	}
	t.RevokedAt = &at
	s.doc.Tokens[hash] = t
	return s.save()
}

// --- Audit ---

func (s *Store) AppendAudit(a spec.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.AuditLogs = append(s.doc.AuditLogs, a)
	return s.save()
}

// ListAuditsByTarget returns every audit row recorded against targetID, in
// append order, for moderation history views and tests.
func (s *Store) ListAuditsByTarget(targetID string) []spec.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]spec.AuditLog, 0, len(s.doc.AuditLogs))
	for _, a := range s.doc.AuditLogs {
		if a.TargetID == targetID {
			out = append(out, a)
		}
	}
	return out
}

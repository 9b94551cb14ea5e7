package store

import (
	"github.com/clawdhub/clawdhub/internal/registry/spec"
	"github.com/clawdhub/clawdhub/internal/registry/vectorindex"
)

// PutEmbedding upserts a version's embedding, keeping the vector index (used
// by VectorTopK) in lockstep with the persisted document.
func (s *Store) PutEmbedding(e spec.SkillEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.doc.Embeddings[e.VersionID]; !exists {
		s.doc.EmbeddingsBySkill[e.SkillID] = append(s.doc.EmbeddingsBySkill[e.SkillID], e.VersionID)
	}
	s.doc.Embeddings[e.VersionID] = e
	s.vectors.Upsert(e.VersionID, e.Vector)
	return s.save()
}

// DeleteEmbedding removes a version's embedding from both the document and
// the vector index. HardDeleteSkill removes embeddings itself, and soft
// delete only restamps Visibility, so neither goes through this method.
func (s *Store) DeleteEmbedding(versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc.Embeddings, versionID)
	s.vectors.Delete(versionID)
	return s.save()
}

func (s *Store) GetEmbeddingByVersion(versionID string) (spec.SkillEmbedding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.doc.Embeddings[versionID]
	return e, ok
}

// ListEmbeddingsBySkill returns every embedding recorded for a skill, most
// recently added last.
func (s *Store) ListEmbeddingsBySkill(skillID string) []spec.SkillEmbedding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.doc.EmbeddingsBySkill[skillID]
	out := make([]spec.SkillEmbedding, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.doc.Embeddings[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// ListAllEmbeddings returns a snapshot of every embedding in the store. The
// search engine uses this to build its visibility filter predicate up front,
// rather than calling back into the store from inside VectorTopK's filter
// callback (sync.RWMutex.RLock is not safely re-entrant against a pending
// writer, so nested locking here would risk deadlock).
func (s *Store) ListAllEmbeddings() []spec.SkillEmbedding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]spec.SkillEmbedding, 0, len(s.doc.Embeddings))
	for _, e := range s.doc.Embeddings {
		out = append(out, e)
	}
	return out
}

// VectorTopK runs the vector index's brute-force cosine search under the
// store's own read lock, so a concurrent publish can't upsert a vector
// mid-scan (spec.md §4.3's search engine calls this for the semantic leg of
// its hybrid ranking).
func (s *Store) VectorTopK(query []float32, opts vectorindex.SearchOptions) []vectorindex.ScoredEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors.TopK(query, opts)
}

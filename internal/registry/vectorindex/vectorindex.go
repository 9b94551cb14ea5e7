// Package vectorindex provides the "native vector index" half of spec.md's
// Metadata Store (§2): fixed-dimension float vectors with filtered top-K
// cosine search.
//
// The retrieval pack carries no runnable embedded ANN/vector-index library
// with a real Go API — only a types-only snapshot,
// other_examples/72f94701_liliang-cn-sqvect__pkg-core-embedding.go.go, whose
// Embedding/ScoredEmbedding/SearchOptions vocabulary is reused here. The
// actual top-K walk is therefore a standard-library brute-force scan
// (documented as a deliberate stdlib component in DESIGN.md), acceptable
// because spec.md §4.3 already caps any single call at 256 candidates.
package vectorindex

import (
	"math"
	"sort"
)

// Entry is one indexed vector, addressed by an opaque string id (the
// registry keys it by SkillEmbedding.VersionID).
type Entry struct {
	ID     string
	Vector []float32
}

// ScoredEntry is a search hit together with its cosine similarity score.
type ScoredEntry struct {
	ID    string
	Score float64
}

// SearchOptions mirrors sqvect's SearchOptions shape (TopK + a generic
// filter), adapted to take a predicate over the candidate id instead of a
// string-keyed metadata filter since the registry's visibility filtering is
// richer than flat key/value equality.
type SearchOptions struct {
	TopK   int
	Filter func(id string) bool
}

// Index is a brute-force in-memory vector index. Safe for concurrent use by
// its own internal lock is NOT provided: callers (internal/registry/store)
// already serialize access, matching the Metadata Store's own locking.
type Index struct {
	entries map[string][]float32
}

func New() *Index {
	return &Index{entries: map[string][]float32{}}
}

func (idx *Index) Upsert(id string, vector []float32) {
	cp := make([]float32, len(vector))
	copy(cp, vector)
	idx.entries[id] = cp
}

func (idx *Index) Delete(id string) {
	delete(idx.entries, id)
}

// TopK returns up to opts.TopK entries passing opts.Filter, ranked by
// descending cosine similarity to query.
func (idx *Index) TopK(query []float32, opts SearchOptions) []ScoredEntry {
	k := opts.TopK
	if k <= 0 {
		return nil
	}
	candidates := make([]ScoredEntry, 0, len(idx.entries))
	for id, vec := range idx.entries {
		if opts.Filter != nil && !opts.Filter(id) {
			continue
		}
		candidates = append(candidates, ScoredEntry{ID: id, Score: cosine(query, vec)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

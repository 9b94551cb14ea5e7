// Package search implements the Search Engine of spec.md §4.3: a hybrid of
// exact-token matching (slug, display name, tag name) and vector similarity
// over SkillEmbedding.Vector, merged with a doubling retrieval loop so a
// heavily-filtered query (visibility, moderation) still returns a full page
// without the caller re-requesting.
//
// Grounded on the teacher's bundle/skill listing pagination in
// internal/skill/store/list.go for the page-size doubling idea, generalized
// here to also carry a score instead of only a stable sort key.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/clawdhub/clawdhub/internal/registry/embeddingsprovider"
	"github.com/clawdhub/clawdhub/internal/registry/spec"
	"github.com/clawdhub/clawdhub/internal/registry/store"
	"github.com/clawdhub/clawdhub/internal/registry/vectorindex"
)

const (
	initialCandidates = 32
	maxCandidates      = 256
)

// Query is one search request (spec.md §6.1's GET /skills/search).
type Query struct {
	Text      string
	TopK      int
	RequireApproved bool // restrict to latest-approved/archived-approved only
}

// Hit is one ranked result.
type Hit struct {
	Skill   spec.Skill
	Version spec.SkillVersion
	Score   float64
}

// Engine answers Query by blending exact-token and vector search.
type Engine struct {
	Store      *store.Store
	Embeddings embeddingsprovider.Provider
}

func New(st *store.Store, embed embeddingsprovider.Provider) *Engine {
	return &Engine{Store: st, Embeddings: embed}
}

// Search runs the hybrid query. The full query text is embedded and
// tokenized; it is not truncated or echoed back in the hits.
func (e *Engine) Search(ctx context.Context, q Query) ([]Hit, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = 20
	}

	tokens := tokenize(q.Text)
	vector, embedErr := e.Embeddings.Embed(ctx, q.Text)

	visible := e.visibilityFilter(q.RequireApproved)

	scores := map[string]float64{} // versionID -> score
	var order []string

	// Exact-token leg: any skill whose slug/display name/tag name contains a
	// query token gets a fixed boost, independent of vector availability.
	for _, sk := range e.allSkills() {
		if sk.SoftDeletedAt != nil {
			continue
		}
		if matchesTokens(sk, tokens) {
			vID := sk.LatestVersionID
			if vID == "" || !visible(vID) {
				continue
			}
			if _, ok := scores[vID]; !ok {
				order = append(order, vID)
			}
			scores[vID] += 1.0
		}
	}

	// Vector leg, with a doubling retrieval loop: widen TopK until either
	// enough post-filter candidates survive or the cap is hit (spec.md
	// §4.3's "never give up after one narrow pass").
	if embedErr == nil && len(vector) > 0 {
		candidates := initialCandidates
		for {
			hits := e.Store.VectorTopK(vector, vectorindex.SearchOptions{
				TopK:   candidates,
				Filter: visible,
			})
			for _, h := range hits {
				if _, ok := scores[h.ID]; !ok {
					order = append(order, h.ID)
				}
				scores[h.ID] += h.Score
			}
			if len(hits) >= topK || candidates >= maxCandidates {
				break
			}
			candidates *= 2
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })
	if len(order) > topK {
		order = order[:topK]
	}

	out := make([]Hit, 0, len(order))
	for _, vID := range order {
		v, ok := e.Store.GetVersion(vID)
		if !ok {
			continue
		}
		sk, ok := e.Store.GetSkillByID(v.SkillID)
		if !ok {
			continue
		}
		out = append(out, Hit{Skill: sk, Version: v, Score: scores[vID]})
	}
	return out, nil
}

// allSkills is a placeholder indirection point: it pages through the store
// in fixed-size batches rather than assuming an unbounded in-memory slice,
// matching the doubling loop's own "never assume everything fits" posture.
func (e *Engine) allSkills() []spec.Skill {
	var all []spec.Skill
	cursor := ""
	for {
		page, err := e.Store.ListSkills(store.ListSkillsOptions{Sort: store.SortNewest, Cursor: cursor, PageSize: 100})
		if err != nil {
			return all
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			return all
		}
		cursor = page.NextCursor
	}
}

// visibilityFilter builds a filter predicate over embedding visibility up
// front (spec.md §4.1's visibility states), avoiding any callback into the
// store's own locks from inside VectorTopK.
func (e *Engine) visibilityFilter(requireApproved bool) func(versionID string) bool {
	allowed := map[string]bool{}
	for _, emb := range e.Store.ListAllEmbeddings() {
		ok := emb.Visibility == spec.VisibilityLatest || emb.Visibility == spec.VisibilityLatestApproved ||
			emb.Visibility == spec.VisibilityArchived || emb.Visibility == spec.VisibilityArchivedApproved
		if requireApproved {
			ok = emb.Visibility == spec.VisibilityLatestApproved || emb.Visibility == spec.VisibilityArchivedApproved
		}
		allowed[emb.VersionID] = ok
	}
	return func(versionID string) bool { return allowed[versionID] }
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})
	return fields
}

func matchesTokens(sk spec.Skill, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	haystack := strings.ToLower(sk.Slug + " " + sk.DisplayName)
	for tag := range sk.Tags {
		haystack += " " + strings.ToLower(tag)
	}
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

// TruncateForDisplay implements spec.md's 50-rune-plus-ellipsis rule for the
// skill summaries the CLI's "explore" command prints.
func TruncateForDisplay(text string) string {
	runes := []rune(text)
	if len(runes) <= 50 {
		return text
	}
	return string(runes[:50]) + "…"
}

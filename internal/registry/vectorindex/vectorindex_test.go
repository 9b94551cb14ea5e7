package vectorindex

import "testing"

func TestTopKRanksByCosineSimilarity(t *testing.T) {
	idx := New()
	idx.Upsert("exact", []float32{1, 0, 0})
	idx.Upsert("close", []float32{0.9, 0.1, 0})
	idx.Upsert("orthogonal", []float32{0, 1, 0})

	got := idx.TopK([]float32{1, 0, 0}, SearchOptions{TopK: 3})
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].ID != "exact" {
		t.Errorf("closest match = %q, want %q", got[0].ID, "exact")
	}
	if got[len(got)-1].ID != "orthogonal" {
		t.Errorf("farthest match = %q, want %q", got[len(got)-1].ID, "orthogonal")
	}
}

func TestTopKRespectsFilter(t *testing.T) {
	idx := New()
	idx.Upsert("a", []float32{1, 0})
	idx.Upsert("b", []float32{1, 0})

	got := idx.TopK([]float32{1, 0}, SearchOptions{TopK: 5, Filter: func(id string) bool { return id == "b" }})
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("filter did not exclude id %q: got %v", "a", got)
	}
}

func TestTopKTruncatesToK(t *testing.T) {
	idx := New()
	idx.Upsert("a", []float32{1, 0})
	idx.Upsert("b", []float32{1, 0})
	idx.Upsert("c", []float32{1, 0})

	got := idx.TopK([]float32{1, 0}, SearchOptions{TopK: 2})
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestTopKZeroOrNegativeReturnsNil(t *testing.T) {
	idx := New()
	idx.Upsert("a", []float32{1, 0})
	if got := idx.TopK([]float32{1, 0}, SearchOptions{TopK: 0}); got != nil {
		t.Errorf("TopK with TopK=0 should return nil, got %v", got)
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	idx := New()
	idx.Upsert("a", []float32{1, 0})
	idx.Delete("a")
	got := idx.TopK([]float32{1, 0}, SearchOptions{TopK: 5})
	if len(got) != 0 {
		t.Fatalf("expected no results after delete, got %v", got)
	}
}

func TestUpsertCopiesVector(t *testing.T) {
	idx := New()
	vec := []float32{1, 2, 3}
	idx.Upsert("a", vec)
	vec[0] = 999
	got := idx.TopK([]float32{1, 2, 3}, SearchOptions{TopK: 1})
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	// A perfect match still scores ~1.0 only if the stored copy wasn't
	// mutated alongside the caller's slice.
	if got[0].Score < 0.99 {
		t.Errorf("Upsert must copy the vector, not alias it: score=%v", got[0].Score)
	}
}

package embeddingsprovider

import (
	"context"
	"testing"
)

func TestEmbedIsDeterministic(t *testing.T) {
	p := NewDeterministic(32)
	a, err := p.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: unexpected error: %v", err)
	}
	b, err := p.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: unexpected error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("vector lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Embed is not deterministic at index %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbedDiffersOnDifferentText(t *testing.T) {
	p := NewDeterministic(32)
	a, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: unexpected error: %v", err)
	}
	b, err := p.Embed(context.Background(), "goodbye")
	if err != nil {
		t.Fatalf("Embed: unexpected error: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different input text produced an identical vector")
	}
}

func TestDimensionMatchesVectorLength(t *testing.T) {
	p := NewDeterministic(64)
	if p.Dimension() != 64 {
		t.Fatalf("Dimension() = %d, want 64", p.Dimension())
	}
	v, err := p.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("Embed: unexpected error: %v", err)
	}
	if len(v) != 64 {
		t.Fatalf("len(v) = %d, want 64", len(v))
	}
}

func TestNewDeterministicDefaultsDimension(t *testing.T) {
	p := NewDeterministic(0)
	if p.Dimension() != 256 {
		t.Fatalf("Dimension() = %d, want default 256", p.Dimension())
	}
	p = NewDeterministic(-5)
	if p.Dimension() != 256 {
		t.Fatalf("Dimension() with negative input = %d, want default 256", p.Dimension())
	}
}

func TestEmbedRespectsCancelledContext(t *testing.T) {
	p := NewDeterministic(16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Embed(ctx, "x"); err == nil {
		t.Fatal("Embed with a cancelled context should return an error")
	}
}

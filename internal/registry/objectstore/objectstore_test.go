package objectstore

import (
	"strings"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: unexpected error: %v", err)
	}
	id, err := s.Put([]byte("hello world"))
	if err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}
	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("Get = %q, want %q", got, "hello world")
	}
}

func TestPutIsContentAddressable(t *testing.T) {
	s, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: unexpected error: %v", err)
	}
	id1, err := s.Put([]byte("same bytes"))
	if err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}
	id2, err := s.Put([]byte("same bytes"))
	if err != nil {
		t.Fatalf("Put (dedup): unexpected error: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("identical bytes should produce the same storage id: %q vs %q", id1, id2)
	}
}

func TestPutDiffersOnDifferentContent(t *testing.T) {
	s, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: unexpected error: %v", err)
	}
	id1, _ := s.Put([]byte("a"))
	id2, _ := s.Put([]byte("b"))
	if id1 == id2 {
		t.Fatal("different content should produce different storage ids")
	}
}

func TestExists(t *testing.T) {
	s, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: unexpected error: %v", err)
	}
	id, _ := s.Put([]byte("present"))
	ok, err := s.Exists(id)
	if err != nil || !ok {
		t.Fatalf("Exists(present) = %v, %v, want true, nil", ok, err)
	}
	ok, err = s.Exists("deadbeef")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v, want false, nil", ok, err)
	}
}

func TestGetMissingReturnsError(t *testing.T) {
	s, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: unexpected error: %v", err)
	}
	if _, err := s.Get("deadbeef"); err == nil {
		t.Fatal("Get of a missing id should return an error")
	}
}

func TestHashReaderMatchesPutID(t *testing.T) {
	s, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: unexpected error: %v", err)
	}
	data := []byte("streamed content")
	id, err := s.Put(data)
	if err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}
	got, err := HashReader(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("HashReader: unexpected error: %v", err)
	}
	if got != id {
		t.Errorf("HashReader = %q, want it to match Put's storage id %q", got, id)
	}
}

package lockfile

import (
	"testing"
	"time"
)

func TestLoadMissingReturnsEmptyLock(t *testing.T) {
	lock, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if lock.Skills == nil || len(lock.Skills) != 0 {
		t.Fatalf("Load of a missing lockfile = %+v, want an empty initialized map", lock)
	}
}

func TestPutThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	entry := Entry{Version: "1.2.0", InstalledAt: time.Unix(1700000000, 0).UTC()}
	if err := Put(dir, "my-skill", entry); err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}
	lock, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	got, ok := lock.Skills["my-skill"]
	if !ok {
		t.Fatal("expected my-skill to be recorded in the lockfile")
	}
	if got.Version != "1.2.0" {
		t.Errorf("Version = %q, want 1.2.0", got.Version)
	}
	if !got.InstalledAt.Equal(entry.InstalledAt) {
		t.Errorf("InstalledAt = %v, want %v", got.InstalledAt, entry.InstalledAt)
	}
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	dir := t.TempDir()
	if err := Put(dir, "sk", Entry{Version: "1.0.0"}); err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}
	if err := Put(dir, "sk", Entry{Version: "2.0.0"}); err != nil {
		t.Fatalf("Put (overwrite): unexpected error: %v", err)
	}
	lock, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if lock.Skills["sk"].Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0 after overwrite", lock.Skills["sk"].Version)
	}
}

func TestWriteThenReadOrigin(t *testing.T) {
	dir := t.TempDir()
	origin := Origin{Version: 1, Registry: "https://registry.example", Slug: "my-skill", InstalledVersion: "1.0.0", InstalledAt: time.Unix(1700000000, 0).UTC()}
	if err := WriteOrigin(dir, origin); err != nil {
		t.Fatalf("WriteOrigin: unexpected error: %v", err)
	}
	got, ok := ReadOrigin(dir)
	if !ok {
		t.Fatal("ReadOrigin should find the marker just written")
	}
	if got.Slug != origin.Slug || got.Registry != origin.Registry || got.InstalledVersion != origin.InstalledVersion {
		t.Fatalf("ReadOrigin() = %+v, want %+v", got, origin)
	}
}

func TestReadOriginMissingReturnsFalse(t *testing.T) {
	if _, ok := ReadOrigin(t.TempDir()); ok {
		t.Fatal("ReadOrigin of a directory with no marker should report ok=false")
	}
}

// Package fingerprint computes the bundle fingerprint defined in spec.md §3.
// It does not resolve (slug, hash) pairs; that lookup is
// store.FindSkillFingerprint, served by httpapi.HandleResolve. It is a pure,
// side-effect-free package shared verbatim by
// both the server's publish pipeline and the CLI planner, so client and
// server always agree bit-for-bit (spec.md §4.6 step 4).
//
// Grounded on stigmer-stigmer's
// backend/services/stigmer-server/pkg/domain/skill/storage/artifact_storage.go
// (CalculateHash/CalculateHashFromReader), generalized from a single-blob
// hash to the sorted multi-file "path:sha256" join the spec requires.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"
)

// FileEntry is the minimal (path, sha256) pair the fingerprint depends on.
type FileEntry struct {
	Path   string
	SHA256 string
}

// Compute implements spec.md §3's invariant:
//
//	fingerprint = SHA-256( join("\n", sorted_by_path( "{path}:{sha256}" )) )
//
// The result depends only on the multiset of (path, sha256) pairs, never on
// ordering of the input slice, file sizes, content types, or any other field.
func Compute(files []FileEntry) string {
	sorted := make([]FileEntry, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	lines := make([]string, 0, len(sorted))
	for _, f := range sorted {
		lines = append(lines, f.Path+":"+f.SHA256)
	}
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// SHA256Hex hashes raw bytes; used for per-file content hashing.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SHA256HexReader hashes a stream; the result equals SHA256Hex over the same
// bytes.
func SHA256HexReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

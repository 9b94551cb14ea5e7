package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

// cursor is the decoded shape of the opaque pagination token spec.md §6.1
// returns as nextCursor: a pure function of the last-seen item's sort key, so
// a page boundary survives concurrent inserts (no offset drift).
type cursor struct {
	SortKey string `json:"k"`
	ID      string `json:"id"`
}

func encodeCursor(c cursor) string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(token string) (cursor, error) {
	var c cursor
	if token == "" {
		return c, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("%w: malformed cursor", spec.ErrValidation)
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("%w: malformed cursor", spec.ErrValidation)
	}
	return c, nil
}

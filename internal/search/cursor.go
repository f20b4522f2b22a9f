package search

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Cursor encodes the last-seen stable sort key (display name + id
// tie-breaker). Pages addressed by cursor stay consistent when rows are
// inserted or removed between requests, which offset pagination cannot
// guarantee.
type Cursor struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// EncodeCursor returns the opaque token form, "" for a nil cursor.
func EncodeCursor(c *Cursor) string {
	if c == nil {
		return ""
	}
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses an opaque token. Malformed tokens yield nil, treated
// as "first page" by the engine.
func DecodeCursor(token string) *Cursor {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		// tolerate padded variants from older links
		b, err = base64.URLEncoding.DecodeString(token)
		if err != nil {
			return nil
		}
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil
	}
	if c.Name == "" && c.ID == "" {
		return nil
	}
	return &c
}

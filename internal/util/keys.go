package util

import (
	"strings"

	"github.com/google/uuid"
)

// EntryKey returns the provider key of one cache entry: "<prefix>:<id>:<key>".
// The ID has fixed width, so the key part may contain ':' without ambiguity.
func EntryKey(prefix string, id uuid.UUID, key string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 1 + 36 + 1 + len(key))
	b.WriteString(prefix)
	b.WriteByte(':')
	b.WriteString(id.String())
	b.WriteByte(':')
	b.WriteString(key)
	return b.String()
}

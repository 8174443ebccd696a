package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint is a stable hash over an article set: the sorted
// "url|title" lines, SHA-256, first 16 hex characters. Order of the
// input slice does not matter.
func Fingerprint(articles []Article) string {
	lines := make([]string, 0, len(articles))
	for _, a := range articles {
		lines = append(lines, a.URL+"|"+a.Title)
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])[:16]
}

package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/matsen/papermem/internal/paper"
	"github.com/matsen/papermem/internal/source"
)

// lengthClassWidth is the number of runes per title length class.
const lengthClassWidth = 8

// minFuzzyTitleLen is the shortest normalized title considered for fuzzy
// merging. Shorter titles ("Introduction", "Editorial") are too generic.
const minFuzzyTitleLen = 12

// urlFingerprint returns the exact-lookup key of a URL, or "" if the URL
// cannot identify a paper.
func urlFingerprint(u string) string {
	n := source.Normalize(u)
	if n == "" || n == source.PlaceholderURL {
		return ""
	}
	n = strings.TrimPrefix(n, "https://")
	n = strings.TrimPrefix(n, "www.")
	sum := sha256.Sum256([]byte(n))
	return hex.EncodeToString(sum[:16])
}

// titleKey is the normalized title and its coarse fingerprint.
type titleKey struct {
	normalized string
	runes      int
	class      int
}

// titleFingerprint returns the title key, or ok=false when the title is too
// short to take part in fuzzy matching.
func titleFingerprint(title string) (titleKey, bool) {
	n := paper.NormalizeTitle(title)
	runes := utf8.RuneCountInString(n)
	if runes < minFuzzyTitleLen {
		return titleKey{}, false
	}
	return titleKey{normalized: n, runes: runes, class: runes / lengthClassWidth}, true
}

// neighbourClasses returns the length classes that can hold a title within
// threshold edits of a title in class c.
func neighbourClasses(c, threshold int) []int {
	span := (threshold + lengthClassWidth - 1) / lengthClassWidth
	classes := make([]int, 0, 2*span+1)
	for k := c - span; k <= c+span; k++ {
		if k >= 0 {
			classes = append(classes, k)
		}
	}
	return classes
}

// recordURLs returns every URL that identifies the record.
func recordURLs(r *paper.Record) []string {
	urls := make([]string, 0, 2+len(r.Aliases))
	urls = append(urls, r.DocumentURL, r.LandingURL)
	return append(urls, r.Aliases...)
}

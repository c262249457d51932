package frtext

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize standardizes a project or beneficiary name for matching:
// lowercase, accents folded, non-alphanumerics replaced by spaces, runs of
// whitespace collapsed.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(foldAccents, name); err == nil {
		name = folded
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Keywords returns up to max significant words (longer than minLen) from a
// normalized name, ordered by length descending so the most distinctive
// words are compared first.
func Keywords(normalized string, max, minLen int) []string {
	words := strings.Fields(normalized)
	sig := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > minLen {
			sig = append(sig, w)
		}
	}
	// Stable selection sort by length; the lists are tiny.
	for i := 0; i < len(sig); i++ {
		for j := i + 1; j < len(sig); j++ {
			if len(sig[j]) > len(sig[i]) {
				sig[i], sig[j] = sig[j], sig[i]
			}
		}
	}
	if len(sig) > max {
		sig = sig[:max]
	}
	return sig
}

package frtext

import (
	"regexp"
	"strconv"
	"strings"
)

// FuncCodeRe matches chapter-function references in page headers, e.g.
// "93-020", "90-10", "93-0341". Group 1 is the chapter, group 2 the
// function sub-code.
var FuncCodeRe = regexp.MustCompile(`(\d{2,3})-(\d{2,4})`)

// NatureLineRe matches the start of a ventilated data line (3-digit nature
// code followed by a space).
var NatureLineRe = regexp.MustCompile(`^(\d{3})\s`)

// NatureLineWideRe matches non-ventilated data lines, whose nature codes run
// 3 to 7 digits ("739", "66111", "7391118").
var NatureLineWideRe = regexp.MustCompile(`^(\d{3,7})\s`)

// ChapterRefRe matches "Présentation croisée" chapter references such as
// "A1.900" or "A2.930-5".
var ChapterRefRe = regexp.MustCompile(`(A[12]\.\d{3}(?:-\d)?)`)

// ChapterHeadingRe extracts "CHAPITRE 940 – Impositions directes" headings.
var ChapterHeadingRe = regexp.MustCompile(`(?i)CHAPITRE\s+(\d{3})\s*[–\-]\s*(.+)`)

// FunctionHeadingRe extracts "FONCTION 0 – Services généraux" headings.
var FunctionHeadingRe = regexp.MustCompile(`(?i)FONCTION\s+\S+\s*[–\-]\s*(.+)`)

var suiteSuffixRe = regexp.MustCompile(`(?i)\s*\(suite\s*\d*\)\s*$`)

// StripSuite removes trailing "(suite N)" continuation markers from a
// chapter label.
func StripSuite(label string) string {
	return strings.TrimSpace(suiteSuffixRe.ReplaceAllString(label, ""))
}

// LeafCodes filters header codes down to leaf-level data columns.
// A code that is a strict prefix of another code on the same page is a group
// header, not a column, and is dropped. Order of first appearance is kept.
func LeafCodes(codes []string) []string {
	leaves := make([]string, 0, len(codes))
	for _, code := range codes {
		group := false
		for _, other := range codes {
			if other != code && strings.HasPrefix(other, code) {
				group = true
				break
			}
		}
		if !group {
			leaves = append(leaves, code)
		}
	}
	return leaves
}

// FuncSubCodes extracts the ordered, de-duplicated function sub-codes from
// header text ("93-020" → "020").
func FuncSubCodes(header string) []string {
	var seen []string
	for _, m := range FuncCodeRe.FindAllStringSubmatch(header, -1) {
		sub := m[2]
		dup := false
		for _, s := range seen {
			if s == sub {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, sub)
		}
	}
	return seen
}

// arrondissement patterns, tried in order: "(12e)" / "(1er)", "12ème arr",
// postal code "75012".
var arrondissementRes = []*regexp.Regexp{
	regexp.MustCompile(`\((\d{1,2})(?:e|ème|er|eme|E|EME)\)`),
	regexp.MustCompile(`(?i)\b(\d{1,2})(?:e|ème|er|eme)\s*arr`),
	regexp.MustCompile(`\b75(0\d{2})\b`),
}

// Arrondissement extracts a Paris arrondissement (1-20) from free text.
// Returns 0 when none is found.
func Arrondissement(text string) int {
	for i, re := range arrondissementRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if i == 2 {
			// Postal form: 75012 → 12.
			n = n % 100
		}
		if n >= 1 && n <= 20 {
			return n
		}
	}
	return 0
}

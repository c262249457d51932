// Package frtext parses French-formatted fiscal text: amounts with space
// thousands separators, public-accounting code families, and the address and
// arrondissement patterns found in Paris project names.
package frtext

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// AmountRe matches French-formatted amounts: "1 234 567,89".
// The lookaround-free form relies on FindAllString over whole tokens; group 1
// is the full amount including thousands separators.
var AmountRe = regexp.MustCompile(`(?:\d{1,3}(?:[\x{00a0}\x{202f} ]\d{3})*),\d{2}`)

var digitRun = regexp.MustCompile(`\d`)

// ParseAmount parses a French decimal amount ("8 898 000,00" → 8898000.0).
// Returns ok=false on malformed input; it never panics. The result is always
// non-negative; sign is carried by flow direction, not the number.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(" ", "", " ", "", " ", "").Replace(s)
	// Exactly one decimal comma, converted to a point.
	if strings.Count(s, ",") > 1 {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return math.Abs(v), true
}

// Amounts returns every amount-shaped token on a line, left to right.
// Boundary digits are rejected so "12345,67" inside a longer digit run does
// not produce a phantom amount.
func Amounts(line string) []string {
	locs := AmountRe.FindAllStringIndex(line, -1)
	out := make([]string, 0, len(locs))
	for _, loc := range locs {
		if loc[0] > 0 && digitRun.MatchString(line[loc[0]-1:loc[0]]) {
			continue
		}
		if loc[1] < len(line) && digitRun.MatchString(line[loc[1]:loc[1]+1]) {
			continue
		}
		out = append(out, line[loc[0]:loc[1]])
	}
	return out
}

// FirstAmountIndex returns the byte offset of the first amount token on the
// line, or -1 when none is present. Used to split a data line into label and
// amount columns.
func FirstAmountIndex(line string) int {
	for _, loc := range AmountRe.FindAllStringIndex(line, -1) {
		if loc[0] > 0 && digitRun.MatchString(line[loc[0]-1:loc[0]]) {
			continue
		}
		if loc[1] < len(line) && digitRun.MatchString(line[loc[1]:loc[1]+1]) {
			continue
		}
		return loc[0]
	}
	return -1
}

package budget

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/paris-open-data/budget-cli/internal/frtext"
)

// DefaultTotalTolerance is the allowed gap, in euros, between the sum of
// extracted page amounts and the printed page total before a warning is
// raised. Rounding differences in the source accumulate across columns.
const DefaultTotalTolerance = 100.0

var (
	depensesRe     = regexp.MustCompile(`^D[EÉ]PENSES`)
	recettesRe     = regexp.MustCompile(`^RECETTES`)
	totalGeneralRe = regexp.MustCompile(`(?i)^TOTAL\s+G[EÉ]N[EÉ]RAL`)
	trailingTRe    = regexp.MustCompile(`\bT$`)
)

// headerInfo is the column layout detected on one ventilated page.
type headerInfo struct {
	funcCodes []string
	hasTotal  bool
}

// parseHeader reads the column layout from the header area of a page:
// the leaf-level function sub-codes, in order of first appearance, and
// whether a TOTAL DU CHAPITRE column is present. The TOTAL phrase is
// often split across PDF lines, so detection is deliberately loose and
// later confirmed against the data rows.
func parseHeader(text string) headerInfo {
	lines := strings.Split(text, "\n")
	if len(lines) > 20 {
		lines = lines[:20]
	}

	var joined strings.Builder
	for _, l := range lines {
		joined.WriteString(strings.TrimSpace(l))
		joined.WriteString(" ")
	}
	upper := strings.ToUpper(joined.String())
	hasTotal := strings.Contains(upper, "TOTAL DU CHAPITRE") ||
		strings.Contains(upper, "TOTAL DU")

	if !hasTotal {
		// Fragmented header: a line ending in a bare "T" with "CHAPITRE"
		// within the next three lines.
		limit := min(len(lines), 18)
		for i := 0; i < limit && !hasTotal; i++ {
			if !trailingTRe.MatchString(strings.TrimSpace(lines[i])) {
				continue
			}
			for j := i + 1; j < min(i+4, len(lines)); j++ {
				if strings.Contains(strings.ToUpper(lines[j]), "CHAPITRE") {
					hasTotal = true
					break
				}
			}
		}
	}

	var codes []string
	for _, l := range lines {
		codes = append(codes, frtext.FuncSubCodes(l)...)
	}
	return headerInfo{funcCodes: frtext.LeafCodes(dedup(codes)), hasTotal: hasTotal}
}

// confirmTotalColumn is the data-driven fallback for TOTAL detection: if
// the first direction marker or nature line carries exactly one amount
// more than there are function columns, the extra one is the total.
func confirmTotalColumn(text string, nFuncs int) bool {
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if !depensesRe.MatchString(s) && !recettesRe.MatchString(s) &&
			!frtext.NatureLineRe.MatchString(s) {
			continue
		}
		return len(frtext.Amounts(s)) == nFuncs+1
	}
	return false
}

// ExtractPage parses one ventilated page. prevSens carries the flow
// direction across continuation pages; the returned sens feeds the next
// page. Lines that match no expected pattern are skipped silently.
func ExtractPage(text string, ctx PageContext, annee int, pdfName string, prevSens string) ([]Line, string) {
	if text == "" {
		return nil, prevSens
	}

	header := parseHeader(text)
	nFuncs := len(header.funcCodes)
	if nFuncs == 0 {
		return nil, prevSens
	}
	if !header.hasTotal {
		header.hasTotal = confirmTotalColumn(text, nFuncs)
	}

	sens := ""
	if ctx.IsContinuation {
		sens = prevSens
	}

	var out []Line
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if depensesRe.MatchString(line) {
			sens = SensDepense
			continue
		}
		if recettesRe.MatchString(line) {
			sens = SensRecette
			continue
		}

		m := frtext.NatureLineRe.FindStringSubmatch(line)
		if m == nil || sens == "" {
			continue
		}
		natureCode := m[1]
		natureLibelle := natureLabel(line, natureCode)

		amounts := frtext.Amounts(line)

		// Column assignment. Amounts run left to right matching the
		// function columns; a TOTAL column sits last; extra amounts come
		// from the label text and sit before the data columns.
		var colAmounts []string
		var offset int
		switch {
		case header.hasTotal && len(amounts) >= nFuncs+1:
			colAmounts = amounts[:nFuncs]
		case header.hasTotal && len(amounts) == nFuncs:
			colAmounts = amounts
		case len(amounts) > nFuncs:
			colAmounts = amounts[len(amounts)-nFuncs:]
		case len(amounts) == nFuncs:
			colAmounts = amounts
		default:
			// Short line: right-align best effort.
			colAmounts = amounts
			offset = nFuncs - len(amounts)
		}

		for i, s := range colAmounts {
			idx := offset + i
			if idx >= nFuncs {
				break
			}
			val, ok := frtext.ParseAmount(s)
			if !ok || val <= 0 {
				continue
			}
			out = append(out, Line{
				Annee:           annee,
				Section:         ctx.Section,
				SensFlux:        sens,
				ChapitreCode:    ctx.ChapitreCode,
				ChapitreLibelle: ctx.ChapitreLibelle,
				NatureCode:      natureCode,
				NatureLibelle:   natureLibelle,
				FonctionCode:    header.funcCodes[idx],
				Montant:         val,
				SourcePage:      ctx.PageIdx + 1,
				SourcePDF:       pdfName,
			})
		}
	}
	return out, sens
}

// natureLabel is the text between the nature code and the first amount.
func natureLabel(line, natureCode string) string {
	rest := strings.TrimSpace(line[len(natureCode):])
	if i := frtext.FirstAmountIndex(rest); i >= 0 {
		return strings.TrimSpace(rest[:i])
	}
	return rest
}

// checkPageTotal compares the sum of extracted amounts on a page against
// the printed "TOTAL GENERAL" line when one exists. A gap beyond the
// tolerance is worth a human look but never aborts extraction.
func checkPageTotal(text string, lines []Line, pageIdx int, tolerance float64) *Warning {
	var printed float64
	found := false
	for _, raw := range strings.Split(text, "\n") {
		s := strings.TrimSpace(raw)
		if !totalGeneralRe.MatchString(s) {
			continue
		}
		amounts := frtext.Amounts(s)
		if len(amounts) == 0 {
			continue
		}
		if v, ok := frtext.ParseAmount(amounts[len(amounts)-1]); ok {
			printed = v
			found = true
		}
	}
	if !found {
		return nil
	}

	var sum float64
	for _, l := range lines {
		if l.SourcePage == pageIdx+1 {
			sum += l.Montant
		}
	}
	if math.Abs(sum-printed) <= tolerance {
		return nil
	}
	return &Warning{
		Page:    pageIdx + 1,
		Message: warnTotalMismatch(sum, printed),
	}
}

func warnTotalMismatch(extracted, printed float64) string {
	return fmt.Sprintf("extracted sum %.2f differs from printed total %.2f", extracted, printed)
}

func dedup(ss []string) []string {
	var out []string
	seen := make(map[string]bool, len(ss))
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

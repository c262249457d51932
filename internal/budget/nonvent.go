package budget

import (
	"fmt"
	"strings"

	"github.com/paris-open-data/budget-cli/internal/frtext"
)

// Non-ventilated pages have no function columns. Each nature line carries
// around five amount columns (Pour mémoire, RAR N-1, Propositions
// nouvelles, Vote assemblée, TOTAL); only the last one, the TOTAL, is
// kept.

// nonVentHeaderOrder checks that the header actually names TOTAL as the
// last column. The last-amount rule silently breaks if the editique
// layout ever moves the column, so a misplaced header is reported.
func nonVentHeaderOrder(text string) *Warning {
	lines := strings.Split(text, "\n")
	if len(lines) > 25 {
		lines = lines[:25]
	}
	for i, raw := range lines {
		upper := strings.ToUpper(raw)
		idx := strings.Index(upper, "TOTAL")
		if idx < 0 {
			continue
		}
		// TOTAL must be the rightmost header word on its line. Column
		// arithmetic annotations like "(V = III + IV)" are fine.
		rest := strings.TrimSpace(upper[idx+len("TOTAL"):])
		rest = strings.Map(func(r rune) rune {
			if strings.ContainsRune("()=+-IVX0123456789. ", r) {
				return -1
			}
			return r
		}, rest)
		if rest == "" {
			return nil
		}
		return &Warning{
			Page:    0, // filled by caller
			Message: fmt.Sprintf("header line %d names columns after TOTAL, last-amount rule may be wrong", i+1),
		}
	}
	// No TOTAL header found at all: the rule still applies but blind.
	return nil
}

// ExtractNonVentilated parses one non-ventilated operations page. The
// running flow direction starts unset and flips on DEPENSES / RECETTES
// markers; nature lines before the first marker are skipped.
func ExtractNonVentilated(text string, ctx NonVentContext, annee int, pdfName string) ([]Line, []Warning) {
	if text == "" {
		return nil, nil
	}

	var warnings []Warning
	if w := nonVentHeaderOrder(text); w != nil {
		w.Page = ctx.PageIdx + 1
		warnings = append(warnings, *w)
	}

	var out []Line
	sens := ""

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
		if sens == "" {
			continue
		}

		m := frtext.NatureLineWideRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		natureCode := m[1]

		amounts := frtext.Amounts(line)
		if len(amounts) == 0 {
			continue
		}
		val, ok := frtext.ParseAmount(amounts[len(amounts)-1])
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
			NatureLibelle:   natureLabel(line, natureCode),
			Montant:         val,
			SourcePage:      ctx.PageIdx + 1,
			SourcePDF:       pdfName,
		})
	}
	return out, warnings
}

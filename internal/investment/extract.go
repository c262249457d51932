package investment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The annex alternates two page layouts: summary pages ("Présentation
// par type d'AP", chapter totals, skipped to avoid double counting when
// a detail section exists) and detail pages ("Principales opérations",
// one project per line or with the name on the preceding line).

var (
	arrTitleRe = regexp.MustCompile(`(?i)(\d{1,2})[eè]me\s+ARRONDISSEMENT`)

	// Looser than the budget-vote amount pattern: the annex mixes
	// "1 234 567,89" and "1234567.89" styles.
	ilAmountRe = regexp.MustCompile(`([\d\s]+(?:[\d\s]*)[,.]\d{2})`)

	totalGeneralILRe = regexp.MustCompile(`(?i)Total\s+g[eé]n[eé]ral\s*\n?\s*([\d\s]+(?:[\d\s]*)[,.]\d{2})`)

	hasAmountRe = regexp.MustCompile(`\d[\d\s]{2,}\d[,.]\d{2}`)

	dotLeaderRe = regexp.MustCompile(`[.]{2,}`)
	spaceRunRe  = regexp.MustCompile(`\s+`)
)

var ilDataRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Entretien,?\s*r[eé]parations`),
	regexp.MustCompile(`(?i)Grands\s+projets`),
	regexp.MustCompile(`(?i)Budget\s+participatif`),
	regexp.MustCompile(`(?i)Affaires\s+Scolaires`),
	regexp.MustCompile(`(?i)Affaires\s+Culturelles`),
	regexp.MustCompile(`(?i)Voirie\s+et\s+d[eé]placements`),
	regexp.MustCompile(`(?i)Jeunesse\s+et\s+Sports`),
	regexp.MustCompile(`(?i)Total\s+(g[eé]n[eé]ral|Entretien|Grands)`),
}

var ilDirections = []string{
	"Affaires Scolaires", "Affaires Culturelles", "Voirie",
	"Jeunesse et Sports", "Environnement", "Famille",
	"Décentralisation",
}

// amountTolerance is the allowed gap between the page's summed projects
// and its printed general total.
const amountTolerance = 100.0

// IdentifyILPages returns the 0-based indexes of pages carrying localized
// investment data: a data-section marker plus at least one amount.
func IdentifyILPages(pages []string) []int {
	var out []int
	for i, text := range pages {
		if len(text) < 200 {
			continue
		}
		hasData := false
		for _, re := range ilDataRes {
			if re.MatchString(text) {
				hasData = true
				break
			}
		}
		if hasData && hasAmountRe.MatchString(text) {
			out = append(out, i)
		}
	}
	return out
}

// pageArrondissement reads the arrondissement from the page title.
// Paris Centre pages (merged 1st-4th) map to 0.
func pageArrondissement(text string) int {
	if m := arrTitleRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 20 {
			return n
		}
	}
	return 0
}

var amountCleaner = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ",", ".")

func parseILAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(amountCleaner.Replace(strings.TrimSpace(s)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractPage parses one annex page. pageNum is 1-indexed.
func ExtractPage(text string, pageNum, year int, pdfName string) PageResult {
	res := PageResult{
		PageNum:        pageNum,
		Arrondissement: pageArrondissement(text),
	}
	if text == "" {
		return res
	}

	isSummary := strings.Contains(text, "Présentation par type") || strings.Contains(text, "Type AP")
	isDetail := strings.Contains(text, "Principales opérations")

	switch {
	case isSummary && !isDetail:
		// Summary-only page: keep the printed total as a reference but
		// extract no projects, the detail pages carry the same amounts.
		if m := totalGeneralILRe.FindStringSubmatch(text); m != nil {
			if v, ok := parseILAmount(m[1]); ok {
				res.TotalPage = v
			}
		}
		res.Confidence = 0.9
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("summary page skipped (total=%.0f)", res.TotalPage))
		return res

	case isSummary:
		res.Projects = extractSummaryLines(text, pageNum, year, pdfName, res.Arrondissement)
		res.Confidence = 0.8

	case isDetail:
		res.Projects = extractDetailLines(text, pageNum, year, pdfName, res.Arrondissement)
		res.Confidence = 0.7

	default:
		res.Warnings = append(res.Warnings, "unrecognized page layout")
	}

	for _, p := range res.Projects {
		res.TotalPage += p.Montant
	}

	// Cross-check against the printed total when the page has one.
	if m := totalGeneralILRe.FindStringSubmatch(text); m != nil {
		if expected, ok := parseILAmount(m[1]); ok {
			if diff := res.TotalPage - expected; diff > amountTolerance || diff < -amountTolerance {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("total mismatch: extracted=%.0f expected=%.0f", res.TotalPage, expected))
			}
		}
	}
	return res
}

// extractSummaryLines reads chapter-level totals from a combined
// summary+detail page: name before the amount or on the previous line.
func extractSummaryLines(text string, pageNum, year int, pdfName string, arr int) []Project {
	var out []Project
	currentType := TypeAutre
	prev := ""

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		currentType = detectTypeAP(line, currentType, false)

		if m := ilAmountRe.FindStringSubmatchIndex(line); m != nil {
			amount, ok := parseILAmount(line[m[2]:m[3]])
			name := prev
			if before := strings.TrimSpace(line[:m[2]]); len(before) > 5 {
				name = before
			}
			if ok && amount > 0 && len(name) > 5 && !containsSkipWord(name, summarySkipWords, true) {
				out = append(out, Project{
					ID:              pageID(year, arr, pageNum, len(out)),
					Annee:           year,
					Arrondissement:  arr,
					ChapitreLibelle: name,
					NomProjet:       name,
					Montant:         amount,
					TypeAP:          currentType,
					Confidence:      0.8,
					Source:          ProvenancePDF,
					SourcePage:      pageNum,
					SourcePDF:       pdfName,
				})
			}
		}
		prev = line
	}
	return out
}

// extractDetailLines reads individual projects: the name usually sits on
// the line preceding the amount, sometimes before it on the same line.
func extractDetailLines(text string, pageNum, year int, pdfName string, arr int) []Project {
	var out []Project
	currentDirection := ""
	currentType := TypeAutre
	prev := ""

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if !ilAmountRe.MatchString(line) {
			for _, d := range ilDirections {
				if strings.Contains(line, d) {
					currentDirection = d
					break
				}
			}
		}
		currentType = detectTypeAP(line, currentType, true)

		if m := ilAmountRe.FindStringSubmatchIndex(line); m != nil {
			amount, ok := parseILAmount(line[m[2]:m[3]])
			name := prev
			if before := strings.TrimSpace(line[:m[2]]); len(before) > 10 {
				name = before
			}
			name = strings.TrimSpace(dotLeaderRe.ReplaceAllString(name, ""))
			name = spaceRunRe.ReplaceAllString(name, " ")

			if ok && amount > 0 && len(name) > 10 && !containsSkipWord(name, detailSkipWords, false) {
				out = append(out, Project{
					ID:              pageID(year, arr, pageNum, len(out)),
					Annee:           year,
					Arrondissement:  arr,
					ChapitreLibelle: currentDirection,
					NomProjet:       name,
					Montant:         amount,
					TypeAP:          currentType,
					Confidence:      0.7,
					Source:          ProvenancePDF,
					SourcePage:      pageNum,
					SourcePDF:       pdfName,
				})
			}
		}
		prev = line
	}
	return out
}

var (
	summarySkipWords = []string{"Total", "MONTANT", "Type AP", "Chapitre"}
	detailSkipWords  = []string{"MONTANT", "Total", "Chapitre", "Type AP", "Entretien -"}
)

func containsSkipWord(name string, words []string, fold bool) bool {
	probe := name
	if fold {
		probe = strings.ToLower(name)
	}
	for _, w := range words {
		if fold {
			w = strings.ToLower(w)
		}
		if strings.Contains(probe, w) {
			return true
		}
	}
	return false
}

// detectTypeAP updates the running AP type from section heading lines.
// Detail pages qualify "Entretien" with its full heading to avoid
// matching project names.
func detectTypeAP(line, current string, detail bool) string {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(line, "Entretien"):
		if detail {
			if strings.Contains(lower, "réparations") || strings.Contains(lower, "aménagements") {
				return TypeEntretien
			}
			return current
		}
		if !strings.Contains(line, "Total") {
			return TypeEntretien
		}
	case strings.Contains(line, "Grands projets"):
		if detail || !strings.Contains(line, "Total") {
			return TypeGrandsProjets
		}
	case strings.Contains(line, "Budget participatif"):
		if detail || !strings.Contains(line, "Total") {
			return TypeBudgetParticipatif
		}
	}
	return current
}

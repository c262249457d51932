// Package budget extracts voted-budget lines from the editique BG PDFs.
// The documents hold two layouts: the "Présentation croisée" section
// (ventilated chapters 90x/93x with one column per function) and the
// "Opérations non ventilées" pages (fiscal chapters 92x/94x, one TOTAL
// column). Both are parsed from pdftotext layout text with regexes.
package budget

// Section names used in the source documents.
const (
	SectionInvestissement = "Investissement"
	SectionFonctionnement = "Fonctionnement"
)

// Flow direction of a budget line.
const (
	SensDepense = "Dépense"
	SensRecette = "Recette"
)

// Line is one extracted budget vote line (nature × fonction × chapitre).
type Line struct {
	Annee           int
	Section         string
	SensFlux        string
	ChapitreCode    string
	ChapitreLibelle string
	NatureCode      string
	NatureLibelle   string
	FonctionCode    string // empty for non-ventilated chapters
	Montant         float64
	SourcePage      int // 1-indexed PDF page
	SourcePDF       string
}

// PageContext carries the classification of one "Présentation croisée"
// page. Computed once per document and never mutated afterwards.
type PageContext struct {
	PageIdx         int
	IsContinuation  bool
	Section         string
	ChapitreRef     string // "A1.900", "A2.930-5"; empty on continuations
	ChapitreCode    string
	ChapitreLibelle string
}

// NonVentContext identifies one non-ventilated operations page.
type NonVentContext struct {
	PageIdx         int
	Section         string
	ChapitreCode    string
	ChapitreLibelle string
}

// Warning records a non-fatal anomaly found while extracting a page,
// surfaced in the run summary for manual review.
type Warning struct {
	Page    int // 1-indexed
	Message string
}

// Result is the outcome of extracting one document.
type Result struct {
	Lines    []Line
	Warnings []Warning
}

// Ventilated reports how many lines carry a function code.
func (r Result) Ventilated() int {
	n := 0
	for _, l := range r.Lines {
		if l.FonctionCode != "" {
			n++
		}
	}
	return n
}

// TotalAmount sums all extracted amounts.
func (r Result) TotalAmount() float64 {
	var sum float64
	for _, l := range r.Lines {
		sum += l.Montant
	}
	return sum
}

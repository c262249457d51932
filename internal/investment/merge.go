package investment

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/frtext"
	"github.com/paris-open-data/budget-cli/internal/registry"
)

// Merge statuses.
const (
	StatusMerged    = "MERGED"
	StatusNoPDFData = "NO_PDF_DATA"
)

// Reasons a warehouse project was added or skipped.
const (
	ReasonIconic         = "LIEU_ICONIQUE"
	ReasonArrondissement = "AVEC_ARRONDISSEMENT"
	ReasonTooSmall       = "MONTANT_TROP_FAIBLE"
	ReasonGenericSubsidy = "SUBVENTION_GENERIQUE"
	ReasonCitywide       = "CITYWIDE_GENERIQUE"
	ReasonAlreadyInPDF   = "DEJA_DANS_PDF"
)

// Generic subsidy envelopes carry no locatable project and are excluded
// unless the name points at an iconic venue.
var exclusionRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sub.*logement\s*soci`),
	regexp.MustCompile(`(?i)subvention.*logement`),
}

// MergeConfig tunes the PDF/warehouse merge.
type MergeConfig struct {
	// MinAmount is the floor under which warehouse projects are dropped.
	MinAmount float64
	// KeywordCount and KeywordMinLen drive the name-similarity test.
	KeywordCount  int
	KeywordMinLen int
}

// DefaultMergeConfig matches the published methodology: only warehouse
// operations of at least 500k euros supplement the annex.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{MinAmount: 500_000, KeywordCount: 3, KeywordMinLen: 3}
}

// MergeStats summarizes a merged year for the export artifact.
type MergeStats struct {
	PDFProjets          int     `json:"pdf_projets"`
	PDFTotal            float64 `json:"pdf_total"`
	WarehouseAdded      int     `json:"warehouse_added"`
	WarehouseAddedTotal float64 `json:"warehouse_added_total"`
	TotalProjets        int     `json:"total_projets"`
	TotalMontant        float64 `json:"total_montant"`
}

// MergeResult is the outcome of merging one year.
type MergeResult struct {
	Year        int
	Status      string
	Projects    []Project
	Stats       MergeStats
	SkipReasons map[string]int
}

// AggregateByName collapses line-grained records into one project per
// name, summing amounts. Arrondissement and theme keep the first
// non-empty value seen; first-occurrence order is preserved.
func AggregateByName(lines []Project) []Project {
	byName := make(map[string]int, len(lines))
	out := make([]Project, 0, len(lines))
	for _, l := range lines {
		if i, ok := byName[l.NomProjet]; ok {
			out[i].Montant += l.Montant
			if out[i].Arrondissement == 0 && l.Arrondissement != 0 {
				out[i].Arrondissement = l.Arrondissement
			}
			if out[i].Thematique == "" {
				out[i].Thematique = l.Thematique
			}
			continue
		}
		byName[l.NomProjet] = len(out)
		out = append(out, l)
	}
	return out
}

// Merge combines the year's PDF annex projects with warehouse records.
// The annex is the primary source; warehouse projects supplement it when
// they are large enough, locatable, and not already covered. Without any
// PDF data the merge is skipped wholesale.
func Merge(pdf, warehouse []Project, year int, cfg MergeConfig) MergeResult {
	res := MergeResult{
		Year:        year,
		Status:      StatusMerged,
		SkipReasons: make(map[string]int),
	}
	if len(pdf) == 0 {
		res.Status = StatusNoPDFData
		zap.L().Warn("no annex projects for year, merge skipped", zap.Int("year", year))
		return res
	}

	res.Projects = append(res.Projects, pdf...)
	for _, p := range pdf {
		res.Stats.PDFTotal += p.Montant
	}
	res.Stats.PDFProjets = len(pdf)

	pdfNames := make([]string, len(pdf))
	for i, p := range pdf {
		pdfNames[i] = frtext.Normalize(p.NomProjet)
	}

	for _, w := range warehouse {
		if coveredByPDF(w.NomProjet, pdfNames, cfg) {
			res.SkipReasons[ReasonAlreadyInPDF]++
			continue
		}
		reason, ok := admit(w, cfg)
		if !ok {
			res.SkipReasons[reason]++
			continue
		}

		w.ID = uuid.NewString()
		w.Annee = year
		w.TypeAP = TypeGrandsProjets
		w.Confidence = 0.9
		w.Source = ProvenanceWarehouse
		w.MergeReason = reason
		res.Projects = append(res.Projects, w)
		res.Stats.WarehouseAdded++
		res.Stats.WarehouseAddedTotal += w.Montant
	}

	res.Stats.TotalProjets = len(res.Projects)
	res.Stats.TotalMontant = res.Stats.PDFTotal + res.Stats.WarehouseAddedTotal

	zap.L().Info("merged year",
		zap.Int("year", year),
		zap.Int("pdf", res.Stats.PDFProjets),
		zap.Int("warehouse_added", res.Stats.WarehouseAdded),
		zap.Float64("total", res.Stats.TotalMontant))
	return res
}

// coveredByPDF reports whether a warehouse project name matches one of
// the normalized annex names: its most distinctive keywords must all
// appear in the same annex name.
func coveredByPDF(name string, pdfNames []string, cfg MergeConfig) bool {
	kws := frtext.Keywords(frtext.Normalize(name), cfg.KeywordCount, cfg.KeywordMinLen)
	if len(kws) == 0 {
		return false
	}
	for _, pdfName := range pdfNames {
		all := true
		for _, kw := range kws {
			if !strings.Contains(pdfName, kw) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// admit decides whether a warehouse project joins the merged set and
// with which reason; the second return is false for a skip, with the
// skip reason as first return.
func admit(p Project, cfg MergeConfig) (string, bool) {
	if p.Montant < cfg.MinAmount {
		return ReasonTooSmall, false
	}
	iconic := registry.IsIconic(p.NomProjet)
	if !iconic {
		for _, re := range exclusionRes {
			if re.MatchString(p.NomProjet) {
				return ReasonGenericSubsidy, false
			}
		}
	}
	if iconic {
		return ReasonIconic, true
	}
	if p.Arrondissement > 0 {
		return ReasonArrondissement, true
	}
	return ReasonCitywide, false
}

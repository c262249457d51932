// Package investment builds the deduplicated set of localized investment
// projects from two sources: the "Investissements Localisés" annex PDFs
// (primary, detailed project names with addresses) and the tabular
// warehouse (complement, large iconic projects missing from the annex).
package investment

import "fmt"

// Provenance of a project record.
const (
	ProvenancePDF       = "PDF"
	ProvenanceWarehouse = "Warehouse"
)

// AP (autorisation de programme) types found in the annex.
const (
	TypeEntretien          = "entretien"
	TypeGrandsProjets      = "grands_projets"
	TypeBudgetParticipatif = "budget_participatif"
	TypeAutre              = "autre"
)

// Project is one investment record, pre- or post-merge.
type Project struct {
	ID              string  `json:"id"`
	Annee           int     `json:"annee"`
	Arrondissement  int     `json:"arrondissement"` // 0 = unknown or citywide
	ChapitreCode    string  `json:"chapitre_code"`
	ChapitreLibelle string  `json:"chapitre_libelle"`
	NomProjet       string  `json:"nom_projet"`
	Montant         float64 `json:"montant"`
	TypeAP          string  `json:"type_ap"`
	Thematique      string  `json:"thematique,omitempty"`
	Confidence      float64 `json:"confidence"`
	Source          string  `json:"source"`
	MergeReason     string  `json:"reason,omitempty"`
	SourcePage      int     `json:"source_page,omitempty"`
	SourcePDF       string  `json:"source_pdf,omitempty"`

	// Geocoding, populated later by the cascade.
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	GeoScore float64 `json:"geo_score"`
	GeoTier  string  `json:"geo_source"`
	GeoLabel string  `json:"geo_label,omitempty"`
}

// pageID builds the deterministic identifier for a PDF-extracted project.
func pageID(year, arrondissement, page, seq int) string {
	return fmt.Sprintf("%d_%02d_%d_%03d", year, arrondissement, page, seq)
}

// PageResult is the extraction outcome for one annex page.
type PageResult struct {
	PageNum        int // 1-indexed
	Arrondissement int // 0 = none detected (or Paris Centre)
	Projects       []Project
	TotalPage      float64
	Confidence     float64
	Warnings       []string
}

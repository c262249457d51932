// Package geocode resolves investment project names to coordinates using
// a tiered cascade: curated known places, the BAN national address API,
// LLM-assisted address extraction, and arrondissement centroids.
package geocode

import "context"

// Tier identifies which cascade stage produced a result. Tiers are listed
// in decreasing precision order.
type Tier string

const (
	TierLieuConnu Tier = "lieu_connu"
	TierAPINumero Tier = "api_numero"
	TierAPIRue    Tier = "api_rue"
	TierAPILieu   Tier = "api_lieu"
	TierLLMBan    Tier = "llm_ban"
	TierCentroid  Tier = "centroid"
	TierNone      Tier = "none"
)

// Result is the outcome of geocoding one project name.
type Result struct {
	Lat            float64
	Lon            float64
	Score          float64
	Tier           Tier
	Label          string
	Arrondissement int
}

// Matched reports whether the cascade produced usable coordinates.
func (r Result) Matched() bool { return r.Tier != TierNone && r.Tier != "" }

// Searcher queries an address API for a free-text query scoped to an
// arrondissement (0 when unknown).
type Searcher interface {
	Search(ctx context.Context, query string, arrondissement int) (*Hit, error)
}

// Hit is a single address API match.
type Hit struct {
	Lat   float64
	Lon   float64
	Score float64
	Label string
}

// AddressExtractor pulls an address or place name out of a project name
// when regex extraction found nothing. Implementations return ok=false
// when no confident address exists.
type AddressExtractor interface {
	ExtractAddress(ctx context.Context, projectName string, arrondissement int) (address string, confidence float64, ok bool, err error)
}

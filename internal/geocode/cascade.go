package geocode

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paris-open-data/budget-cli/internal/frtext"
	"github.com/paris-open-data/budget-cli/internal/registry"
	"github.com/paris-open-data/budget-cli/internal/store"
)

// Cascader runs the tiered geocoding cascade. Stages are tried in order
// of decreasing precision and the first acceptable result wins, so the
// confidence score never increases as the cascade falls through.
type Cascader struct {
	places        *registry.Registry
	searcher      Searcher
	extractor     AddressExtractor
	cache         store.Store
	addressFloor  float64
	placeFloor    float64
	minConfidence float64
}

// CascadeOption configures a Cascader.
type CascadeOption func(*Cascader)

// WithAddressExtractor enables the LLM-assisted tier. Without it the
// cascade falls from api_lieu straight to the centroid.
func WithAddressExtractor(e AddressExtractor) CascadeOption {
	return func(c *Cascader) { c.extractor = e }
}

// WithCache enables persistent caching of API lookups, including misses.
func WithCache(s store.Store) CascadeOption {
	return func(c *Cascader) { c.cache = s }
}

// WithScoreFloors overrides the acceptance thresholds for address and
// place lookups.
func WithScoreFloors(address, place float64) CascadeOption {
	return func(c *Cascader) {
		c.addressFloor = address
		c.placeFloor = place
	}
}

// WithMinConfidence sets the minimum LLM extraction confidence.
func WithMinConfidence(min float64) CascadeOption {
	return func(c *Cascader) { c.minConfidence = min }
}

// NewCascader builds a cascade over the known-places registry and an
// address API.
func NewCascader(places *registry.Registry, searcher Searcher, opts ...CascadeOption) *Cascader {
	c := &Cascader{
		places:        places,
		searcher:      searcher,
		addressFloor:  0.4,
		placeFloor:    0.3,
		minConfidence: 0.85,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode resolves a project name. The arrondissement argument is the
// one already attached to the project, 0 when unknown; the name itself
// is scanned when it is missing. Geocode never fails the pipeline: API
// errors degrade to the next tier.
func (c *Cascader) Geocode(ctx context.Context, projectName string, arrondissement int) (Result, error) {
	arr := arrondissement
	if arr == 0 {
		arr = frtext.Arrondissement(projectName)
	}

	// Known places beat everything.
	if place, ok := c.places.Match(projectName); ok {
		resultArr := arr
		if resultArr == 0 {
			resultArr = place.Arrondissement
		}
		return Result{
			Lat:            place.Lat,
			Lon:            place.Lon,
			Score:          1.0,
			Tier:           TierLieuConnu,
			Label:          place.Adresse,
			Arrondissement: resultArr,
		}, nil
	}

	// Numbered or bare street address pulled out of the name.
	if addr, kind, ok := frtext.ExtractAddress(projectName); ok {
		hit, err := c.search(ctx, addr, arr)
		if err != nil {
			zap.L().Warn("geocode: address lookup failed",
				zap.String("query", addr), zap.Error(err))
		} else if hit != nil && hit.Score > c.addressFloor {
			tier := TierAPIRue
			if kind == frtext.AddressNumbered {
				tier = TierAPINumero
			}
			return Result{
				Lat:            hit.Lat,
				Lon:            hit.Lon,
				Score:          hit.Score,
				Tier:           tier,
				Label:          hit.Label,
				Arrondissement: arr,
			}, nil
		}
	}

	// Named facility (piscine, gymnase, ...).
	if place, ok := frtext.ExtractPlace(projectName); ok {
		hit, err := c.search(ctx, place, arr)
		if err != nil {
			zap.L().Warn("geocode: place lookup failed",
				zap.String("query", place), zap.Error(err))
		} else if hit != nil && hit.Score > c.placeFloor {
			return Result{
				Lat:            hit.Lat,
				Lon:            hit.Lon,
				Score:          hit.Score,
				Tier:           TierAPILieu,
				Label:          hit.Label,
				Arrondissement: arr,
			}, nil
		}
	}

	// LLM extraction, double-validated against the address API. The
	// final score is the weaker of the two signals.
	if c.extractor != nil {
		if r, ok := c.llmTier(ctx, projectName, arr); ok {
			return r, nil
		}
	}

	if coord, ok := registry.Centroid(arr); ok {
		return Result{
			Lat:            coord.Lat,
			Lon:            coord.Lon,
			Score:          0.1,
			Tier:           TierCentroid,
			Label:          fmt.Sprintf("Arrondissement %d", arr),
			Arrondissement: arr,
		}, nil
	}

	return Result{Tier: TierNone, Arrondissement: arr}, nil
}

func (c *Cascader) llmTier(ctx context.Context, projectName string, arr int) (Result, bool) {
	addr, confidence, ok, err := c.extractor.ExtractAddress(ctx, projectName, arr)
	if err != nil {
		zap.L().Warn("geocode: llm extraction failed",
			zap.String("project", projectName), zap.Error(err))
		return Result{}, false
	}
	if !ok || confidence < c.minConfidence {
		return Result{}, false
	}

	hit, err := c.search(ctx, addr, arr)
	if err != nil {
		zap.L().Warn("geocode: llm validation lookup failed",
			zap.String("query", addr), zap.Error(err))
		return Result{}, false
	}
	if hit == nil || hit.Score <= c.addressFloor {
		return Result{}, false
	}

	score := confidence
	if hit.Score < score {
		score = hit.Score
	}
	return Result{
		Lat:            hit.Lat,
		Lon:            hit.Lon,
		Score:          score,
		Tier:           TierLLMBan,
		Label:          hit.Label,
		Arrondissement: arr,
	}, true
}

// search wraps the API with the persistent cache. Misses are cached too
// so repeated runs skip dead queries. Keys are normalized so accent or
// case variants of one query share an entry.
func (c *Cascader) search(ctx context.Context, query string, arr int) (*Hit, error) {
	key := fmt.Sprintf("%s|%d", frtext.Normalize(query), arr)

	if c.cache != nil {
		entry, err := c.cache.GetGeo(ctx, key)
		if err != nil {
			zap.L().Warn("geocode: cache read failed", zap.String("key", key), zap.Error(err))
		} else if entry != nil {
			if !entry.Matched {
				return nil, nil
			}
			return &Hit{Lat: entry.Lat, Lon: entry.Lon, Score: entry.Score, Label: entry.Label}, nil
		}
	}

	hit, err := c.searcher.Search(ctx, query, arr)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		entry := store.GeoEntry{QueryKey: key}
		if hit != nil {
			entry.Matched = true
			entry.Lat = hit.Lat
			entry.Lon = hit.Lon
			entry.Score = hit.Score
			entry.Label = hit.Label
		}
		if err := c.cache.PutGeo(ctx, entry); err != nil {
			zap.L().Warn("geocode: cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return hit, nil
}

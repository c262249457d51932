// Package store persists the geocode and thematic-classification caches
// between runs. Both caches are read-mostly, appended during a run, and
// shared by query key so identical text never triggers a second external
// call.
package store

import (
	"context"
	"time"
)

// GeoEntry is one cached geocode lookup. Matched=false entries are real
// cache hits: a confirmed not-found must not be re-queried.
type GeoEntry struct {
	QueryKey string
	Matched  bool
	Lat      float64
	Lon      float64
	Score    float64
	Tier     string
	Label    string
	CachedAt time.Time
}

// ThemeEntry is one cached beneficiary classification.
type ThemeEntry struct {
	Beneficiary  string
	Theme        string
	SubCategory  string
	Confidence   float64
	ClassifiedAt time.Time
}

// Store is the persistence interface for run caches.
type Store interface {
	Migrate(ctx context.Context) error

	GetGeo(ctx context.Context, queryKey string) (*GeoEntry, error)
	PutGeo(ctx context.Context, entry GeoEntry) error
	AllGeo(ctx context.Context) ([]GeoEntry, error)

	GetTheme(ctx context.Context, beneficiary string) (*ThemeEntry, error)
	PutTheme(ctx context.Context, entry ThemeEntry) error
	AllThemes(ctx context.Context) ([]ThemeEntry, error)

	Close() error
}

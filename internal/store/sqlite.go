package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. Concurrent runs against the same file are unsupported.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query_key TEXT PRIMARY KEY,
	matched   INTEGER NOT NULL,
	lat       REAL NOT NULL DEFAULT 0,
	lon       REAL NOT NULL DEFAULT 0,
	score     REAL NOT NULL DEFAULT 0,
	tier      TEXT NOT NULL DEFAULT '',
	label     TEXT NOT NULL DEFAULT '',
	cached_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS theme_cache (
	beneficiary   TEXT PRIMARY KEY,
	theme         TEXT NOT NULL,
	sub_category  TEXT NOT NULL DEFAULT '',
	confidence    REAL NOT NULL DEFAULT 0,
	classified_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_tier ON geocode_cache(tier);
`

// Migrate creates the cache tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetGeo returns the cached geocode entry for a key, or (nil, nil) on miss.
func (s *SQLiteStore) GetGeo(ctx context.Context, queryKey string) (*GeoEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT query_key, matched, lat, lon, score, tier, label, cached_at
		 FROM geocode_cache WHERE query_key = ?`, queryKey)

	var e GeoEntry
	var matched int
	err := row.Scan(&e.QueryKey, &matched, &e.Lat, &e.Lon, &e.Score, &e.Tier, &e.Label, &e.CachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get geo %s", queryKey)
	}
	e.Matched = matched != 0
	return &e, nil
}

// PutGeo upserts a geocode entry, including negative results.
func (s *SQLiteStore) PutGeo(ctx context.Context, entry GeoEntry) error {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (query_key, matched, lat, lon, score, tier, label, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (query_key) DO UPDATE SET
			matched = excluded.matched,
			lat = excluded.lat,
			lon = excluded.lon,
			score = excluded.score,
			tier = excluded.tier,
			label = excluded.label,
			cached_at = excluded.cached_at`,
		entry.QueryKey, boolToInt(entry.Matched), entry.Lat, entry.Lon,
		entry.Score, entry.Tier, entry.Label, entry.CachedAt,
	)
	return eris.Wrapf(err, "sqlite: put geo %s", entry.QueryKey)
}

// AllGeo returns every cached geocode entry, ordered by key for stable
// seed emission.
func (s *SQLiteStore) AllGeo(ctx context.Context) ([]GeoEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query_key, matched, lat, lon, score, tier, label, cached_at
		 FROM geocode_cache ORDER BY query_key`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list geo")
	}
	defer rows.Close() //nolint:errcheck

	var out []GeoEntry
	for rows.Next() {
		var e GeoEntry
		var matched int
		if err := rows.Scan(&e.QueryKey, &matched, &e.Lat, &e.Lon, &e.Score, &e.Tier, &e.Label, &e.CachedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan geo")
		}
		e.Matched = matched != 0
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate geo")
}

// GetTheme returns the cached classification for a beneficiary, or
// (nil, nil) on miss.
func (s *SQLiteStore) GetTheme(ctx context.Context, beneficiary string) (*ThemeEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT beneficiary, theme, sub_category, confidence, classified_at
		 FROM theme_cache WHERE beneficiary = ?`, beneficiary)

	var e ThemeEntry
	err := row.Scan(&e.Beneficiary, &e.Theme, &e.SubCategory, &e.Confidence, &e.ClassifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get theme %s", beneficiary)
	}
	return &e, nil
}

// PutTheme upserts a beneficiary classification.
func (s *SQLiteStore) PutTheme(ctx context.Context, entry ThemeEntry) error {
	if entry.ClassifiedAt.IsZero() {
		entry.ClassifiedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO theme_cache (beneficiary, theme, sub_category, confidence, classified_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (beneficiary) DO UPDATE SET
			theme = excluded.theme,
			sub_category = excluded.sub_category,
			confidence = excluded.confidence,
			classified_at = excluded.classified_at`,
		entry.Beneficiary, entry.Theme, entry.SubCategory, entry.Confidence, entry.ClassifiedAt,
	)
	return eris.Wrapf(err, "sqlite: put theme %s", entry.Beneficiary)
}

// AllThemes returns every cached classification, ordered by beneficiary.
func (s *SQLiteStore) AllThemes(ctx context.Context) ([]ThemeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT beneficiary, theme, sub_category, confidence, classified_at
		 FROM theme_cache ORDER BY beneficiary`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list themes")
	}
	defer rows.Close() //nolint:errcheck

	var out []ThemeEntry
	for rows.Next() {
		var e ThemeEntry
		if err := rows.Scan(&e.Beneficiary, &e.Theme, &e.SubCategory, &e.Confidence, &e.ClassifiedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan theme")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate themes")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

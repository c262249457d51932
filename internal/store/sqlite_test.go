package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_GeoMiss(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetGeo(context.Background(), "12 rue des archives, 75004 Paris")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_GeoRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := GeoEntry{
		QueryKey: "12 rue des archives, 75004 Paris",
		Matched:  true,
		Lat:      48.8584,
		Lon:      2.3536,
		Score:    0.92,
		Tier:     "api_numero",
		Label:    "12 Rue des Archives 75004 Paris",
	}
	require.NoError(t, s.PutGeo(ctx, entry))

	got, err := s.GetGeo(ctx, entry.QueryKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Matched)
	assert.InDelta(t, 48.8584, got.Lat, 1e-9)
	assert.InDelta(t, 2.3536, got.Lon, 1e-9)
	assert.Equal(t, "api_numero", got.Tier)
	assert.False(t, got.CachedAt.IsZero())
}

func TestSQLiteStore_GeoNegativeResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutGeo(ctx, GeoEntry{
		QueryKey: "zone inconnue (7)",
		Matched:  false,
		Tier:     "aucun",
	}))

	got, err := s.GetGeo(ctx, "zone inconnue (7)")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Matched)
	assert.Zero(t, got.Score)
}

func TestSQLiteStore_GeoUpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutGeo(ctx, GeoEntry{QueryKey: "k", Matched: false, Tier: "aucun"}))
	require.NoError(t, s.PutGeo(ctx, GeoEntry{QueryKey: "k", Matched: true, Lat: 48.85, Lon: 2.35, Score: 0.4, Tier: "api_rue"}))

	got, err := s.GetGeo(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Matched)
	assert.Equal(t, "api_rue", got.Tier)

	all, err := s.AllGeo(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_AllGeoOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"b", "c", "a"} {
		require.NoError(t, s.PutGeo(ctx, GeoEntry{QueryKey: k, Matched: true, Tier: "lieu_connu", Score: 1.0}))
	}

	all, err := s.AllGeo(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].QueryKey)
	assert.Equal(t, "c", all[2].QueryKey)
}

func TestSQLiteStore_ThemeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	miss, err := s.GetTheme(ctx, "Association Sportive de Belleville")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, s.PutTheme(ctx, ThemeEntry{
		Beneficiary: "Association Sportive de Belleville",
		Theme:       "Culture & Sport",
		SubCategory: "Sport amateur",
		Confidence:  0.9,
	}))

	got, err := s.GetTheme(ctx, "Association Sportive de Belleville")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Culture & Sport", got.Theme)
	assert.False(t, got.ClassifiedAt.IsZero())

	require.NoError(t, s.PutTheme(ctx, ThemeEntry{
		Beneficiary: "Association Sportive de Belleville",
		Theme:       "Social",
		Confidence:  0.95,
	}))

	all, err := s.AllThemes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Social", all[0].Theme)
}

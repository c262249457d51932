package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paris-open-data/budget-cli/internal/investment"
)

func sampleResult(year int) investment.MergeResult {
	return investment.MergeResult{
		Year:   year,
		Status: investment.StatusMerged,
		Projects: []investment.Project{{
			ID:             "2024_12_7_000",
			Annee:          year,
			Arrondissement: 12,
			NomProjet:      "Rénovation de l'école Truffaut",
			Montant:        250_000,
			TypeAP:         investment.TypeEntretien,
			Source:         investment.ProvenancePDF,
		}},
		Stats: investment.MergeStats{
			PDFProjets:   1,
			PDFTotal:     250_000,
			TotalProjets: 1,
			TotalMontant: 250_000,
		},
	}
}

func TestWriteYear(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteYear(dir, sampleResult(2024))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "investissements_complet_2024.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var art YearArtifact
	require.NoError(t, json.Unmarshal(raw, &art))
	assert.Equal(t, 2024, art.Year)
	assert.Equal(t, investment.StatusMerged, art.Status)
	assert.False(t, art.GeneratedAt.IsZero())
	require.Len(t, art.Data, 1)
	assert.Equal(t, "Rénovation de l'école Truffaut", art.Data[0].NomProjet)
	assert.InDelta(t, 250_000, art.Stats.TotalMontant, 1e-9)
}

func TestWriteYear_EmptyDataIsArray(t *testing.T) {
	dir := t.TempDir()

	res := investment.MergeResult{Year: 2023, Status: investment.StatusNoPDFData}
	path, err := WriteYear(dir, res)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// The frontend iterates data unconditionally, so it must never be null.
	assert.Contains(t, string(raw), `"data": []`)
}

func TestWriteIndex(t *testing.T) {
	dir := t.TempDir()

	results := []investment.MergeResult{
		sampleResult(2023),
		sampleResult(2025),
		{Year: 2022, Status: investment.StatusNoPDFData},
	}

	path, err := WriteIndex(dir, results)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "investissements_complet_index.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var idx Index
	require.NoError(t, json.Unmarshal(raw, &idx))
	assert.Equal(t, []int{2025, 2023}, idx.AvailableYears)
	assert.Len(t, idx.YearStats, 3)
	assert.False(t, idx.LastUpdate.IsZero())
}

func TestListYears(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteYear(dir, sampleResult(2024))
	require.NoError(t, err)
	_, err = WriteYear(dir, sampleResult(2022))
	require.NoError(t, err)
	// Unrelated files must not be picked up.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "investissements.geojson"), []byte("{}"), 0o644))

	years, err := ListYears(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{2022, 2024}, years)
}

func TestListYears_MissingDir(t *testing.T) {
	years, err := ListYears(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, years)
}

func TestRefreshIndex_SingleYearRunKeepsOtherYears(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteYear(dir, sampleResult(2022))
	require.NoError(t, err)
	_, err = WriteYear(dir, sampleResult(2023))
	require.NoError(t, err)

	// A 2023-only refresh must still index 2022's published artifact.
	_, err = WriteYear(dir, sampleResult(2023))
	require.NoError(t, err)
	path, err := RefreshIndex(dir)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var idx Index
	require.NoError(t, json.Unmarshal(raw, &idx))
	assert.Equal(t, []int{2023, 2022}, idx.AvailableYears)
	assert.Len(t, idx.YearStats, 2)
}

func TestRefreshGeoJSON_CoversAllYearsOnDisk(t *testing.T) {
	dir := t.TempDir()

	located := sampleResult(2022)
	located.Projects[0].Lat = 48.8353
	located.Projects[0].Lon = 2.3884
	_, err := WriteYear(dir, located)
	require.NoError(t, err)

	other := sampleResult(2023)
	other.Projects[0].Lat = 48.8899
	other.Projects[0].Lon = 2.3938
	_, err = WriteYear(dir, other)
	require.NoError(t, err)

	path := filepath.Join(dir, "investissements.geojson")
	require.NoError(t, RefreshGeoJSON(dir, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc struct {
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))
	assert.Len(t, fc.Features, 2)
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.geojson")

	projects := []investment.Project{
		{
			ID:        "2024_19_3_000",
			NomProjet: "Philharmonie de Paris",
			Montant:   5_000_000,
			Lat:       48.8899,
			Lon:       2.3938,
			GeoScore:  1.0,
			GeoTier:   "lieu_connu",
		},
		// No coordinates, must be dropped.
		{ID: "2024_00_4_000", NomProjet: "Programme citywide"},
	}

	require.NoError(t, WriteGeoJSON(path, projects))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	f := fc.Features[0]
	assert.Equal(t, "Point", f.Geometry.Type)
	require.Len(t, f.Geometry.Coordinates, 2)
	assert.InDelta(t, 2.3938, f.Geometry.Coordinates[0], 1e-9)
	assert.InDelta(t, 48.8899, f.Geometry.Coordinates[1], 1e-9)
	assert.Equal(t, "lieu_connu", f.Properties["geo_source"])
}

package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed_lieux_connus.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistry_LoadCSVAndMatch(t *testing.T) {
	seed := writeSeed(t, `pattern_match,latitude,longitude,adresse,arrondissement
PISCINE KELLER,48.8462,2.2851,"14 rue de l'Ingénieur Robert Keller",15
GYMNASE JAPY|SALLE JAPY,48.8580,2.3804,"2 rue Japy",11
`)
	r := New()
	require.NoError(t, r.LoadCSV(seed))
	assert.Equal(t, 3, r.Len())

	place, ok := r.Match("Rénovation de la piscine Keller (15e)")
	require.True(t, ok)
	assert.InDelta(t, 48.8462, place.Lat, 1e-9)
	assert.Equal(t, 15, place.Arrondissement)

	// Pipe-separated patterns share one location.
	japy, ok := r.Match("Travaux SALLE JAPY")
	require.True(t, ok)
	assert.Equal(t, 11, japy.Arrondissement)

	_, ok = r.Match("Projet sans lieu identifiable")
	assert.False(t, ok)
}

func TestRegistry_LoadCSVSkipsRowsWithoutCoordinates(t *testing.T) {
	seed := writeSeed(t, `pattern_match,latitude,longitude,adresse,arrondissement
STADE CHARLETY,,,"99 boulevard Kellermann",13
MAIRIE DU 10E,48.8710,2.3610,"72 rue du Faubourg Saint-Martin",10
`)
	r := New()
	require.NoError(t, r.LoadCSV(seed))
	assert.Equal(t, 1, r.Len())

	_, ok := r.Match("Réfection du stade Charléty")
	assert.False(t, ok)
}

func TestRegistry_LoadCSVMissingColumn(t *testing.T) {
	seed := writeSeed(t, "nom,latitude,longitude\nx,1,2\n")
	err := New().LoadCSV(seed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern_match")
}

func TestRegistry_YAMLOverride(t *testing.T) {
	seed := writeSeed(t, `pattern_match,latitude,longitude,adresse,arrondissement
PISCINE KELLER,48.0,2.0,"ancienne adresse",15
`)
	overrides := filepath.Join(t.TempDir(), "lieux.yaml")
	require.NoError(t, os.WriteFile(overrides, []byte(`lieux:
  - pattern: piscine keller
    latitude: 48.8462
    longitude: 2.2851
    adresse: 14 rue de l'Ingénieur Robert Keller
    arrondissement: 15
  - pattern: BERGES DE SEINE
    latitude: 48.8567
    longitude: 2.3508
    arrondissement: 4
`), 0o644))

	r := New()
	require.NoError(t, r.LoadCSV(seed))
	require.NoError(t, r.LoadYAML(overrides))
	assert.Equal(t, 2, r.Len())

	place, ok := r.Match("PISCINE KELLER")
	require.True(t, ok)
	assert.InDelta(t, 48.8462, place.Lat, 1e-9)

	_, ok = r.Match("Aménagement des berges de Seine")
	assert.True(t, ok)
}

func TestCentroid(t *testing.T) {
	c, ok := Centroid(12)
	require.True(t, ok)
	assert.InDelta(t, 48.8391, c.Lat, 1e-9)
	assert.InDelta(t, 2.3896, c.Lon, 1e-9)

	_, ok = Centroid(0)
	assert.False(t, ok)
	_, ok = Centroid(21)
	assert.False(t, ok)
}

func TestIsIconic(t *testing.T) {
	assert.True(t, IsIconic("SUB Philharmonie de Paris"))
	assert.True(t, IsIconic("Restauration de Notre-Dame"))
	assert.True(t, IsIconic("Grands travaux Opéra Bastille"))
	assert.False(t, IsIconic("Subvention logement social"))
}

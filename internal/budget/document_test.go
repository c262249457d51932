package budget

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePages []string

func (f fakePages) Pages(context.Context, string) ([]string, error) {
	return []string(f), nil
}

func TestExtractDocument_EndToEnd(t *testing.T) {
	pages := fakePages{
		"couverture",
		labeledPage930,
		continuationPage,
		labeledPage900,
		nonVentPage940,
	}

	res, err := ExtractDocument(context.Background(), pages, "bp.pdf", "bp-2025.pdf", 2025, 0)
	require.NoError(t, err)

	// 4 lines from the labeled 930 page, 2 from its continuation,
	// 2 from the 900 page, 1 non-ventilated.
	require.Len(t, res.Lines, 9)
	assert.Equal(t, 8, res.Ventilated())

	// Continuation lines keep the 930 chapter and the carried Recette sens.
	cont := res.Lines[4]
	assert.Equal(t, "930", cont.ChapitreCode)
	assert.Equal(t, "628", cont.NatureCode)
	assert.Equal(t, SensRecette, cont.SensFlux)

	// The next labeled page resets the running sens: its own DEPENSES
	// marker governs.
	p900 := res.Lines[6]
	assert.Equal(t, "900", p900.ChapitreCode)
	assert.Equal(t, SensDepense, p900.SensFlux)
	assert.Equal(t, SectionInvestissement, p900.Section)

	nv := res.Lines[8]
	assert.Equal(t, "940", nv.ChapitreCode)
	assert.Empty(t, nv.FonctionCode)
	assert.Equal(t, 1500000.0, nv.Montant)

	assert.InDelta(t, 1000+2000+3000+4000+5000+6000+7000+8000+1500000, res.TotalAmount(), 1e-6)
}

func TestExtractDocument_EmptyDocument(t *testing.T) {
	res, err := ExtractDocument(context.Background(), fakePages{"rien", "toujours rien"}, "x.pdf", "x.pdf", 2025, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.Empty(t, res.Warnings)
}

func TestExtractDocument_TotalMismatchWarning(t *testing.T) {
	page := `PRESENTATION CROISEE - PRESENTATION DETAILLEE
SECTION DE FONCTIONNEMENT
A2.930
93-020
DEPENSES
604 Achats 1 000,00
TOTAL GENERAL 9 999,00
`
	res, err := ExtractDocument(context.Background(), fakePages{page}, "x.pdf", "x.pdf", 2025, 100)
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 1, res.Warnings[0].Page)
	assert.Contains(t, res.Warnings[0].Message, "9999.00")
}

func TestWriteSeedCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed_pdf_budget_vote_2025.csv")
	lines := []Line{{
		Annee: 2025, Section: SectionFonctionnement, SensFlux: SensDepense,
		ChapitreCode: "930", ChapitreLibelle: "Services généraux",
		NatureCode: "604", NatureLibelle: "Achats d'études",
		FonctionCode: "020", Montant: 1234.5, SourcePage: 12, SourcePDF: "bp.pdf",
	}}
	require.NoError(t, WriteSeedCSV(path, lines))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, seedColumns, records[0])
	assert.Equal(t, []string{
		"2025", "Fonctionnement", "Dépense", "930", "Services généraux",
		"604", "Achats d'études", "020", "1234.50", "12", "bp.pdf",
	}, records[1])

	read, err := ReadSeedCSV(path)
	require.NoError(t, err)
	assert.Equal(t, lines, read)
}

func TestReadSeedCSV_BadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("annee,section\n2025,Fonctionnement\n"), 0o644))

	_, err := ReadSeedCSV(path)
	require.Error(t, err)
}

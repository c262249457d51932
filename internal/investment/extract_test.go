package investment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailPage = `12ème ARRONDISSEMENT
AUTORISATIONS DE PROGRAMME
INVESTISSEMENTS LOCALISES
Principales opérations
Entretien, réparations et aménagements
Affaires Scolaires
Rénovation de l'école élémentaire Truffaut .......... 250 000,00
Aménagement du gymnase Léo Lagrange
150 000,00
Total 400 000,00
Total général
400 000,00
`

const summaryOnlyPage = `BUDGET PRIMITIF 2024 - VILLE DE PARIS
12ème ARRONDISSEMENT
AUTORISATIONS DE PROGRAMME - INVESTISSEMENTS LOCALISES
Présentation par type d'autorisation de programme
Type AP MONTANT
Entretien 1 000 000,00
Grands projets 234 567,89
Total général
1 234 567,89
`

func TestIdentifyILPages(t *testing.T) {
	pages := []string{
		"Sommaire",
		detailPage,
		"ANNEXES DIVERSES sans montant ni section, texte de remplissage assez long pour depasser le seuil de deux cents caracteres impose aux pages de donnees, mais sans aucun des marqueurs attendus dans une page d'investissements localises d'arrondissement parisien.",
		summaryOnlyPage,
	}

	got := IdentifyILPages(pages)
	assert.Equal(t, []int{1, 3}, got)
}

func TestExtractPage_DetailProjects(t *testing.T) {
	res := ExtractPage(detailPage, 7, 2024, "bp2024_il.pdf")

	require.Len(t, res.Projects, 2)
	assert.Equal(t, 12, res.Arrondissement)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)
	assert.Empty(t, res.Warnings)
	assert.InDelta(t, 400_000, res.TotalPage, 1e-9)

	first := res.Projects[0]
	assert.Equal(t, "2024_12_7_000", first.ID)
	assert.Equal(t, "Rénovation de l'école élémentaire Truffaut", first.NomProjet)
	assert.InDelta(t, 250_000, first.Montant, 1e-9)
	assert.Equal(t, TypeEntretien, first.TypeAP)
	assert.Equal(t, "Affaires Scolaires", first.ChapitreLibelle)
	assert.Equal(t, ProvenancePDF, first.Source)
	assert.Equal(t, 7, first.SourcePage)

	// Amount alone on its line takes the preceding line as the name.
	second := res.Projects[1]
	assert.Equal(t, "Aménagement du gymnase Léo Lagrange", second.NomProjet)
	assert.InDelta(t, 150_000, second.Montant, 1e-9)
}

func TestExtractPage_SummaryOnlySkipped(t *testing.T) {
	res := ExtractPage(summaryOnlyPage, 3, 2024, "bp2024_il.pdf")

	assert.Empty(t, res.Projects)
	assert.InDelta(t, 1_234_567.89, res.TotalPage, 1e-9)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "summary page skipped")
}

func TestExtractPage_TotalMismatchWarning(t *testing.T) {
	page := `5ème ARRONDISSEMENT
Principales opérations
Grands projets
Restructuration de la piscine Jean Taris
2 000 000,00
Total général
9 999 999,00
`
	res := ExtractPage(page, 2, 2024, "bp2024_il.pdf")

	require.Len(t, res.Projects, 1)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "total mismatch")
}

func TestExtractPage_UnrecognizedLayout(t *testing.T) {
	res := ExtractPage("PARIS CENTRE\nquelques lignes 12,00\n", 1, 2024, "x.pdf")

	assert.Empty(t, res.Projects)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "unrecognized")
}

func TestPageArrondissement(t *testing.T) {
	assert.Equal(t, 12, pageArrondissement("12ème ARRONDISSEMENT"))
	assert.Equal(t, 9, pageArrondissement("9ème arrondissement"))
	// Paris Centre pages carry no numbered title.
	assert.Equal(t, 0, pageArrondissement("PARIS CENTRE"))
}

func TestParseILAmount(t *testing.T) {
	v, ok := parseILAmount("1 234 567,89")
	require.True(t, ok)
	assert.InDelta(t, 1_234_567.89, v, 1e-9)

	v, ok = parseILAmount("250000.00")
	require.True(t, ok)
	assert.InDelta(t, 250_000, v, 1e-9)

	_, ok = parseILAmount("n/a")
	assert.False(t, ok)
}

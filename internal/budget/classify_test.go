package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const labeledPage930 = `REPUBLIQUE FRANCAISE - VILLE DE PARIS
III - VOTE DU BUDGET
PRESENTATION CROISEE PAR FONCTION - PRESENTATION DETAILLEE
SECTION DE FONCTIONNEMENT
A2.930
FONCTION 0 - Services généraux des administrations
93-020 93-021
DEPENSES
604 Achats d'études 1 000,00 2 000,00
RECETTES
706 Prestations de services 3 000,00 4 000,00
`

const continuationPage = `93-020 93-021
628 Divers 5 000,00 6 000,00
`

const labeledPage900 = `VILLE DE PARIS
PRESENTATION CROISEE PAR FONCTION - PRESENTATION DETAILLEE
SECTION D'INVESTISSEMENT
A1.900
CHAPITRE 900 - Services généraux (suite 2)
90-020 90-021
DEPENSES
204 Subventions d'équipement 7 000,00 8 000,00
`

const nonVentPage940 = `III - VOTE DU BUDGET
B - SECTION DE FONCTIONNEMENT - OPERATIONS NON VENTILEES
CHAPITRE 940 - Impositions directes
Pour mémoire RAR N-1 Propositions Vote TOTAL
RECETTES
73111 Taxes foncières 0,00 0,00 1 500 000,00 1 500 000,00 1 500 000,00
`

func TestClassifyPages_LabeledAndContinuation(t *testing.T) {
	pages := []string{"garbage intro page", labeledPage930, continuationPage, labeledPage900}

	ctxs := ClassifyPages(pages)
	require.Len(t, ctxs, 3)

	assert.Equal(t, 1, ctxs[0].PageIdx)
	assert.False(t, ctxs[0].IsContinuation)
	assert.Equal(t, SectionFonctionnement, ctxs[0].Section)
	assert.Equal(t, "A2.930", ctxs[0].ChapitreRef)
	assert.Equal(t, "930", ctxs[0].ChapitreCode)
	assert.Equal(t, "Services généraux des administrations", ctxs[0].ChapitreLibelle)

	// Continuation inherits everything from the closest preceding label.
	assert.True(t, ctxs[1].IsContinuation)
	assert.Equal(t, "930", ctxs[1].ChapitreCode)
	assert.Equal(t, SectionFonctionnement, ctxs[1].Section)
	assert.Empty(t, ctxs[1].ChapitreRef)

	assert.Equal(t, SectionInvestissement, ctxs[2].Section)
	assert.Equal(t, "900", ctxs[2].ChapitreCode)
}

func TestClassifyPages_SuiteSuffixStripped(t *testing.T) {
	ctxs := ClassifyPages([]string{labeledPage900})
	require.Len(t, ctxs, 1)
	assert.Equal(t, "Services généraux", ctxs[0].ChapitreLibelle)
}

func TestClassifyPages_NoLabeledPages(t *testing.T) {
	assert.Empty(t, ClassifyPages([]string{"nothing", continuationPage}))
}

func TestClassifyPages_ContinuationOutsideRangeIgnored(t *testing.T) {
	// A data-shaped page after the last labeled page is outside the
	// [first,last] range and must not be picked up.
	ctxs := ClassifyPages([]string{labeledPage930, "interlude", continuationPage})
	require.Len(t, ctxs, 1)
	assert.Equal(t, 0, ctxs[0].PageIdx)
}

func TestClassifyPages_MissingChapterRefSkipped(t *testing.T) {
	page := `PRESENTATION CROISEE - PRESENTATION DETAILLEE
SECTION DE FONCTIONNEMENT
93-020
604 Achats 1 000,00
`
	assert.Empty(t, ClassifyPages([]string{page}))
}

func TestScanNonVentilated(t *testing.T) {
	pages := []string{labeledPage930, nonVentPage940}

	ctxs := ScanNonVentilated(pages)
	require.Len(t, ctxs, 1)
	assert.Equal(t, 1, ctxs[0].PageIdx)
	assert.Equal(t, SectionFonctionnement, ctxs[0].Section)
	assert.Equal(t, "940", ctxs[0].ChapitreCode)
	assert.Equal(t, "Impositions directes", ctxs[0].ChapitreLibelle)
}

func TestScanNonVentilated_ChapterPrefixGate(t *testing.T) {
	page := `VOTE DU BUDGET - OPERATIONS NON VENTILEES
CHAPITRE 930 - Pas un chapitre fiscal
`
	assert.Empty(t, ScanNonVentilated([]string{page}))
}

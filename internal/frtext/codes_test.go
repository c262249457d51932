package frtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeafCodes_DropsGroupHeaders(t *testing.T) {
	assert.Equal(t, []string{"020", "021"}, LeafCodes([]string{"02", "020", "021"}))
}

func TestLeafCodes_KeepsUnrelated(t *testing.T) {
	assert.Equal(t, []string{"10", "20", "30"}, LeafCodes([]string{"10", "20", "30"}))
}

func TestLeafCodes_Empty(t *testing.T) {
	assert.Empty(t, LeafCodes(nil))
}

func TestFuncSubCodes_OrderAndDedup(t *testing.T) {
	header := "93-020 93-021 93-020 90-10"
	assert.Equal(t, []string{"020", "021", "10"}, FuncSubCodes(header))
}

func TestFuncSubCodes_FourDigitSubCode(t *testing.T) {
	assert.Equal(t, []string{"0341"}, FuncSubCodes("FONCTION 93-0341"))
}

func TestChapterRefRe(t *testing.T) {
	assert.Equal(t, "A1.900", ChapterRefRe.FindString("reference A1.900 suite"))
	assert.Equal(t, "A2.930-5", ChapterRefRe.FindString("A2.930-5"))
}

func TestChapterHeadingRe(t *testing.T) {
	m := ChapterHeadingRe.FindStringSubmatch("CHAPITRE 940 – Impositions directes")
	assert.NotNil(t, m)
	assert.Equal(t, "940", m[1])
	assert.Equal(t, "Impositions directes", m[2])
}

func TestStripSuite(t *testing.T) {
	assert.Equal(t, "Services généraux", StripSuite("Services généraux (suite 2)"))
	assert.Equal(t, "Services généraux", StripSuite("Services généraux (suite)"))
	assert.Equal(t, "Services généraux", StripSuite("Services généraux"))
}

func TestArrondissement_Parenthesized(t *testing.T) {
	assert.Equal(t, 12, Arrondissement("Ecole élémentaire (12e)"))
	assert.Equal(t, 1, Arrondissement("Marché (1er)"))
}

func TestArrondissement_ArrSuffix(t *testing.T) {
	assert.Equal(t, 15, Arrondissement("Gymnase 15ème arr"))
}

func TestArrondissement_PostalCode(t *testing.T) {
	assert.Equal(t, 12, Arrondissement("rue de Lyon 75012 Paris"))
}

func TestArrondissement_OutOfRange(t *testing.T) {
	assert.Equal(t, 0, Arrondissement("secteur (42e)"))
	assert.Equal(t, 0, Arrondissement("no district here"))
}

package frtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_FoldsAccents(t *testing.T) {
	assert.Equal(t, "ecole jean jaures", Normalize("École Jean Jaurès"))
}

func TestNormalize_StripsPunctuation(t *testing.T) {
	assert.Equal(t, "jaures ecole travaux", Normalize("JAURES - École - Travaux"))
}

func TestNormalize_CollapsesSpaces(t *testing.T) {
	assert.Equal(t, "a b", Normalize("  a   b  "))
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("  "))
}

func TestKeywords_LongestFirst(t *testing.T) {
	kws := Keywords("renovation ecole rue des arts", 3, 3)
	assert.Equal(t, []string{"renovation", "ecole", "arts"}, kws)
}

func TestKeywords_FiltersShortWords(t *testing.T) {
	kws := Keywords("le de la rue", 3, 3)
	assert.Empty(t, kws)
}

func TestKeywords_CapsAtMax(t *testing.T) {
	kws := Keywords("philharmonie theatre bibliotheque mediatheque", 2, 3)
	assert.Len(t, kws, 2)
	assert.Equal(t, "philharmonie", kws[0])
}

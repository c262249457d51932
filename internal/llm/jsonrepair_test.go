package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}

func TestDecodeObject(t *testing.T) {
	var reply addressReply
	require.NoError(t, decodeObject("```json\n{\"adresse\": \"6 rue Littré\", \"confidence\": 0.95}\n```", &reply))
	require.NotNil(t, reply.Adresse)
	assert.Equal(t, "6 rue Littré", *reply.Adresse)
	assert.InDelta(t, 0.95, reply.Confidence, 1e-9)

	assert.Error(t, decodeObject("toujours pas du JSON", &reply))
}

func TestDecodeArrayRepaired_Valid(t *testing.T) {
	out := decodeArrayRepaired[themeReply](`[
		{"id": "0", "thematique": "Social", "sous_categorie": null, "confiance": 0.9},
		{"id": 1, "thematique": "Culture & Sport", "sous_categorie": "Sport amateur", "confiance": 0.8}
	]`)
	require.Len(t, out, 2)
	assert.Equal(t, flexID("1"), out[1].ID)
	assert.Equal(t, "Culture & Sport", out[1].Thematique)
}

func TestDecodeArrayRepaired_Truncated(t *testing.T) {
	// Output cut mid-object: only complete fragments survive.
	truncated := `[
		{"id": "0", "thematique": "Social", "confiance": 0.9},
		{"id": "1", "thematique": "Environnement", "confiance": 0.85},
		{"id": "2", "thematique": "Édu`
	out := decodeArrayRepaired[themeReply](truncated)
	require.Len(t, out, 2)
	assert.Equal(t, "Social", out[0].Thematique)
	assert.Equal(t, "Environnement", out[1].Thematique)
}

func TestDecodeArrayRepaired_Hopeless(t *testing.T) {
	assert.Empty(t, decodeArrayRepaired[themeReply]("désolé, je ne peux pas"))
	assert.Empty(t, decodeArrayRepaired[themeReply](""))
}

package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paris-open-data/budget-cli/internal/store"
)

// fakeClient replays canned responses and records the prompts it saw.
type fakeClient struct {
	responses []string
	prompts   []string
	err       error
}

func (f *fakeClient) CreateMessage(_ context.Context, req MessageRequest) (*MessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	var prompt string
	if len(req.Messages) > 0 {
		prompt = req.Messages[0].Content
	}
	f.prompts = append(f.prompts, prompt)
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return &MessageResponse{Text: resp}, nil
}

type memThemeStore struct {
	themes map[string]store.ThemeEntry
}

func newMemThemeStore() *memThemeStore {
	return &memThemeStore{themes: map[string]store.ThemeEntry{}}
}

func (m *memThemeStore) Migrate(context.Context) error                           { return nil }
func (m *memThemeStore) Close() error                                            { return nil }
func (m *memThemeStore) GetGeo(context.Context, string) (*store.GeoEntry, error) { return nil, nil }
func (m *memThemeStore) PutGeo(context.Context, store.GeoEntry) error            { return nil }
func (m *memThemeStore) AllGeo(context.Context) ([]store.GeoEntry, error)        { return nil, nil }

func (m *memThemeStore) GetTheme(_ context.Context, b string) (*store.ThemeEntry, error) {
	if e, ok := m.themes[b]; ok {
		return &e, nil
	}
	return nil, nil
}

func (m *memThemeStore) PutTheme(_ context.Context, e store.ThemeEntry) error {
	m.themes[e.Beneficiary] = e
	return nil
}

func (m *memThemeStore) AllThemes(context.Context) ([]store.ThemeEntry, error) { return nil, nil }

func TestClassifier_BatchAndMap(t *testing.T) {
	client := &fakeClient{responses: []string{
		`[{"id": "0", "thematique": "Social", "sous_categorie": "Insertion", "confiance": 0.9},
		  {"id": "1", "thematique": "Culture & Sport", "sous_categorie": null, "confiance": 0.8}]`,
	}}
	c := NewClassifier(client, nil, "test-model", 10, 1000)

	out, err := c.Classify(context.Background(), []string{"emmaus solidarite", "club sportif de menilmontant"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "emmaus solidarite", out[0].Beneficiary)
	assert.Equal(t, "Social", out[0].Theme)
	assert.Equal(t, "Insertion", out[0].SubCategory)
	assert.Equal(t, "Culture & Sport", out[1].Theme)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "ID: 0, NOM: emmaus solidarite")
}

func TestClassifier_InvalidThemeBecomesAutre(t *testing.T) {
	client := &fakeClient{responses: []string{
		`[{"id": "0", "thematique": "Associations", "confiance": 0.7}]`,
	}}
	c := NewClassifier(client, nil, "test-model", 10, 1000)

	out, err := c.Classify(context.Background(), []string{"amicale des locataires"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Autre", out[0].Theme)
}

func TestClassifier_BatchSplitting(t *testing.T) {
	client := &fakeClient{responses: []string{
		`[{"id": "0", "thematique": "Social", "confiance": 0.9},
		  {"id": "1", "thematique": "Social", "confiance": 0.9}]`,
		`[{"id": "0", "thematique": "Santé", "confiance": 0.9}]`,
	}}
	c := NewClassifier(client, nil, "test-model", 2, 1000)

	out, err := c.Classify(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "Santé", out[2].Theme)
	assert.Len(t, client.prompts, 2)
}

func TestClassifier_CacheHitSkipsAPI(t *testing.T) {
	cache := newMemThemeStore()
	require.NoError(t, cache.PutTheme(context.Background(), store.ThemeEntry{
		Beneficiary: "emmaus solidarite", Theme: "Social", Confidence: 0.9,
	}))

	client := &fakeClient{responses: []string{
		`[{"id": "0", "thematique": "Éducation", "confiance": 0.8}]`,
	}}
	c := NewClassifier(client, cache, "test-model", 10, 1000)

	out, err := c.Classify(context.Background(), []string{"emmaus solidarite", "ligue de l'enseignement"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Social", out[0].Theme)
	assert.Equal(t, "Éducation", out[1].Theme)

	// Only the miss reached the API, and it is now cached too.
	require.Len(t, client.prompts, 1)
	assert.False(t, strings.Contains(client.prompts[0], "emmaus"))
	assert.Contains(t, cache.themes, "ligue de l'enseignement")
}

func TestClassifier_TruncatedReplyLosesOnlyTail(t *testing.T) {
	client := &fakeClient{responses: []string{
		`[{"id": "0", "thematique": "Social", "confiance": 0.9}, {"id": "1", "thema`,
	}}
	c := NewClassifier(client, nil, "test-model", 10, 1000)

	out, err := c.Classify(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Beneficiary)
}

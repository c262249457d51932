package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/paris-open-data/budget-cli/internal/resilience"
	"github.com/paris-open-data/budget-cli/internal/store"
)

// Themes is the closed taxonomy for beneficiary classification.
var Themes = []string{
	"Social", "Éducation", "Culture & Sport", "Environnement",
	"Transport", "Économie", "Administration", "Santé",
	"Logement", "Sécurité", "International", "Autre",
}

const themeSystemPrompt = `Tu es un expert en classification des acteurs associatifs et des politiques publiques parisiennes.
Analyse ces noms de bénéficiaires de subventions et classifie-les selon leur DOMAINE D'ACTION.

THÉMATIQUES AUTORISÉES: ["Social", "Éducation", "Culture & Sport", "Environnement", "Transport", "Économie", "Administration", "Santé", "Logement", "Sécurité", "International", "Autre"]

RÈGLES:
- Associations sportives → "Culture & Sport"
- Aide sociale, insertion, handicap, personnes âgées → "Social"
- Théâtre, musique, danse, cinéma, patrimoine → "Culture & Sport"
- Écologie, jardins, biodiversité → "Environnement"
- Écoles, formation, jeunesse → "Éducation"
- Commerce, emploi, startups → "Économie"
- Syndicats de copropriété, mairies → "Administration"
- Coopération internationale, solidarité internationale → "International"
- Si vraiment inclassable → "Autre"

IMPORTANT: "Associations" n'est PAS une thématique valide. Classifie selon le DOMAINE D'ACTION.

Réponds UNIQUEMENT en JSON valide:
[
  {"id": "...", "thematique": "<une des thématiques>", "sous_categorie": "<ou null>", "confiance": <0-1>},
  ...
]`

// Classification is one classified beneficiary.
type Classification struct {
	Beneficiary string
	Theme       string
	SubCategory string
	Confidence  float64
}

// Classifier assigns a theme to each beneficiary, in batches, with a
// persistent cache so rerunning only pays for new names.
type Classifier struct {
	client    Client
	cache     store.Store
	model     string
	maxTokens int64
	batchSize int
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
}

// NewClassifier builds a theme classifier. batchSize names are sent per
// request; small batches keep replies under the output-token ceiling.
func NewClassifier(client Client, cache store.Store, model string, batchSize int, rps float64) *Classifier {
	if batchSize <= 0 {
		batchSize = 10
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("llm", "classify themes")
	return &Classifier{
		client:    client,
		cache:     cache,
		model:     model,
		maxTokens: 8192,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		retry:     retry,
	}
}

// flexID accepts both "3" and 3, the model alternates between them.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	*f = flexID(s)
	return nil
}

type themeReply struct {
	ID           flexID  `json:"id"`
	Thematique   string  `json:"thematique"`
	SousCategory *string `json:"sous_categorie"`
	Confiance    float64 `json:"confiance"`
}

// Classify resolves themes for the given beneficiaries, serving cached
// names from the store and batching the rest through the model. Names the
// model fails to classify are simply absent from the result.
func (c *Classifier) Classify(ctx context.Context, beneficiaries []string) ([]Classification, error) {
	var out []Classification
	var misses []string

	for _, name := range beneficiaries {
		if c.cache != nil {
			entry, err := c.cache.GetTheme(ctx, name)
			if err != nil {
				return nil, err
			}
			if entry != nil {
				out = append(out, Classification{
					Beneficiary: entry.Beneficiary,
					Theme:       entry.Theme,
					SubCategory: entry.SubCategory,
					Confidence:  entry.Confidence,
				})
				continue
			}
		}
		misses = append(misses, name)
	}

	for start := 0; start < len(misses); start += c.batchSize {
		end := min(start+c.batchSize, len(misses))
		batch := misses[start:end]

		classified, err := c.classifyBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, cl := range classified {
			if c.cache != nil {
				if err := c.cache.PutTheme(ctx, store.ThemeEntry{
					Beneficiary: cl.Beneficiary,
					Theme:       cl.Theme,
					SubCategory: cl.SubCategory,
					Confidence:  cl.Confidence,
				}); err != nil {
					zap.L().Warn("llm: theme cache write failed",
						zap.String("beneficiary", cl.Beneficiary), zap.Error(err))
				}
			}
			out = append(out, cl)
		}
		zap.L().Info("llm: classified batch",
			zap.Int("requested", len(batch)), zap.Int("classified", len(classified)))
	}
	return out, nil
}

func (c *Classifier) classifyBatch(ctx context.Context, names []string) ([]Classification, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("Bénéficiaires à classifier:\n")
	for i, name := range names {
		fmt.Fprintf(&sb, "- ID: %d, NOM: %s\n", i, name)
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*MessageResponse, error) {
		return c.client.CreateMessage(ctx, MessageRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			System:    themeSystemPrompt,
			Messages:  []Message{{Role: "user", Content: sb.String()}},
		})
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(c.model, "theme classification")

	replies := decodeArrayRepaired[themeReply](resp.Text)

	byID := make(map[int]themeReply, len(replies))
	for _, r := range replies {
		id, err := strconv.Atoi(strings.TrimSpace(string(r.ID)))
		if err != nil {
			continue
		}
		byID[id] = r
	}

	var out []Classification
	for i, name := range names {
		r, ok := byID[i]
		if !ok || r.Thematique == "" {
			continue
		}
		theme := r.Thematique
		if !validTheme(theme) {
			theme = "Autre"
		}
		sub := ""
		if r.SousCategory != nil {
			sub = *r.SousCategory
		}
		out = append(out, Classification{
			Beneficiary: name,
			Theme:       theme,
			SubCategory: sub,
			Confidence:  r.Confiance,
		})
	}
	return out, nil
}

func validTheme(t string) bool {
	for _, theme := range Themes {
		if t == theme {
			return true
		}
	}
	return false
}

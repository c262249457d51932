package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/paris-open-data/budget-cli/internal/resilience"
)

const addressPrompt = `Tu es un expert en adresses parisiennes. Extrait l'adresse de ce nom de projet municipal.

RÈGLES STRICTES:
1. Extrais UNIQUEMENT si tu vois clairement une adresse ou un lieu identifiable
2. Si le texte est trop vague ou générique, réponds avec adresse null
3. Donne un score de confiance entre 0 et 1

EXEMPLES:
- "École maternelle 6 rue Littré - Travaux" => adresse: "6 rue Littré", confidence: 0.95
- "CC 34 avenue Jean Jaurès - Rénovation" => adresse: "34 avenue Jean Jaurès", confidence: 0.95
- "Gymnase Japy - Réfection" => adresse: "Gymnase Japy", confidence: 0.90
- "Piscine de la Butte aux Cailles" => adresse: "Piscine de la Butte aux Cailles", confidence: 0.95
- "Square René Le Gall - Travaux" => adresse: "Square René Le Gall", confidence: 0.90
- "Travaux de rénovation divers" => adresse: null, confidence: 0
- "Budget Participatif" => adresse: null, confidence: 0
- "Embellir votre quartier" => adresse: null, confidence: 0
- "Plan climat" => adresse: null, confidence: 0

PROJET: "%s"
ARRONDISSEMENT: %s

Réponds UNIQUEMENT avec un JSON valide (format: {"adresse": "...", "confidence": 0.X}), sans markdown:`

// Extractor asks the model to pull an address out of a project name. It
// satisfies the geocode.AddressExtractor interface.
type Extractor struct {
	client    Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
}

// NewExtractor builds an address extractor. rps bounds the request rate
// against the API.
func NewExtractor(client Client, model string, rps float64) *Extractor {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("llm", "extract address")
	return &Extractor{
		client:    client,
		model:     model,
		maxTokens: 256,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		retry:     retry,
	}
}

type addressReply struct {
	Adresse    *string `json:"adresse"`
	Confidence float64 `json:"confidence"`
}

// ExtractAddress returns the extracted address and the model's confidence.
// ok is false when the model saw nothing address-shaped or the reply could
// not be parsed.
func (e *Extractor) ExtractAddress(ctx context.Context, projectName string, arrondissement int) (string, float64, bool, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", 0, false, err
	}

	arr := "inconnu"
	if arrondissement > 0 {
		arr = strconv.Itoa(arrondissement)
	}
	prompt := fmt.Sprintf(addressPrompt, projectName, arr)

	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*MessageResponse, error) {
		return e.client.CreateMessage(ctx, MessageRequest{
			Model:     e.model,
			MaxTokens: e.maxTokens,
			Messages:  []Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		return "", 0, false, err
	}
	resp.Usage.LogCost(e.model, "address extraction")

	var reply addressReply
	if err := decodeObject(resp.Text, &reply); err != nil {
		// Garbage output is a miss, not a pipeline failure.
		return "", 0, false, nil
	}
	if reply.Adresse == nil || strings.TrimSpace(*reply.Adresse) == "" {
		return "", 0, false, nil
	}
	return strings.TrimSpace(*reply.Adresse), reply.Confidence, true, nil
}

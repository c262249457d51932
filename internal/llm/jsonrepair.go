package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	fenceOpenRe  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
	fragmentRe   = regexp.MustCompile(`\{[^{}]+\}`)
)

// stripFences removes surrounding markdown code fences from a model reply.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// decodeObject parses a single JSON object from a model reply.
func decodeObject(text string, out any) error {
	cleaned := stripFences(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return eris.Wrap(err, "llm: parse object")
	}
	return nil
}

// decodeArrayRepaired parses a JSON array from a model reply. When strict
// parsing fails, usually because the model truncated its output, it
// salvages every complete flat object fragment and parses those instead.
// Repair failure yields an empty slice, not an error: a lost batch is
// retried on the next run thanks to the cache.
func decodeArrayRepaired[T any](text string) []T {
	cleaned := stripFences(text)

	var out []T
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return out
	}

	fragments := fragmentRe.FindAllString(cleaned, -1)
	if len(fragments) == 0 {
		zap.L().Warn("llm: unrepairable reply", zap.String("head", head(cleaned, 120)))
		return nil
	}
	repaired := "[" + strings.Join(fragments, ",") + "]"
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		zap.L().Warn("llm: fragment repair failed", zap.Error(err))
		return nil
	}
	zap.L().Info("llm: repaired truncated reply", zap.Int("recovered", len(out)))
	return out
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

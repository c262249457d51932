package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/paris-open-data/budget-cli/internal/resilience"
)

// DefaultBANURL is the public Base Adresse Nationale search endpoint.
const DefaultBANURL = "https://api-adresse.data.gouv.fr/search"

// BANClient queries the Base Adresse Nationale geocoding API.
type BANClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// BANOption configures the BAN client.
type BANOption func(*BANClient)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) BANOption {
	return func(c *BANClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) BANOption {
	return func(c *BANClient) { c.httpClient = hc }
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) BANOption {
	return func(c *BANClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetry overrides the retry policy.
func WithRetry(rc resilience.RetryConfig) BANOption {
	return func(c *BANClient) { c.retry = rc }
}

// NewBANClient creates a BAN client. The public API tolerates roughly
// 10 req/s, which is the default limit.
func NewBANClient(opts ...BANOption) *BANClient {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("geocode", "ban search")
	c := &BANClient{
		baseURL:    DefaultBANURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(10, 1),
		retry:      retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type banResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Score    float64 `json:"score"`
			Label    string  `json:"label"`
			Postcode string  `json:"postcode"`
		} `json:"properties"`
	} `json:"features"`
}

// Search geocodes a query scoped to Paris. It first restricts the lookup
// to house numbers and retries untyped when that yields nothing. Matches
// outside postcode 75xxx are discarded. A nil Hit with nil error means no
// match.
func (c *BANClient) Search(ctx context.Context, query string, arrondissement int) (*Hit, error) {
	full := strings.TrimSpace(query)
	if arrondissement > 0 {
		cp := "75001"
		if arrondissement > 4 {
			cp = fmt.Sprintf("750%02d", arrondissement)
		}
		full = fmt.Sprintf("%s, %s Paris", full, cp)
	} else {
		full += ", Paris"
	}

	hit, err := c.search(ctx, full, "housenumber")
	if err != nil {
		return nil, err
	}
	if hit != nil {
		return hit, nil
	}
	return c.search(ctx, full, "")
}

func (c *BANClient) search(ctx context.Context, query, addrType string) (*Hit, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: ban rate limit")
	}

	params := url.Values{
		"q":     {query},
		"limit": {"1"},
	}
	if addrType != "" {
		params.Set("type", addrType)
	}
	reqURL := c.baseURL + "?" + params.Encode()

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*Hit, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: ban build request")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: ban request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("geocode: ban returned status %d", resp.StatusCode), resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("geocode: ban returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: ban read body")
		}
		var banResp banResponse
		if err := json.Unmarshal(body, &banResp); err != nil {
			return nil, eris.Wrap(err, "geocode: ban parse response")
		}

		if len(banResp.Features) == 0 {
			return nil, nil
		}
		f := banResp.Features[0]
		if !strings.HasPrefix(f.Properties.Postcode, "75") {
			return nil, nil
		}
		if len(f.Geometry.Coordinates) < 2 {
			return nil, nil
		}
		return &Hit{
			Lat:   f.Geometry.Coordinates[1],
			Lon:   f.Geometry.Coordinates[0],
			Score: f.Properties.Score,
			Label: f.Properties.Label,
		}, nil
	})
}

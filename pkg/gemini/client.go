// Package gemini implements the grounded lookup via the Gemini API with
// Google Search grounding.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/sells-group/community-enrich/internal/resilience"
	"github.com/sells-group/community-enrich/pkg/lookup"
)

const defaultModel = "gemini-2.5-flash"

// Config holds Gemini client settings.
type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// RequestsPerSec paces outbound calls to stay under the provider's rate
	// limit. Zero disables client-side pacing.
	RequestsPerSec float64
}

// Client performs grounded lookups against the Gemini API.
type Client struct {
	genai   *genai.Client
	model   string
	limiter *rate.Limiter
}

// New creates a Gemini lookup client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, eris.New("gemini: api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}

	return &Client{genai: client, model: model, limiter: limiter}, nil
}

// Lookup asks Gemini for community details, grounded in Google Search.
func (c *Client) Lookup(ctx context.Context, req lookup.Request) (*lookup.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "gemini: rate limiter")
		}
	}

	resp, err := c.genai.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(buildPrompt(req)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			CandidateCount: 1,
		},
	)
	if err != nil {
		return nil, classifyErr(err)
	}

	return &lookup.Response{
		Text:    resp.Text(),
		Model:   c.model,
		Sources: extractSources(resp),
	}, nil
}

func buildPrompt(req lookup.Request) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a data enrichment tool for residential communities and homeowners associations. Use web search to find details for the community below.

Return ONLY a single JSON object with these keys:
- street (string)
- city (string)
- state (string)
- zip (string)
- contact_name (string)
- contact_email (string)
- contact_phone (string)
- management_company (string)

Rules:
- Only include values you can confidently determine from search results.
- Omit a key entirely if you cannot confirm its value. Never invent placeholder data.
- Do not include extra keys.

Community: %s
Area: %s
`, req.Name, req.Location))
}

// classifyErr wraps retryable provider failures so the pipeline's retry
// policy will re-attempt them.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if resilience.RetryableStatus(apiErr.Code) {
			return resilience.Transient(eris.Wrap(err, "gemini: generate content"), apiErr.Code)
		}
		return eris.Wrap(err, "gemini: generate content")
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return resilience.Transient(eris.Wrap(err, "gemini: generate content"), 0)
	}
	return eris.Wrap(err, "gemini: generate content")
}

func extractSources(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	c := resp.Candidates[0]
	if c.GroundingMetadata == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, chunk := range c.GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		uri := strings.TrimSpace(chunk.Web.URI)
		if uri == "" {
			continue
		}
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		out = append(out, uri)
	}
	return out
}

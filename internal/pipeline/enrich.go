package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/community-enrich/internal/model"
	"github.com/sells-group/community-enrich/internal/resilience"
	"github.com/sells-group/community-enrich/pkg/lookup"
)

// Enricher resolves a single community name to an EnrichmentResult via the
// configured grounded-lookup provider. It has no persistence side effects.
type Enricher struct {
	client lookup.Client
	policy resilience.Policy
}

// NewEnricher wraps a lookup client with a bounded retry policy. Only
// transient provider failures (rate limits, 5xx, network timeouts) are
// retried; the provider paces its own request rate.
func NewEnricher(client lookup.Client, maxAttempts int) *Enricher {
	return &Enricher{
		client: client,
		policy: resilience.DefaultPolicy().WithAttempts(maxAttempts),
	}
}

// Enrich looks up one entity. An exhausted retry budget or a permanent
// provider error returns an error; a response that parses to nothing returns
// an empty result, which is a valid outcome.
func (e *Enricher) Enrich(ctx context.Context, name, location string) (*model.EnrichmentResult, error) {
	resp, err := resilience.Retry(ctx, e.policy, "lookup", func(ctx context.Context) (*lookup.Response, error) {
		return e.client.Lookup(ctx, lookup.Request{Name: name, Location: location})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: lookup %q", name)
	}

	result := parseResult(resp.Text)
	if result.Empty() {
		zap.L().Info("pipeline: lookup returned no confirmable fields",
			zap.String("name", name),
			zap.String("model", resp.Model),
		)
	}
	return &result, nil
}

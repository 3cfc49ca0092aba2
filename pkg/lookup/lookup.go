// Package lookup defines the provider-neutral interface for the external
// grounded-lookup service used to enrich community names.
package lookup

import "context"

// Request identifies one entity to look up.
type Request struct {
	// Name is the community/property name as given by the caller.
	Name string
	// Location is a coarse geography string used to disambiguate the name.
	Location string
}

// Response is the raw provider output before tolerant parsing. Text may be
// fenced markdown, partial JSON, or prose; the pipeline owns interpreting it.
type Response struct {
	Text  string
	Model string
	// Sources lists grounding URLs when the provider reports them.
	Sources []string
}

// Client performs a single grounded lookup. Implementations wrap transient
// failures (rate limit, 5xx, network timeout) in resilience.TransientError
// so the caller's retry policy can distinguish them.
type Client interface {
	Lookup(ctx context.Context, req Request) (*Response, error)
}

// Package provider implements pluggable news sources and their aggregation.
package provider

import (
	"context"
	"time"
)

// Article is the normalized record every source maps its output into, so the
// aggregator never special-cases a provider.
type Article struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Provider is a pluggable news source. Enabled is evaluated at call time and
// usually reflects whether a credential is configured.
type Provider interface {
	Key() string
	Name() string
	Enabled() bool
	// Fetch returns up to limit normalized articles.
	Fetch(ctx context.Context, limit int) ([]Article, error)
	// TTL is how long this source's results may be cached.
	TTL() time.Duration
}

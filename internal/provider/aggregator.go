package provider

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/storeconnect/crm-messaging/internal/registry"
)

// Aggregator fans out to all enabled providers, merges their normalized
// output, and caches the result. One failing provider never aborts the rest.
type Aggregator struct {
	Registry *registry.Registry[Provider]

	log        zerolog.Logger
	maxWorkers int
	timeout    time.Duration

	budgetMu sync.Mutex
	budgets  map[string]*rate.Limiter
	budget   rate.Limit
	burst    int

	cacheMu   sync.Mutex
	cached    []Article
	cachedAt  time.Time
	cacheTTL  time.Duration
	cacheSize int
}

// NewAggregator builds an aggregator over the given registry. Each provider
// gets a token-bucket budget of perMinute calls.
func NewAggregator(reg *registry.Registry[Provider], perMinute int, log zerolog.Logger) *Aggregator {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Aggregator{
		Registry:   reg,
		log:        log,
		maxWorkers: 4,
		timeout:    15 * time.Second,
		budgets:    make(map[string]*rate.Limiter),
		budget:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:      perMinute,
	}
}

// Fetch returns up to limit merged articles, newest first, deduplicated by
// canonical URL across providers.
func (a *Aggregator) Fetch(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 20
	}

	if articles, ok := a.fromCache(limit); ok {
		return articles, nil
	}

	providers := a.Registry.Enabled()
	if len(providers) == 0 {
		return []Article{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	p := pool.NewWithResults[[]Article]().WithMaxGoroutines(a.maxWorkers)
	minTTL := time.Duration(0)
	for _, prov := range providers {
		prov := prov
		if !a.allowBudget(prov.Key()) {
			a.log.Warn().Str("provider", prov.Key()).Msg("provider rate budget exhausted, skipping")
			continue
		}
		if ttl := prov.TTL(); minTTL == 0 || ttl < minTTL {
			minTTL = ttl
		}
		p.Go(func() []Article {
			articles, err := prov.Fetch(ctx, limit)
			if err != nil {
				a.log.Error().Err(err).Str("provider", prov.Key()).Msg("provider fetch failed")
				return nil
			}
			return articles
		})
	}

	merged := dedupe(p.Wait())
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	a.store(merged, minTTL, limit)
	return merged, nil
}

// Invalidate drops the cached aggregate, e.g. after a provider is
// reconfigured.
func (a *Aggregator) Invalidate() {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	a.cached = nil
}

func (a *Aggregator) allowBudget(key string) bool {
	a.budgetMu.Lock()
	defer a.budgetMu.Unlock()
	lim, ok := a.budgets[key]
	if !ok {
		lim = rate.NewLimiter(a.budget, a.burst)
		a.budgets[key] = lim
	}
	return lim.Allow()
}

func (a *Aggregator) fromCache(limit int) ([]Article, bool) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	if a.cached == nil || a.cacheTTL <= 0 || time.Since(a.cachedAt) >= a.cacheTTL || limit > a.cacheSize {
		return nil, false
	}
	out := a.cached
	if len(out) > limit {
		out = out[:limit]
	}
	return out, true
}

func (a *Aggregator) store(articles []Article, ttl time.Duration, limit int) {
	if ttl <= 0 {
		return
	}
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	a.cached = articles
	a.cachedAt = time.Now()
	a.cacheTTL = ttl
	a.cacheSize = limit
}

func dedupe(batches [][]Article) []Article {
	seen := make(map[string]bool)
	var out []Article
	for _, batch := range batches {
		for _, art := range batch {
			key := canonicalURL(art.URL)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, art)
		}
	}
	return out
}

func canonicalURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "https://")
	return strings.TrimSuffix(u, "/")
}

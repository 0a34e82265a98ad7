package carrier

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/storeconnect/crm-messaging/internal/registry"
)

// Aggregator fans out a quote request to every enabled carrier and merges
// the results, cheapest first. A failing carrier is logged and skipped.
type Aggregator struct {
	Registry *registry.Registry[Carrier]

	log        zerolog.Logger
	maxWorkers int
	timeout    time.Duration

	budgetMu sync.Mutex
	budgets  map[string]*rate.Limiter
	budget   rate.Limit
	burst    int
}

func NewAggregator(reg *registry.Registry[Carrier], perMinute int, log zerolog.Logger) *Aggregator {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Aggregator{
		Registry:   reg,
		log:        log,
		maxWorkers: 4,
		timeout:    10 * time.Second,
		budgets:    make(map[string]*rate.Limiter),
		budget:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:      perMinute,
	}
}

// Quotes merges quotes across carriers, deduplicated by (carrier, service)
// and sorted by price ascending.
func (a *Aggregator) Quotes(ctx context.Context, s Shipment) ([]Quote, error) {
	carriers := a.Registry.Enabled()
	if len(carriers) == 0 {
		return []Quote{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	p := pool.NewWithResults[[]Quote]().WithMaxGoroutines(a.maxWorkers)
	for _, c := range carriers {
		c := c
		if !a.allowBudget(c.Key()) {
			a.log.Warn().Str("carrier", c.Key()).Msg("carrier rate budget exhausted, skipping")
			continue
		}
		p.Go(func() []Quote {
			quotes, err := c.Quotes(ctx, s)
			if err != nil {
				a.log.Error().Err(err).Str("carrier", c.Key()).Msg("carrier quote failed")
				return nil
			}
			return quotes
		})
	}

	seen := make(map[string]bool)
	var merged []Quote
	for _, batch := range p.Wait() {
		for _, q := range batch {
			key := q.Carrier + "/" + q.Service
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, q)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Amount.LessThan(merged[j].Amount)
	})
	return merged, nil
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

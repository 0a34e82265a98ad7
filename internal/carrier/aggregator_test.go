package carrier

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storeconnect/crm-messaging/internal/registry"
)

type fakeCarrier struct {
	key     string
	enabled bool
	quotes  []Quote
	err     error
}

func (c *fakeCarrier) Key() string   { return c.key }
func (c *fakeCarrier) Name() string  { return c.key }
func (c *fakeCarrier) Enabled() bool { return c.enabled }

func (c *fakeCarrier) Quotes(context.Context, Shipment) ([]Quote, error) {
	return c.quotes, c.err
}

func quote(carrier, service string, amount float64) Quote {
	return Quote{
		Carrier:  carrier,
		Service:  service,
		Amount:   decimal.NewFromFloat(amount),
		Currency: "USD",
		QuotedAt: time.Now(),
	}
}

func newTestAggregator(carriers ...Carrier) *Aggregator {
	reg := registry.New[Carrier]()
	for _, c := range carriers {
		reg.Register(c)
	}
	return NewAggregator(reg, 1000, zerolog.Nop())
}

func testShipment() Shipment {
	return Shipment{OriginCountry: "US", DestCountry: "KE", WeightKg: decimal.NewFromFloat(1.5)}
}

func TestQuotesSortedByPrice(t *testing.T) {
	a := newTestAggregator(
		&fakeCarrier{key: "pricey", enabled: true, quotes: []Quote{quote("pricey", "express", 22.50)}},
		&fakeCarrier{key: "cheap", enabled: true, quotes: []Quote{quote("cheap", "standard", 6.10)}},
	)

	got, err := a.Quotes(context.Background(), testShipment())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "cheap", got[0].Carrier, "cheapest quote first")
}

func TestQuotesIsolateFailingCarrier(t *testing.T) {
	a := newTestAggregator(
		&fakeCarrier{key: "down", enabled: true, err: fmt.Errorf("timeout")},
		&fakeCarrier{key: "up", enabled: true, quotes: []Quote{quote("up", "standard", 8.00)}},
	)

	got, err := a.Quotes(context.Background(), testShipment())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "up", got[0].Carrier)
}

func TestQuotesDedupeByCarrierService(t *testing.T) {
	a := newTestAggregator(
		&fakeCarrier{key: "dup", enabled: true, quotes: []Quote{
			quote("dup", "standard", 5.00),
			quote("dup", "standard", 5.50),
		}},
	)

	got, err := a.Quotes(context.Background(), testShipment())
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestFlatRateAlwaysQuotes(t *testing.T) {
	a := newTestAggregator(NewFlatRate())

	got, err := a.Quotes(context.Background(), testShipment())
	require.NoError(t, err)
	require.Len(t, got, 2)

	// 4.90 + 1.25*1.5 = 6.78 (rounded)
	require.True(t, got[0].Amount.Equal(decimal.NewFromFloat(6.78)), "got %s", got[0].Amount)
	require.Equal(t, "standard", got[0].Service)
}

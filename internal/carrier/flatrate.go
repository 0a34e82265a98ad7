package carrier

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// FlatRateCarrier quotes from a static table. It needs no credential, so it
// is always enabled; it is also the fallback when every external carrier is
// down.
type FlatRateCarrier struct {
	Base  decimal.Decimal
	PerKg decimal.Decimal
}

func NewFlatRate() *FlatRateCarrier {
	return &FlatRateCarrier{
		Base:  decimal.NewFromFloat(4.90),
		PerKg: decimal.NewFromFloat(1.25),
	}
}

func (c *FlatRateCarrier) Key() string   { return "flatrate" }
func (c *FlatRateCarrier) Name() string  { return "Flat Rate" }
func (c *FlatRateCarrier) Enabled() bool { return true }

func (c *FlatRateCarrier) Quotes(_ context.Context, s Shipment) ([]Quote, error) {
	now := time.Now()
	standard := c.Base.Add(c.PerKg.Mul(s.WeightKg)).Round(2)
	express := standard.Mul(decimal.NewFromFloat(1.8)).Round(2)
	return []Quote{
		{Carrier: c.Key(), Service: "standard", Amount: standard, Currency: "USD", EtaDays: 5, QuotedAt: now},
		{Carrier: c.Key(), Service: "express", Amount: express, Currency: "USD", EtaDays: 2, QuotedAt: now},
	}, nil
}

// Package carrier implements pluggable shipping-rate sources and their
// aggregation into a single quote list.
package carrier

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Shipment describes the parcel being quoted.
type Shipment struct {
	OriginCountry string          `json:"origin_country"`
	DestCountry   string          `json:"dest_country"`
	DestPostcode  string          `json:"dest_postcode,omitempty"`
	WeightKg      decimal.Decimal `json:"weight_kg"`
}

// Quote is the normalized rate record every carrier maps its response into.
type Quote struct {
	Carrier  string          `json:"carrier"`
	Service  string          `json:"service"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	EtaDays  int             `json:"eta_days"`
	QuotedAt time.Time       `json:"quoted_at"`
}

// Carrier is a pluggable shipping-rate source.
type Carrier interface {
	Key() string
	Name() string
	Enabled() bool
	Quotes(ctx context.Context, s Shipment) ([]Quote, error)
}

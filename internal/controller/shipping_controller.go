package controller

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/storeconnect/crm-messaging/internal/carrier"
)

type ShippingController struct {
	Quotes *carrier.Aggregator
}

// GetQuotes handles GET /api/shipping/quotes.
func (c *ShippingController) GetQuotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weight, err := decimal.NewFromString(q.Get("weight_kg"))
	if err != nil || weight.IsNegative() || weight.IsZero() {
		http.Error(w, "weight_kg must be a positive number", http.StatusBadRequest)
		return
	}
	dest := q.Get("dest_country")
	if dest == "" {
		http.Error(w, "dest_country is required", http.StatusBadRequest)
		return
	}

	shipment := carrier.Shipment{
		OriginCountry: q.Get("origin_country"),
		DestCountry:   dest,
		DestPostcode:  q.Get("dest_postcode"),
		WeightKg:      weight,
	}
	quotes, err := c.Quotes.Quotes(r.Context(), shipment)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"data": quotes})
}

package carrier

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/storeconnect/crm-messaging/internal/credentials"
)

// ShipEngineCarrier quotes through the ShipEngine rates API. Enabled only
// when an API key is configured.
type ShipEngineCarrier struct {
	creds   credentials.Resolver
	client  *http.Client
	baseURL string
}

func NewShipEngine(creds credentials.Resolver, client *http.Client) *ShipEngineCarrier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ShipEngineCarrier{
		creds:   creds,
		client:  client,
		baseURL: "https://api.shipengine.com/v1/rates/estimate",
	}
}

func (c *ShipEngineCarrier) Key() string  { return "shipengine" }
func (c *ShipEngineCarrier) Name() string { return "ShipEngine" }

func (c *ShipEngineCarrier) Enabled() bool {
	_, ok := c.creds.Get("shipengine.api_key")
	return ok
}

func (c *ShipEngineCarrier) Quotes(ctx context.Context, s Shipment) ([]Quote, error) {
	apiKey, ok := c.creds.Get("shipengine.api_key")
	if !ok {
		return nil, fmt.Errorf("shipengine: no api key configured")
	}

	reqBody, err := json.Marshal(map[string]any{
		"from_country_code": s.OriginCountry,
		"to_country_code":   s.DestCountry,
		"to_postal_code":    s.DestPostcode,
		"weight": map[string]any{
			"value": s.WeightKg,
			"unit":  "kilogram",
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("API-Key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shipengine: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shipengine: unexpected status %d", resp.StatusCode)
	}

	var body []struct {
		ServiceCode  string `json:"service_code"`
		ShippingCost struct {
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"shipping_amount"`
		DeliveryDays int `json:"delivery_days"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	now := time.Now()
	quotes := make([]Quote, 0, len(body))
	for _, r := range body {
		quotes = append(quotes, Quote{
			Carrier:  c.Key(),
			Service:  r.ServiceCode,
			Amount:   decimal.NewFromFloat(r.ShippingCost.Amount).Round(2),
			Currency: r.ShippingCost.Currency,
			EtaDays:  r.DeliveryDays,
			QuotedAt: now,
		})
	}
	return quotes, nil
}

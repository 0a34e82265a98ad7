package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/storeconnect/crm-messaging/internal/repository"
)

type ConsentController struct {
	Consents repository.ConsentRepositoryInterface
}

// SetConsent handles PUT /api/contacts/{id}/consents.
func (c *ConsentController) SetConsent(w http.ResponseWriter, r *http.Request) {
	contactID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid contact id", http.StatusBadRequest)
		return
	}

	var body struct {
		Channel string `json:"channel"`
		Allowed bool   `json:"allowed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Channel == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.Consents.Set(contactID, body.Channel, body.Allowed); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"contact_id": contactID,
		"channel":    body.Channel,
		"allowed":    body.Allowed,
	})
}

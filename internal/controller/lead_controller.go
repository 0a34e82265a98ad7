package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/storeconnect/crm-messaging/internal/model"
	"github.com/storeconnect/crm-messaging/internal/service"
)

type LeadController struct {
	LeadService *service.LeadService
	Validate    *validator.Validate
}

type leadRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,e164"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
	Source    string `json:"source" validate:"omitempty,max=100"`
}

// CreateLead handles POST /api/leads. The route is wrapped by the rate-limit
// middleware before the payload ever reaches here.
func (c *LeadController) CreateLead(w http.ResponseWriter, r *http.Request) {
	var body leadRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	lead := &model.Lead{
		Email:     body.Email,
		Phone:     body.Phone,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Source:    body.Source,
	}
	if err := c.LeadService.CreateLead(lead); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lead)
}

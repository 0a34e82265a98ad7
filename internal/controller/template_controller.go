package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storeconnect/crm-messaging/internal/apperrors"
	"github.com/storeconnect/crm-messaging/internal/model"
	"github.com/storeconnect/crm-messaging/internal/repository"
)

type TemplateController struct {
	Templates repository.TemplateRepositoryInterface
}

// SaveTemplate handles PUT /api/templates/{key} (create or update).
func (c *TemplateController) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var body struct {
		Channel string `json:"channel"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Channel) == "" || strings.TrimSpace(body.Body) == "" {
		http.Error(w, "channel and body are required", http.StatusBadRequest)
		return
	}

	tmpl := &model.Template{Key: key, Channel: body.Channel, Subject: body.Subject, Body: body.Body}
	if err := c.Templates.Save(tmpl); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(tmpl)
}

// GetTemplate handles GET /api/templates/{key}.
func (c *TemplateController) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := c.Templates.GetByKey(chi.URLParam(r, "key"))
	if err != nil {
		if apperrors.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(tmpl)
}

// ListTemplates handles GET /api/templates.
func (c *TemplateController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := c.Templates.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"data": templates})
}

// DeleteTemplate handles DELETE /api/templates/{key}.
func (c *TemplateController) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := c.Templates.Delete(chi.URLParam(r, "key")); err != nil {
		if apperrors.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

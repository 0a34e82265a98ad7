package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/storeconnect/crm-messaging/internal/apperrors"
	"github.com/storeconnect/crm-messaging/internal/repository"
	"github.com/storeconnect/crm-messaging/internal/service"
)

type MessageController struct {
	MessageService *service.MessageService
	Messages       repository.MessageRepositoryInterface
}

// EnqueueMessage handles POST /api/messages.
func (c *MessageController) EnqueueMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ContactID   *int64            `json:"contact_id"`
		Channel     string            `json:"channel"`
		TemplateKey *string           `json:"template_key"`
		Payload     map[string]string `json:"payload"`
		ScheduledAt *string           `json:"scheduled_at"`
		MaxRetries  int               `json:"max_retries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	msg, err := c.MessageService.Enqueue(service.EnqueueInput{
		ContactID:   body.ContactID,
		Channel:     body.Channel,
		TemplateKey: body.TemplateKey,
		Payload:     body.Payload,
		ScheduledAt: body.ScheduledAt,
		MaxRetries:  body.MaxRetries,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

// GetMessage handles GET /api/messages/{id}.
func (c *MessageController) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	msg, err := c.Messages.GetByID(id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(msg)
}

// MarkDelivered handles POST /api/messages/{id}/delivered (delivery receipt
// webhook from a transport provider).
func (c *MessageController) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := c.Messages.MarkDelivered(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"id": id, "status": "delivered"})
}

// QueueStats handles GET /api/queue/stats.
func (c *MessageController) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.MessageService.QueueStats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(stats)
}

package service

import (
	"github.com/rs/zerolog"

	"github.com/storeconnect/crm-messaging/internal/apperrors"
	"github.com/storeconnect/crm-messaging/internal/model"
	"github.com/storeconnect/crm-messaging/internal/repository"
)

// WelcomeTemplateKey is the template used for the post-capture greeting.
// Absence of the template simply disables the greeting.
const WelcomeTemplateKey = "welcome"

// LeadService persists captured leads and queues the welcome message.
type LeadService struct {
	Leads     repository.LeadRepositoryInterface
	Templates repository.TemplateRepositoryInterface
	Queue     *MessageService
	Log       zerolog.Logger
}

// CreateLead stores the lead and, when a welcome template exists, enqueues a
// greeting. Queue trouble never fails the capture: the lead is the valuable
// part.
func (s *LeadService) CreateLead(lead *model.Lead) error {
	if err := s.Leads.Create(lead); err != nil {
		return err
	}

	tmpl, err := s.Templates.GetByKey(WelcomeTemplateKey)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.Log.Error().Err(err).Msg("welcome template lookup failed")
		}
		return nil
	}

	key := tmpl.Key
	_, err = s.Queue.Enqueue(EnqueueInput{
		Channel:     tmpl.Channel,
		TemplateKey: &key,
		Payload: map[string]string{
			"recipient":  lead.Email,
			"first_name": lead.FirstName,
			"last_name":  lead.LastName,
		},
	})
	if err != nil {
		s.Log.Error().Err(err).Str("lead_id", lead.ID).Msg("enqueue welcome message failed")
	}
	return nil
}

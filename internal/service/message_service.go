package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/storeconnect/crm-messaging/internal/model"
	"github.com/storeconnect/crm-messaging/internal/repository"
)

// MessageService is the caller-facing queue surface: validated enqueue plus
// observability reads.
type MessageService struct {
	Messages repository.MessageRepositoryInterface
}

// EnqueueInput is what producers (order events, form submissions, automation
// rules) hand over.
type EnqueueInput struct {
	ContactID   *int64
	Channel     string
	TemplateKey *string
	Payload     map[string]string
	ScheduledAt *string
	MaxRetries  int
}

// Enqueue validates the input and inserts a pending message. Storage errors
// propagate to the caller unchanged.
func (s *MessageService) Enqueue(in EnqueueInput) (*model.OutboundMessage, error) {
	if strings.TrimSpace(in.Channel) == "" {
		return nil, fmt.Errorf("channel is required")
	}
	if in.Payload == nil {
		in.Payload = map[string]string{}
	}
	if in.TemplateKey == nil && strings.TrimSpace(in.Payload["body"]) == "" {
		return nil, fmt.Errorf("either template_key or payload body is required")
	}

	msg := &model.OutboundMessage{
		ContactID:   in.ContactID,
		Channel:     in.Channel,
		TemplateKey: in.TemplateKey,
		Payload:     in.Payload,
		MaxRetries:  in.MaxRetries,
	}
	if in.ScheduledAt != nil && strings.TrimSpace(*in.ScheduledAt) != "" {
		t, err := time.Parse(time.RFC3339, *in.ScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduled_at: %w", err)
		}
		msg.ScheduledAt = &t
	}

	if err := s.Messages.Enqueue(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// QueueStats returns the backlog size and per-status counts.
func (s *MessageService) QueueStats() (map[string]any, error) {
	pending, err := s.Messages.CountPending()
	if err != nil {
		return nil, err
	}
	byStatus, err := s.Messages.CountByStatus()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"pending":   pending,
		"by_status": byStatus,
	}, nil
}

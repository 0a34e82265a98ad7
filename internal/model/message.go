package model

import "time"

// Message queue statuses. Transitions: pending|retrying -> sending ->
// sent|failed|skipped, sent -> delivered. retrying is re-entered from
// sending when a send fails with retry budget remaining.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Messaging channels. The queue itself is channel-agnostic; these are the
// ones the transport mux knows out of the box.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

const DefaultMaxRetries = 3

type OutboundMessage struct {
	ID          int64             `db:"id" json:"id"`
	ContactID   *int64            `db:"contact_id" json:"contact_id,omitempty"`
	Channel     string            `db:"channel" json:"channel"`
	TemplateKey *string           `db:"template_key" json:"template_key,omitempty"`
	Payload     map[string]string `db:"payload" json:"payload"`
	Status      string            `db:"status" json:"status"`
	RetryCount  int               `db:"retry_count" json:"retry_count"`
	MaxRetries  int               `db:"max_retries" json:"max_retries"`
	ScheduledAt *time.Time        `db:"scheduled_at" json:"scheduled_at,omitempty"`
	LastError   string            `db:"last_error,omitempty" json:"last_error,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// Exhausted reports whether the message has no retry budget left.
func (m *OutboundMessage) Exhausted() bool {
	return m.RetryCount >= m.MaxRetries
}

package model

import "time"

// Consent records whether a contact may be messaged on a channel.
type Consent struct {
	ContactID int64     `db:"contact_id" json:"contact_id"`
	Channel   string    `db:"channel" json:"channel"`
	Allowed   bool      `db:"allowed" json:"allowed"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

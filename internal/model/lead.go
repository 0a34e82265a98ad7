package model

import "time"

// Lead is a captured prospect from a public form. Contacts proper live in a
// separate CRM subsystem; a lead only carries what the form submitted.
type Lead struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name,omitempty"`
	Source    string    `db:"source" json:"source,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

package model

import "time"

// Template is a reusable message body keyed by a short identifier.
// Bodies contain {placeholder} tokens substituted from the message payload.
type Template struct {
	ID        int64      `db:"id" json:"id"`
	Key       string     `db:"key" json:"key"`
	Channel   string     `db:"channel" json:"channel"`
	Subject   string     `db:"subject" json:"subject,omitempty"`
	Body      string     `db:"body" json:"body"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

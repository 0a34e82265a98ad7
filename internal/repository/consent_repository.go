package repository

import (
	"database/sql"
	"time"
)

// ConsentRepositoryInterface is the consent gate: may this contact be
// messaged on this channel.
type ConsentRepositoryInterface interface {
	Allowed(contactID int64, channel string) (bool, error)
	Set(contactID int64, channel string, allowed bool) error
}

// ConsentRepository is backed by the consents table, owned by the consent
// subsystem. Absence of a row means no consent.
type ConsentRepository struct {
	DB *sql.DB
}

// Allowed reports whether the contact consented to the channel.
func (r *ConsentRepository) Allowed(contactID int64, channel string) (bool, error) {
	query := `SELECT allowed FROM consents WHERE contact_id = $1 AND channel = $2`
	var allowed bool
	err := r.DB.QueryRow(query, contactID, channel).Scan(&allowed)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return allowed, nil
}

// Set records or updates a contact's consent for a channel.
func (r *ConsentRepository) Set(contactID int64, channel string, allowed bool) error {
	query := `
        INSERT INTO consents (contact_id, channel, allowed, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (contact_id, channel) DO UPDATE
        SET allowed = EXCLUDED.allowed, updated_at = EXCLUDED.updated_at
    `
	_, err := r.DB.Exec(query, contactID, channel, allowed, time.Now())
	return err
}

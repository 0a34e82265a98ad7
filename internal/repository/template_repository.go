package repository

import (
	"database/sql"
	"time"

	"github.com/storeconnect/crm-messaging/internal/apperrors"
	"github.com/storeconnect/crm-messaging/internal/model"
)

// TemplateRepositoryInterface defines template store operations used by services.
type TemplateRepositoryInterface interface {
	Save(t *model.Template) error
	GetByKey(key string) (*model.Template, error)
	List() ([]model.Template, error)
	Delete(key string) error
}

// TemplateRepository is the Postgres-backed template store.
type TemplateRepository struct {
	DB *sql.DB
}

// Save upserts a template by key.
func (r *TemplateRepository) Save(t *model.Template) error {
	now := time.Now()
	query := `
        INSERT INTO templates (key, channel, subject, body, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        ON CONFLICT (key) DO UPDATE
        SET channel = EXCLUDED.channel,
            subject = EXCLUDED.subject,
            body = EXCLUDED.body,
            updated_at = EXCLUDED.updated_at
        RETURNING id, created_at
    `
	if err := r.DB.QueryRow(query, t.Key, t.Channel, t.Subject, t.Body, now).Scan(&t.ID, &t.CreatedAt); err != nil {
		return err
	}
	t.UpdatedAt = &now
	return nil
}

// GetByKey fetches a template by its unique key.
func (r *TemplateRepository) GetByKey(key string) (*model.Template, error) {
	query := `
        SELECT id, key, channel, subject, body, created_at, updated_at
        FROM templates
        WHERE key = $1
    `
	var t model.Template
	err := r.DB.QueryRow(query, key).Scan(&t.ID, &t.Key, &t.Channel, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewTemplateNotFound(key)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List fetches all templates ordered by key.
func (r *TemplateRepository) List() ([]model.Template, error) {
	rows, err := r.DB.Query(`
        SELECT id, key, channel, subject, body, created_at, updated_at
        FROM templates
        ORDER BY key
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Key, &t.Channel, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Delete removes a template by key.
func (r *TemplateRepository) Delete(key string) error {
	res, err := r.DB.Exec(`DELETE FROM templates WHERE key = $1`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NewTemplateNotFound(key)
	}
	return nil
}

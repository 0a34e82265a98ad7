package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/storeconnect/crm-messaging/internal/model"
)

// LeadRepositoryInterface defines lead persistence used by the ingestion endpoint.
type LeadRepositoryInterface interface {
	Create(lead *model.Lead) error
}

// LeadRepository stores captured leads.
type LeadRepository struct {
	DB *sql.DB
}

// Create inserts a lead, assigning it a fresh id.
func (r *LeadRepository) Create(lead *model.Lead) error {
	lead.ID = uuid.NewString()
	lead.CreatedAt = time.Now()
	query := `
        INSERT INTO leads (id, email, phone, first_name, last_name, source, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.DB.Exec(query, lead.ID, lead.Email, lead.Phone, lead.FirstName, lead.LastName, lead.Source, lead.CreatedAt)
	return err
}

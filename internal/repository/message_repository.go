package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/storeconnect/crm-messaging/internal/apperrors"
	"github.com/storeconnect/crm-messaging/internal/model"
)

// MessageRepositoryInterface defines the queue operations used by services.
type MessageRepositoryInterface interface {
	Enqueue(msg *model.OutboundMessage) error
	ClaimDue(limit int) ([]*model.OutboundMessage, error)
	GetByID(id int64) (*model.OutboundMessage, error)
	MarkSent(id int64) error
	MarkFailed(id int64, errMsg string) (*model.OutboundMessage, error)
	MarkRetrying(id int64, nextAttempt time.Time) error
	MarkTerminallyFailed(id int64) error
	MarkSkipped(id int64, reason string) error
	MarkDelivered(id int64) error
	CountPending() (int, error)
	CountByStatus() (map[string]int, error)
	ReleaseStuck(olderThan time.Duration) (int64, error)
}

// MessageRepository is the Postgres-backed outbound message queue.
type MessageRepository struct {
	DB *sql.DB
}

const messageColumns = `id, contact_id, channel, template_key, payload, status,
	retry_count, max_retries, scheduled_at, last_error, created_at, updated_at`

// Enqueue inserts a new message with status pending and zero attempts.
// Storage failures propagate to the caller.
func (r *MessageRepository) Enqueue(msg *model.OutboundMessage) error {
	now := time.Now()
	msg.Status = model.StatusPending
	msg.RetryCount = 0
	if msg.MaxRetries <= 0 {
		msg.MaxRetries = model.DefaultMaxRetries
	}
	msg.CreatedAt = now
	msg.UpdatedAt = now

	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
        INSERT INTO outbound_messages
        (contact_id, channel, template_key, payload, status, retry_count, max_retries, scheduled_at, last_error, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		msg.ContactID,
		msg.Channel,
		msg.TemplateKey,
		payload,
		msg.Status,
		msg.RetryCount,
		msg.MaxRetries,
		msg.ScheduledAt,
		msg.LastError,
		msg.CreatedAt,
		msg.UpdatedAt,
	).Scan(&msg.ID)
}

// ClaimDue atomically selects up to limit due messages and flips them to
// status sending, so two dispatcher instances can never deliver the same
// message twice. Due means: pending or retrying, schedule elapsed, retry
// budget left. Oldest first by id.
func (r *MessageRepository) ClaimDue(limit int) ([]*model.OutboundMessage, error) {
	query := `
        UPDATE outbound_messages
        SET status = $1, updated_at = now()
        WHERE id IN (
            SELECT id FROM outbound_messages
            WHERE status IN ($2, $3)
              AND (scheduled_at IS NULL OR scheduled_at <= now())
              AND retry_count < max_retries
            ORDER BY id
            LIMIT $4
            FOR UPDATE SKIP LOCKED
        )
        RETURNING ` + messageColumns
	rows, err := r.DB.Query(query, model.StatusSending, model.StatusPending, model.StatusRetrying, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*model.OutboundMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// GetByID fetches a message by its id.
func (r *MessageRepository) GetByID(id int64) (*model.OutboundMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM outbound_messages WHERE id = $1`
	msg, err := scanMessage(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewMessageNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkSent flips the message to sent. Idempotent: a second call is a no-op,
// and a message already confirmed delivered is never demoted.
func (r *MessageRepository) MarkSent(id int64) error {
	query := `
        UPDATE outbound_messages
        SET status = $1, last_error = '', updated_at = now()
        WHERE id = $2 AND status NOT IN ($1, $3)
    `
	_, err := r.DB.Exec(query, model.StatusSent, id, model.StatusDelivered)
	return err
}

// MarkFailed records a failed attempt: increments retry_count and stores the
// error. Whether the message ends up failed or retrying is the dispatcher's
// call; this only does the bookkeeping and returns the updated row.
func (r *MessageRepository) MarkFailed(id int64, errMsg string) (*model.OutboundMessage, error) {
	query := `
        UPDATE outbound_messages
        SET retry_count = retry_count + 1, last_error = $1, updated_at = now()
        WHERE id = $2
        RETURNING ` + messageColumns
	msg, err := scanMessage(r.DB.QueryRow(query, errMsg, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewMessageNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkRetrying schedules the next attempt. The new scheduled_at pushes the
// message out of the due set until the backoff elapses.
func (r *MessageRepository) MarkRetrying(id int64, nextAttempt time.Time) error {
	query := `
        UPDATE outbound_messages
        SET status = $1, scheduled_at = $2, updated_at = now()
        WHERE id = $3
    `
	_, err := r.DB.Exec(query, model.StatusRetrying, nextAttempt, id)
	return err
}

// MarkTerminallyFailed flips the message to failed. Only administrative
// action can bring it back.
func (r *MessageRepository) MarkTerminallyFailed(id int64) error {
	query := `UPDATE outbound_messages SET status = $1, updated_at = now() WHERE id = $2`
	_, err := r.DB.Exec(query, model.StatusFailed, id)
	return err
}

// MarkSkipped parks the message in the terminal consent-denied state.
func (r *MessageRepository) MarkSkipped(id int64, reason string) error {
	query := `
        UPDATE outbound_messages
        SET status = $1, last_error = $2, updated_at = now()
        WHERE id = $3
    `
	_, err := r.DB.Exec(query, model.StatusSkipped, reason, id)
	return err
}

// MarkDelivered confirms delivery. Only a sent message can become delivered.
func (r *MessageRepository) MarkDelivered(id int64) error {
	query := `
        UPDATE outbound_messages
        SET status = $1, updated_at = now()
        WHERE id = $2 AND status = $3
    `
	_, err := r.DB.Exec(query, model.StatusDelivered, id, model.StatusSent)
	return err
}

// CountPending returns the backlog size (pending + retrying).
func (r *MessageRepository) CountPending() (int, error) {
	query := `SELECT COUNT(*) FROM outbound_messages WHERE status IN ($1, $2)`
	var n int
	err := r.DB.QueryRow(query, model.StatusPending, model.StatusRetrying).Scan(&n)
	return n, err
}

// CountByStatus returns message counts grouped by status.
func (r *MessageRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.DB.Query(`SELECT status, COUNT(*) FROM outbound_messages GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ReleaseStuck returns messages stuck in sending (for example after a crash
// mid-batch) to retrying so a later cycle picks them up again.
func (r *MessageRepository) ReleaseStuck(olderThan time.Duration) (int64, error) {
	query := `
        UPDATE outbound_messages
        SET status = $1, updated_at = now()
        WHERE status = $2 AND updated_at < now() - $3::interval
    `
	res, err := r.DB.Exec(query, model.StatusRetrying, model.StatusSending,
		fmt.Sprintf("%f seconds", olderThan.Seconds()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*model.OutboundMessage, error) {
	var (
		msg         model.OutboundMessage
		contactID   sql.NullInt64
		templateKey sql.NullString
		payload     []byte
		scheduledAt sql.NullTime
	)
	err := row.Scan(
		&msg.ID,
		&contactID,
		&msg.Channel,
		&templateKey,
		&payload,
		&msg.Status,
		&msg.RetryCount,
		&msg.MaxRetries,
		&scheduledAt,
		&msg.LastError,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if contactID.Valid {
		msg.ContactID = &contactID.Int64
	}
	if templateKey.Valid {
		msg.TemplateKey = &templateKey.String
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		msg.ScheduledAt = &t
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &msg.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload for message %d: %w", msg.ID, err)
		}
	}
	return &msg, nil
}

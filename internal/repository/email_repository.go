package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/salesagentai/outreach-backend/internal/model"
)

type EmailRepositoryInterface interface {
	Create(e *model.OutreachEmail) error
	GetByID(id uuid.UUID) (*model.OutreachEmail, error)
	GetCurrentForLead(leadID uuid.UUID) (*model.OutreachEmail, error)
	UpdateStatus(id uuid.UUID, status string) error

	// Dispatch
	SelectApproved(campaignID uuid.UUID, limit int) ([]*model.DispatchEmail, error)
	MarkSent(id uuid.UUID, sentAt time.Time, providerMessageID string) error
	MarkFailed(id uuid.UUID, reason string) error
}

type EmailRepository struct {
	DB *sql.DB
}

func (r *EmailRepository) Create(e *model.OutreachEmail) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = model.EmailStatusDraft
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	query := `
        INSERT INTO generated_emails (id, lead_id, subject, body, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.DB.Exec(query, e.ID, e.LeadID, e.Subject, e.Body, e.Status, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *EmailRepository) GetByID(id uuid.UUID) (*model.OutreachEmail, error) {
	query := `
        SELECT id, lead_id, subject, body, status, fail_reason, provider_message_id,
               sent_at, created_at, updated_at
        FROM generated_emails
        WHERE id=$1
    `
	var e model.OutreachEmail
	err := r.DB.QueryRow(query, id).Scan(
		&e.ID, &e.LeadID, &e.Subject, &e.Body, &e.Status, &e.FailReason,
		&e.ProviderMessageID, &e.SentAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// GetCurrentForLead returns the newest email for a lead, nil when none exists.
func (r *EmailRepository) GetCurrentForLead(leadID uuid.UUID) (*model.OutreachEmail, error) {
	query := `
        SELECT id, lead_id, subject, body, status, fail_reason, provider_message_id,
               sent_at, created_at, updated_at
        FROM generated_emails
        WHERE lead_id=$1
        ORDER BY created_at DESC
        LIMIT 1
    `
	var e model.OutreachEmail
	err := r.DB.QueryRow(query, leadID).Scan(
		&e.ID, &e.LeadID, &e.Subject, &e.Body, &e.Status, &e.FailReason,
		&e.ProviderMessageID, &e.SentAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EmailRepository) UpdateStatus(id uuid.UUID, status string) error {
	query := `UPDATE generated_emails SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, id)
	return err
}

// SelectApproved returns the oldest approved emails for leads belonging to
// the campaign, joined with the recipient address, capped at limit.
func (r *EmailRepository) SelectApproved(campaignID uuid.UUID, limit int) ([]*model.DispatchEmail, error) {
	query := `
        SELECT e.id, e.lead_id, e.subject, e.body,
               l.email AS lead_email, l.name AS lead_name, e.created_at
        FROM generated_emails e
        JOIN leads l ON e.lead_id = l.id
        JOIN campaign_leads cl ON l.id = cl.lead_id
        WHERE cl.campaign_id = $1
          AND e.status = 'approved'
        ORDER BY e.created_at ASC
        LIMIT $2
    `
	rows, err := r.DB.Query(query, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []*model.DispatchEmail{}
	for rows.Next() {
		var e model.DispatchEmail
		if err := rows.Scan(&e.ID, &e.LeadID, &e.Subject, &e.Body, &e.LeadEmail, &e.LeadName, &e.CreatedAt); err != nil {
			return nil, err
		}
		emails = append(emails, &e)
	}
	return emails, rows.Err()
}

// MarkSent stamps sent_at exactly once: the guard on status keeps a retried
// transport acceptance from overwriting an earlier timestamp.
func (r *EmailRepository) MarkSent(id uuid.UUID, sentAt time.Time, providerMessageID string) error {
	query := `
        UPDATE generated_emails
        SET status='sent', sent_at=$1, provider_message_id=$2, fail_reason='', updated_at=NOW()
        WHERE id=$3 AND status <> 'sent'
    `
	_, err := r.DB.Exec(query, sentAt, providerMessageID, id)
	return err
}

func (r *EmailRepository) MarkFailed(id uuid.UUID, reason string) error {
	query := `
        UPDATE generated_emails
        SET status='failed', fail_reason=$1, updated_at=NOW()
        WHERE id=$2
    `
	_, err := r.DB.Exec(query, reason, id)
	return err
}

var _ EmailRepositoryInterface = (*EmailRepository)(nil)

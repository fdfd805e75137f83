package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesagentai/outreach-backend/internal/model"
)

// LeadRepositoryInterface defines methods used by services and handlers
type LeadRepositoryInterface interface {
	Create(l *model.Lead) error
	GetByID(id uuid.UUID) (*model.Lead, error)
	ListLeads(offset, limit int, status string) ([]model.Lead, int, error)
	UpdateStatus(id uuid.UUID, status string) error
	Delete(id uuid.UUID) error
	BulkCreate(leads []model.Lead, source string) (int, error)
}

// LeadRepository is the concrete implementation
type LeadRepository struct {
	DB *sql.DB
}

func (r *LeadRepository) Create(l *model.Lead) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = "new"
	}
	l.CreatedAt = time.Now()
	query := `
        INSERT INTO leads (id, name, email, company, title, website, status, source, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.DB.Exec(query, l.ID, l.Name, l.Email, l.Company, l.Title, l.Website, l.Status, l.Source, l.CreatedAt)
	return err
}

func (r *LeadRepository) GetByID(id uuid.UUID) (*model.Lead, error) {
	query := `
        SELECT id, name, email, company, title, website, status, source, created_at
        FROM leads
        WHERE id = $1
    `
	var l model.Lead
	err := r.DB.QueryRow(query, id).Scan(
		&l.ID, &l.Name, &l.Email, &l.Company, &l.Title, &l.Website, &l.Status, &l.Source, &l.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepository) ListLeads(offset, limit int, status string) ([]model.Lead, int, error) {
	query := `SELECT id, name, email, company, title, website, status, source, created_at FROM leads WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Company, &l.Title, &l.Website, &l.Status, &l.Source, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		leads = append(leads, l)
	}

	countQuery := `SELECT COUNT(*) FROM leads WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}
	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

func (r *LeadRepository) UpdateStatus(id uuid.UUID, status string) error {
	query := `UPDATE leads SET status=$1 WHERE id=$2`
	_, err := r.DB.Exec(query, status, id)
	return err
}

func (r *LeadRepository) Delete(id uuid.UUID) error {
	_, err := r.DB.Exec(`DELETE FROM leads WHERE id=$1`, id)
	return err
}

// BulkCreate inserts a batch of leads, skipping rows whose email already
// exists. Returns the number actually inserted.
func (r *LeadRepository) BulkCreate(leads []model.Lead, source string) (int, error) {
	query := `
        INSERT INTO leads (id, name, email, company, title, website, status, source, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, 'new', $7, NOW())
        ON CONFLICT (email) DO NOTHING
    `
	inserted := 0
	for _, l := range leads {
		res, err := r.DB.Exec(query, uuid.New(), l.Name, l.Email, l.Company, l.Title, l.Website, source)
		if err != nil {
			return inserted, err
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/salesagentai/outreach-backend/internal/errors"
	"github.com/salesagentai/outreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(c *model.Campaign) error
	GetByID(id uuid.UUID) (*model.Campaign, error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(campaignID uuid.UUID, status string) error
	UpdateSchedule(campaignID uuid.UUID, startDate time.Time, startTime, timezone string) error

	// Membership and rollups
	AddLeads(campaignID uuid.UUID, leadIDs []uuid.UUID) (int, error)
	GetCampaignStats(campaignID uuid.UUID) (map[string]int, error)

	// Dispatch
	ListDueCampaigns() ([]*model.Campaign, error)
	CommitQuota(campaignID uuid.UUID, sentDelta int, today time.Time) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, description, status, scheduled_start_date,
        scheduled_start_time, timezone, daily_send_limit, emails_sent_today,
        last_send_date, emails_sent, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Status, &c.ScheduledStartDate,
		&c.ScheduledStartTime, &c.Timezone, &c.DailySendLimit, &c.EmailsSentToday,
		&c.LastSendDate, &c.EmailsSent, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	if c.DailySendLimit <= 0 {
		c.DailySendLimit = model.DefaultDailySendLimit
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO email_campaigns
            (id, name, description, status, scheduled_start_date, scheduled_start_time,
             timezone, daily_send_limit, emails_sent_today, emails_sent, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, $9)
    `
	_, err := r.DB.Exec(query, c.ID, c.Name, c.Description, c.Status,
		c.ScheduledStartDate, c.ScheduledStartTime, c.Timezone, c.DailySendLimit, c.CreatedAt)
	return err
}

func (r *CampaignRepository) GetByID(id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM email_campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM email_campaigns WHERE 1=1`
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

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM email_campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(campaignID uuid.UUID, status string) error {
	query := `UPDATE email_campaigns SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, campaignID)
	return err
}

func (r *CampaignRepository) UpdateSchedule(campaignID uuid.UUID, startDate time.Time, startTime, timezone string) error {
	query := `
        UPDATE email_campaigns
        SET scheduled_start_date=$1, scheduled_start_time=$2, timezone=$3, updated_at=NOW()
        WHERE id=$4
    `
	_, err := r.DB.Exec(query, startDate, startTime, timezone, campaignID)
	return err
}

// ====================== Membership ======================

// AddLeads attaches leads to a campaign, skipping pairs that already exist.
func (r *CampaignRepository) AddLeads(campaignID uuid.UUID, leadIDs []uuid.UUID) (int, error) {
	added := 0
	query := `
        INSERT INTO campaign_leads (campaign_id, lead_id, added_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (campaign_id, lead_id) DO NOTHING
    `
	for _, leadID := range leadIDs {
		res, err := r.DB.Exec(query, campaignID, leadID)
		if err != nil {
			return added, err
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	return added, nil
}

func (r *CampaignRepository) GetCampaignStats(campaignID uuid.UUID) (map[string]int, error) {
	query := `
        SELECT e.status, COUNT(*)
        FROM generated_emails e
        JOIN campaign_leads cl ON cl.lead_id = e.lead_id
        WHERE cl.campaign_id = $1
        GROUP BY e.status
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		"total":    0,
		"draft":    0,
		"approved": 0,
		"sent":     0,
		"failed":   0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, nil
}

// ====================== Dispatch ======================

// ListDueCampaigns returns active campaigns with both schedule fields set.
// The timezone-aware due check happens in the dispatcher, not in SQL.
func (r *CampaignRepository) ListDueCampaigns() ([]*model.Campaign, error) {
	query := `
        SELECT ` + campaignColumns + `
        FROM email_campaigns
        WHERE status = 'active'
          AND scheduled_start_date IS NOT NULL
          AND scheduled_start_time IS NOT NULL
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// CommitQuota adds sentDelta to today's counter and the lifetime total in a
// single statement. A stale last_send_date resets the daily counter to the
// delta instead of accumulating onto yesterday's value.
func (r *CampaignRepository) CommitQuota(campaignID uuid.UUID, sentDelta int, today time.Time) error {
	query := `
        UPDATE email_campaigns
        SET emails_sent_today = CASE WHEN last_send_date = $2::date
                                     THEN emails_sent_today + $1
                                     ELSE $1 END,
            last_send_date = $2::date,
            emails_sent = emails_sent + $1,
            updated_at = NOW()
        WHERE id = $3
    `
	_, err := r.DB.Exec(query, sentDelta, today, campaignID)
	return err
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

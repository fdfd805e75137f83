// internal/model/campaign.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

// DefaultDailySendLimit applies when a campaign is created without one.
const DefaultDailySendLimit = 50

type Campaign struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Status      string    `db:"status" json:"status"`

	// Schedule. Both date and time-of-day must be set before the campaign
	// can be activated. Timezone is an IANA zone name, empty means UTC.
	ScheduledStartDate *time.Time `db:"scheduled_start_date" json:"scheduled_start_date,omitempty"`
	ScheduledStartTime *string    `db:"scheduled_start_time" json:"scheduled_start_time,omitempty"`
	Timezone           string     `db:"timezone" json:"timezone"`

	// Daily quota. EmailsSentToday is only meaningful while LastSendDate
	// equals today in the campaign's timezone; a stale date means the
	// counter is logically zero.
	DailySendLimit  int        `db:"daily_send_limit" json:"daily_send_limit"`
	EmailsSentToday int        `db:"emails_sent_today" json:"emails_sent_today"`
	LastSendDate    *time.Time `db:"last_send_date" json:"last_send_date,omitempty"`

	EmailsSent int `db:"emails_sent" json:"emails_sent"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Schedulable reports whether both schedule fields are present.
func (c *Campaign) Schedulable() bool {
	return c.ScheduledStartDate != nil && c.ScheduledStartTime != nil
}

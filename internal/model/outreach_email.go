// internal/model/outreach_email.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Email statuses. Only approved emails are picked up by the dispatcher;
// sent is set exactly once by the dispatcher, everything after sent comes
// from provider delivery events.
const (
	EmailStatusDraft        = "draft"
	EmailStatusApproved     = "approved"
	EmailStatusSent         = "sent"
	EmailStatusDelivered    = "delivered"
	EmailStatusOpened       = "opened"
	EmailStatusReplied      = "replied"
	EmailStatusBounced      = "bounced"
	EmailStatusFailed       = "failed"
	EmailStatusDropped      = "dropped"
	EmailStatusUnsubscribed = "unsubscribed"
	EmailStatusSpamReported = "spam_reported"
)

type OutreachEmail struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	LeadID            uuid.UUID  `db:"lead_id" json:"lead_id"`
	Subject           string     `db:"subject" json:"subject"`
	Body              string     `db:"body" json:"body"`
	Status            string     `db:"status" json:"status"`
	FailReason        string     `db:"fail_reason" json:"fail_reason,omitempty"`
	ProviderMessageID string     `db:"provider_message_id" json:"provider_message_id,omitempty"`
	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// DispatchEmail is an approved email joined with the lead fields the
// transport needs. Rows come out of the selector fully rendered.
type DispatchEmail struct {
	ID        uuid.UUID `db:"id" json:"id"`
	LeadID    uuid.UUID `db:"lead_id" json:"lead_id"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	LeadEmail string    `db:"lead_email" json:"lead_email"`
	LeadName  string    `db:"lead_name" json:"lead_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

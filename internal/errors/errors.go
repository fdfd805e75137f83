package appErrors

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID uuid.UUID
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

func NewCampaignNotFound(id uuid.UUID) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrLeadNotFound is a sentinel error
type ErrLeadNotFound struct {
	LeadID uuid.UUID
}

func (e *ErrLeadNotFound) Error() string {
	return fmt.Sprintf("lead with ID %s not found", e.LeadID)
}

func NewLeadNotFound(id uuid.UUID) error {
	return &ErrLeadNotFound{LeadID: id}
}

// ErrEmailNotFound is a sentinel error
type ErrEmailNotFound struct {
	EmailID uuid.UUID
}

func (e *ErrEmailNotFound) Error() string {
	return fmt.Sprintf("email with ID %s not found", e.EmailID)
}

func NewEmailNotFound(id uuid.UUID) error {
	return &ErrEmailNotFound{EmailID: id}
}

// ErrInvalidTransition signals an illegal status change
type ErrInvalidTransition struct {
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot transition from %q to %q", e.From, e.To)
}

func NewInvalidTransition(from, to string) error {
	return &ErrInvalidTransition{From: from, To: to}
}

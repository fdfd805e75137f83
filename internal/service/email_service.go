// internal/service/email_service.go
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/salesagentai/outreach-backend/internal/ai"
	appErrors "github.com/salesagentai/outreach-backend/internal/errors"
	"github.com/salesagentai/outreach-backend/internal/model"
	"github.com/salesagentai/outreach-backend/internal/repository"
)

// EmailService handles the research -> draft -> approve flow that feeds the
// dispatcher. Everything here happens before an email becomes eligible for
// automatic sending.
type EmailService struct {
	LeadRepo  repository.LeadRepositoryInterface
	EmailRepo repository.EmailRepositoryInterface
	AI        *ai.Client
}

// GenerateForLead researches the lead's company and drafts a personalized
// email, stored as a draft pending human approval.
func (s *EmailService) GenerateForLead(ctx context.Context, leadID uuid.UUID) (*model.OutreachEmail, error) {
	if s.AI == nil {
		return nil, fmt.Errorf("email generation is not configured (missing OpenAI API key)")
	}

	lead, err := s.LeadRepo.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, appErrors.NewLeadNotFound(leadID)
	}

	research, err := s.AI.ResearchCompany(ctx, lead.Company, lead.Website)
	if err != nil {
		return nil, fmt.Errorf("research failed for lead %s: %w", leadID, err)
	}

	subject, body, err := s.AI.DraftEmail(ctx, lead, research)
	if err != nil {
		return nil, fmt.Errorf("draft failed for lead %s: %w", leadID, err)
	}

	email := &model.OutreachEmail{
		LeadID:  leadID,
		Subject: subject,
		Body:    body,
		Status:  model.EmailStatusDraft,
	}
	if err := s.EmailRepo.Create(email); err != nil {
		return nil, err
	}

	if err := s.LeadRepo.UpdateStatus(leadID, "drafted"); err != nil {
		log.Println("⚠️ failed to update lead status:", err)
	}
	return email, nil
}

// ApproveEmail moves a draft to approved, making it eligible for dispatch.
func (s *EmailService) ApproveEmail(id uuid.UUID) (*model.OutreachEmail, error) {
	email, err := s.EmailRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, appErrors.NewEmailNotFound(id)
	}
	if email.Status != model.EmailStatusDraft {
		return nil, appErrors.NewInvalidTransition(email.Status, model.EmailStatusApproved)
	}

	if err := s.EmailRepo.UpdateStatus(id, model.EmailStatusApproved); err != nil {
		return nil, err
	}
	email.Status = model.EmailStatusApproved
	return email, nil
}

// GetCurrentForLead returns the lead's newest email, or a not-found error.
func (s *EmailService) GetCurrentForLead(leadID uuid.UUID) (*model.OutreachEmail, error) {
	email, err := s.EmailRepo.GetCurrentForLead(leadID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, appErrors.NewLeadNotFound(leadID)
	}
	return email, nil
}

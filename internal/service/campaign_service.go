// internal/service/campaign_service.go
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/salesagentai/outreach-backend/internal/errors"
	"github.com/salesagentai/outreach-backend/internal/model"
	"github.com/salesagentai/outreach-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	LeadRepo     repository.LeadRepositoryInterface
}

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

// legal campaign transitions; completed is terminal
var campaignTransitions = map[string][]string{
	model.CampaignStatusDraft:  {model.CampaignStatusActive},
	model.CampaignStatusActive: {model.CampaignStatusPaused, model.CampaignStatusCompleted},
	model.CampaignStatusPaused: {model.CampaignStatusActive, model.CampaignStatusCompleted},
}

func (s *CampaignService) CreateCampaign(name, description, timezone string, startDate, startTime *string, dailyLimit int) (*model.Campaign, error) {
	c := &model.Campaign{
		Name:           name,
		Description:    description,
		Timezone:       timezone,
		DailySendLimit: dailyLimit,
		Status:         model.CampaignStatusDraft,
	}

	if startDate != nil {
		t, err := time.Parse("2006-01-02", *startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduled_start_date: %w", err)
		}
		c.ScheduledStartDate = &t
	}
	if startTime != nil {
		if _, _, _, err := parseStartTime(*startTime); err != nil {
			return nil, err
		}
		c.ScheduledStartTime = startTime
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(id uuid.UUID) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	stats, err := s.CampaignRepo.GetCampaignStats(id)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}

// UpdateCampaignStatus applies a lifecycle transition. Activation requires
// both schedule fields so the dispatcher never has to guess.
func (s *CampaignService) UpdateCampaignStatus(id uuid.UUID, status string) (*model.Campaign, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(campaign.Status, status) {
		return nil, appErrors.NewInvalidTransition(campaign.Status, status)
	}
	if status == model.CampaignStatusActive && !campaign.Schedulable() {
		return nil, fmt.Errorf("campaign %s cannot be activated without a scheduled start date and time", id)
	}

	if err := s.CampaignRepo.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	campaign.Status = status
	return campaign, nil
}

// UpdateCampaignSchedule replaces the campaign's start date, time-of-day
// and timezone, so a campaign created without a schedule can still be
// scheduled and activated later. Validation matches CreateCampaign.
func (s *CampaignService) UpdateCampaignSchedule(id uuid.UUID, startDate, startTime, timezone string) (*model.Campaign, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduled_start_date: %w", err)
	}
	if _, _, _, err := parseStartTime(startTime); err != nil {
		return nil, err
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	if err := s.CampaignRepo.UpdateSchedule(id, date, startTime, timezone); err != nil {
		return nil, err
	}
	campaign.ScheduledStartDate = &date
	campaign.ScheduledStartTime = &startTime
	campaign.Timezone = timezone
	return campaign, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range campaignTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AddLeads attaches leads to a campaign after verifying both sides exist.
func (s *CampaignService) AddLeads(campaignID uuid.UUID, leadIDs []uuid.UUID) (int, error) {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return 0, err
	}
	for _, leadID := range leadIDs {
		lead, err := s.LeadRepo.GetByID(leadID)
		if err != nil {
			return 0, err
		}
		if lead == nil {
			return 0, appErrors.NewLeadNotFound(leadID)
		}
	}
	return s.CampaignRepo.AddLeads(campaignID, leadIDs)
}

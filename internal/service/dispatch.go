// internal/service/dispatch.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/salesagentai/outreach-backend/internal/mail"
	"github.com/salesagentai/outreach-backend/internal/model"
)

const (
	// DefaultSendDelay spaces consecutive transport calls within a batch.
	DefaultSendDelay = 200 * time.Millisecond

	// DefaultSendTimeout bounds one transport call; a hang counts as a
	// failure for that message only.
	DefaultSendTimeout = 30 * time.Second

	// BatchCeiling caps one campaign's batch per tick regardless of its
	// daily limit, so a single campaign cannot monopolize a tick.
	BatchCeiling = 100
)

// DispatchCampaignRepository is the slice of the campaign store the
// dispatcher needs.
type DispatchCampaignRepository interface {
	ListDueCampaigns() ([]*model.Campaign, error)
	CommitQuota(campaignID uuid.UUID, sentDelta int, today time.Time) error
}

// DispatchEmailRepository is the slice of the email store the dispatcher
// needs.
type DispatchEmailRepository interface {
	SelectApproved(campaignID uuid.UUID, limit int) ([]*model.DispatchEmail, error)
	MarkSent(id uuid.UUID, sentAt time.Time, providerMessageID string) error
	MarkFailed(id uuid.UUID, reason string) error
}

type SendFailure struct {
	EmailID uuid.UUID
	Reason  string
}

type SendResult struct {
	Sent     int
	Failures []SendFailure
}

// Dispatcher runs the per-tick pipeline: due check, quota, selection, send,
// quota commit. One instance is driven by the scheduler loop.
type Dispatcher struct {
	CampaignRepo DispatchCampaignRepository
	EmailRepo    DispatchEmailRepository
	Transport    mail.Transport

	Clock       Clock         // nil means wall clock
	SendDelay   time.Duration // zero means DefaultSendDelay
	SendTimeout time.Duration // zero means DefaultSendTimeout
}

func (d *Dispatcher) now() time.Time {
	if d.Clock != nil {
		return d.Clock.Now()
	}
	return time.Now()
}

func (d *Dispatcher) sendDelay() time.Duration {
	if d.SendDelay > 0 {
		return d.SendDelay
	}
	return DefaultSendDelay
}

func (d *Dispatcher) sendTimeout() time.Duration {
	if d.SendTimeout > 0 {
		return d.SendTimeout
	}
	return DefaultSendTimeout
}

// RunTick processes every active scheduled campaign once. A failure in one
// campaign is logged and never stops the others.
func (d *Dispatcher) RunTick(ctx context.Context) error {
	campaigns, err := d.CampaignRepo.ListDueCampaigns()
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}
	log.Printf("[INFO] Found %d active scheduled campaigns", len(campaigns))

	for _, c := range campaigns {
		if err := d.ProcessCampaign(ctx, c); err != nil {
			log.Printf("[ERROR] Campaign %s (%s): %v", c.Name, c.ID, err)
		}
	}
	return nil
}

// ProcessCampaign runs the fixed pipeline for one campaign.
func (d *Dispatcher) ProcessCampaign(ctx context.Context, c *model.Campaign) error {
	log.Printf("[EMAIL] Processing campaign: %s (%s)", c.Name, c.ID)
	now := d.now()

	if !IsDue(c, now) {
		log.Printf("[TIME] Not time yet for campaign %s", c.Name)
		return nil
	}

	remaining := RemainingQuota(c, now)
	if remaining == 0 {
		log.Printf("[LIMIT] Daily limit reached for campaign %s", c.Name)
		return nil
	}
	if remaining > BatchCeiling {
		remaining = BatchCeiling
	}

	batch, err := d.EmailRepo.SelectApproved(c.ID, remaining)
	if err != nil {
		return fmt.Errorf("failed to select approved emails: %w", err)
	}
	if len(batch) == 0 {
		log.Printf("[EMPTY] No emails to send for campaign %s", c.Name)
		return nil
	}

	log.Printf("[SEND] Sending %d emails for campaign %s", len(batch), c.Name)
	result := d.SendBatch(ctx, batch)

	// One commit per batch. A crash before this line under-counts quota
	// for the day, never over-counts, so a campaign can never wedge.
	if result.Sent > 0 {
		loc, lerr := campaignLocation(c)
		if lerr != nil {
			loc = time.UTC
		}
		if err := d.CampaignRepo.CommitQuota(c.ID, result.Sent, d.now().In(loc)); err != nil {
			return fmt.Errorf("failed to commit quota for %d sends: %w", result.Sent, err)
		}
	}

	log.Printf("[OK] Sent %d/%d emails for campaign %s", result.Sent, len(batch), c.Name)
	return nil
}

// SendBatch sends each email independently. A rejected or timed-out message
// is marked failed and the loop continues; nothing in here returns an error
// past the batch.
func (d *Dispatcher) SendBatch(ctx context.Context, batch []*model.DispatchEmail) *SendResult {
	result := &SendResult{}

	for i, email := range batch {
		if i > 0 {
			time.Sleep(d.sendDelay())
		}

		log.Printf("  [OUT] Sending to: %s <%s>", email.LeadName, email.LeadEmail)

		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout())
		providerID, err := d.Transport.Send(sendCtx, email.LeadEmail, email.LeadName, email.Subject, email.Body)
		cancel()

		if err != nil {
			log.Printf("  [ERROR] Failed to send to %s: %v", email.LeadEmail, err)
			result.Failures = append(result.Failures, SendFailure{EmailID: email.ID, Reason: err.Error()})
			if uerr := d.EmailRepo.MarkFailed(email.ID, err.Error()); uerr != nil {
				log.Printf("  [ERROR] Failed to mark email %s failed: %v", email.ID, uerr)
			}
			continue
		}

		// The transport accepted the message, so it counts against quota
		// even if the status write below fails.
		result.Sent++
		if uerr := d.EmailRepo.MarkSent(email.ID, d.now(), providerID); uerr != nil {
			log.Printf("  [ERROR] Failed to mark email %s sent: %v", email.ID, uerr)
			continue
		}
		log.Printf("  [OK] Sent successfully (provider id: %s)", providerID)
	}

	return result
}

// internal/service/schedule.go
package service

import (
	"fmt"
	"log"
	"time"

	"github.com/salesagentai/outreach-backend/internal/model"
)

// Clock abstracts wall-clock access so the dispatch pipeline can be tested
// with fixed instants.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func RealClock() Clock { return realClock{} }

// campaignLocation resolves the campaign's timezone, defaulting to UTC when
// unset.
func campaignLocation(c *model.Campaign) (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return time.LoadLocation(tz)
}

// parseStartTime accepts "15:04" or "15:04:05".
func parseStartTime(s string) (hour, min, sec int, err error) {
	if _, err = fmt.Sscanf(s, "%d:%d:%d", &hour, &min, &sec); err != nil {
		hour, min, sec = 0, 0, 0
		if _, err = fmt.Sscanf(s, "%d:%d", &hour, &min); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid start time %q", s)
		}
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return 0, 0, 0, fmt.Errorf("invalid start time %q", s)
	}
	return hour, min, sec, nil
}

// IsDue reports whether the campaign's scheduled start instant has arrived
// in its own timezone. Once true it stays true on every later instant; a
// malformed timezone or start time fails closed so one bad row can never
// take down the loop.
func IsDue(c *model.Campaign, now time.Time) bool {
	if c.Status != model.CampaignStatusActive || !c.Schedulable() {
		return false
	}

	loc, err := campaignLocation(c)
	if err != nil {
		log.Printf("⚠️ campaign %s has invalid timezone %q: %v", c.ID, c.Timezone, err)
		return false
	}

	hour, min, sec, err := parseStartTime(*c.ScheduledStartTime)
	if err != nil {
		log.Printf("⚠️ campaign %s: %v", c.ID, err)
		return false
	}

	d := *c.ScheduledStartDate
	start := time.Date(d.Year(), d.Month(), d.Day(), hour, min, sec, 0, loc)
	return !now.In(loc).Before(start)
}

// RemainingQuota returns how many emails the campaign may still send today
// in its own timezone, always within [0, daily limit]. A last_send_date
// other than today means the stored counter is stale and the full limit is
// available; the persisted reset happens lazily in CommitQuota.
func RemainingQuota(c *model.Campaign, now time.Time) int {
	limit := c.DailySendLimit
	if limit <= 0 {
		limit = model.DefaultDailySendLimit
	}

	loc, err := campaignLocation(c)
	if err != nil {
		// Fail closed like IsDue; an undispatchable campaign sends nothing.
		return 0
	}

	if c.LastSendDate == nil || !sameDate(*c.LastSendDate, now.In(loc)) {
		return limit
	}

	remaining := limit - c.EmailsSentToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// sameDate compares calendar dates ignoring the time of day. The stored
// last_send_date is a plain DATE, so only its y/m/d fields are meaningful.
func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

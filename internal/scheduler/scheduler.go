// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/salesagentai/outreach-backend/internal/service"
)

const DefaultTickInterval = time.Minute

// Scheduler drives the dispatch pipeline on a fixed wall-clock interval.
// Ticks are single-flight: cron's SkipIfStillRunning drops a tick that
// fires while the previous one is still processing campaigns.
type Scheduler struct {
	dispatcher *service.Dispatcher
	interval   time.Duration
	c          *cron.Cron

	ticks     int64
	tickErrs  int64
	startedAt time.Time
}

func New(d *service.Dispatcher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{
		dispatcher: d,
		interval:   interval,
	}
}

func (s *Scheduler) Start() error {
	if s.c != nil {
		return fmt.Errorf("scheduler already running")
	}

	s.c = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := s.c.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runTick); err != nil {
		s.c = nil
		return fmt.Errorf("failed to schedule tick: %w", err)
	}

	s.startedAt = time.Now()
	s.c.Start()
	log.Printf("[START] Scheduler started, checking every %s", s.interval)
	return nil
}

// Stop waits for an in-flight tick to finish before returning. A send in
// progress is never aborted mid-flight.
func (s *Scheduler) Stop() {
	if s.c == nil {
		return
	}
	log.Println("[STOP] Shutting down scheduler...")
	<-s.c.Stop().Done()
	s.c = nil
	log.Printf("[OK] Scheduler stopped after %d ticks (%d with errors)",
		atomic.LoadInt64(&s.ticks), atomic.LoadInt64(&s.tickErrs))
}

func (s *Scheduler) runTick() {
	atomic.AddInt64(&s.ticks, 1)
	log.Println("[CHECK] Checking for campaigns to send...")

	if err := s.dispatcher.RunTick(context.Background()); err != nil {
		atomic.AddInt64(&s.tickErrs, 1)
		log.Printf("[ERROR] Tick failed: %v", err)
	}
}

// Ticks returns how many ticks have fired since Start.
func (s *Scheduler) Ticks() int64 {
	return atomic.LoadInt64(&s.ticks)
}

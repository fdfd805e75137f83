package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesagentai/outreach-backend/internal/model"
	"github.com/salesagentai/outreach-backend/internal/service"
)

// emptyCampaignStore satisfies the dispatcher with no due campaigns, so a
// tick runs the full pipeline and does nothing.
type emptyCampaignStore struct{}

func (emptyCampaignStore) ListDueCampaigns() ([]*model.Campaign, error) { return nil, nil }
func (emptyCampaignStore) CommitQuota(campaignID uuid.UUID, sentDelta int, today time.Time) error {
	return nil
}

func newTestScheduler() *Scheduler {
	d := &service.Dispatcher{}
	return New(d, 0)
}

func TestNewDefaultsInterval(t *testing.T) {
	s := newTestScheduler()
	assert.Equal(t, DefaultTickInterval, s.interval)

	s = New(&service.Dispatcher{}, 5*time.Second)
	assert.Equal(t, 5*time.Second, s.interval)
}

func TestTicksFire(t *testing.T) {
	d := &service.Dispatcher{CampaignRepo: emptyCampaignStore{}}
	s := New(d, 10*time.Millisecond)

	assert.Zero(t, s.Ticks())
	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return s.Ticks() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	// Stopped schedulers tick no further.
	after := s.Ticks()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, s.Ticks())
}

func TestStartStopLifecycle(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "double start must fail")

	s.Stop()
	assert.Nil(t, s.c)

	// Stop is idempotent and a stopped scheduler can start again.
	s.Stop()
	require.NoError(t, s.Start())
	s.Stop()
}

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesagentai/outreach-backend/internal/model"
)

// ====================== Test doubles ======================

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

type quotaCommit struct {
	campaignID uuid.UUID
	delta      int
	today      time.Time
}

type mockCampaignRepo struct {
	campaigns []*model.Campaign
	listErr   error
	commits   []quotaCommit
	commitErr error
}

func (m *mockCampaignRepo) ListDueCampaigns() ([]*model.Campaign, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.campaigns, nil
}

// CommitQuota mirrors the SQL: a stale stored date resets the daily counter
// to the delta instead of accumulating.
func (m *mockCampaignRepo) CommitQuota(campaignID uuid.UUID, sentDelta int, today time.Time) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits = append(m.commits, quotaCommit{campaignID, sentDelta, today})
	for _, c := range m.campaigns {
		if c.ID != campaignID {
			continue
		}
		if c.LastSendDate != nil && sameDate(*c.LastSendDate, today) {
			c.EmailsSentToday += sentDelta
		} else {
			c.EmailsSentToday = sentDelta
		}
		day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		c.LastSendDate = &day
		c.EmailsSent += sentDelta
	}
	return nil
}

type mockEmailRepo struct {
	emails    []*model.DispatchEmail
	statuses  map[uuid.UUID]string // defaults to approved
	failures  map[uuid.UUID]string
	sentAt    map[uuid.UUID]time.Time
	selectErr map[uuid.UUID]error
}

func newMockEmailRepo(emails ...*model.DispatchEmail) *mockEmailRepo {
	r := &mockEmailRepo{
		emails:    emails,
		statuses:  map[uuid.UUID]string{},
		failures:  map[uuid.UUID]string{},
		sentAt:    map[uuid.UUID]time.Time{},
		selectErr: map[uuid.UUID]error{},
	}
	for _, e := range emails {
		r.statuses[e.ID] = model.EmailStatusApproved
	}
	return r
}

func (m *mockEmailRepo) SelectApproved(campaignID uuid.UUID, limit int) ([]*model.DispatchEmail, error) {
	if err := m.selectErr[campaignID]; err != nil {
		return nil, err
	}
	out := []*model.DispatchEmail{}
	for _, e := range m.emails {
		if m.statuses[e.ID] != model.EmailStatusApproved {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockEmailRepo) MarkSent(id uuid.UUID, sentAt time.Time, providerMessageID string) error {
	m.statuses[id] = model.EmailStatusSent
	m.sentAt[id] = sentAt
	return nil
}

func (m *mockEmailRepo) MarkFailed(id uuid.UUID, reason string) error {
	m.statuses[id] = model.EmailStatusFailed
	m.failures[id] = reason
	return nil
}

type fakeTransport struct {
	rejections map[string]string // recipient address -> rejection reason
	calls      []string
}

func (f *fakeTransport) Send(ctx context.Context, toEmail, toName, subject, body string) (string, error) {
	f.calls = append(f.calls, toEmail)
	if reason, ok := f.rejections[toEmail]; ok {
		return "", fmt.Errorf("%s", reason)
	}
	return "prov-" + toEmail, nil
}

// ====================== Helpers ======================

func dispatchEmail(addr string, createdAt time.Time) *model.DispatchEmail {
	return &model.DispatchEmail{
		ID:        uuid.New(),
		LeadID:    uuid.New(),
		Subject:   "Quick question",
		Body:      "<p>Hello</p>",
		LeadEmail: addr,
		LeadName:  "Lead " + addr,
		CreatedAt: createdAt,
	}
}

func newDispatcher(cr *mockCampaignRepo, er *mockEmailRepo, tr *fakeTransport, clock Clock) *Dispatcher {
	return &Dispatcher{
		CampaignRepo: cr,
		EmailRepo:    er,
		Transport:    tr,
		Clock:        clock,
		SendDelay:    time.Millisecond,
	}
}

// ====================== Tests ======================

func TestProcessCampaignNotDue(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)}
	c := activeCampaign(datePtr(2026, time.June, 11), strPtr("00:00"), "UTC")
	c.ID = uuid.New()

	emails := newMockEmailRepo(dispatchEmail("a@x.example", clock.t))
	campaigns := &mockCampaignRepo{campaigns: []*model.Campaign{c}}
	transport := &fakeTransport{}

	d := newDispatcher(campaigns, emails, transport, clock)
	require.NoError(t, d.ProcessCampaign(context.Background(), c))

	assert.Empty(t, transport.calls)
	assert.Empty(t, campaigns.commits)
}

func TestProcessCampaignQuotaExhausted(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)}
	c := activeCampaign(datePtr(2026, time.June, 10), strPtr("00:00"), "UTC")
	c.ID = uuid.New()
	c.DailySendLimit = 5
	c.EmailsSentToday = 5
	c.LastSendDate = datePtr(2026, time.June, 10)

	emails := newMockEmailRepo(dispatchEmail("a@x.example", clock.t))
	campaigns := &mockCampaignRepo{campaigns: []*model.Campaign{c}}
	transport := &fakeTransport{}

	d := newDispatcher(campaigns, emails, transport, clock)
	require.NoError(t, d.ProcessCampaign(context.Background(), c))

	assert.Empty(t, transport.calls)
	assert.Empty(t, campaigns.commits)
}

func TestProcessCampaignSendsOldestUpToQuota(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)}
	c := activeCampaign(datePtr(2026, time.June, 10), strPtr("00:00"), "UTC")
	c.ID = uuid.New()
	c.DailySendLimit = 2

	e1 := dispatchEmail("first@x.example", clock.t.Add(-3*time.Hour))
	e2 := dispatchEmail("second@x.example", clock.t.Add(-2*time.Hour))
	e3 := dispatchEmail("third@x.example", clock.t.Add(-1*time.Hour))

	emails := newMockEmailRepo(e1, e2, e3)
	campaigns := &mockCampaignRepo{campaigns: []*model.Campaign{c}}
	transport := &fakeTransport{}

	d := newDispatcher(campaigns, emails, transport, clock)
	require.NoError(t, d.ProcessCampaign(context.Background(), c))

	// Oldest two sent, in created_at order.
	assert.Equal(t, []string{"first@x.example", "second@x.example"}, transport.calls)
	assert.Equal(t, model.EmailStatusSent, emails.statuses[e1.ID])
	assert.Equal(t, model.EmailStatusSent, emails.statuses[e2.ID])
	assert.Equal(t, model.EmailStatusApproved, emails.statuses[e3.ID])
	assert.Equal(t, clock.t, emails.sentAt[e1.ID])

	require.Len(t, campaigns.commits, 1)
	assert.Equal(t, 2, campaigns.commits[0].delta)
	assert.Equal(t, c.ID, campaigns.commits[0].campaignID)
}

func TestSendBatchFailureIsolation(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)}
	c := activeCampaign(datePtr(2026, time.June, 10), strPtr("00:00"), "UTC")
	c.ID = uuid.New()
	c.DailySendLimit = 10

	bad := dispatchEmail("reject@x.example", clock.t.Add(-2*time.Hour))
	good := dispatchEmail("accept@x.example", clock.t.Add(-1*time.Hour))

	emails := newMockEmailRepo(bad, good)
	campaigns := &mockCampaignRepo{campaigns: []*model.Campaign{c}}
	transport := &fakeTransport{rejections: map[string]string{"reject@x.example": "mailbox unavailable"}}

	d := newDispatcher(campaigns, emails, transport, clock)
	require.NoError(t, d.ProcessCampaign(context.Background(), c))

	// The rejection did not stop the second send.
	assert.Equal(t, []string{"reject@x.example", "accept@x.example"}, transport.calls)
	assert.Equal(t, model.EmailStatusFailed, emails.statuses[bad.ID])
	assert.Equal(t, "mailbox unavailable", emails.failures[bad.ID])
	assert.Equal(t, model.EmailStatusSent, emails.statuses[good.ID])

	// Quota reflects only the success.
	require.Len(t, campaigns.commits, 1)
	assert.Equal(t, 1, campaigns.commits[0].delta)
}

func TestProcessCampaignAllFailedSkipsCommit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)}
	c := activeCampaign(datePtr(2026, time.June, 10), strPtr("00:00"), "UTC")
	c.ID = uuid.New()

	e := dispatchEmail("reject@x.example", clock.t)
	emails := newMockEmailRepo(e)
	campaigns := &mockCampaignRepo{campaigns: []*model.Campaign{c}}
	transport := &fakeTransport{rejections: map[string]string{"reject@x.example": "blocked"}}

	d := newDispatcher(campaigns, emails, transport, clock)
	require.NoError(t, d.ProcessCampaign(context.Background(), c))

	assert.Equal(t, model.EmailStatusFailed, emails.statuses[e.ID])
	assert.Empty(t, campaigns.commits, "a fully failed batch consumes no quota")
}

func TestDailyRolloverEndToEnd(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)}
	c := activeCampaign(datePtr(2026, time.June, 10), strPtr("00:00"), "UTC")
	c.ID = uuid.New()
	c.DailySendLimit = 2

	e1 := dispatchEmail("one@x.example", clock.t.Add(-3*time.Hour))
	e2 := dispatchEmail("two@x.example", clock.t.Add(-2*time.Hour))
	e3 := dispatchEmail("three@x.example", clock.t.Add(-1*time.Hour))

	emails := newMockEmailRepo(e1, e2, e3)
	campaigns := &mockCampaignRepo{campaigns: []*model.Campaign{c}}
	transport := &fakeTransport{}
	d := newDispatcher(campaigns, emails, transport, clock)

	// First tick: two oldest go out.
	require.NoError(t, d.RunTick(context.Background()))
	assert.Equal(t, 2, c.EmailsSentToday)
	assert.Equal(t, 2, c.EmailsSent)
	assert.Len(t, transport.calls, 2)

	// Second tick the same day: quota exhausted, nothing happens.
	require.NoError(t, d.RunTick(context.Background()))
	assert.Len(t, transport.calls, 2)
	assert.Len(t, campaigns.commits, 1)

	// Next day: quota is fresh and the remaining email goes out.
	clock.t = clock.t.Add(24 * time.Hour)
	require.NoError(t, d.RunTick(context.Background()))
	assert.Equal(t, []string{"one@x.example", "two@x.example", "three@x.example"}, transport.calls)
	assert.Equal(t, 1, c.EmailsSentToday)
	assert.Equal(t, 3, c.EmailsSent)
	assert.Equal(t, model.EmailStatusSent, emails.statuses[e3.ID])
}

func TestRunTickCampaignErrorIsolation(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)}

	broken := activeCampaign(datePtr(2026, time.June, 10), strPtr("00:00"), "UTC")
	broken.ID = uuid.New()
	healthy := activeCampaign(datePtr(2026, time.June, 10), strPtr("00:00"), "UTC")
	healthy.ID = uuid.New()

	e := dispatchEmail("ok@x.example", clock.t)
	emails := newMockEmailRepo(e)
	emails.selectErr[broken.ID] = fmt.Errorf("connection reset")

	campaigns := &mockCampaignRepo{campaigns: []*model.Campaign{broken, healthy}}
	transport := &fakeTransport{}

	d := newDispatcher(campaigns, emails, transport, clock)
	require.NoError(t, d.RunTick(context.Background()))

	// The broken campaign is logged and skipped; the healthy one still sends.
	assert.Equal(t, []string{"ok@x.example"}, transport.calls)
}

func TestRunTickListError(t *testing.T) {
	campaigns := &mockCampaignRepo{listErr: fmt.Errorf("db down")}
	d := newDispatcher(campaigns, newMockEmailRepo(), &fakeTransport{}, &fakeClock{t: time.Now()})

	err := d.RunTick(context.Background())
	assert.Error(t, err)
}

package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesagentai/outreach-backend/internal/model"
)

type mockEmailRepo struct {
	emails  map[uuid.UUID]*model.OutreachEmail
	updates map[uuid.UUID]string
}

func (m *mockEmailRepo) GetByID(id uuid.UUID) (*model.OutreachEmail, error) {
	return m.emails[id], nil
}

func (m *mockEmailRepo) UpdateStatus(id uuid.UUID, status string) error {
	if m.updates == nil {
		m.updates = map[uuid.UUID]string{}
	}
	m.updates[id] = status
	m.emails[id].Status = status
	return nil
}

func TestStatusForEvent(t *testing.T) {
	tests := []struct {
		event  string
		status string
		ok     bool
	}{
		{"delivered", model.EmailStatusDelivered, true},
		{"open", model.EmailStatusOpened, true},
		{"click", model.EmailStatusOpened, true},
		{"bounce", model.EmailStatusBounced, true},
		{"dropped", model.EmailStatusDropped, true},
		{"spamreport", model.EmailStatusSpamReported, true},
		{"unsubscribe", model.EmailStatusUnsubscribed, true},
		{"group_unsubscribe", model.EmailStatusUnsubscribed, true},
		{"processed", "", false},
		{"deferred", "", false},
	}

	for _, tt := range tests {
		status, ok := StatusForEvent(tt.event)
		assert.Equal(t, tt.ok, ok, tt.event)
		assert.Equal(t, tt.status, status, tt.event)
	}
}

func TestApplyAdvancesStatus(t *testing.T) {
	id := uuid.New()
	repo := &mockEmailRepo{emails: map[uuid.UUID]*model.OutreachEmail{
		id: {ID: id, Status: model.EmailStatusSent},
	}}
	c := &Consumer{Repo: repo}

	require.NoError(t, c.Apply(id, model.EmailStatusDelivered))
	assert.Equal(t, model.EmailStatusDelivered, repo.updates[id])

	require.NoError(t, c.Apply(id, model.EmailStatusOpened))
	assert.Equal(t, model.EmailStatusOpened, repo.updates[id])
}

func TestApplyNeverRegresses(t *testing.T) {
	id := uuid.New()
	repo := &mockEmailRepo{emails: map[uuid.UUID]*model.OutreachEmail{
		id: {ID: id, Status: model.EmailStatusOpened},
	}}
	c := &Consumer{Repo: repo}

	// A late "delivered" event must not undo "opened".
	require.NoError(t, c.Apply(id, model.EmailStatusDelivered))
	assert.Empty(t, repo.updates)
}

func TestApplyIgnoresUnsentEmails(t *testing.T) {
	id := uuid.New()
	repo := &mockEmailRepo{emails: map[uuid.UUID]*model.OutreachEmail{
		id: {ID: id, Status: model.EmailStatusDraft},
	}}
	c := &Consumer{Repo: repo}

	require.NoError(t, c.Apply(id, model.EmailStatusDelivered))
	assert.Empty(t, repo.updates)
}

func TestRetryCount(t *testing.T) {
	assert.Equal(t, int32(0), retryCount(nil))
	assert.Equal(t, int32(0), retryCount(amqp.Table{}))
	assert.Equal(t, int32(2), retryCount(amqp.Table{"x-retry-count": int32(2)}))
	assert.Equal(t, int32(2), retryCount(amqp.Table{"x-retry-count": int64(2)}))
	assert.Equal(t, int32(0), retryCount(amqp.Table{"x-retry-count": "2"}))

	// Each republish carries attempts+1, so the counter reaches the cap
	// after exactly maxEventRetries failures.
	attempts := retryCount(nil)
	for i := 0; i < maxEventRetries; i++ {
		assert.Less(t, attempts, int32(maxEventRetries))
		attempts++
	}
	assert.GreaterOrEqual(t, attempts, int32(maxEventRetries))
}

func TestApplyUnknownEmail(t *testing.T) {
	repo := &mockEmailRepo{emails: map[uuid.UUID]*model.OutreachEmail{}}
	c := &Consumer{Repo: repo}

	require.NoError(t, c.Apply(uuid.New(), model.EmailStatusDelivered))
	assert.Empty(t, repo.updates)
}

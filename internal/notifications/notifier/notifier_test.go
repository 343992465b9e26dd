package notifier

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
	"foodbank-notifier/internal/notifications/message"
	"foodbank-notifier/internal/notifications/recipients"
	"foodbank-notifier/internal/store"
)

type MockGateway struct {
	SendFunc func(ctx context.Context, token string, event *models.NotificationEvent) (string, error)

	mu     sync.Mutex
	events []*models.NotificationEvent
}

func (m *MockGateway) Send(ctx context.Context, token string, event *models.NotificationEvent) (string, error) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, token, event)
	}
	return "id", nil
}

type MockRecorder struct {
	RecordFunc func(ctx context.Context, results []models.DispatchResult) (int, error)
	calls      int
}

func (m *MockRecorder) Record(ctx context.Context, results []models.DispatchResult) (int, error) {
	m.calls++
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, results)
	}
	return 0, nil
}

type lookupFailingStore struct {
	store.UserStore
}

func (lookupFailingStore) GetUser(context.Context, string) (*models.Recipient, error) {
	return nil, stderrors.New("unavailable")
}

func newTestNotifier(t *testing.T, users store.UserStore, gw *MockGateway, rec *MockRecorder) *Notifier {
	log := logger.NewTestLogger(t)
	var recorder TokenRecorder
	if rec != nil {
		recorder = rec
	}
	return New(
		recipients.NewResolver(users, log),
		dispatch.New(gw, dispatch.Config{MaxConcurrency: 2}, log),
		recorder,
		log,
	)
}

func seededUsers() *store.MemoryStore {
	s := store.NewMemoryStore()
	s.PutUser(models.Recipient{UID: "admin-1", IsAdmin: true, Token: "a1"})
	s.PutUser(models.Recipient{UID: "admin-2", IsAdmin: true, Token: "a2"})
	s.PutUser(models.Recipient{UID: "admin-3", IsAdmin: true})
	s.PutUser(models.Recipient{UID: "beneficiary", Token: "b1"})
	s.PutUser(models.Recipient{UID: "tokenless"})
	return s
}

func TestNotifyAdmins(t *testing.T) {
	gw := &MockGateway{}
	rec := &MockRecorder{}
	n := newTestNotifier(t, seededUsers(), gw, rec)

	summary, err := n.NotifyAdmins(context.Background(), models.EventNewRequest, message.Params{RequestID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, dispatch.Summary{SuccessCount: 2}, summary)
	assert.True(t, summary.Delivered())
	assert.Len(t, gw.events, 2)
	assert.Equal(t, "r1", gw.events[0].Data["requestId"])
	assert.Equal(t, 1, rec.calls)
}

func TestNotifyUser(t *testing.T) {
	tests := []struct {
		name          string
		uid           string
		users         store.UserStore
		wantSummary   dispatch.Summary
		wantErrCode   errors.ErrorCode
		wantGatewayOK bool
	}{
		{
			name:          "token present",
			uid:           "beneficiary",
			users:         seededUsers(),
			wantSummary:   dispatch.Summary{SuccessCount: 1},
			wantGatewayOK: true,
		},
		{
			name:  "no token",
			uid:   "tokenless",
			users: seededUsers(),
		},
		{
			name:  "missing user",
			uid:   "ghost",
			users: seededUsers(),
		},
		{
			name:        "lookup failure",
			uid:         "beneficiary",
			users:       lookupFailingStore{UserStore: seededUsers()},
			wantErrCode: errors.ErrCodeRecipientLookupFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &MockGateway{}
			n := newTestNotifier(t, tt.users, gw, nil)

			summary, err := n.NotifyUser(context.Background(), tt.uid, models.EventRequestAccepted, message.Params{RequestID: "r1"})
			if tt.wantErrCode != "" {
				assert.True(t, errors.IsCode(err, tt.wantErrCode))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantSummary, summary)
			assert.Equal(t, tt.wantGatewayOK, len(gw.events) == 1)
		})
	}
}

func TestNotify_Routing(t *testing.T) {
	gw := &MockGateway{}
	n := newTestNotifier(t, seededUsers(), gw, nil)
	ctx := context.Background()

	summary, err := n.Notify(ctx, models.EventNewApplication, "ignored", message.Params{ApplicationID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SuccessCount)

	summary, err = n.Notify(ctx, models.EventDateProposed, "beneficiary", message.Params{ProposedDate: "2024-06-01"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)

	_, err = n.Notify(ctx, models.EventDateProposed, "", message.Params{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidNotificationRequest))

	_, err = n.Notify(ctx, "unknown", "beneficiary", message.Params{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidNotificationRequest))
}

func TestNotifyUser_FailedSendIsNotDelivered(t *testing.T) {
	gw := &MockGateway{
		SendFunc: func(context.Context, string, *models.NotificationEvent) (string, error) {
			return "", &dispatch.SendError{Code: dispatch.CodeUnregistered, Err: stderrors.New("not registered")}
		},
	}
	var recorded []models.DispatchResult
	rec := &MockRecorder{
		RecordFunc: func(_ context.Context, results []models.DispatchResult) (int, error) {
			recorded = results
			return 1, nil
		},
	}
	n := newTestNotifier(t, seededUsers(), gw, rec)

	summary, err := n.NotifyUser(context.Background(), "beneficiary", models.EventPickupReminder, message.Params{})
	require.NoError(t, err)
	assert.False(t, summary.Delivered())
	assert.Equal(t, 1, summary.FailureCount)
	require.Len(t, recorded, 1)
	assert.Equal(t, dispatch.CodeUnregistered, recorded[0].ErrorCode)
}

type fanOut struct {
	eventType        string
	success, failure int
}

type MockFanOutRecorder struct {
	recorded []fanOut
}

func (m *MockFanOutRecorder) RecordNotifications(_ context.Context, eventType string, success, failure int) {
	m.recorded = append(m.recorded, fanOut{eventType, success, failure})
}

func TestNotify_ReportsFanOut(t *testing.T) {
	log := logger.NewTestLogger(t)
	users := seededUsers()
	fanOuts := &MockFanOutRecorder{}
	n := New(
		recipients.NewResolver(users, log),
		dispatch.New(&MockGateway{}, dispatch.Config{MaxConcurrency: 2}, log),
		nil,
		log,
		WithFanOutRecorder(fanOuts),
	)

	_, err := n.Notify(context.Background(), models.EventNewApplication, "", message.Params{ApplicationID: "a1"})
	require.NoError(t, err)

	assert.Equal(t, []fanOut{{"new_application", 2, 0}}, fanOuts.recorded)
}

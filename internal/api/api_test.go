package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
	"foodbank-notifier/internal/notifications/notifier"
	"foodbank-notifier/internal/notifications/recipients"
	"foodbank-notifier/internal/notifications/scan"
	"foodbank-notifier/internal/store"
)

type MockGateway struct {
	SendFunc func(ctx context.Context, token string, event *models.NotificationEvent) (string, error)

	mu     sync.Mutex
	tokens []string
}

func (m *MockGateway) Send(ctx context.Context, token string, event *models.NotificationEvent) (string, error) {
	m.mu.Lock()
	m.tokens = append(m.tokens, token)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, token, event)
	}
	return "msg-" + token, nil
}

type MockCleaner struct {
	RunFunc func(ctx context.Context) (models.CleanupSummary, error)
}

func (m *MockCleaner) Run(ctx context.Context) (models.CleanupSummary, error) {
	return m.RunFunc(ctx)
}

type MockExpirationScanner struct {
	ScanFunc func(ctx context.Context) (*models.ExpirationSummary, error)
}

func (m *MockExpirationScanner) Scan(ctx context.Context) (*models.ExpirationSummary, error) {
	return m.ScanFunc(ctx)
}

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func ptr(t time.Time) *time.Time { return &t }

type fixture struct {
	store   *store.MemoryStore
	gateway *MockGateway
	deps    Dependencies
}

func newFixture(t *testing.T) *fixture {
	log := logger.NewTestLogger(t)
	s := store.NewMemoryStore()
	gw := &MockGateway{}

	resolver := recipients.NewResolver(s, log)
	sender := dispatch.New(gw, dispatch.Config{MaxConcurrency: 4, SendTimeout: time.Second}, log)

	return &fixture{
		store:   s,
		gateway: gw,
		deps: Dependencies{
			Expiration: scan.NewExpirationScanner(s, resolver, sender, 3, log, scan.WithClock(clock)),
			Pickup:     scan.NewPickupScanner(s, resolver, sender, time.UTC, log, scan.WithClock(clock)),
			Notifier:   notifier.New(resolver, sender, nil, log),
			Readiness:  map[string]Pinger{"store": s},
		},
	}
}

func (f *fixture) serve(t *testing.T, cfg Config, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := New(cfg, f.deps, logger.NewTestLogger(t))

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestScanExpiringItems(t *testing.T) {
	f := newFixture(t)
	f.store.PutItem(models.StockItem{ID: "a", Quantity: 2, ExpirationDate: ptr(now.Add(24 * time.Hour))})
	f.store.PutItem(models.StockItem{ID: "b", Quantity: 1, ExpirationDate: ptr(now.Add(48 * time.Hour))})
	f.store.PutItem(models.StockItem{ID: "late", Quantity: 1, ExpirationDate: ptr(now.Add(10 * 24 * time.Hour))})
	f.store.PutUser(models.Recipient{UID: "admin", IsAdmin: true, Token: "tok-admin"})

	rec := f.serve(t, Config{}, http.MethodPost, "/v1/scans/expiring-items", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"itemCount":2,"notificationsSent":1}`, rec.Body.String())
	assert.Equal(t, []string{"tok-admin"}, f.gateway.tokens)
}

func TestScanExpiringItems_Failure(t *testing.T) {
	f := newFixture(t)
	f.deps.Expiration = &MockExpirationScanner{
		ScanFunc: func(context.Context) (*models.ExpirationSummary, error) {
			return nil, errors.NewQueryExecutionFailedError("items.expiring", stderrors.New("deadline exceeded"))
		},
	}

	rec := f.serve(t, Config{}, http.MethodPost, "/v1/scans/expiring-items", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body["error"], "deadline exceeded")
	assert.Equal(t, "QUERY_EXECUTION_FAILED", body["code"])
}

func TestScanPickupReminders(t *testing.T) {
	f := newFixture(t)
	f.store.PutRequest(models.Request{ID: "r1", Status: models.RequestStatusAwaitingPickup, UserID: "u1", ScheduledPickupDate: ptr(now.Add(2 * time.Hour))})
	f.store.PutRequest(models.Request{ID: "r2", Status: models.RequestStatusAwaitingPickup, UserID: "ghost", ScheduledPickupDate: ptr(now.Add(3 * time.Hour))})
	f.store.PutRequest(models.Request{ID: "r3", Status: 2, UserID: "u1", ScheduledPickupDate: ptr(now)})
	f.store.PutUser(models.Recipient{UID: "u1", Token: "tok-u1"})

	rec := f.serve(t, Config{}, http.MethodPost, "/v1/scans/pickup-reminders", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"remindersSent":1,"totalPickups":2}`, rec.Body.String())
}

func TestSendNotification(t *testing.T) {
	f := newFixture(t)
	f.store.PutUser(models.Recipient{UID: "u1", Token: "tok-u1"})

	rec := f.serve(t, Config{}, http.MethodPost, "/v1/notifications",
		`{"type":"request_accepted","userId":"u1","params":{"requestId":"r1"}}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"successCount":1,"failureCount":0,"delivered":true}`, rec.Body.String())
	assert.Equal(t, []string{"tok-u1"}, f.gateway.tokens)
}

func TestSendNotification_MissingUserIsNotAnError(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(t, Config{}, http.MethodPost, "/v1/notifications",
		`{"type":"date_proposed","userId":"nobody","params":{"proposedDate":"2024-05-12"}}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"successCount":0,"failureCount":0,"delivered":false}`, rec.Body.String())
	assert.Empty(t, f.gateway.tokens)
}

func TestSendNotification_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"type":`},
		{"missing type", `{"userId":"u1"}`},
		{"unknown type", `{"type":"weekly_digest"}`},
		{"user event without user", `{"type":"request_rejected"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.serve(t, Config{}, http.MethodPost, "/v1/notifications", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
			assert.Empty(t, f.gateway.tokens)
		})
	}
}

func TestTokenCleanup(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(t, Config{}, http.MethodPost, "/v1/maintenance/token-cleanup", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f.deps.Cleanup = &MockCleaner{
		RunFunc: func(context.Context) (models.CleanupSummary, error) {
			return models.CleanupSummary{Cleared: 2}, nil
		},
	}
	rec = f.serve(t, Config{}, http.MethodPost, "/v1/maintenance/token-cleanup", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cleared":2,"failed":0}`, rec.Body.String())
}

func TestTriggerToken(t *testing.T) {
	f := newFixture(t)
	cfg := Config{TriggerToken: "s3cret"}

	rec := f.serve(t, cfg, http.MethodPost, "/v1/scans/pickup-reminders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.serve(t, cfg, http.MethodPost, "/v1/scans/pickup-reminders", "", map[string]string{HeaderTriggerToken: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.serve(t, cfg, http.MethodPost, "/v1/scans/pickup-reminders", "", map[string]string{HeaderTriggerToken: "s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.serve(t, cfg, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(t, Config{}, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])

	f.deps.Readiness["camunda"] = PingFunc(func(context.Context) error {
		return stderrors.New("gateway unreachable")
	})
	rec = f.serve(t, Config{}, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, map[string]interface{}{"store": "ok", "camunda": "gateway unreachable"}, body["checks"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(t, Config{}, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/models"
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

func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens...)
}

func testEvent() *models.NotificationEvent {
	return &models.NotificationEvent{
		Type:  models.EventExpiringItems,
		Title: "Produtos a expirar",
		Body:  "2 itens estão a expirar nos próximos 3 dias.",
		Data:  map[string]string{"type": "expiring_items", "screen": "Stock"},
	}
}

func recipients(n int) []models.Recipient {
	out := make([]models.Recipient, n)
	for i := range out {
		out[i] = models.Recipient{UID: fmt.Sprintf("user-%d", i), Token: fmt.Sprintf("tok-%d", i)}
	}
	return out
}

func TestSendMany_OneResultPerRecipient(t *testing.T) {
	for _, n := range []int{0, 1, 7, 50} {
		t.Run(fmt.Sprintf("%d recipients", n), func(t *testing.T) {
			gw := &MockGateway{}
			d := New(gw, Config{MaxConcurrency: 4}, logger.NewTestLogger(t))

			rs := recipients(n)
			results := d.SendMany(context.Background(), rs, testEvent())

			require.Len(t, results, n)
			seen := make(map[string]bool, n)
			for i, r := range results {
				assert.Equal(t, rs[i].UID, r.RecipientID)
				assert.True(t, r.Success)
				assert.Equal(t, "msg-"+rs[i].Token, r.MessageID)
				assert.False(t, seen[r.RecipientID], "duplicate result for %s", r.RecipientID)
				seen[r.RecipientID] = true
			}
			assert.Len(t, gw.Calls(), n)
		})
	}
}

func TestSendMany_PartialFailureDoesNotAbortSiblings(t *testing.T) {
	gw := &MockGateway{
		SendFunc: func(_ context.Context, token string, _ *models.NotificationEvent) (string, error) {
			if token == "tok-1" {
				return "", &SendError{Code: CodeUnregistered, Err: stderrors.New("requested entity was not found")}
			}
			return "ok", nil
		},
	}
	d := New(gw, Config{}, logger.NewTestLogger(t))

	results := d.SendMany(context.Background(), recipients(3), testEvent())
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, CodeUnregistered, results[1].ErrorCode)
	assert.Contains(t, results[1].ErrorMessage, "not found")
	assert.True(t, results[2].Success)

	assert.Equal(t, Summary{SuccessCount: 2, FailureCount: 1}, Summarize(results))
	unregistered := Unregistered(results)
	require.Len(t, unregistered, 1)
	assert.Equal(t, "tok-1", unregistered[0].Token)
}

func TestSendMany_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	gw := &MockGateway{
		SendFunc: func(context.Context, string, *models.NotificationEvent) (string, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return "ok", nil
		},
	}
	d := New(gw, Config{MaxConcurrency: 3}, logger.NewNoOpLogger())

	results := d.SendMany(context.Background(), recipients(20), testEvent())
	assert.Len(t, results, 20)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Equal(t, 3, d.MaxConcurrency())
}

func TestSendOne_Timeout(t *testing.T) {
	gw := &MockGateway{
		SendFunc: func(ctx context.Context, _ string, _ *models.NotificationEvent) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	d := New(gw, Config{SendTimeout: 10 * time.Millisecond}, logger.NewTestLogger(t))

	result := d.SendOne(context.Background(), models.Recipient{UID: "u", Token: "t"}, testEvent())
	assert.False(t, result.Success)
	assert.Equal(t, CodeTimeout, result.ErrorCode)
}

func TestSendOne_MissingToken(t *testing.T) {
	gw := &MockGateway{}
	d := New(gw, Config{}, logger.NewTestLogger(t))

	result := d.SendOne(context.Background(), models.Recipient{UID: "u"}, testEvent())
	assert.False(t, result.Success)
	assert.Equal(t, CodeMissingToken, result.ErrorCode)
	assert.Empty(t, gw.Calls())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CodeInvalidArgument, Classify(fmt.Errorf("wrapped: %w", &SendError{Code: CodeInvalidArgument, Err: stderrors.New("bad")})))
	assert.Equal(t, CodeTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, CodeUnknown, Classify(stderrors.New("boom")))
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		results []models.DispatchResult
		want    Summary
	}{
		{"empty", nil, Summary{}},
		{"all success", []models.DispatchResult{{Success: true}, {Success: true}}, Summary{SuccessCount: 2}},
		{"all failure", []models.DispatchResult{{}, {}, {}}, Summary{FailureCount: 3}},
		{"mixed", []models.DispatchResult{{Success: true}, {}}, Summary{SuccessCount: 1, FailureCount: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.results)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.results), got.SuccessCount+got.FailureCount)
			assert.Equal(t, got.SuccessCount > 0, got.Delivered())
		})
	}
}

func TestParallel_RunsEveryIndexOnce(t *testing.T) {
	var hits [25]int32
	Parallel(4, len(hits), func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})
	for i := range hits {
		assert.Equal(t, int32(1), hits[i], "index %d", i)
	}
}

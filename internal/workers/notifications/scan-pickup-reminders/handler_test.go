package scanpickupreminders

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/models"
)

type MockScanner struct {
	ScanFunc func(ctx context.Context) (*models.PickupSummary, error)
}

func (m *MockScanner) Scan(ctx context.Context) (*models.PickupSummary, error) {
	return m.ScanFunc(ctx)
}

func TestHandler_Execute(t *testing.T) {
	scanner := &MockScanner{
		ScanFunc: func(context.Context) (*models.PickupSummary, error) {
			return &models.PickupSummary{
				RemindersSent: 2,
				TotalPickups:  3,
				ScannedAt:     time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
				Outcomes: []models.PickupOutcome{
					{RequestID: "r1", UserID: "u1", Sent: true},
					{RequestID: "r2", UserID: "u2", Sent: true},
					{RequestID: "r3", Reason: "missing recipient", ErrorCode: "MISSING_RECIPIENT"},
				},
			}, nil
		},
	}
	h := NewHandler(&Config{Timeout: time.Second}, scanner, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, output.RemindersSent)
	assert.Equal(t, 3, output.TotalPickups)
	assert.Equal(t, []Skipped{{RequestID: "r3", Reason: "missing recipient", ErrorCode: "MISSING_RECIPIENT"}}, output.Skipped)
}

func TestHandler_Execute_Failure(t *testing.T) {
	scanner := &MockScanner{
		ScanFunc: func(context.Context) (*models.PickupSummary, error) {
			return nil, stderrors.New("store offline")
		},
	}
	h := NewHandler(&Config{Timeout: time.Second}, scanner, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background())
	assert.Nil(t, output)
	assert.EqualError(t, err, "store offline")
}

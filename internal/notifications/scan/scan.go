// Package scan implements the scheduled read-then-notify jobs.
package scan

import (
	"context"
	"time"

	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/recipients"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

type AdminResolver interface {
	ResolveAdmins(ctx context.Context) ([]models.Recipient, error)
}

type UserResolver interface {
	ResolveByUserID(ctx context.Context, uid string) recipients.Lookup
}

type Sender interface {
	SendOne(ctx context.Context, recipient models.Recipient, event *models.NotificationEvent) models.DispatchResult
	SendMany(ctx context.Context, recipients []models.Recipient, event *models.NotificationEvent) []models.DispatchResult
	MaxConcurrency() int
}

type TokenRecorder interface {
	Record(ctx context.Context, results []models.DispatchResult) (int, error)
}

type options struct {
	now      func() time.Time
	recorder TokenRecorder
}

type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTokenRecorder records unregistered tokens after each dispatch.
func WithTokenRecorder(recorder TokenRecorder) Option {
	return func(o *options) { o.recorder = recorder }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

package scan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/common/metrics"
	"foodbank-notifier/internal/common/observability"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
	"foodbank-notifier/internal/notifications/message"
	"foodbank-notifier/internal/notifications/recipients"
	"foodbank-notifier/internal/store"
)

const pickupScanner = "pickup_reminders"

// Reasons recorded for requests that did not produce a reminder.
const (
	ReasonMissingRecipient = "missing recipient"
	ReasonNoPushToken      = "no push token"
	ReasonLookupFailed     = "lookup failed"
)

// PickupScanner reminds beneficiaries whose pickup is scheduled for today.
type PickupScanner struct {
	requests store.RequestStore
	users    UserResolver
	sender   Sender
	location *time.Location
	opts     options
	logger   logger.Logger
}

func NewPickupScanner(requests store.RequestStore, users UserResolver, sender Sender, location *time.Location, log logger.Logger, opts ...Option) *PickupScanner {
	if location == nil {
		location = time.UTC
	}
	return &PickupScanner{
		requests: requests,
		users:    users,
		sender:   sender,
		location: location,
		opts:     buildOptions(opts),
		logger:   log.WithFields(map[string]interface{}{"scanner": pickupScanner}),
	}
}

// DayWindow returns 00:00:00.000 and 23:59:59.999 of t's day in loc.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// Scan sends one pickup_reminder per request awaiting pickup today. Requests
// are processed concurrently; a request without a reachable user is counted
// but not reminded.
func (s *PickupScanner) Scan(ctx context.Context) (summary *models.PickupSummary, err error) {
	started := time.Now()
	ctx, span := observability.StartSpan(ctx, "scan.pickup_reminders")
	log := s.logger.WithFields(map[string]interface{}{"scanId": uuid.NewString()})
	defer func() {
		status := statusSuccess
		if err != nil {
			status = statusFailed
		}
		metrics.ScanRunsTotal.WithLabelValues(pickupScanner, status).Inc()
		metrics.ScanDuration.WithLabelValues(pickupScanner).Observe(time.Since(started).Seconds())
		observability.EndSpan(span, err)
	}()

	now := s.opts.now()
	start, end := DayWindow(now, s.location)

	found, err := s.requests.ListScheduledBetween(ctx, models.RequestStatusAwaitingPickup, start, end)
	if err != nil {
		log.Error("request query failed", map[string]interface{}{"error": err})
		return nil, err
	}

	due := make([]models.Request, 0, len(found))
	for _, req := range found {
		if req.ScheduledWithin(start, end) {
			due = append(due, req)
		}
	}
	span.SetAttributes(attribute.Int("total_pickups", len(due)))

	outcomes := make([]models.PickupOutcome, len(due))
	results := make([]*models.DispatchResult, len(due))
	dispatch.Parallel(s.sender.MaxConcurrency(), len(due), func(i int) {
		outcomes[i], results[i] = s.remind(ctx, log, due[i])
	})

	summary = &models.PickupSummary{
		TotalPickups: len(due),
		ScannedAt:    now,
		Outcomes:     outcomes,
	}
	var sent []models.DispatchResult
	for i, o := range outcomes {
		if o.Sent {
			summary.RemindersSent++
		}
		if results[i] != nil {
			sent = append(sent, *results[i])
		}
	}

	if s.opts.recorder != nil && len(sent) > 0 {
		if _, err := s.opts.recorder.Record(ctx, sent); err != nil {
			log.Warn("failed to record unregistered tokens", map[string]interface{}{"error": err})
		}
	}

	log.Info("pickup reminder scan finished", map[string]interface{}{
		"totalPickups":  summary.TotalPickups,
		"remindersSent": summary.RemindersSent,
	})
	return summary, nil
}

func (s *PickupScanner) remind(ctx context.Context, log logger.Logger, req models.Request) (models.PickupOutcome, *models.DispatchResult) {
	outcome := models.PickupOutcome{RequestID: req.ID, UserID: req.UserID}

	if req.UserID == "" {
		outcome.Reason = ReasonMissingRecipient
		outcome.ErrorCode = string(errors.ErrCodeMissingRecipient)
		log.Warn("pickup request has no user", map[string]interface{}{
			"requestId": req.ID,
			"errorCode": outcome.ErrorCode,
		})
		return outcome, nil
	}

	lookup := s.users.ResolveByUserID(ctx, req.UserID)
	switch lookup.Status {
	case recipients.NotFound:
		outcome.Reason = ReasonNoPushToken
		outcome.ErrorCode = string(errors.ErrCodeMissingRecipient)
		return outcome, nil
	case recipients.LookupError:
		outcome.Reason = ReasonLookupFailed
		outcome.ErrorCode = string(errors.ErrCodeRecipientLookupFailed)
		log.Warn("recipient lookup failed", map[string]interface{}{
			"requestId": req.ID,
			"userId":    req.UserID,
			"error":     lookup.Err,
		})
		return outcome, nil
	}

	event, err := message.Build(models.EventPickupReminder, message.Params{RequestID: req.ID})
	if err != nil {
		outcome.Reason = err.Error()
		return outcome, nil
	}

	result := s.sender.SendOne(ctx, lookup.Recipient, event)
	outcome.Sent = result.Success
	if !result.Success {
		outcome.Reason = result.ErrorCode
		outcome.ErrorCode = string(errors.ErrCodeNotificationSendFailed)
	}
	return outcome, &result
}

package scan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/common/metrics"
	"foodbank-notifier/internal/common/observability"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
	"foodbank-notifier/internal/notifications/message"
	"foodbank-notifier/internal/store"
)

const expirationScanner = "expiring_items"

// ExpirationScanner notifies admins once about stock expiring soon.
type ExpirationScanner struct {
	items         store.InventoryStore
	admins        AdminResolver
	sender        Sender
	thresholdDays int
	opts          options
	logger        logger.Logger
}

func NewExpirationScanner(items store.InventoryStore, admins AdminResolver, sender Sender, thresholdDays int, log logger.Logger, opts ...Option) *ExpirationScanner {
	if thresholdDays <= 0 {
		thresholdDays = message.DefaultThresholdDays
	}
	return &ExpirationScanner{
		items:         items,
		admins:        admins,
		sender:        sender,
		thresholdDays: thresholdDays,
		opts:          buildOptions(opts),
		logger:        log.WithFields(map[string]interface{}{"scanner": expirationScanner}),
	}
}

// Scan counts items with stock expiring in [now, now+threshold] and, if any,
// sends one expiring_items notification to every admin. Store failures abort
// the scan; send failures only lower NotificationsSent.
func (s *ExpirationScanner) Scan(ctx context.Context) (summary *models.ExpirationSummary, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "scan.expiring_items")
	log := s.logger.WithFields(map[string]interface{}{"scanId": uuid.NewString()})
	defer func() {
		status := statusSuccess
		if err != nil {
			status = statusFailed
		}
		metrics.ScanRunsTotal.WithLabelValues(expirationScanner, status).Inc()
		metrics.ScanDuration.WithLabelValues(expirationScanner).Observe(time.Since(start).Seconds())
		observability.EndSpan(span, err)
	}()

	now := s.opts.now()
	threshold := now.AddDate(0, 0, s.thresholdDays)

	candidates, err := s.items.ListExpiringBefore(ctx, threshold)
	if err != nil {
		log.Error("inventory query failed", map[string]interface{}{"error": err})
		return nil, err
	}

	itemCount := 0
	for _, item := range candidates {
		if item.ExpiresWithin(now, threshold) {
			itemCount++
		}
	}
	span.SetAttributes(attribute.Int("item_count", itemCount))

	summary = &models.ExpirationSummary{ItemCount: itemCount, ScannedAt: now}
	if itemCount == 0 {
		log.Info("no items expiring soon", nil)
		return summary, nil
	}

	event, err := message.Build(models.EventExpiringItems, message.Params{
		ItemCount:     itemCount,
		ThresholdDays: s.thresholdDays,
	})
	if err != nil {
		return nil, err
	}

	admins, err := s.admins.ResolveAdmins(ctx)
	if err != nil {
		log.Error("admin lookup failed", map[string]interface{}{"error": err})
		return nil, err
	}

	results := s.sender.SendMany(ctx, admins, event)
	sent := dispatch.Summarize(results)
	summary.NotificationsSent = sent.SuccessCount

	if s.opts.recorder != nil {
		if _, err := s.opts.recorder.Record(ctx, results); err != nil {
			log.Warn("failed to record unregistered tokens", map[string]interface{}{"error": err})
		}
	}

	log.Info("expiration scan finished", map[string]interface{}{
		"itemCount":         itemCount,
		"admins":            len(admins),
		"notificationsSent": sent.SuccessCount,
		"failures":          sent.FailureCount,
	})
	return summary, nil
}

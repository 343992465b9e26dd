// Package notifier sends a single event to the admins or to one user,
// mirroring the app's per-event notify helpers.
package notifier

import (
	"context"
	"fmt"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
	"foodbank-notifier/internal/notifications/message"
	"foodbank-notifier/internal/notifications/recipients"
)

type Resolver interface {
	ResolveByUserID(ctx context.Context, uid string) recipients.Lookup
	ResolveAdmins(ctx context.Context) ([]models.Recipient, error)
}

type Sender interface {
	SendMany(ctx context.Context, recipients []models.Recipient, event *models.NotificationEvent) []models.DispatchResult
}

type TokenRecorder interface {
	Record(ctx context.Context, results []models.DispatchResult) (int, error)
}

// FanOutRecorder observes the outcome of each fan-out.
type FanOutRecorder interface {
	RecordNotifications(ctx context.Context, eventType string, success, failure int)
}

type Notifier struct {
	resolver Resolver
	sender   Sender
	recorder TokenRecorder
	fanOuts  FanOutRecorder
	logger   logger.Logger
}

type Option func(*Notifier)

func WithFanOutRecorder(r FanOutRecorder) Option {
	return func(n *Notifier) { n.fanOuts = r }
}

// New builds a Notifier. recorder may be nil.
func New(resolver Resolver, sender Sender, recorder TokenRecorder, log logger.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		resolver: resolver,
		sender:   sender,
		recorder: recorder,
		logger:   log,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify routes eventType to the admins or to uid.
func (n *Notifier) Notify(ctx context.Context, eventType models.EventType, uid string, params message.Params) (dispatch.Summary, error) {
	if !eventType.Valid() {
		return dispatch.Summary{}, errors.NewInvalidNotificationRequestError(fmt.Sprintf("unknown type %q", eventType))
	}
	if eventType.AdminEvent() {
		return n.NotifyAdmins(ctx, eventType, params)
	}
	if uid == "" {
		return dispatch.Summary{}, errors.NewInvalidNotificationRequestError(fmt.Sprintf("userId is required for %s", eventType))
	}
	return n.NotifyUser(ctx, uid, eventType, params)
}

// NotifyAdmins sends eventType to every admin holding a push token.
func (n *Notifier) NotifyAdmins(ctx context.Context, eventType models.EventType, params message.Params) (dispatch.Summary, error) {
	event, err := message.Build(eventType, params)
	if err != nil {
		return dispatch.Summary{}, errors.NewInvalidNotificationRequestError(err.Error())
	}

	admins, err := n.resolver.ResolveAdmins(ctx)
	if err != nil {
		return dispatch.Summary{}, err
	}
	if len(admins) == 0 {
		n.logger.Info("no admin recipients with push token", map[string]interface{}{"eventType": string(eventType)})
		return dispatch.Summary{}, nil
	}

	return n.send(ctx, admins, event), nil
}

// NotifyUser sends eventType to one user. A missing user or token yields an
// empty summary; a failed lookup is returned as an error.
func (n *Notifier) NotifyUser(ctx context.Context, uid string, eventType models.EventType, params message.Params) (dispatch.Summary, error) {
	event, err := message.Build(eventType, params)
	if err != nil {
		return dispatch.Summary{}, errors.NewInvalidNotificationRequestError(err.Error())
	}

	lookup := n.resolver.ResolveByUserID(ctx, uid)
	switch lookup.Status {
	case recipients.NotFound:
		n.logger.Info("user has no push token", map[string]interface{}{
			"userId":    uid,
			"eventType": string(eventType),
		})
		return dispatch.Summary{}, nil
	case recipients.LookupError:
		return dispatch.Summary{}, lookup.Err
	}

	return n.send(ctx, []models.Recipient{lookup.Recipient}, event), nil
}

func (n *Notifier) send(ctx context.Context, targets []models.Recipient, event *models.NotificationEvent) dispatch.Summary {
	results := n.sender.SendMany(ctx, targets, event)
	summary := dispatch.Summarize(results)

	if n.recorder != nil {
		if _, err := n.recorder.Record(ctx, results); err != nil {
			n.logger.Warn("failed to record unregistered tokens", map[string]interface{}{"error": err})
		}
	}
	if n.fanOuts != nil {
		n.fanOuts.RecordNotifications(ctx, string(event.Type), summary.SuccessCount, summary.FailureCount)
	}

	n.logger.Info("notification dispatched", map[string]interface{}{
		"eventType":    string(event.Type),
		"recipients":   len(targets),
		"successCount": summary.SuccessCount,
		"failureCount": summary.FailureCount,
	})
	return summary
}

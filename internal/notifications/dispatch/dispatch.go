// Package dispatch sends one built notification to a set of recipients
// through a push gateway and folds the outcomes into a summary.
package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/common/metrics"
	"foodbank-notifier/internal/models"
)

// Gateway error codes recorded on failed DispatchResults.
const (
	CodeUnregistered    = "messaging/registration-token-not-registered"
	CodeInvalidArgument = "messaging/invalid-argument"
	CodeQuotaExceeded   = "messaging/quota-exceeded"
	CodeUnavailable     = "unavailable"
	CodeTimeout         = "timeout"
	CodeMissingToken    = "missing-token"
	CodeUnknown         = "unknown"
)

const (
	DefaultMaxConcurrency = 16
	DefaultSendTimeout    = 10 * time.Second
)

// Gateway delivers a single message to a single device token and returns
// the provider's message id.
type Gateway interface {
	Send(ctx context.Context, token string, event *models.NotificationEvent) (string, error)
}

// SendError is returned by gateways to carry a classified error code.
type SendError struct {
	Code string
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Classify maps a gateway error to a result code.
func Classify(err error) string {
	var sendErr *SendError
	if stderrors.As(err, &sendErr) && sendErr.Code != "" {
		return sendErr.Code
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeUnknown
}

type Config struct {
	MaxConcurrency int
	SendTimeout    time.Duration
}

type Dispatcher struct {
	gateway Gateway
	config  Config
	logger  logger.Logger
}

func New(gateway Gateway, config Config, log logger.Logger) *Dispatcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = DefaultSendTimeout
	}
	return &Dispatcher{
		gateway: gateway,
		config:  config,
		logger:  log,
	}
}

// MaxConcurrency is the fan-out limit, shared with callers that run their
// own per-unit pools.
func (d *Dispatcher) MaxConcurrency() int {
	return d.config.MaxConcurrency
}

// SendOne delivers event to one recipient. Failures are reported in the
// result, never as an error.
func (d *Dispatcher) SendOne(ctx context.Context, recipient models.Recipient, event *models.NotificationEvent) models.DispatchResult {
	result := models.DispatchResult{
		RecipientID: recipient.UID,
		Token:       recipient.Token,
	}

	if !recipient.HasToken() {
		result.ErrorCode = CodeMissingToken
		result.ErrorMessage = "recipient has no push token"
		d.record(event, result)
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()

	messageID, err := d.gateway.Send(ctx, recipient.Token, event)
	if err != nil {
		result.ErrorCode = Classify(err)
		result.ErrorMessage = err.Error()
		d.logger.Warn("push notification failed", map[string]interface{}{
			"recipientId": recipient.UID,
			"eventType":   string(event.Type),
			"errorCode":   result.ErrorCode,
			"error":       err,
		})
		d.record(event, result)
		return result
	}

	result.Success = true
	result.MessageID = messageID
	d.record(event, result)
	return result
}

// SendMany delivers event to every recipient with at most MaxConcurrency
// sends in flight. It waits for all of them and returns one result per
// recipient, in input order.
func (d *Dispatcher) SendMany(ctx context.Context, recipients []models.Recipient, event *models.NotificationEvent) []models.DispatchResult {
	results := make([]models.DispatchResult, len(recipients))
	Parallel(d.config.MaxConcurrency, len(recipients), func(i int) {
		results[i] = d.SendOne(ctx, recipients[i], event)
	})
	return results
}

func (d *Dispatcher) record(event *models.NotificationEvent, result models.DispatchResult) {
	outcome := "success"
	if !result.Success {
		outcome = result.ErrorCode
	}
	metrics.PushDispatchTotal.WithLabelValues(string(event.Type), outcome).Inc()
}

// Parallel runs fn(0..n-1) with at most limit calls in flight and returns
// once all have finished.
func Parallel(limit, n int, fn func(i int)) {
	if n == 0 {
		return
	}
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

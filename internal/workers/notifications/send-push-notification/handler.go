// internal/workers/notifications/send-push-notification/handler.go
package sendpushnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/common/metrics"
	"foodbank-notifier/internal/common/validation"
	"foodbank-notifier/internal/models"
	"foodbank-notifier/internal/notifications/dispatch"
	"foodbank-notifier/internal/notifications/message"
)

const TaskType = "send-push-notification"

type Notifier interface {
	Notify(ctx context.Context, eventType models.EventType, uid string, params message.Params) (dispatch.Summary, error)
}

type Handler struct {
	config       *Config
	notifier     Notifier
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, notifier Notifier, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		notifier:     notifier,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, start, errors.NewInvalidNotificationRequestError(fmt.Sprintf("failed to parse variables: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandard(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := validation.Validate(validation.NotificationRequestSchema, input)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, errors.NewInvalidNotificationRequestError(result.Summary())
	}

	eventType := models.EventType(input.Type)
	summary, err := h.notifier.Notify(ctx, eventType, input.UserID, input.Params)
	if err != nil {
		return nil, err
	}

	if h.config.FailOnUndelivered && summary.FailureCount > 0 && !summary.Delivered() {
		return nil, errors.NewNotificationSendFailedError(input.Type,
			fmt.Errorf("all %d sends failed", summary.FailureCount))
	}

	return &Output{
		SuccessCount: summary.SuccessCount,
		FailureCount: summary.FailureCount,
		Delivered:    summary.Delivered(),
	}, nil
}

// Execute validates input and sends it without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":       job.Key,
		"successCount": output.SuccessCount,
		"failureCount": output.FailureCount,
	})
}

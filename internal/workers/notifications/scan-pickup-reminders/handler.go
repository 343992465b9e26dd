// internal/workers/notifications/scan-pickup-reminders/handler.go
package scanpickupreminders

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"foodbank-notifier/internal/common/errors"
	"foodbank-notifier/internal/common/logger"
	"foodbank-notifier/internal/common/metrics"
	"foodbank-notifier/internal/models"
)

const TaskType = "scan-pickup-reminders"

type Scanner interface {
	Scan(ctx context.Context) (*models.PickupSummary, error)
}

type Handler struct {
	config       *Config
	scanner      Scanner
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, scanner Scanner, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scanner:      scanner,
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

	output, err := h.execute(ctx)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandard(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context) (*Output, error) {
	summary, err := h.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	output := &Output{
		RemindersSent: summary.RemindersSent,
		TotalPickups:  summary.TotalPickups,
		ScannedAt:     summary.ScannedAt.UTC().Format(time.RFC3339),
	}
	for _, o := range summary.Outcomes {
		if !o.Sent {
			output.Skipped = append(output.Skipped, Skipped{RequestID: o.RequestID, Reason: o.Reason, ErrorCode: o.ErrorCode})
		}
	}
	return output, nil
}

// Execute runs the scan without a job client.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	return h.execute(ctx)
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
		"jobKey":        job.Key,
		"remindersSent": output.RemindersSent,
		"totalPickups":  output.TotalPickups,
	})
}

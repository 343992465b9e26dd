// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"foodbank-notifier/internal/common/config"
	"foodbank-notifier/internal/common/logger"
)

// JobHandler is the shape every notification worker exposes.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobRecorder receives one observation per handled job.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, duration time.Duration, status string)
}

const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusThrown    = "error_thrown"
	JobStatusAbandoned = "abandoned"
)

// StartWorker opens a job worker for taskType. It returns nil when the
// worker is disabled in configuration. recorder may be nil.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, recorder JobRecorder, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(handler, recorder)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jw
}

// Instrument wraps handler so the outcome command it issues is reported
// to recorder.
func Instrument(handler JobHandler, recorder JobRecorder) worker.JobHandler {
	if recorder == nil {
		return handler.Handle
	}
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		tracked := &trackingClient{JobClient: client, status: JobStatusAbandoned}
		handler.Handle(tracked, job)

		ctx := context.Background()
		recorder.RecordJobProcessed(ctx, tracked.status)
		recorder.RecordJobDuration(ctx, time.Since(start), tracked.status)
	}
}

// trackingClient remembers which terminal command the handler created.
type trackingClient struct {
	worker.JobClient
	status string
}

func (c *trackingClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.status = JobStatusCompleted
	return c.JobClient.NewCompleteJobCommand()
}

func (c *trackingClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.status = JobStatusFailed
	return c.JobClient.NewFailJobCommand()
}

func (c *trackingClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.status = JobStatusThrown
	return c.JobClient.NewThrowErrorCommand()
}

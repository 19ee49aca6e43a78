// Package jobs is the shared Zeebe job lifecycle for the engagement workers:
// decode and validate variables, execute, then complete or hand the error to
// the BPMN error handler.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	apperrors "engagement-letters/internal/common/errors"
	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/metrics"
	"engagement-letters/internal/common/observability"
	"engagement-letters/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const sendTimeout = 10 * time.Second

type Runner struct {
	taskType string
	timeout  time.Duration
	schema   *validation.JSONSchema
	logger   logger.Logger
	errors   *apperrors.ErrorHandler
	obs      *observability.Observability
}

// NewRunner builds a runner for taskType. schema may be nil; obs may be nil.
func NewRunner(taskType string, timeout time.Duration, schema *validation.JSONSchema, log logger.Logger, obs *observability.Observability) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		taskType: taskType,
		timeout:  timeout,
		schema:   schema,
		logger:   log,
		errors:   apperrors.NewErrorHandler(log),
		obs:      obs,
	}
}

// Decode validates the raw job variables against schema and unmarshals them
// into input. Errors are *errors.StandardError.
func Decode(variables string, schema *validation.JSONSchema, input interface{}) error {
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &vars); err != nil {
		return apperrors.NewInputParsingFailedError(err)
	}
	if schema != nil {
		if res := validation.ValidateInput(vars, *schema); !res.Valid {
			return apperrors.NewValidationFailedError(res.GetErrorMessages())
		}
	}
	if err := json.Unmarshal([]byte(variables), input); err != nil {
		return apperrors.NewInputParsingFailedError(err)
	}
	return nil
}

// Run decodes job into input and calls exec under the runner's timeout.
func (r *Runner) Run(client worker.JobClient, job entities.Job, input interface{}, exec func(ctx context.Context) (interface{}, error)) {
	start := time.Now()
	active := metrics.WorkerJobsActive.WithLabelValues(r.taskType)
	active.Inc()
	defer active.Dec()

	log := r.logger.WithFields(map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	log.Info("processing job", nil)

	output, err := r.execute(job, input, exec)

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(elapsed.Seconds())

	sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err != nil {
		std := apperrors.AsStandardError(err)
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(std.Code)).Inc()
		r.obs.RecordJobProcessed(sendCtx, "failed")
		r.obs.RecordJobDuration(sendCtx, elapsed, "failed")
		r.errors.HandleJobError(sendCtx, client, job, std)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		r.errors.HandleJobError(sendCtx, client, job, apperrors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(sendCtx); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	r.obs.RecordJobProcessed(sendCtx, "completed")
	r.obs.RecordJobDuration(sendCtx, elapsed, "completed")
	log.Info("job completed", map[string]interface{}{"durationMs": elapsed.Milliseconds()})
}

func (r *Runner) execute(job entities.Job, input interface{}, exec func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := Decode(job.Variables, r.schema, input); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return exec(ctx)
}

// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"engagement-letters/internal/common/config"
	"engagement-letters/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every worker handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Workers tracks the job workers opened against one client.
type Workers struct {
	client zbc.Client
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkers(client zbc.Client, log logger.Logger) *Workers {
	return &Workers{
		client:  client,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType unless it is disabled.
func (w *Workers) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) {
	if !wcfg.Enabled {
		w.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	jw := w.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	w.mu.Lock()
	w.workers[taskType] = jw
	w.mu.Unlock()

	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
}

// Running returns the task types with an open worker.
func (w *Workers) Running() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.workers))
	for t := range w.workers {
		out = append(out, t)
	}
	return out
}

// Close stops polling and waits for in-flight jobs.
func (w *Workers) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for taskType, jw := range w.workers {
		w.logger.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		jw.Close()
		jw.AwaitClose()
	}
	w.workers = map[string]worker.JobWorker{}
}

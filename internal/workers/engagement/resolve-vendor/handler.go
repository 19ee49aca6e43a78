// internal/workers/engagement/resolve-vendor/handler.go
package resolvevendor

import (
	"context"
	"errors"

	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/observability"
	"engagement-letters/internal/common/validation"
	"engagement-letters/internal/engagement/vendors"
	"engagement-letters/internal/workers/engagement/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "resolve-vendor"

var inputSchema = validation.MustSchema(`{
	"type": "object",
	"additionalProperties": true,
	"properties": {
		"vendorType": {"type": "string", "minLength": 1},
		"firstName":  {"type": "string"},
		"lastName":   {"type": "string"}
	},
	"required": ["vendorType", "firstName"]
}`)

type Handler struct {
	config   *Config
	resolver *vendors.Resolver
	logger   logger.Logger
	runner   *jobs.Runner
}

// NewHandler shares resolver, and with it the dataset snapshot, across jobs.
func NewHandler(config *Config, resolver *vendors.Resolver, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		resolver: resolver,
		logger:   log,
		runner:   jobs.NewRunner(TaskType, config.Timeout, &inputSchema, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vendor, err := h.resolver.Resolve(vendors.Query{
		VendorType: input.VendorType,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
	})

	out := &Output{Outcome: vendors.Outcome(err)}
	if err == nil {
		out.Resolved = true
		out.Vendor = &vendor
		return out, nil
	}

	var amb *vendors.AmbiguousError
	if errors.As(err, &amb) {
		out.Matches = len(amb.Matches)
		out.NeedsLastName = !amb.Refined
	}

	h.logger.Info("vendor not resolved", map[string]interface{}{
		"vendorType": input.VendorType,
		"outcome":    out.Outcome,
		"reason":     err.Error(),
	})
	return out, nil
}

// internal/workers/engagement/compute-delivery-date/handler.go
package computedeliverydate

import (
	"context"
	"errors"

	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/observability"
	"engagement-letters/internal/common/validation"
	"engagement-letters/internal/engagement/dates"
	"engagement-letters/internal/models"
	"engagement-letters/internal/workers/engagement/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "compute-delivery-date"

var inputSchema = validation.MustSchema(`{
	"type": "object",
	"additionalProperties": true,
	"properties": {
		"letterType": {"type": "string", "minLength": 1},
		"timeline":   {"type": "string"}
	},
	"required": ["letterType"]
}`)

type Handler struct {
	config *Config
	engine *dates.Engine
	logger logger.Logger
	runner *jobs.Runner
}

func NewHandler(config *Config, engine *dates.Engine, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: engine,
		logger: log,
		runner: jobs.NewRunner(TaskType, config.Timeout, &inputSchema, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

// Execute never fails on a bad timeline: the unit default is used and
// Malformed is set so the process can flag the letter for review.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	letterType := models.NormalizeLetterType(input.LetterType)
	d, dur, err := h.engine.ComputeFor(letterType, input.Timeline)
	malformed := errors.Is(err, dates.ErrMalformedDuration)
	if malformed {
		h.logger.Warn("timeline has no quantity; using default", map[string]interface{}{
			"timeline": input.Timeline,
			"duration": dur.String(),
		})
	}

	out := &Output{
		CurrentDate:  d.CurrentDate,
		DeliveryDate: d.DeliveryDate,
		Malformed:    malformed,
	}
	if !letterType.IsSecondary() {
		out.DurationKind = dur.Unit.String()
		out.DurationValue = dur.Count
	}
	return out, nil
}

// internal/workers/engagement/generate-letter/handler.go
package generateletter

import (
	"context"
	"errors"

	apperrors "engagement-letters/internal/common/errors"
	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/observability"
	"engagement-letters/internal/engagement/generator"
	"engagement-letters/internal/engagement/notify"
	"engagement-letters/internal/engagement/persistence"
	"engagement-letters/internal/workers/engagement/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "generate-letter"

var ErrNoRecord = errors.New("job has neither record nor dualRecord")

// EventPublisher is satisfied by *notify.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev notify.Event) (string, error)
}

type Handler struct {
	config    *Config
	generator *generator.Generator
	events    EventPublisher
	logger    logger.Logger
	runner    *jobs.Runner
}

// NewHandler builds the handler. events may be nil.
func NewHandler(config *Config, gen *generator.Generator, events EventPublisher, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		generator: gen,
		events:    events,
		logger:    log,
		runner:    jobs.NewRunner(TaskType, config.Timeout, nil, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

// Execute validates the record against the persisted-record schema and writes
// its letters. Errors are classified onto BPMN codes such as
// TEMPLATE_NOT_FOUND and RECORD_VALIDATION_FAILED.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	raw := input.Record
	if len(input.DualRecord) > 0 {
		raw = input.DualRecord
	}
	if len(raw) == 0 {
		return nil, apperrors.NewInputParsingFailedError(ErrNoRecord)
	}

	rec, err := persistence.Decode(raw)
	if err != nil {
		return nil, generator.Classify(err)
	}

	out := &Output{LoanName: rec.LoanName()}
	if rec.IsDual() {
		res, err := h.generator.GenerateDual(ctx, rec.Dual)
		results := res.Results()
		if len(results) == 0 {
			return nil, generator.Classify(err)
		}
		if res.AppraisalErr != nil {
			out.Failures = append(out.Failures, res.AppraisalErr.Error())
		}
		if res.EnvironmentalErr != nil {
			out.Failures = append(out.Failures, res.EnvironmentalErr.Error())
		}
		h.collect(ctx, out, results)
		return out, nil
	}

	res, err := h.generator.Generate(ctx, rec.Single, input.OutputName)
	if err != nil {
		return nil, generator.Classify(err)
	}
	h.collect(ctx, out, []*generator.Result{res})
	return out, nil
}

func (h *Handler) collect(ctx context.Context, out *Output, results []*generator.Result) {
	for _, r := range results {
		out.Documents = append(out.Documents, Document{
			RequestID:    r.RequestID,
			LetterType:   string(r.LetterType),
			Path:         r.OutputPath,
			Replacements: r.Replacements,
			Missing:      r.Missing,
		})
		h.publish(ctx, r)
	}
	if out.RequestID == "" && len(out.Documents) > 0 {
		out.RequestID = out.Documents[0].RequestID
	}
}

// publish is best effort: the letter is already on disk.
func (h *Handler) publish(ctx context.Context, r *generator.Result) {
	if h.events == nil || !h.config.PublishEvents {
		return
	}
	_, err := h.events.Publish(ctx, notify.Event{
		Type:       notify.EventLetterGenerated,
		RequestID:  r.RequestID,
		LoanName:   r.LoanName,
		LetterType: string(r.LetterType),
		Document:   r.OutputPath,
	})
	if err != nil {
		h.logger.Warn("letter event not published", map[string]interface{}{
			"requestId": r.RequestID,
			"error":     err.Error(),
		})
	}
}

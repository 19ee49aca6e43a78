// internal/workers/engagement/select-template/handler.go
package selecttemplate

import (
	"context"
	"errors"

	apperrors "engagement-letters/internal/common/errors"
	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/observability"
	"engagement-letters/internal/common/validation"
	"engagement-letters/internal/engagement/templates"
	"engagement-letters/internal/models"
	"engagement-letters/internal/workers/engagement/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "select-template"

var inputSchema = validation.MustSchema(`{
	"type": "object",
	"additionalProperties": true,
	"properties": {
		"loanType":   {"type": "string", "minLength": 1},
		"letterType": {"type": "string", "minLength": 1}
	},
	"required": ["loanType", "letterType"]
}`)

type Handler struct {
	config *Config
	store  *templates.Store
	logger logger.Logger
	runner *jobs.Runner
}

func NewHandler(config *Config, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  templates.NewStore(config.TemplateDir),
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	loanType := models.NormalizeLoanType(input.LoanType)
	letterType := models.NormalizeLetterType(input.LetterType)

	out := &Output{
		TemplateID:   templates.TemplateID(loanType, letterType),
		TemplateFile: templates.FileName(loanType, letterType),
		DisplayName:  templates.DisplayName(letterType),
	}

	_, err := h.store.Resolve(loanType, letterType)
	if err == nil {
		out.Exists = true
		return out, nil
	}

	var nf *templates.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}
	out.Available = nf.Available
	if h.config.RequireTemplate {
		return nil, apperrors.NewTemplateNotFoundError(nf.Path, nf.Available)
	}

	h.logger.Warn("template missing", map[string]interface{}{
		"templateId": out.TemplateID,
		"available":  len(nf.Available),
	})
	return out, nil
}

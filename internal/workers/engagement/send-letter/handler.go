// internal/workers/engagement/send-letter/handler.go
package sendletter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	apperrors "engagement-letters/internal/common/errors"
	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/observability"
	"engagement-letters/internal/common/validation"
	"engagement-letters/internal/engagement/notify"
	"engagement-letters/internal/models"
	"engagement-letters/internal/workers/engagement/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "send-letter"

var inputSchema = validation.MustSchema(`{
	"type": "object",
	"additionalProperties": true,
	"properties": {
		"documentPath": {"type": "string", "minLength": 1},
		"vendorEmail":  {"type": "string", "minLength": 1},
		"loanName":     {"type": "string"},
		"letterType":   {"type": "string"},
		"requestId":    {"type": "string"}
	},
	"required": ["documentPath", "vendorEmail"]
}`)

// Mailer is satisfied by *notify.Mailer.
type Mailer interface {
	Send(ctx context.Context, l notify.Letter) (string, error)
}

// EventPublisher is satisfied by *notify.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev notify.Event) (string, error)
}

type Handler struct {
	config *Config
	mailer Mailer
	events EventPublisher
	logger logger.Logger
	runner *jobs.Runner
	now    func() time.Time
}

func NewHandler(config *Config, mailer Mailer, events EventPublisher, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		mailer: mailer,
		events: events,
		logger: log,
		runner: jobs.NewRunner(TaskType, config.Timeout, &inputSchema, log, obs),
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	var input Input
	h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !validation.ValidateEmail(input.VendorEmail) {
		return nil, apperrors.NewValidationFailedError([]string{
			fmt.Sprintf("vendorEmail: %q is not a valid address", input.VendorEmail),
		})
	}
	if _, err := os.Stat(input.DocumentPath); err != nil {
		return nil, apperrors.NewValidationFailedError([]string{
			fmt.Sprintf("documentPath: %v", err),
		})
	}

	letter := notify.Letter{
		DocumentPath: input.DocumentPath,
		To:           input.VendorEmail,
		LoanName:     input.LoanName,
		LetterType:   models.NormalizeLetterType(input.LetterType),
	}
	messageID, err := h.mailer.Send(ctx, letter)
	if err != nil {
		if errors.Is(err, notify.ErrInvalidRecipient) {
			return nil, apperrors.NewValidationFailedError([]string{err.Error()})
		}
		var std *apperrors.StandardError
		if errors.As(err, &std) {
			return nil, std
		}
		return nil, apperrors.NewNotificationSendFailedError("email", err)
	}

	out := &Output{MessageID: messageID, SentAt: h.now().UTC()}
	h.logger.Info("Letter sent", map[string]interface{}{
		"requestId": input.RequestID,
		"loanName":  input.LoanName,
		"messageId": messageID,
	})

	if h.events != nil && h.config.PublishEvents {
		eventID, err := h.events.Publish(ctx, notify.Event{
			Type:       notify.EventLetterSent,
			RequestID:  input.RequestID,
			LoanName:   input.LoanName,
			LetterType: string(letter.LetterType),
			Document:   input.DocumentPath,
			MessageID:  messageID,
			OccurredAt: out.SentAt.Format(time.RFC3339),
		})
		if err != nil {
			h.logger.Warn("letter.sent event not published", map[string]interface{}{
				"messageId": messageID,
				"error":     err.Error(),
			})
		}
		out.EventID = eventID
	}
	return out, nil
}

package notify

import (
	"context"
	"encoding/json"
	"time"

	apperrors "engagement-letters/internal/common/errors"
	"engagement-letters/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

// Event types published on the letters topic.
const (
	EventLetterGenerated = "letter.generated"
	EventLetterSent      = "letter.sent"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Event is the JSON body of a published message.
type Event struct {
	EventID    string `json:"eventId"`
	Type       string `json:"type"`
	RequestID  string `json:"requestId,omitempty"`
	LoanName   string `json:"loanName"`
	LetterType string `json:"letterType"`
	Document   string `json:"document,omitempty"`
	MessageID  string `json:"messageId,omitempty"`
	OccurredAt string `json:"occurredAt"`
}

type Publisher struct {
	client   SNSAPI
	topicARN string
	logger   logger.Logger
	now      func() time.Time
}

func NewPublisher(client SNSAPI, topicARN string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Publisher{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "publisher"}),
		now:      time.Now,
	}
}

// Publish fills in the event id and timestamp when unset, sends the event and
// returns its id.
func (p *Publisher) Publish(ctx context.Context, ev Event) (string, error) {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = p.now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(ev.Type)},
		},
	})
	if err != nil {
		p.logger.Error("event publish failed", map[string]interface{}{
			"eventType": ev.Type,
			"error":     err.Error(),
		})
		return "", apperrors.NewNotificationSendFailedError("event", err)
	}

	p.logger.Debug("event published", map[string]interface{}{"eventId": ev.EventID, "eventType": ev.Type})
	return ev.EventID, nil
}

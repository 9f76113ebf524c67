// Package eventbridge publishes activity events to an EventBridge bus so
// other systems can react to study activity. Publishing is best-effort:
// callers record events locally first and only log publisher failures.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"studyflow-backend/application/ports"
	"studyflow-backend/domain/core/entities"
	appErrors "studyflow-backend/pkg/errors"
)

const eventSource = "studyflow.backend"

// Publisher sends activity events to an EventBridge event bus
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// Compile-time interface check
var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher against the given event bus
func NewPublisher(ctx context.Context, region, busName string, logger *zap.Logger) (*Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, appErrors.NewInternal("loading AWS configuration", err)
	}
	return NewPublisherFromClient(eventbridge.NewFromConfig(cfg), busName, logger), nil
}

// NewPublisherFromClient wraps an existing EventBridge client
func NewPublisherFromClient(client *eventbridge.Client, busName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// eventDetail is the JSON payload placed on the bus
type eventDetail struct {
	EventID    string `json:"event_id"`
	UserID     string `json:"user_id"`
	Type       string `json:"type"`
	TargetID   string `json:"target_id,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// Publish puts a single activity event on the bus
func (p *Publisher) Publish(ctx context.Context, event entities.ActivityEvent) error {
	detail, err := json.Marshal(eventDetail{
		EventID:    event.ID.String(),
		UserID:     event.UserID.String(),
		Type:       string(event.Type),
		TargetID:   event.TargetID,
		OccurredAt: event.OccurredAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return appErrors.NewInternal("marshaling activity event", err)
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(string(event.Type)),
				Detail:       aws.String(string(detail)),
				Time:         aws.Time(event.OccurredAt),
			},
		},
	})
	if err != nil {
		return appErrors.NewInternal("publishing activity event", err)
	}
	if out.FailedEntryCount > 0 {
		entry := out.Entries[0]
		return appErrors.NewInternal(
			fmt.Sprintf("event bus rejected entry: %s", aws.ToString(entry.ErrorMessage)), nil)
	}

	p.logger.Debug("activity event published",
		zap.String("event_id", event.ID.String()),
		zap.String("type", string(event.Type)))
	return nil
}

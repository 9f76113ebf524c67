package dynamodb

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

// eventRecord is the DynamoDB item shape for an activity event
type eventRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	ItemType   string `dynamodbav:"ItemType"`
	EventID    string `dynamodbav:"EventID"`
	UserID     string `dynamodbav:"UserID"`
	EventType  string `dynamodbav:"EventType"`
	TargetID   string `dynamodbav:"TargetID"`
	OccurredAt string `dynamodbav:"OccurredAt"`
}

// ActivityRepository stores events under SK "EVT#{rfc3339nano}#{eventID}".
// The timestamp prefix makes the partition time-ordered, so range queries
// and newest-first reads are key-condition queries rather than scans.
type ActivityRepository struct {
	client *Client
	logger *zap.Logger
}

// NewActivityRepository creates an activity repository
func NewActivityRepository(client *Client, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{client: client, logger: logger}
}

func eventSK(event entities.ActivityEvent) string {
	return skEventPrefix + event.OccurredAt.UTC().Format(time.RFC3339Nano) + "#" + event.ID.String()
}

// Append records one event
func (r *ActivityRepository) Append(ctx context.Context, event entities.ActivityEvent) error {
	record := eventRecord{
		PK:         userPK(event.UserID),
		SK:         eventSK(event),
		ItemType:   "EVENT",
		EventID:    event.ID.String(),
		UserID:     event.UserID.String(),
		EventType:  string(event.Type),
		TargetID:   event.TargetID,
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return appErrors.NewInternal("marshaling event", err)
	}

	_, err = r.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.client.table),
		Item:      item,
	})
	if err != nil {
		return appErrors.NewInternal("appending event", err)
	}
	return nil
}

// eventRangeBounds returns the SK interval covering [from, to] inclusive.
// The upper bound is the next day's timestamp cut before the zone suffix:
// every real key for that day continues with "Z" or a fractional second,
// both of which sort above the truncated bound, so nothing from the day
// after to is admitted.
func eventRangeBounds(from, to valueobjects.Day) (string, string) {
	lower := skEventPrefix + from.Time().Format(time.RFC3339Nano)
	upper := skEventPrefix + to.AddDays(1).Time().Format("2006-01-02T15:04:05")
	return lower, upper
}

// FindByRange returns events in [from, to] inclusive, oldest first
func (r *ActivityRepository) FindByRange(
	ctx context.Context,
	userID valueobjects.UserID,
	from, to valueobjects.Day,
	eventType entities.EventType,
) ([]entities.ActivityEvent, error) {
	lower, upper := eventRangeBounds(from, to)

	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").Between(expression.Value(lower), expression.Value(upper)))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if eventType != entities.EventFilterAll {
		builder = builder.WithFilter(expression.Name("EventType").Equal(expression.Value(string(eventType))))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, appErrors.NewInternal("building query", err)
	}

	events := make([]entities.ActivityEvent, 0)
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.db.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.client.table),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, appErrors.NewInternal("querying events", err)
		}
		events = append(events, r.parseEvents(out.Items)...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return events, nil
}

// FindRecent returns up to limit events, newest first
func (r *ActivityRepository) FindRecent(ctx context.Context, userID valueobjects.UserID, limit int) ([]entities.ActivityEvent, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith(skEventPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, appErrors.NewInternal("building query", err)
	}

	out, err := r.client.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.client.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, appErrors.NewInternal("querying recent events", err)
	}
	return r.parseEvents(out.Items), nil
}

// CountByType returns lifetime totals per event type
func (r *ActivityRepository) CountByType(ctx context.Context, userID valueobjects.UserID) (map[entities.EventType]int, error) {
	items, err := queryPrefix(ctx, r.client, userPK(userID), skEventPrefix)
	if err != nil {
		return nil, appErrors.NewInternal("querying events", err)
	}

	totals := make(map[entities.EventType]int)
	for _, event := range r.parseEvents(items) {
		totals[event.Type]++
	}
	return totals, nil
}

// ActiveDays returns distinct days with activity, newest first
func (r *ActivityRepository) ActiveDays(ctx context.Context, userID valueobjects.UserID) ([]valueobjects.Day, error) {
	items, err := queryPrefix(ctx, r.client, userPK(userID), skEventPrefix)
	if err != nil {
		return nil, appErrors.NewInternal("querying events", err)
	}

	seen := make(map[string]valueobjects.Day)
	for _, event := range r.parseEvents(items) {
		day := event.Day()
		seen[day.String()] = day
	}

	days := make([]valueobjects.Day, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

func (r *ActivityRepository) parseEvents(items []map[string]types.AttributeValue) []entities.ActivityEvent {
	events := make([]entities.ActivityEvent, 0, len(items))
	for _, item := range items {
		var record eventRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			r.logger.Warn("skipping unparseable event item", zap.Error(err))
			continue
		}
		occurredAt, err := time.Parse(time.RFC3339Nano, record.OccurredAt)
		if err != nil {
			r.logger.Warn("skipping event with bad OccurredAt", zap.Error(err))
			continue
		}
		eventType, err := entities.ParseEventType(record.EventType)
		if err != nil {
			r.logger.Warn("skipping event with unknown type",
				zap.String("event_type", record.EventType))
			continue
		}
		events = append(events, entities.ActivityEvent{
			ID:         valueobjects.EventID(record.EventID),
			UserID:     valueobjects.UserID(record.UserID),
			Type:       eventType,
			TargetID:   record.TargetID,
			OccurredAt: occurredAt,
		})
	}
	return events
}

package dynamodb

import (
	"context"
	"sort"
	"strings"
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

// linkRecord is the DynamoDB item shape for a manual link
type linkRecord struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ItemType  string `dynamodbav:"ItemType"`
	UserID    string `dynamodbav:"UserID"`
	SourceID  string `dynamodbav:"SourceID"`
	TargetID  string `dynamodbav:"TargetID"`
	CreatedAt string `dynamodbav:"CreatedAt"`
}

// LinkRepository stores manual links under SK "LINK#{source}#{target}".
// The composite SK makes the pair the identity, so re-linking the same
// pair overwrites rather than duplicates.
type LinkRepository struct {
	client *Client
	logger *zap.Logger
}

// NewLinkRepository creates a link repository
func NewLinkRepository(client *Client, logger *zap.Logger) *LinkRepository {
	return &LinkRepository{client: client, logger: logger}
}

func linkSK(sourceID, targetID valueobjects.NoteID) string {
	return skLinkPrefix + sourceID.String() + "#" + targetID.String()
}

// Save stores a link. An existing pair is left untouched so the original
// creation time survives.
func (r *LinkRepository) Save(ctx context.Context, link entities.ManualLink) error {
	record := linkRecord{
		PK:        userPK(link.UserID),
		SK:        linkSK(link.SourceID, link.TargetID),
		ItemType:  "LINK",
		UserID:    link.UserID.String(),
		SourceID:  link.SourceID.String(),
		TargetID:  link.TargetID.String(),
		CreatedAt: link.CreatedAt.Format(time.RFC3339Nano),
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return appErrors.NewInternal("marshaling link", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return appErrors.NewInternal("building condition", err)
	}

	_, err = r.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.client.table),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			// Pair already linked
			return nil
		}
		return appErrors.NewInternal("saving link", err)
	}
	return nil
}

// Delete removes a link, failing when it does not exist
func (r *LinkRepository) Delete(ctx context.Context, userID valueobjects.UserID, sourceID, targetID valueobjects.NoteID) error {
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return appErrors.NewInternal("building condition", err)
	}

	_, err = r.client.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.client.table),
		Key:                       itemKey(userPK(userID), linkSK(sourceID, targetID)),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return appErrors.NewNotFound("link not found")
		}
		return appErrors.NewInternal("deleting link", err)
	}
	return nil
}

// FindByUser returns all of the user's links, oldest first
func (r *LinkRepository) FindByUser(ctx context.Context, userID valueobjects.UserID) ([]entities.ManualLink, error) {
	items, err := queryPrefix(ctx, r.client, userPK(userID), skLinkPrefix)
	if err != nil {
		return nil, appErrors.NewInternal("querying links", err)
	}
	return r.parseLinks(items), nil
}

// FindByTarget returns the links pointing at a note
func (r *LinkRepository) FindByTarget(ctx context.Context, userID valueobjects.UserID, targetID valueobjects.NoteID) ([]entities.ManualLink, error) {
	all, err := r.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	backlinks := make([]entities.ManualLink, 0)
	for _, link := range all {
		if link.TargetID == targetID {
			backlinks = append(backlinks, link)
		}
	}
	return backlinks, nil
}

// DeleteByNote removes every link touching a note in either direction
func (r *LinkRepository) DeleteByNote(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error {
	items, err := queryPrefix(ctx, r.client, userPK(userID), skLinkPrefix)
	if err != nil {
		return appErrors.NewInternal("querying links", err)
	}

	keys := make([]map[string]types.AttributeValue, 0)
	for _, item := range items {
		sk, ok := item["SK"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		pair := strings.TrimPrefix(sk.Value, skLinkPrefix)
		if strings.HasPrefix(pair, noteID.String()+"#") || strings.HasSuffix(pair, "#"+noteID.String()) {
			keys = append(keys, map[string]types.AttributeValue{
				"PK": item["PK"],
				"SK": item["SK"],
			})
		}
	}
	if err := deleteKeys(ctx, r.client, keys); err != nil {
		return appErrors.NewInternal("deleting links", err)
	}
	return nil
}

func (r *LinkRepository) parseLinks(items []map[string]types.AttributeValue) []entities.ManualLink {
	links := make([]entities.ManualLink, 0, len(items))
	for _, item := range items {
		var record linkRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			r.logger.Warn("skipping unparseable link item", zap.Error(err))
			continue
		}
		createdAt, err := time.Parse(time.RFC3339Nano, record.CreatedAt)
		if err != nil {
			r.logger.Warn("skipping link with bad CreatedAt", zap.Error(err))
			continue
		}
		links = append(links, entities.ManualLink{
			UserID:    valueobjects.UserID(record.UserID),
			SourceID:  valueobjects.NoteID(record.SourceID),
			TargetID:  valueobjects.NoteID(record.TargetID),
			CreatedAt: createdAt,
		})
	}
	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		if links[i].SourceID != links[j].SourceID {
			return links[i].SourceID < links[j].SourceID
		}
		return links[i].TargetID < links[j].TargetID
	})
	return links
}

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

// noteRecord is the DynamoDB item shape for a note
type noteRecord struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ItemType  string `dynamodbav:"ItemType"`
	NoteID    string `dynamodbav:"NoteID"`
	UserID    string `dynamodbav:"UserID"`
	Title     string `dynamodbav:"Title"`
	Content   string `dynamodbav:"Content"`
	Version   int    `dynamodbav:"Version"`
	CreatedAt string `dynamodbav:"CreatedAt"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
}

// NoteRepository stores notes under SK "NOTE#{noteID}"
type NoteRepository struct {
	client *Client
	logger *zap.Logger
}

// NewNoteRepository creates a note repository
func NewNoteRepository(client *Client, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{client: client, logger: logger}
}

// Save writes a note with a condition expression enforcing the version
// check: the item must not exist yet, or must still hold the version the
// entity was loaded at.
func (r *NoteRepository) Save(ctx context.Context, note *entities.Note) error {
	record := noteRecord{
		PK:        userPK(note.UserID()),
		SK:        skNotePrefix + note.ID().String(),
		ItemType:  "NOTE",
		NoteID:    note.ID().String(),
		UserID:    note.UserID().String(),
		Title:     note.Title(),
		Content:   note.Content(),
		Version:   note.Version() + 1,
		CreatedAt: note.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt: note.UpdatedAt().Format(time.RFC3339Nano),
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return appErrors.NewInternal("marshaling note", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("Version").Equal(expression.Value(note.Version())))
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
			return appErrors.NewConflict("note was modified concurrently")
		}
		return appErrors.NewInternal("saving note", err)
	}

	note.IncrementVersion()
	return nil
}

// FindByID loads one note
func (r *NoteRepository) FindByID(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) (*entities.Note, error) {
	out, err := r.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.client.table),
		Key:       itemKey(userPK(userID), skNotePrefix+noteID.String()),
	})
	if err != nil {
		return nil, appErrors.NewInternal("loading note", err)
	}
	if out.Item == nil {
		return nil, appErrors.NewNotFound("note not found")
	}
	return parseNote(out.Item)
}

// FindByUser returns the user's notes, newest first
func (r *NoteRepository) FindByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Note, error) {
	items, err := queryPrefix(ctx, r.client, userPK(userID), skNotePrefix)
	if err != nil {
		return nil, appErrors.NewInternal("querying notes", err)
	}

	notes := make([]*entities.Note, 0, len(items))
	for _, item := range items {
		note, err := parseNote(item)
		if err != nil {
			r.logger.Warn("skipping unparseable note item", zap.Error(err))
			continue
		}
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt().After(notes[j].CreatedAt())
	})
	return notes, nil
}

// Delete removes a note, failing when it does not exist
func (r *NoteRepository) Delete(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error {
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return appErrors.NewInternal("building condition", err)
	}

	_, err = r.client.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.client.table),
		Key:                       itemKey(userPK(userID), skNotePrefix+noteID.String()),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return appErrors.NewNotFound("note not found")
		}
		return appErrors.NewInternal("deleting note", err)
	}
	return nil
}

func parseNote(item map[string]types.AttributeValue) (*entities.Note, error) {
	var record noteRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, appErrors.NewInternal("unmarshaling note", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, record.CreatedAt)
	if err != nil {
		return nil, appErrors.NewInternal("parsing note CreatedAt", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, record.UpdatedAt)
	if err != nil {
		return nil, appErrors.NewInternal("parsing note UpdatedAt", err)
	}
	return entities.ReconstructNote(
		valueobjects.NoteID(record.NoteID),
		valueobjects.UserID(record.UserID),
		record.Title, record.Content,
		record.Version, createdAt, updatedAt,
	), nil
}

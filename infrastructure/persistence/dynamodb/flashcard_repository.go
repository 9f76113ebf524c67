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

// cardRecord is the DynamoDB item shape for a flashcard
type cardRecord struct {
	PK                 string  `dynamodbav:"PK"`
	SK                 string  `dynamodbav:"SK"`
	ItemType           string  `dynamodbav:"ItemType"`
	CardID             string  `dynamodbav:"CardID"`
	NoteID             string  `dynamodbav:"NoteID"`
	UserID             string  `dynamodbav:"UserID"`
	Question           string  `dynamodbav:"Question"`
	Answer             string  `dynamodbav:"Answer"`
	MasteryLevel       float64 `dynamodbav:"MasteryLevel"`
	LastPerformance    *int    `dynamodbav:"LastPerformance,omitempty"`
	ReviewCount        int     `dynamodbav:"ReviewCount"`
	ConsecutiveCorrect int     `dynamodbav:"ConsecutiveCorrect"`
	NextReview         string  `dynamodbav:"NextReview"`
	Version            int     `dynamodbav:"Version"`
	CreatedAt          string  `dynamodbav:"CreatedAt"`
}

// FlashcardRepository stores flashcards under SK "CARD#{cardID}". The
// NoteID attribute supports per-note listing and cascade deletes.
type FlashcardRepository struct {
	client *Client
	logger *zap.Logger
}

// NewFlashcardRepository creates a flashcard repository
func NewFlashcardRepository(client *Client, logger *zap.Logger) *FlashcardRepository {
	return &FlashcardRepository{client: client, logger: logger}
}

// Save writes a card with the optimistic version condition
func (r *FlashcardRepository) Save(ctx context.Context, card *entities.Flashcard) error {
	record := cardRecord{
		PK:                 userPK(card.UserID()),
		SK:                 skCardPrefix + card.ID().String(),
		ItemType:           "CARD",
		CardID:             card.ID().String(),
		NoteID:             card.NoteID().String(),
		UserID:             card.UserID().String(),
		Question:           card.Question(),
		Answer:             card.Answer(),
		MasteryLevel:       card.MasteryLevel(),
		LastPerformance:    card.LastPerformance(),
		ReviewCount:        card.ReviewCount(),
		ConsecutiveCorrect: card.ConsecutiveCorrect(),
		NextReview:         card.NextReview().String(),
		Version:            card.Version() + 1,
		CreatedAt:          card.CreatedAt().Format(time.RFC3339Nano),
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return appErrors.NewInternal("marshaling flashcard", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("Version").Equal(expression.Value(card.Version())))
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
			return appErrors.NewConflict("flashcard was modified concurrently")
		}
		return appErrors.NewInternal("saving flashcard", err)
	}

	card.IncrementVersion()
	return nil
}

// FindByID loads one card
func (r *FlashcardRepository) FindByID(ctx context.Context, userID valueobjects.UserID, cardID valueobjects.FlashcardID) (*entities.Flashcard, error) {
	out, err := r.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.client.table),
		Key:       itemKey(userPK(userID), skCardPrefix+cardID.String()),
	})
	if err != nil {
		return nil, appErrors.NewInternal("loading flashcard", err)
	}
	if out.Item == nil {
		return nil, appErrors.NewNotFound("flashcard not found")
	}
	return parseCard(out.Item)
}

// FindByUser returns the user's cards, oldest first
func (r *FlashcardRepository) FindByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Flashcard, error) {
	items, err := queryPrefix(ctx, r.client, userPK(userID), skCardPrefix)
	if err != nil {
		return nil, appErrors.NewInternal("querying flashcards", err)
	}
	return r.parseCards(items), nil
}

// FindByNote returns the cards derived from one note
func (r *FlashcardRepository) FindByNote(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) ([]*entities.Flashcard, error) {
	items, err := r.queryByNote(ctx, userID, noteID)
	if err != nil {
		return nil, appErrors.NewInternal("querying flashcards by note", err)
	}
	return r.parseCards(items), nil
}

// DeleteByNote removes every card derived from a note
func (r *FlashcardRepository) DeleteByNote(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) error {
	items, err := r.queryByNote(ctx, userID, noteID)
	if err != nil {
		return appErrors.NewInternal("querying flashcards by note", err)
	}

	keys := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		keys = append(keys, map[string]types.AttributeValue{
			"PK": item["PK"],
			"SK": item["SK"],
		})
	}
	if err := deleteKeys(ctx, r.client, keys); err != nil {
		return appErrors.NewInternal("deleting flashcards", err)
	}
	return nil
}

// queryByNote filters the card partition on the NoteID attribute
func (r *FlashcardRepository) queryByNote(ctx context.Context, userID valueobjects.UserID, noteID valueobjects.NoteID) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith(skCardPrefix))
	filter := expression.Name("NoteID").Equal(expression.Value(noteID.String()))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, err
	}

	items := make([]map[string]types.AttributeValue, 0)
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
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}

func (r *FlashcardRepository) parseCards(items []map[string]types.AttributeValue) []*entities.Flashcard {
	cards := make([]*entities.Flashcard, 0, len(items))
	for _, item := range items {
		card, err := parseCard(item)
		if err != nil {
			r.logger.Warn("skipping unparseable flashcard item", zap.Error(err))
			continue
		}
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].CreatedAt().Equal(cards[j].CreatedAt()) {
			return cards[i].CreatedAt().Before(cards[j].CreatedAt())
		}
		return cards[i].ID() < cards[j].ID()
	})
	return cards
}

func parseCard(item map[string]types.AttributeValue) (*entities.Flashcard, error) {
	var record cardRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, appErrors.NewInternal("unmarshaling flashcard", err)
	}
	nextReview, err := valueobjects.ParseDay(record.NextReview)
	if err != nil {
		return nil, appErrors.NewInternal("parsing flashcard NextReview", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, record.CreatedAt)
	if err != nil {
		return nil, appErrors.NewInternal("parsing flashcard CreatedAt", err)
	}
	return entities.ReconstructFlashcard(
		valueobjects.FlashcardID(record.CardID),
		valueobjects.NoteID(record.NoteID),
		valueobjects.UserID(record.UserID),
		record.Question, record.Answer,
		record.MasteryLevel, record.LastPerformance,
		record.ReviewCount, record.ConsecutiveCorrect,
		nextReview, record.Version, createdAt,
	), nil
}

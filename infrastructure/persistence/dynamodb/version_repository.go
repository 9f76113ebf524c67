package dynamodb

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"studyflow-backend/domain/core/valueobjects"
	appErrors "studyflow-backend/pkg/errors"
)

const versionAttribute = "NoteSetVersion"

// VersionRepository keeps the per-user note-set version as an atomic
// counter on the user's METADATA item. ADD creates the attribute on first
// use, so new users start at version zero implicitly.
type VersionRepository struct {
	client *Client
}

// NewVersionRepository creates a version repository
func NewVersionRepository(client *Client) *VersionRepository {
	return &VersionRepository{client: client}
}

// Current returns the user's note-set version, zero for a new user
func (r *VersionRepository) Current(ctx context.Context, userID valueobjects.UserID) (int64, error) {
	out, err := r.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.client.table),
		Key:       itemKey(userPK(userID), skMetadata),
	})
	if err != nil {
		return 0, appErrors.NewInternal("loading note-set version", err)
	}
	if out.Item == nil {
		return 0, nil
	}

	attr, ok := out.Item[versionAttribute].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil
	}
	version, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, appErrors.NewInternal("parsing note-set version", err)
	}
	return version, nil
}

// Increment atomically bumps and returns the user's note-set version
func (r *VersionRepository) Increment(ctx context.Context, userID valueobjects.UserID) (int64, error) {
	out, err := r.client.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.client.table),
		Key:              itemKey(userPK(userID), skMetadata),
		UpdateExpression: aws.String("ADD #v :one"),
		ExpressionAttributeNames: map[string]string{
			"#v": versionAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, appErrors.NewInternal("incrementing note-set version", err)
	}

	attr, ok := out.Attributes[versionAttribute].(*types.AttributeValueMemberN)
	if !ok {
		return 0, appErrors.NewInternal("note-set version missing from update result", nil)
	}
	version, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return 0, appErrors.NewInternal("parsing note-set version", err)
	}
	return version, nil
}

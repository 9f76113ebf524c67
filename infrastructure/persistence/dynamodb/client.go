// Package dynamodb implements the application repositories on a single
// DynamoDB table. All items share PK "USER#{userID}"; the SK prefix
// distinguishes notes, flashcards, links, activity events and the
// per-user metadata row.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"studyflow-backend/domain/core/valueobjects"
)

const (
	skNotePrefix  = "NOTE#"
	skCardPrefix  = "CARD#"
	skLinkPrefix  = "LINK#"
	skEventPrefix = "EVT#"
	skMetadata    = "METADATA"
)

// Client wraps the DynamoDB SDK client with the table name
type Client struct {
	db    *dynamodb.Client
	table string
}

// NewClient creates a client against the given table using the default
// AWS credential chain.
func NewClient(ctx context.Context, region, table string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Client{db: dynamodb.NewFromConfig(cfg), table: table}, nil
}

// NewClientFromAPI wraps an existing SDK client, for tests and local
// endpoints.
func NewClientFromAPI(db *dynamodb.Client, table string) *Client {
	return &Client{db: db, table: table}
}

func userPK(userID valueobjects.UserID) string {
	return "USER#" + userID.String()
}

// isConditionalCheckFailed reports whether a write was rejected by its
// condition expression, the signal for an optimistic concurrency conflict.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

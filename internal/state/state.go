package state

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// runStep is the sort key value for workflow records, so the table can share
// the runId/step key schema with other per-run items.
const runStep = "workflow"

// RunRecord is the stored audit copy of one workflow run
type RunRecord struct {
	RunID       string    `json:"runId" dynamodbav:"runId"`
	Step        string    `json:"step" dynamodbav:"step"`
	State       string    `json:"state" dynamodbav:"state"`
	FailedAt    string    `json:"failedAt,omitempty" dynamodbav:"failedAt,omitempty"`
	Kind        string    `json:"kind,omitempty" dynamodbav:"kind,omitempty"`
	Reason      string    `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty" dynamodbav:"imageUrl,omitempty"`
	Caption     string    `json:"caption,omitempty" dynamodbav:"caption,omitempty"`
	ContainerID string    `json:"containerId,omitempty" dynamodbav:"containerId,omitempty"`
	PostID      string    `json:"postId,omitempty" dynamodbav:"postId,omitempty"`
	DryRun      bool      `json:"dryRun" dynamodbav:"dryRun"`
	StartedAt   time.Time `json:"startedAt" dynamodbav:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt" dynamodbav:"finishedAt"`
	TTL         int64     `json:"ttl" dynamodbav:"ttl"`
}

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// StateManager handles DynamoDB run history operations
type StateManager struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewStateManager creates a new state manager. Records expire after ttlDays.
func NewStateManager(ctx context.Context, tableName, region string, ttlDays int) (*StateManager, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newStateManager(dynamodb.NewFromConfig(cfg), tableName, ttlDays), nil
}

func newStateManager(client dynamoAPI, tableName string, ttlDays int) *StateManager {
	if ttlDays <= 0 {
		ttlDays = 90
	}
	return &StateManager{
		client:    client,
		tableName: tableName,
		ttl:       time.Duration(ttlDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Record stores a finished run
func (sm *StateManager) Record(ctx context.Context, rec RunRecord) error {
	rec.Step = runStep
	rec.TTL = sm.now().Add(sm.ttl).Unix()

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	_, err = sm.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(sm.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store run record: %w", err)
	}

	return nil
}

// GetRun retrieves a run record by runID
func (sm *StateManager) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	result, err := sm.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(sm.tableName),
		Key: map[string]types.AttributeValue{
			"runId": &types.AttributeValueMemberS{Value: runID},
			"step":  &types.AttributeValueMemberS{Value: runStep},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get run record: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("run record not found: %s", runID)
	}

	var rec RunRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}

	return &rec, nil
}

// ListRecent returns up to limit run records, newest first
func (sm *StateManager) ListRecent(ctx context.Context, limit int) ([]RunRecord, error) {
	var records []RunRecord
	var startKey map[string]types.AttributeValue

	for {
		result, err := sm.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(sm.tableName),
			FilterExpression: aws.String("#step = :step"),
			ExpressionAttributeNames: map[string]string{
				"#step": "step",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":step": &types.AttributeValueMemberS{Value: runStep},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan run records: %w", err)
		}

		var page []RunRecord
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run records: %w", err)
		}
		records = append(records, page...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

package submddb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/guregu/dynamo/v2"
	"github.com/ikk-contest/backend/subm"
)

type itemWriter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DdbSubmRepo stores submissions in a DynamoDB table keyed by subm_key.
type DdbSubmRepo struct {
	writer    itemWriter
	table     *dynamo.Table
	tableName string
	logger    *slog.Logger
}

func NewDdbSubmRepo(ddbClient *dynamodb.Client, tableName string) *DdbSubmRepo {
	db := dynamo.NewFromIface(ddbClient)
	table := db.Table(tableName)
	return &DdbSubmRepo{
		writer:    ddbClient,
		table:     &table,
		tableName: tableName,
		logger:    slog.Default().With("module", "submddb"),
	}
}

// Create puts the item only if no item with the same key exists.
func (r *DdbSubmRepo) Create(ctx context.Context, s subm.Subm) error {
	if err := s.Validate(); err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(rowFromSubm(s))
	if err != nil {
		return fmt.Errorf("failed to marshal submission row: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("subm_key"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build create condition: %w", err)
	}

	_, err = r.writer.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return fmt.Errorf("%w: %s", subm.ErrKeyTaken, s.Key)
		}
		return fmt.Errorf("failed to put submission: %w", err)
	}
	return nil
}

// SetAIScore overwrites ai_score only while it still equals from.
func (r *DdbSubmRepo) SetAIScore(ctx context.Context, key string, from string, to string) error {
	upd := expression.Set(expression.Name("ai_score"), expression.Value(to))
	cond := expression.Name("ai_score").Equal(expression.Value(from))
	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build ai score update expression: %w", err)
	}

	_, err = r.writer.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"subm_key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			if len(condFailed.Item) == 0 {
				return fmt.Errorf("%w: %s", subm.ErrNotFound, key)
			}
			return fmt.Errorf("%w: %s", subm.ErrScoreSettled, key)
		}
		return fmt.Errorf("failed to update ai score: %w", err)
	}
	return nil
}

func (r *DdbSubmRepo) Get(ctx context.Context, key string) (subm.Subm, error) {
	var row submRow
	err := r.table.Get("subm_key", key).Consistent(true).One(ctx, &row)
	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			return subm.Subm{}, fmt.Errorf("%w: %s", subm.ErrNotFound, key)
		}
		return subm.Subm{}, fmt.Errorf("failed to get submission: %w", err)
	}
	return row.toSubm()
}

// List scans the whole table. Rows that fail validation are logged and
// skipped so one bad item does not hide the rest from reviewers.
func (r *DdbSubmRepo) List(ctx context.Context) ([]subm.Subm, error) {
	var rows []submRow
	if err := r.table.Scan().All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to scan submissions: %w", err)
	}
	res := make([]subm.Subm, 0, len(rows))
	for _, row := range rows {
		s, err := row.toSubm()
		if err != nil {
			r.logger.Error("skipping invalid submission row", "key", row.Key, "error", err)
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

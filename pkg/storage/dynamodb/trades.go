package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/shopspring/decimal"
)

type tradeItem struct {
	ID        string    `dynamodbav:"id"`
	UserID    string    `dynamodbav:"user_id"`
	Direction string    `dynamodbav:"direction"`
	Amount    string    `dynamodbav:"amount"`
	Duration  string    `dynamodbav:"duration"`
	Result    string    `dynamodbav:"result"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

func (it *tradeItem) toDomain() (*models.TradeRecord, error) {
	amount, err := decimal.NewFromString(it.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trade amount %q: %w", it.Amount, err)
	}
	return &models.TradeRecord{
		ID:        it.ID,
		UserID:    it.UserID,
		Direction: it.Direction,
		Amount:    amount,
		Duration:  it.Duration,
		Result:    models.TradeResult(it.Result),
		CreatedAt: it.CreatedAt,
	}, nil
}

// GetTrade retrieves a trade from DynamoDB by its ID.
func (s *Store) GetTrade(ctx context.Context, id string) (*models.TradeRecord, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trade ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.Trades),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get trade from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrNotFound
	}

	var item tradeItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trade: %w", err)
	}
	return item.toDomain()
}

// ListTrades retrieves all trades, newest first.
func (s *Store) ListTrades(ctx context.Context) ([]models.TradeRecord, error) {
	result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Trades),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan trades table: %w", err)
	}

	var items []tradeItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trades: %w", err)
	}

	trades := make([]models.TradeRecord, 0, len(items))
	for i := range items {
		t, err := items[i].toDomain()
		if err != nil {
			return nil, err
		}
		trades = append(trades, *t)
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})
	return trades, nil
}

// SetTradeResult moves the trade Pending -> Win|Loss. The condition
// expression guarantees the result is written at most once.
func (s *Store) SetTradeResult(ctx context.Context, id string, result models.TradeResult) (*models.TradeRecord, error) {
	trade, err := s.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade.Result != models.TradePending {
		return nil, storage.ErrAlreadySettled
	}

	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Trades),
		Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		UpdateExpression:    aws.String("SET #result = :result"),
		ConditionExpression: aws.String("#result = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#result": "result",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":result":  &types.AttributeValueMemberS{Value: string(result)},
			":pending": &types.AttributeValueMemberS{Value: string(models.TradePending)},
		},
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			// Another admin settled this trade after our read.
			return nil, storage.ErrConcurrentModification
		}
		return nil, fmt.Errorf("failed to set trade result: %w", err)
	}

	trade.Result = result
	return trade, nil
}

package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/shopspring/decimal"
)

func balanceKey(userID, coin string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: userID},
		"coin":    &types.AttributeValueMemberS{Value: coin},
	}
}

// Credit adds amount to the user's available balance. The record is created
// lazily on first credit via if_not_exists.
func (s *Store) Credit(ctx context.Context, userID, coin string, amount decimal.Decimal) (*models.BalanceRecord, error) {
	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Balances),
		Key:                 balanceKey(userID, coin),
		UpdateExpression:    aws.String("SET available = if_not_exists(available, :zero) + :amount, frozen = if_not_exists(frozen, :zero), version = if_not_exists(version, :zero) + :one, updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":amount": numberAttr(amount),
			":zero":   &types.AttributeValueMemberN{Value: "0"},
			":one":    &types.AttributeValueMemberN{Value: "1"},
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to credit balance: %w", err)
	}

	return balanceFromAttrs(result.Attributes)
}

// Debit subtracts amount from the available balance. The condition expression
// rejects the write when available < amount, which also covers a missing
// record (available absent evaluates false).
func (s *Store) Debit(ctx context.Context, userID, coin string, amount decimal.Decimal) (*models.BalanceRecord, error) {
	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Balances),
		Key:                 balanceKey(userID, coin),
		UpdateExpression:    aws.String("SET available = available - :amount, version = version + :one, updated_at = :now"),
		ConditionExpression: aws.String("available >= :amount"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":amount": numberAttr(amount),
			":one":    &types.AttributeValueMemberN{Value: "1"},
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, storage.ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to debit balance: %w", err)
	}

	return balanceFromAttrs(result.Attributes)
}

// Freeze reclassifies amount from available to frozen in one write, so the
// available+frozen sum cannot drift.
func (s *Store) Freeze(ctx context.Context, userID, coin string, amount decimal.Decimal) (*models.BalanceRecord, error) {
	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Balances),
		Key:                 balanceKey(userID, coin),
		UpdateExpression:    aws.String("SET available = available - :amount, frozen = frozen + :amount, version = version + :one, updated_at = :now"),
		ConditionExpression: aws.String("available >= :amount"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":amount": numberAttr(amount),
			":one":    &types.AttributeValueMemberN{Value: "1"},
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, storage.ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to freeze balance: %w", err)
	}

	return balanceFromAttrs(result.Attributes)
}

// GetBalances retrieves all balance records for a user.
func (s *Store) GetBalances(ctx context.Context, userID string) ([]models.BalanceRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Balances),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}

	balances := make([]models.BalanceRecord, 0, len(result.Items))
	for _, item := range result.Items {
		record, err := balanceFromAttrs(item)
		if err != nil {
			return nil, fmt.Errorf("failed to decode balance record: %w", err)
		}
		balances = append(balances, *record)
	}

	return balances, nil
}

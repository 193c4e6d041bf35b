package dynamodb

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/novachain/admin-settlement/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func tradeAV(t *testing.T, id string, result models.TradeResult) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(tradeItem{
		ID:        id,
		UserID:    "user-1",
		Direction: "buy",
		Amount:    "50",
		Duration:  "60s",
		Result:    string(result),
		CreatedAt: time.Now().UTC(),
	})
	assert.NoError(t, err)
	return av
}

func TestSetTradeResult(t *testing.T) {
	tradeID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables()}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: tradeAV(t, tradeID, models.TradePending)}, nil)
		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(input *dynamodb.UpdateItemInput) bool {
			return *input.TableName == "trades" && input.ConditionExpression != nil
		})).Return(&dynamodb.UpdateItemOutput{}, nil)

		trade, err := store.SetTradeResult(context.Background(), tradeID, models.TradeWin)

		assert.NoError(t, err)
		assert.Equal(t, models.TradeWin, trade.Result)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Settled", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables()}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: tradeAV(t, tradeID, models.TradeLoss)}, nil)

		_, err := store.SetTradeResult(context.Background(), tradeID, models.TradeWin)

		assert.ErrorIs(t, err, storage.ErrAlreadySettled)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables()}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, err := store.SetTradeResult(context.Background(), tradeID, models.TradeWin)

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Settled Between Read And Write", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables()}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: tradeAV(t, tradeID, models.TradePending)}, nil)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		_, err := store.SetTradeResult(context.Background(), tradeID, models.TradeWin)

		assert.ErrorIs(t, err, storage.ErrConcurrentModification)
		mockClient.AssertExpectations(t)
	})
}

func TestListTrades(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	store := &Store{Client: mockClient, Tables: testTables()}

	older := tradeAV(t, uuid.New().String(), models.TradeWin)
	older["created_at"] = &types.AttributeValueMemberS{Value: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339Nano)}
	newer := tradeAV(t, uuid.New().String(), models.TradePending)

	mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{older, newer},
	}, nil)

	trades, err := store.ListTrades(context.Background())

	assert.NoError(t, err)
	assert.Len(t, trades, 2)
	// Newest first.
	assert.Equal(t, models.TradePending, trades[0].Result)
	mockClient.AssertExpectations(t)
}

package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/shopspring/decimal"
)

// DynamoDBAPI is the subset of the DynamoDB client this store uses.
// Mocks for it live in the mocks sub-package.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Tables names the DynamoDB tables backing the store.
type Tables struct {
	Balances    string
	Deposits    string
	Withdrawals string
	KYC         string
	Trades      string
	WinModes    string
	Settings    string
}

// Store implements the Storage interface using AWS DynamoDB. Per-key
// serialization comes from conditional writes on status fields and the
// balance version counter; cross-table atomicity from TransactWriteItems.
type Store struct {
	Client DynamoDBAPI
	Tables Tables
}

// New creates a new Store.
func New(client DynamoDBAPI, tables Tables) *Store {
	return &Store{Client: client, Tables: tables}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// isConditionalCheckFailed reports whether a single-item write was rejected
// by its condition expression.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// transactConditionFailed reports whether a TransactWriteItems call was
// cancelled because one of its condition expressions failed.
func transactConditionFailed(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

// numberAttr builds an N attribute from a decimal amount. DynamoDB numbers
// carry 38 digits of precision, more than any listed coin needs.
func numberAttr(d decimal.Decimal) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: d.String()}
}

func decodeNumber(av types.AttributeValue) (decimal.Decimal, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return decimal.Zero, fmt.Errorf("attribute is not a number: %T", av)
	}
	return decimal.NewFromString(n.Value)
}

func decodeString(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func decodeTime(av types.AttributeValue) time.Time {
	t, err := time.Parse(time.RFC3339Nano, decodeString(av))
	if err != nil {
		return time.Time{}
	}
	return t
}

// balanceFromAttrs decodes a balances-table item. Amounts are stored as
// native DynamoDB numbers so update expressions can do the arithmetic
// server-side.
func balanceFromAttrs(attrs map[string]types.AttributeValue) (*models.BalanceRecord, error) {
	available, err := decodeNumber(attrs["available"])
	if err != nil {
		return nil, fmt.Errorf("failed to decode available amount: %w", err)
	}
	frozen, err := decodeNumber(attrs["frozen"])
	if err != nil {
		return nil, fmt.Errorf("failed to decode frozen amount: %w", err)
	}
	version := int64(0)
	if v, ok := attrs["version"]; ok {
		d, err := decodeNumber(v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode version: %w", err)
		}
		version = d.IntPart()
	}
	return &models.BalanceRecord{
		UserID:    decodeString(attrs["user_id"]),
		Coin:      decodeString(attrs["coin"]),
		Available: available,
		Frozen:    frozen,
		Version:   version,
		UpdatedAt: decodeTime(attrs["updated_at"]),
	}, nil
}

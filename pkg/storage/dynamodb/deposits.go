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

const pendingByCreatedAtGSI = "status-created_at-index"

// depositItem is the DynamoDB representation of a deposit request. Amounts
// travel as strings; only the balances table needs native numbers.
type depositItem struct {
	ID         string     `dynamodbav:"id"`
	UserID     string     `dynamodbav:"user_id"`
	Coin       string     `dynamodbav:"coin"`
	Amount     string     `dynamodbav:"amount"`
	Screenshot string     `dynamodbav:"screenshot,omitempty"`
	Status     string     `dynamodbav:"status"`
	CreatedAt  time.Time  `dynamodbav:"created_at"`
	DecidedAt  *time.Time `dynamodbav:"decided_at,omitempty"`
}

func (it *depositItem) toDomain() (*models.DepositRequest, error) {
	amount, err := decimal.NewFromString(it.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deposit amount %q: %w", it.Amount, err)
	}
	return &models.DepositRequest{
		ID:         it.ID,
		UserID:     it.UserID,
		Coin:       it.Coin,
		Amount:     amount,
		Screenshot: it.Screenshot,
		Status:     models.RequestStatus(it.Status),
		CreatedAt:  it.CreatedAt,
		DecidedAt:  it.DecidedAt,
	}, nil
}

// GetDeposit retrieves a deposit request from DynamoDB by its ID.
func (s *Store) GetDeposit(ctx context.Context, id string) (*models.DepositRequest, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deposit ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.Deposits),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrNotFound
	}

	var item depositItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deposit: %w", err)
	}
	return item.toDomain()
}

// ListDeposits retrieves all deposit requests, newest first.
func (s *Store) ListDeposits(ctx context.Context) ([]models.DepositRequest, error) {
	result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Deposits),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan deposits table: %w", err)
	}

	var items []depositItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deposits: %w", err)
	}

	deposits := make([]models.DepositRequest, 0, len(items))
	for i := range items {
		d, err := items[i].toDomain()
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, *d)
	}
	sort.Slice(deposits, func(i, j int) bool {
		return deposits[i].CreatedAt.After(deposits[j].CreatedAt)
	})
	return deposits, nil
}

// ApproveDeposit atomically credits the user's balance and moves the request
// pending -> approved. If either write fails, neither is applied.
func (s *Store) ApproveDeposit(ctx context.Context, id string) (*models.DepositRequest, error) {
	deposit, err := s.GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}
	if deposit.Status != models.StatusPending {
		return nil, storage.ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: credit the user's balance for the coin.
				Update: &types.Update{
					TableName:        aws.String(s.Tables.Balances),
					Key:              balanceKey(deposit.UserID, deposit.Coin),
					UpdateExpression: aws.String("SET available = if_not_exists(available, :zero) + :amount, frozen = if_not_exists(frozen, :zero), version = if_not_exists(version, :zero) + :one, updated_at = :now"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":amount": numberAttr(deposit.Amount),
						":zero":   &types.AttributeValueMemberN{Value: "0"},
						":one":    &types.AttributeValueMemberN{Value: "1"},
						":now":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
					},
				},
			},
			{
				// Operation 2: flip the request status, guarded on pending.
				Update: &types.Update{
					TableName:           aws.String(s.Tables.Deposits),
					Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
					UpdateExpression:    aws.String("SET #status = :approved, decided_at = :now"),
					ConditionExpression: aws.String("#status = :pending"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":approved": &types.AttributeValueMemberS{Value: string(models.StatusApproved)},
						":pending":  &types.AttributeValueMemberS{Value: string(models.StatusPending)},
						":now":      &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
					},
				},
			},
		},
	}

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		if transactConditionFailed(err) {
			// Status changed between our read and the write.
			return nil, storage.ErrConcurrentModification
		}
		return nil, fmt.Errorf("failed to execute deposit approval transaction: %w", err)
	}

	deposit.Status = models.StatusApproved
	deposit.DecidedAt = &now
	return deposit, nil
}

// DenyDeposit moves the request pending -> denied. No ledger mutation.
func (s *Store) DenyDeposit(ctx context.Context, id string) (*models.DepositRequest, error) {
	deposit, err := s.GetDeposit(ctx, id)
	if err != nil {
		return nil, err
	}
	if deposit.Status != models.StatusPending {
		return nil, storage.ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Deposits),
		Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		UpdateExpression:    aws.String("SET #status = :denied, decided_at = :now"),
		ConditionExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":denied":  &types.AttributeValueMemberS{Value: string(models.StatusDenied)},
			":pending": &types.AttributeValueMemberS{Value: string(models.StatusPending)},
			":now":     &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, storage.ErrConcurrentModification
		}
		return nil, fmt.Errorf("failed to deny deposit: %w", err)
	}

	deposit.Status = models.StatusDenied
	deposit.DecidedAt = &now
	return deposit, nil
}

// ListPendingDeposits retrieves every pending deposit request via the status
// GSI, newest first.
func (s *Store) ListPendingDeposits(ctx context.Context) ([]models.DepositRequest, error) {
	items, err := s.queryPending(ctx, s.Tables.Deposits)
	if err != nil {
		return nil, err
	}
	return depositsFromAttrs(items)
}

// GetStuckDeposits retrieves deposits that have been pending for longer than
// maxAge.
func (s *Store) GetStuckDeposits(ctx context.Context, maxAge time.Duration) ([]models.DepositRequest, error) {
	items, err := s.queryStuck(ctx, s.Tables.Deposits, maxAge)
	if err != nil {
		return nil, err
	}
	return depositsFromAttrs(items)
}

func depositsFromAttrs(items []map[string]types.AttributeValue) ([]models.DepositRequest, error) {
	var raw []depositItem
	if err := attributevalue.UnmarshalListOfMaps(items, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deposits: %w", err)
	}

	deposits := make([]models.DepositRequest, 0, len(raw))
	for i := range raw {
		d, err := raw[i].toDomain()
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, *d)
	}
	return deposits, nil
}

// queryPending queries a request table's status GSI for all pending entries,
// newest first. No age cutoff: a request whose creator-written timestamp runs
// ahead of this host's clock must still show up in the review queue.
func (s *Store) queryPending(ctx context.Context, table string) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(table),
		IndexName:              aws.String(pendingByCreatedAtGSI),
		KeyConditionExpression: aws.String("#status = :status"),
		ScanIndexForward:       aws.Bool(false),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(models.StatusPending)},
		},
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests: %w", err)
	}
	return result.Items, nil
}

// queryStuck queries a request table's status GSI for pending entries older
// than the cutoff.
func (s *Store) queryStuck(ctx context.Context, table string, maxAge time.Duration) ([]map[string]types.AttributeValue, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	input := &dynamodb.QueryInput{
		TableName:              aws.String(table),
		IndexName:              aws.String(pendingByCreatedAtGSI),
		KeyConditionExpression: aws.String("#status = :status AND created_at < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(models.StatusPending)},
			":cutoff": &types.AttributeValueMemberS{Value: cutoff.Format(time.RFC3339Nano)},
		},
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query for stuck requests: %w", err)
	}
	return result.Items, nil
}

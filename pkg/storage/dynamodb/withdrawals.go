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

type withdrawalItem struct {
	ID        string     `dynamodbav:"id"`
	UserID    string     `dynamodbav:"user_id"`
	Coin      string     `dynamodbav:"coin"`
	Amount    string     `dynamodbav:"amount"`
	Address   string     `dynamodbav:"address"`
	Status    string     `dynamodbav:"status"`
	CreatedAt time.Time  `dynamodbav:"created_at"`
	DecidedAt *time.Time `dynamodbav:"decided_at,omitempty"`
}

func (it *withdrawalItem) toDomain() (*models.WithdrawalRequest, error) {
	amount, err := decimal.NewFromString(it.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse withdrawal amount %q: %w", it.Amount, err)
	}
	return &models.WithdrawalRequest{
		ID:        it.ID,
		UserID:    it.UserID,
		Coin:      it.Coin,
		Amount:    amount,
		Address:   it.Address,
		Status:    models.RequestStatus(it.Status),
		CreatedAt: it.CreatedAt,
		DecidedAt: it.DecidedAt,
	}, nil
}

// GetWithdrawal retrieves a withdrawal request from DynamoDB by its ID.
func (s *Store) GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal withdrawal ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.Withdrawals),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrNotFound
	}

	var item withdrawalItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal withdrawal: %w", err)
	}
	return item.toDomain()
}

// ListWithdrawals retrieves all withdrawal requests, newest first.
func (s *Store) ListWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Withdrawals),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan withdrawals table: %w", err)
	}

	var items []withdrawalItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal withdrawals: %w", err)
	}

	withdrawals := make([]models.WithdrawalRequest, 0, len(items))
	for i := range items {
		w, err := items[i].toDomain()
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, *w)
	}
	sort.Slice(withdrawals, func(i, j int) bool {
		return withdrawals[i].CreatedAt.After(withdrawals[j].CreatedAt)
	})
	return withdrawals, nil
}

// ApproveWithdrawal moves the request pending -> approved. Status-only: the
// funds reservation belongs to the flow that created the request.
func (s *Store) ApproveWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	return s.transitionWithdrawal(ctx, id, models.StatusPending, models.StatusApproved)
}

// DenyWithdrawal moves the request pending -> denied.
func (s *Store) DenyWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	return s.transitionWithdrawal(ctx, id, models.StatusPending, models.StatusDenied)
}

// CompleteWithdrawal moves the request approved -> completed once the
// off-system broadcast is confirmed.
func (s *Store) CompleteWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	return s.transitionWithdrawal(ctx, id, models.StatusApproved, models.StatusCompleted)
}

func (s *Store) transitionWithdrawal(ctx context.Context, id string, from, to models.RequestStatus) (*models.WithdrawalRequest, error) {
	withdrawal, err := s.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}
	if withdrawal.Status != from {
		return nil, storage.ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Withdrawals),
		Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		UpdateExpression:    aws.String("SET #status = :to, decided_at = :now"),
		ConditionExpression: aws.String("#status = :from"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":   &types.AttributeValueMemberS{Value: string(to)},
			":from": &types.AttributeValueMemberS{Value: string(from)},
			":now":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, storage.ErrConcurrentModification
		}
		return nil, fmt.Errorf("failed to transition withdrawal to %s: %w", to, err)
	}

	withdrawal.Status = to
	withdrawal.DecidedAt = &now
	return withdrawal, nil
}

// ListPendingWithdrawals retrieves every pending withdrawal request via the
// status GSI, newest first.
func (s *Store) ListPendingWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	items, err := s.queryPending(ctx, s.Tables.Withdrawals)
	if err != nil {
		return nil, err
	}
	return withdrawalsFromAttrs(items)
}

// GetStuckWithdrawals retrieves withdrawals that have been pending for longer
// than maxAge.
func (s *Store) GetStuckWithdrawals(ctx context.Context, maxAge time.Duration) ([]models.WithdrawalRequest, error) {
	items, err := s.queryStuck(ctx, s.Tables.Withdrawals, maxAge)
	if err != nil {
		return nil, err
	}
	return withdrawalsFromAttrs(items)
}

func withdrawalsFromAttrs(items []map[string]types.AttributeValue) ([]models.WithdrawalRequest, error) {
	var raw []withdrawalItem
	if err := attributevalue.UnmarshalListOfMaps(items, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal withdrawals: %w", err)
	}

	withdrawals := make([]models.WithdrawalRequest, 0, len(raw))
	for i := range raw {
		w, err := raw[i].toDomain()
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, *w)
	}
	return withdrawals, nil
}

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
)

type kycItem struct {
	UserID      string     `dynamodbav:"user_id"`
	Selfie      string     `dynamodbav:"selfie,omitempty"`
	IDCard      string     `dynamodbav:"id_card,omitempty"`
	Status      string     `dynamodbav:"status"`
	SubmittedAt time.Time  `dynamodbav:"submitted_at"`
	DecidedAt   *time.Time `dynamodbav:"decided_at,omitempty"`
}

func (it *kycItem) toDomain() *models.KYCRecord {
	return &models.KYCRecord{
		UserID:      it.UserID,
		Selfie:      it.Selfie,
		IDCard:      it.IDCard,
		Status:      models.KYCStatus(it.Status),
		SubmittedAt: it.SubmittedAt,
		DecidedAt:   it.DecidedAt,
	}
}

// GetKYC retrieves a user's KYC record from DynamoDB.
func (s *Store) GetKYC(ctx context.Context, userID string) (*models.KYCRecord, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal KYC user ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.KYC),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get KYC record from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrNotFound
	}

	var item kycItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal KYC record: %w", err)
	}
	return item.toDomain(), nil
}

// ListPendingKYC retrieves the actionable review queue, oldest first.
func (s *Store) ListPendingKYC(ctx context.Context) ([]models.KYCRecord, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.Tables.KYC),
		FilterExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(models.KYCPending)},
		},
	}

	result, err := s.Client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to scan KYC table: %w", err)
	}

	var items []kycItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal KYC records: %w", err)
	}

	records := make([]models.KYCRecord, 0, len(items))
	for i := range items {
		records = append(records, *items[i].toDomain())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SubmittedAt.Before(records[j].SubmittedAt)
	})
	return records, nil
}

// SetKYCStatus moves the record pending -> approved|rejected.
func (s *Store) SetKYCStatus(ctx context.Context, userID string, status models.KYCStatus) (*models.KYCRecord, error) {
	record, err := s.GetKYC(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.KYCPending {
		return nil, storage.ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.KYC),
		Key:                 map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: userID}},
		UpdateExpression:    aws.String("SET #status = :to, decided_at = :now"),
		ConditionExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":      &types.AttributeValueMemberS{Value: string(status)},
			":pending": &types.AttributeValueMemberS{Value: string(models.KYCPending)},
			":now":     &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return nil, storage.ErrConcurrentModification
		}
		return nil, fmt.Errorf("failed to set KYC status: %w", err)
	}

	record.Status = status
	record.DecidedAt = &now
	return record, nil
}

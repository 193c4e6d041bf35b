package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/novachain/admin-settlement/pkg/models"
)

type winModeItem struct {
	UserID    string    `dynamodbav:"user_id"`
	Mode      string    `dynamodbav:"mode"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// GetWinMode retrieves the directive for a user. Returns nil when the user
// has no directive; natural resolution applies.
func (s *Store) GetWinMode(ctx context.Context, userID string) (*models.WinModeDirective, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal win-mode user ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.WinModes),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get win-mode from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item winModeItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal win-mode: %w", err)
	}
	return &models.WinModeDirective{
		UserID:    item.UserID,
		Mode:      models.WinMode(item.Mode),
		UpdatedAt: item.UpdatedAt,
	}, nil
}

// ListWinModes retrieves every active directive. The table is sparse: only
// users with a forced outcome have an item.
func (s *Store) ListWinModes(ctx context.Context) ([]models.WinModeDirective, error) {
	result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.WinModes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan win-modes table: %w", err)
	}

	var items []winModeItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal win-modes: %w", err)
	}

	directives := make([]models.WinModeDirective, 0, len(items))
	for _, item := range items {
		directives = append(directives, models.WinModeDirective{
			UserID:    item.UserID,
			Mode:      models.WinMode(item.Mode),
			UpdatedAt: item.UpdatedAt,
		})
	}
	return directives, nil
}

// SetWinMode overwrites the user's directive; a nil mode deletes the item.
func (s *Store) SetWinMode(ctx context.Context, userID string, mode *models.WinMode) error {
	if mode == nil {
		key, err := attributevalue.MarshalMap(map[string]string{"user_id": userID})
		if err != nil {
			return fmt.Errorf("failed to marshal win-mode user ID: %w", err)
		}
		if _, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.Tables.WinModes),
			Key:       key,
		}); err != nil {
			return fmt.Errorf("failed to clear win-mode: %w", err)
		}
		return nil
	}

	item, err := attributevalue.MarshalMap(winModeItem{
		UserID:    userID,
		Mode:      string(*mode),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal win-mode item: %w", err)
	}

	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Tables.WinModes),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to set win-mode: %w", err)
	}
	return nil
}

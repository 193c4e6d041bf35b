package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/novachain/admin-settlement/pkg/models"
)

type depositAddressItem struct {
	Coin      string    `dynamodbav:"coin"`
	Address   string    `dynamodbav:"address"`
	Network   string    `dynamodbav:"network,omitempty"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// SetDepositAddress creates or overwrites the deposit address for a coin.
func (s *Store) SetDepositAddress(ctx context.Context, addr *models.DepositAddress) (*models.DepositAddress, error) {
	updated := *addr
	updated.UpdatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(depositAddressItem{
		Coin:      updated.Coin,
		Address:   updated.Address,
		Network:   updated.Network,
		UpdatedAt: updated.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deposit address: %w", err)
	}

	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Tables.Settings),
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("failed to store deposit address: %w", err)
	}
	return &updated, nil
}

// ListDepositAddresses retrieves all configured deposit addresses.
func (s *Store) ListDepositAddresses(ctx context.Context) ([]models.DepositAddress, error) {
	result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Settings),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan settings table: %w", err)
	}

	var items []depositAddressItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deposit addresses: %w", err)
	}

	addresses := make([]models.DepositAddress, 0, len(items))
	for _, item := range items {
		addresses = append(addresses, models.DepositAddress{
			Coin:      item.Coin,
			Address:   item.Address,
			Network:   item.Network,
			UpdatedAt: item.UpdatedAt,
		})
	}
	sort.Slice(addresses, func(i, j int) bool { return addresses[i].Coin < addresses[j].Coin })
	return addresses, nil
}

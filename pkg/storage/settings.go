package storage

import (
	"context"

	"github.com/novachain/admin-settlement/pkg/models"
)

// SettingsStore defines the interface for the admin-managed deposit wallet
// addresses.
type SettingsStore interface {
	// SetDepositAddress creates or overwrites the deposit address for a coin.
	SetDepositAddress(ctx context.Context, addr *models.DepositAddress) (*models.DepositAddress, error)

	// ListDepositAddresses retrieves all configured deposit addresses.
	ListDepositAddresses(ctx context.Context) ([]models.DepositAddress, error)
}

package storage

import (
	"context"

	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/shopspring/decimal"
)

// LedgerStore defines the balance mutation contract. All three mutations are
// all-or-nothing: on failure the record is unchanged. Amount validation
// (positive, finite) is the workflow engine's job; implementations enforce
// the non-negativity invariants.
type LedgerStore interface {
	// Credit adds amount to the user's available balance, creating the
	// record on first use.
	Credit(ctx context.Context, userID, coin string, amount decimal.Decimal) (*models.BalanceRecord, error)

	// Debit subtracts amount from the available balance. Fails with
	// ErrInsufficientBalance if available < amount.
	Debit(ctx context.Context, userID, coin string, amount decimal.Decimal) (*models.BalanceRecord, error)

	// Freeze reclassifies amount from available to frozen. The sum
	// available+frozen is invariant across the call.
	Freeze(ctx context.Context, userID, coin string, amount decimal.Decimal) (*models.BalanceRecord, error)

	// GetBalances retrieves all balance records for a user.
	GetBalances(ctx context.Context, userID string) ([]models.BalanceRecord, error)
}

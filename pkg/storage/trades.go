package storage

import (
	"context"

	"github.com/novachain/admin-settlement/pkg/models"
)

// TradeStore defines the interface for reading trades and resolving their
// results. A result is written exactly once.
type TradeStore interface {
	// GetTrade retrieves a trade by its ID.
	GetTrade(ctx context.Context, id string) (*models.TradeRecord, error)

	// ListTrades retrieves all trades, newest first.
	ListTrades(ctx context.Context) ([]models.TradeRecord, error)

	// SetTradeResult moves the trade Pending -> Win|Loss. Fails with
	// ErrAlreadySettled once a result has been written.
	SetTradeResult(ctx context.Context, id string, result models.TradeResult) (*models.TradeRecord, error)
}

// WinModeStore defines the interface for the per-user forced-outcome table.
// The external resolution engine consults it before computing a trade's
// natural result.
type WinModeStore interface {
	// GetWinMode retrieves the directive for a user; nil when unset.
	GetWinMode(ctx context.Context, userID string) (*models.WinModeDirective, error)

	// ListWinModes retrieves every active directive.
	ListWinModes(ctx context.Context) ([]models.WinModeDirective, error)

	// SetWinMode overwrites the user's directive; a nil mode clears it.
	SetWinMode(ctx context.Context, userID string, mode *models.WinMode) error
}

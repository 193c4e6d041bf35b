// Package engine implements the settlement workflow: it authorizes the
// acting admin, validates the requested transition, applies it through
// storage, and emits an audit event for every applied change.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/novachain/admin-settlement/pkg/audit"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/metrics"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Engine coordinates settlement decisions against the storage layer.
type Engine struct {
	store     storage.Storage
	publisher audit.Publisher
	collector *metrics.Collector
	logger    zerolog.Logger
}

// New creates an Engine. A nil publisher disables audit emission and a nil
// collector disables metrics.
func New(store storage.Storage, publisher audit.Publisher, collector *metrics.Collector, logger zerolog.Logger) *Engine {
	if publisher == nil {
		publisher = audit.NoOpPublisher{}
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Engine{
		store:     store,
		publisher: publisher,
		collector: collector,
		logger:    logger,
	}
}

func (e *Engine) authorize(cred *auth.Credential) error {
	if !cred.Valid(time.Now()) {
		return storage.ErrUnauthorized
	}
	return nil
}

// emit publishes an audit event for an applied transition. Publish failures
// are logged, never propagated: the settlement already happened.
func (e *Engine) emit(ctx context.Context, event *models.TransitionEvent) {
	event.EventID = uuid.NewString()
	event.OccurredAt = time.Now().UTC()

	if err := e.publisher.PublishTransition(ctx, event); err != nil {
		e.logger.Error().Err(err).
			Str("kind", string(event.Kind)).
			Str("entity_id", event.EntityID).
			Msg("failed to publish transition event")
	}
}

// ApproveDeposit credits the deposit amount to the user's balance and moves
// the request pending -> approved as one atomic unit.
func (e *Engine) ApproveDeposit(ctx context.Context, cred *auth.Credential, id string) (*models.DepositRequest, error) {
	if err := e.authorize(cred); err != nil {
		return nil, err
	}

	deposit, err := e.store.ApproveDeposit(ctx, id)
	if err != nil {
		e.collector.RecordRejected(string(models.KindDeposit), rejectionReason(err))
		return nil, err
	}

	e.collector.RecordApplied(string(models.KindDeposit), string(models.StatusApproved))
	e.collector.RecordLedgerMutation(string(models.OpAdd))
	e.logger.Info().
		Str("deposit_id", deposit.ID).
		Str("user_id", deposit.UserID).
		Str("amount", deposit.Amount.String()).
		Str("actor", cred.Subject).
		Msg("deposit approved")

	e.emit(ctx, &models.TransitionEvent{
		Kind:      models.KindDeposit,
		EntityID:  deposit.ID,
		UserID:    deposit.UserID,
		OldStatus: string(models.StatusPending),
		NewStatus: string(models.StatusApproved),
		Actor:     cred.Subject,
		Detail:    deposit.Amount.String() + " " + deposit.Coin,
	})
	return deposit, nil
}

// DenyDeposit moves the request pending -> denied. The ledger is untouched.
func (e *Engine) DenyDeposit(ctx context.Context, cred *auth.Credential, id string) (*models.DepositRequest, error) {
	if err := e.authorize(cred); err != nil {
		return nil, err
	}

	deposit, err := e.store.DenyDeposit(ctx, id)
	if err != nil {
		e.collector.RecordRejected(string(models.KindDeposit), rejectionReason(err))
		return nil, err
	}

	e.collector.RecordApplied(string(models.KindDeposit), string(models.StatusDenied))
	e.logger.Info().
		Str("deposit_id", deposit.ID).
		Str("actor", cred.Subject).
		Msg("deposit denied")

	e.emit(ctx, &models.TransitionEvent{
		Kind:      models.KindDeposit,
		EntityID:  deposit.ID,
		UserID:    deposit.UserID,
		OldStatus: string(models.StatusPending),
		NewStatus: string(models.StatusDenied),
		Actor:     cred.Subject,
	})
	return deposit, nil
}

// ApproveWithdrawal moves the request pending -> approved. Funds were already
// reserved when the user filed the request, so approval is status-only; the
// broadcast worker completes the request after the on-chain send.
func (e *Engine) ApproveWithdrawal(ctx context.Context, cred *auth.Credential, id string) (*models.WithdrawalRequest, error) {
	if err := e.authorize(cred); err != nil {
		return nil, err
	}

	withdrawal, err := e.store.ApproveWithdrawal(ctx, id)
	if err != nil {
		e.collector.RecordRejected(string(models.KindWithdrawal), rejectionReason(err))
		return nil, err
	}

	e.collector.RecordApplied(string(models.KindWithdrawal), string(models.StatusApproved))
	e.logger.Info().
		Str("withdrawal_id", withdrawal.ID).
		Str("user_id", withdrawal.UserID).
		Str("amount", withdrawal.Amount.String()).
		Str("actor", cred.Subject).
		Msg("withdrawal approved")

	e.emit(ctx, &models.TransitionEvent{
		Kind:      models.KindWithdrawal,
		EntityID:  withdrawal.ID,
		UserID:    withdrawal.UserID,
		OldStatus: string(models.StatusPending),
		NewStatus: string(models.StatusApproved),
		Actor:     cred.Subject,
		Detail:    withdrawal.Amount.String() + " " + withdrawal.Coin,
	})
	return withdrawal, nil
}

// DenyWithdrawal moves the request pending -> denied.
func (e *Engine) DenyWithdrawal(ctx context.Context, cred *auth.Credential, id string) (*models.WithdrawalRequest, error) {
	if err := e.authorize(cred); err != nil {
		return nil, err
	}

	withdrawal, err := e.store.DenyWithdrawal(ctx, id)
	if err != nil {
		e.collector.RecordRejected(string(models.KindWithdrawal), rejectionReason(err))
		return nil, err
	}

	e.collector.RecordApplied(string(models.KindWithdrawal), string(models.StatusDenied))
	e.logger.Info().
		Str("withdrawal_id", withdrawal.ID).
		Str("actor", cred.Subject).
		Msg("withdrawal denied")

	e.emit(ctx, &models.TransitionEvent{
		Kind:      models.KindWithdrawal,
		EntityID:  withdrawal.ID,
		UserID:    withdrawal.UserID,
		OldStatus: string(models.StatusPending),
		NewStatus: string(models.StatusDenied),
		Actor:     cred.Subject,
	})
	return withdrawal, nil
}

// CompleteWithdrawal moves the request approved -> completed. Called by the
// broadcast worker once the outbound transfer is confirmed.
func (e *Engine) CompleteWithdrawal(ctx context.Context, cred *auth.Credential, id string) (*models.WithdrawalRequest, error) {
	if err := e.authorize(cred); err != nil {
		return nil, err
	}

	withdrawal, err := e.store.CompleteWithdrawal(ctx, id)
	if err != nil {
		e.collector.RecordRejected(string(models.KindWithdrawal), rejectionReason(err))
		return nil, err
	}

	e.collector.RecordApplied(string(models.KindWithdrawal), string(models.StatusCompleted))
	e.logger.Info().
		Str("withdrawal_id", withdrawal.ID).
		Str("actor", cred.Subject).
		Msg("withdrawal completed")

	e.emit(ctx, &models.TransitionEvent{
		Kind:      models.KindWithdrawal,
		EntityID:  withdrawal.ID,
		UserID:    withdrawal.UserID,
		OldStatus: string(models.StatusApproved),
		NewStatus: string(models.StatusCompleted),
		Actor:     cred.Subject,
	})
	return withdrawal, nil
}

// SetKYCStatus decides a pending KYC record. Only approved and rejected are
// legal decisions.
func (e *Engine) SetKYCStatus(ctx context.Context, cred *auth.Credential, userID string, status models.KYCStatus) (*models.KYCRecord, error) {
	if err := e.authorize(cred); err != nil {
		return nil, err
	}
	if status != models.KYCApproved && status != models.KYCRejected {
		e.collector.RecordRejected(string(models.KindKYC), "invalid_status")
		return nil, storage.ErrInvalidStateTransition
	}

	record, err := e.store.SetKYCStatus(ctx, userID, status)
	if err != nil {
		e.collector.RecordRejected(string(models.KindKYC), rejectionReason(err))
		return nil, err
	}

	e.collector.RecordApplied(string(models.KindKYC), string(status))
	e.logger.Info().
		Str("user_id", userID).
		Str("status", string(status)).
		Str("actor", cred.Subject).
		Msg("kyc decided")

	e.emit(ctx, &models.TransitionEvent{
		Kind:      models.KindKYC,
		EntityID:  userID,
		UserID:    userID,
		OldStatus: string(models.KYCPending),
		NewStatus: string(status),
		Actor:     cred.Subject,
	})
	return record, nil
}

// SetTradeResult resolves a pending trade to Win or Loss exactly once,
// applying the admin's result verbatim. Win-mode directives bias the
// automated resolution process, which reads them via GetWinMode; an explicit
// admin settlement takes precedence over them.
func (e *Engine) SetTradeResult(ctx context.Context, cred *auth.Credential, id string, result models.TradeResult) (*models.TradeRecord, error) {
	if err := e.authorize(cred); err != nil {
		return nil, err
	}
	if result != models.TradeWin && result != models.TradeLoss {
		e.collector.RecordRejected(string(models.KindTrade), "invalid_result")
		return nil, storage.ErrInvalidStateTransition
	}

	updated, err := e.store.SetTradeResult(ctx, id, result)
	if err != nil {
		e.collector.RecordRejected(string(models.KindTrade), rejectionReason(err))
		return nil, err
	}

	e.collector.RecordApplied(string(models.KindTrade), string(result))
	e.logger.Info().
		Str("trade_id", updated.ID).
		Str("user_id", updated.UserID).
		Str("result", string(result)).
		Str("actor", cred.Subject).
		Msg("trade settled")

	e.emit(ctx, &models.TransitionEvent{
		Kind:      models.KindTrade,
		EntityID:  updated.ID,
		UserID:    updated.UserID,
		OldStatus: string(models.TradePending),
		NewStatus: string(result),
		Actor:     cred.Subject,
	})
	return updated, nil
}

// SetWinMode sets or clears the forced-outcome directive for a user. A nil
// mode restores natural resolution.
func (e *Engine) SetWinMode(ctx context.Context, cred *auth.Credential, userID string, mode *models.WinMode) error {
	if err := e.authorize(cred); err != nil {
		return err
	}
	if mode != nil && *mode != models.WinModeWin && *mode != models.WinModeLose {
		e.collector.RecordRejected(string(models.KindWinMode), "invalid_mode")
		return storage.ErrInvalidStateTransition
	}

	if err := e.store.SetWinMode(ctx, userID, mode); err != nil {
		return err
	}

	newStatus := "cleared"
	if mode != nil {
		newStatus = string(*mode)
	}
	e.collector.RecordApplied(string(models.KindWinMode), newStatus)
	e.logger.Info().
		Str("user_id", userID).
		Str("mode", newStatus).
		Str("actor", cred.Subject).
		Msg("win-mode updated")

	e.emit(ctx, &models.TransitionEvent{
		Kind:      models.KindWinMode,
		EntityID:  userID,
		UserID:    userID,
		NewStatus: newStatus,
		Actor:     cred.Subject,
	})
	return nil
}

// AdjustBalance applies a manual ledger mutation. Amounts must be strictly
// positive; reduce and freeze fail when available funds do not cover them.
func (e *Engine) AdjustBalance(ctx context.Context, cred *auth.Credential, userID, coin string, op models.BalanceOp, amount decimal.Decimal) (*models.BalanceRecord, error) {
	if err := e.authorize(cred); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		e.collector.RecordRejected(string(models.KindBalance), "invalid_amount")
		return nil, storage.ErrInvalidAmount
	}

	var (
		record *models.BalanceRecord
		err    error
	)
	switch op {
	case models.OpAdd:
		record, err = e.store.Credit(ctx, userID, coin, amount)
	case models.OpReduce:
		record, err = e.store.Debit(ctx, userID, coin, amount)
	case models.OpFreeze:
		record, err = e.store.Freeze(ctx, userID, coin, amount)
	default:
		e.collector.RecordRejected(string(models.KindBalance), "invalid_op")
		return nil, storage.ErrInvalidAmount
	}
	if err != nil {
		e.collector.RecordRejected(string(models.KindBalance), rejectionReason(err))
		return nil, err
	}

	e.collector.RecordLedgerMutation(string(op))
	e.logger.Info().
		Str("user_id", userID).
		Str("coin", coin).
		Str("op", string(op)).
		Str("amount", amount.String()).
		Str("actor", cred.Subject).
		Msg("balance adjusted")

	e.emit(ctx, &models.TransitionEvent{
		Kind:      models.KindBalance,
		EntityID:  userID + "/" + coin,
		UserID:    userID,
		NewStatus: string(op),
		Actor:     cred.Subject,
		Detail:    amount.String() + " " + coin,
	})
	return record, nil
}

// SetDepositAddress configures the platform deposit address for a coin.
func (e *Engine) SetDepositAddress(ctx context.Context, cred *auth.Credential, addr *models.DepositAddress) (*models.DepositAddress, error) {
	if err := e.authorize(cred); err != nil {
		return nil, err
	}

	updated, err := e.store.SetDepositAddress(ctx, addr)
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("coin", updated.Coin).
		Str("actor", cred.Subject).
		Msg("deposit address updated")
	return updated, nil
}

// Read-side passthroughs. Authentication for these is enforced at the HTTP
// middleware; the engine does not require a credential to read.

func (e *Engine) ListDeposits(ctx context.Context) ([]models.DepositRequest, error) {
	return e.store.ListDeposits(ctx)
}

// ListPendingDeposits returns the actionable review queue. Backed by the
// status index, not a filtered scan.
func (e *Engine) ListPendingDeposits(ctx context.Context) ([]models.DepositRequest, error) {
	deposits, err := e.store.ListPendingDeposits(ctx)
	if err != nil {
		return nil, err
	}
	e.collector.SetPendingRequests(string(models.KindDeposit), len(deposits))
	return deposits, nil
}

func (e *Engine) ListWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	return e.store.ListWithdrawals(ctx)
}

// ListPendingWithdrawals returns the actionable review queue.
func (e *Engine) ListPendingWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	withdrawals, err := e.store.ListPendingWithdrawals(ctx)
	if err != nil {
		return nil, err
	}
	e.collector.SetPendingRequests(string(models.KindWithdrawal), len(withdrawals))
	return withdrawals, nil
}

func (e *Engine) ListPendingKYC(ctx context.Context) ([]models.KYCRecord, error) {
	return e.store.ListPendingKYC(ctx)
}

func (e *Engine) ListTrades(ctx context.Context) ([]models.TradeRecord, error) {
	return e.store.ListTrades(ctx)
}

func (e *Engine) GetBalances(ctx context.Context, userID string) ([]models.BalanceRecord, error) {
	return e.store.GetBalances(ctx, userID)
}

func (e *Engine) GetWinMode(ctx context.Context, userID string) (*models.WinModeDirective, error) {
	return e.store.GetWinMode(ctx, userID)
}

func (e *Engine) ListWinModes(ctx context.Context) ([]models.WinModeDirective, error) {
	return e.store.ListWinModes(ctx)
}

func (e *Engine) ListDepositAddresses(ctx context.Context) ([]models.DepositAddress, error) {
	return e.store.ListDepositAddresses(ctx)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrInvalidStateTransition):
		return "invalid_transition"
	case errors.Is(err, storage.ErrAlreadySettled):
		return "already_settled"
	case errors.Is(err, storage.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, storage.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, storage.ErrConcurrentModification):
		return "concurrent_modification"
	default:
		return "error"
	}
}

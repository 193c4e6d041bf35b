// Package memory provides a mutex-guarded in-memory implementation of the
// storage interfaces. It backs tests and local development; the DynamoDB
// store is the production implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/shopspring/decimal"
)

var _ storage.Storage = (*Store)(nil)

type balanceKey struct {
	userID string
	coin   string
}

// Store keeps all entities in maps guarded by a single mutex, which gives
// the same per-key serialization the DynamoDB conditional writes provide.
type Store struct {
	mu          sync.RWMutex
	balances    map[balanceKey]*models.BalanceRecord
	deposits    map[string]*models.DepositRequest
	withdrawals map[string]*models.WithdrawalRequest
	kyc         map[string]*models.KYCRecord
	trades      map[string]*models.TradeRecord
	winModes    map[string]*models.WinModeDirective
	addresses   map[string]*models.DepositAddress
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		balances:    make(map[balanceKey]*models.BalanceRecord),
		deposits:    make(map[string]*models.DepositRequest),
		withdrawals: make(map[string]*models.WithdrawalRequest),
		kyc:         make(map[string]*models.KYCRecord),
		trades:      make(map[string]*models.TradeRecord),
		winModes:    make(map[string]*models.WinModeDirective),
		addresses:   make(map[string]*models.DepositAddress),
	}
}

// PutDeposit stores a deposit request as-is. Request creation belongs to the
// user-facing flow; this exists for seeding and tests.
func (s *Store) PutDeposit(d *models.DepositRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.deposits[d.ID] = &cp
}

// PutWithdrawal stores a withdrawal request as-is.
func (s *Store) PutWithdrawal(w *models.WithdrawalRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *w
	s.withdrawals[w.ID] = &cp
}

// PutKYC stores a KYC record as-is.
func (s *Store) PutKYC(r *models.KYCRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.kyc[r.UserID] = &cp
}

// PutTrade stores a trade record as-is.
func (s *Store) PutTrade(t *models.TradeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.trades[t.ID] = &cp
}

func (s *Store) getOrCreateBalance(userID, coin string) *models.BalanceRecord {
	key := balanceKey{userID, coin}
	record, ok := s.balances[key]
	if !ok {
		record = &models.BalanceRecord{
			UserID:    userID,
			Coin:      coin,
			Available: decimal.Zero,
			Frozen:    decimal.Zero,
		}
		s.balances[key] = record
	}
	return record
}

// Credit adds amount to the user's available balance, creating the record on
// first use.
func (s *Store) Credit(ctx context.Context, userID, coin string, amount decimal.Decimal) (*models.BalanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.getOrCreateBalance(userID, coin)
	record.Available = record.Available.Add(amount)
	record.Version++
	record.UpdatedAt = time.Now().UTC()

	cp := *record
	return &cp, nil
}

// Debit subtracts amount from the available balance.
func (s *Store) Debit(ctx context.Context, userID, coin string, amount decimal.Decimal) (*models.BalanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.balances[balanceKey{userID, coin}]
	if !ok || record.Available.LessThan(amount) {
		return nil, storage.ErrInsufficientBalance
	}
	record.Available = record.Available.Sub(amount)
	record.Version++
	record.UpdatedAt = time.Now().UTC()

	cp := *record
	return &cp, nil
}

// Freeze reclassifies amount from available to frozen.
func (s *Store) Freeze(ctx context.Context, userID, coin string, amount decimal.Decimal) (*models.BalanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.balances[balanceKey{userID, coin}]
	if !ok || record.Available.LessThan(amount) {
		return nil, storage.ErrInsufficientBalance
	}
	record.Available = record.Available.Sub(amount)
	record.Frozen = record.Frozen.Add(amount)
	record.Version++
	record.UpdatedAt = time.Now().UTC()

	cp := *record
	return &cp, nil
}

// GetBalances retrieves all balance records for a user.
func (s *Store) GetBalances(ctx context.Context, userID string) ([]models.BalanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.BalanceRecord
	for key, record := range s.balances {
		if key.userID == userID {
			result = append(result, *record)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Coin < result[j].Coin })
	return result, nil
}

// GetDeposit retrieves a deposit request by its ID.
func (s *Store) GetDeposit(ctx context.Context, id string) (*models.DepositRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deposits[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// ListDeposits retrieves all deposit requests, newest first.
func (s *Store) ListDeposits(ctx context.Context) ([]models.DepositRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.DepositRequest, 0, len(s.deposits))
	for _, d := range s.deposits {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// ApproveDeposit credits the balance and flips the status under one lock
// acquisition, mirroring the DynamoDB transaction.
func (s *Store) ApproveDeposit(ctx context.Context, id string) (*models.DepositRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deposits[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if d.Status != models.StatusPending {
		return nil, storage.ErrInvalidStateTransition
	}

	record := s.getOrCreateBalance(d.UserID, d.Coin)
	record.Available = record.Available.Add(d.Amount)
	record.Version++
	record.UpdatedAt = time.Now().UTC()

	now := time.Now().UTC()
	d.Status = models.StatusApproved
	d.DecidedAt = &now

	cp := *d
	return &cp, nil
}

// DenyDeposit moves the request pending -> denied.
func (s *Store) DenyDeposit(ctx context.Context, id string) (*models.DepositRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deposits[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if d.Status != models.StatusPending {
		return nil, storage.ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	d.Status = models.StatusDenied
	d.DecidedAt = &now

	cp := *d
	return &cp, nil
}

// ListPendingDeposits retrieves every pending deposit request, newest first.
// No age cutoff; see GetStuckDeposits for the reconciliation query.
func (s *Store) ListPendingDeposits(ctx context.Context) ([]models.DepositRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.DepositRequest
	for _, d := range s.deposits {
		if d.Status == models.StatusPending {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// GetStuckDeposits retrieves deposits pending for longer than maxAge.
func (s *Store) GetStuckDeposits(ctx context.Context, maxAge time.Duration) ([]models.DepositRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-maxAge)
	var result []models.DepositRequest
	for _, d := range s.deposits {
		if d.Status == models.StatusPending && d.CreatedAt.Before(cutoff) {
			result = append(result, *d)
		}
	}
	return result, nil
}

// GetWithdrawal retrieves a withdrawal request by its ID.
func (s *Store) GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

// ListWithdrawals retrieves all withdrawal requests, newest first.
func (s *Store) ListWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.WithdrawalRequest, 0, len(s.withdrawals))
	for _, w := range s.withdrawals {
		result = append(result, *w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// ApproveWithdrawal moves the request pending -> approved.
func (s *Store) ApproveWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	return s.transitionWithdrawal(id, models.StatusPending, models.StatusApproved)
}

// DenyWithdrawal moves the request pending -> denied.
func (s *Store) DenyWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	return s.transitionWithdrawal(id, models.StatusPending, models.StatusDenied)
}

// CompleteWithdrawal moves the request approved -> completed.
func (s *Store) CompleteWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	return s.transitionWithdrawal(id, models.StatusApproved, models.StatusCompleted)
}

func (s *Store) transitionWithdrawal(id string, from, to models.RequestStatus) (*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if w.Status != from {
		return nil, storage.ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	w.Status = to
	w.DecidedAt = &now

	cp := *w
	return &cp, nil
}

// ListPendingWithdrawals retrieves every pending withdrawal request, newest
// first.
func (s *Store) ListPendingWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.WithdrawalRequest
	for _, w := range s.withdrawals {
		if w.Status == models.StatusPending {
			result = append(result, *w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// GetStuckWithdrawals retrieves withdrawals pending for longer than maxAge.
func (s *Store) GetStuckWithdrawals(ctx context.Context, maxAge time.Duration) ([]models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-maxAge)
	var result []models.WithdrawalRequest
	for _, w := range s.withdrawals {
		if w.Status == models.StatusPending && w.CreatedAt.Before(cutoff) {
			result = append(result, *w)
		}
	}
	return result, nil
}

// GetKYC retrieves a user's KYC record.
func (s *Store) GetKYC(ctx context.Context, userID string) (*models.KYCRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.kyc[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// ListPendingKYC retrieves the actionable review queue, oldest first.
func (s *Store) ListPendingKYC(ctx context.Context) ([]models.KYCRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.KYCRecord
	for _, r := range s.kyc {
		if r.Status == models.KYCPending {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SubmittedAt.Before(result[j].SubmittedAt) })
	return result, nil
}

// SetKYCStatus moves the record pending -> approved|rejected.
func (s *Store) SetKYCStatus(ctx context.Context, userID string, status models.KYCStatus) (*models.KYCRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.kyc[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if r.Status != models.KYCPending {
		return nil, storage.ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	r.Status = status
	r.DecidedAt = &now

	cp := *r
	return &cp, nil
}

// GetTrade retrieves a trade by its ID.
func (s *Store) GetTrade(ctx context.Context, id string) (*models.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trades[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// ListTrades retrieves all trades, newest first.
func (s *Store) ListTrades(ctx context.Context) ([]models.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.TradeRecord, 0, len(s.trades))
	for _, t := range s.trades {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// SetTradeResult moves the trade Pending -> Win|Loss exactly once.
func (s *Store) SetTradeResult(ctx context.Context, id string, result models.TradeResult) (*models.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trades[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if t.Result != models.TradePending {
		return nil, storage.ErrAlreadySettled
	}

	t.Result = result
	cp := *t
	return &cp, nil
}

// GetWinMode retrieves the directive for a user; nil when unset.
func (s *Store) GetWinMode(ctx context.Context, userID string) (*models.WinModeDirective, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.winModes[userID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

// ListWinModes retrieves every active directive.
func (s *Store) ListWinModes(ctx context.Context) ([]models.WinModeDirective, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.WinModeDirective, 0, len(s.winModes))
	for _, d := range s.winModes {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// SetWinMode overwrites the user's directive; a nil mode clears it.
func (s *Store) SetWinMode(ctx context.Context, userID string, mode *models.WinMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == nil {
		delete(s.winModes, userID)
		return nil
	}
	s.winModes[userID] = &models.WinModeDirective{
		UserID:    userID,
		Mode:      *mode,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// SetDepositAddress creates or overwrites the deposit address for a coin.
func (s *Store) SetDepositAddress(ctx context.Context, addr *models.DepositAddress) (*models.DepositAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *addr
	cp.UpdatedAt = time.Now().UTC()
	s.addresses[addr.Coin] = &cp

	out := cp
	return &out, nil
}

// ListDepositAddresses retrieves all configured deposit addresses.
func (s *Store) ListDepositAddresses(ctx context.Context) ([]models.DepositAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.DepositAddress, 0, len(s.addresses))
	for _, a := range s.addresses {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Coin < result[j].Coin })
	return result, nil
}

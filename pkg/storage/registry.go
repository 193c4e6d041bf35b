package storage

import (
	"context"
	"time"

	"github.com/novachain/admin-settlement/pkg/models"
)

// DepositStore defines the interface for reading and settling deposit
// requests. The approve path must apply the balance credit and the status
// write as a single atomic unit.
type DepositStore interface {
	// GetDeposit retrieves a deposit request by its ID.
	GetDeposit(ctx context.Context, id string) (*models.DepositRequest, error)

	// ListDeposits retrieves all deposit requests, newest first.
	ListDeposits(ctx context.Context) ([]models.DepositRequest, error)

	// ApproveDeposit atomically credits the user's balance and moves the
	// request pending -> approved.
	ApproveDeposit(ctx context.Context, id string) (*models.DepositRequest, error)

	// DenyDeposit moves the request pending -> denied. No ledger mutation.
	DenyDeposit(ctx context.Context, id string) (*models.DepositRequest, error)

	// ListPendingDeposits retrieves every pending deposit request regardless
	// of age.
	ListPendingDeposits(ctx context.Context) ([]models.DepositRequest, error)

	// GetStuckDeposits retrieves deposits pending for longer than maxAge.
	GetStuckDeposits(ctx context.Context, maxAge time.Duration) ([]models.DepositRequest, error)
}

// WithdrawalStore defines the interface for reading and settling withdrawal
// requests. Approval is status-only; the funds reservation belongs to the
// user-facing flow that created the request.
type WithdrawalStore interface {
	// GetWithdrawal retrieves a withdrawal request by its ID.
	GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error)

	// ListWithdrawals retrieves all withdrawal requests, newest first.
	ListWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error)

	// ApproveWithdrawal moves the request pending -> approved.
	ApproveWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error)

	// DenyWithdrawal moves the request pending -> denied.
	DenyWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error)

	// CompleteWithdrawal moves the request approved -> completed once the
	// off-system broadcast is confirmed.
	CompleteWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error)

	// ListPendingWithdrawals retrieves every pending withdrawal request
	// regardless of age.
	ListPendingWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error)

	// GetStuckWithdrawals retrieves withdrawals pending for longer than maxAge.
	GetStuckWithdrawals(ctx context.Context, maxAge time.Duration) ([]models.WithdrawalRequest, error)
}

// KYCStore defines the interface for reading and deciding KYC records.
type KYCStore interface {
	// GetKYC retrieves a user's KYC record.
	GetKYC(ctx context.Context, userID string) (*models.KYCRecord, error)

	// ListPendingKYC retrieves the actionable review queue.
	ListPendingKYC(ctx context.Context) ([]models.KYCRecord, error)

	// SetKYCStatus moves the record pending -> approved|rejected.
	SetKYCStatus(ctx context.Context, userID string, status models.KYCStatus) (*models.KYCRecord, error)
}

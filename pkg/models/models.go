package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus defines the possible states of a settlement request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusDenied    RequestStatus = "denied"
	StatusCompleted RequestStatus = "completed"
)

// KYCStatus defines the possible states of a KYC record.
type KYCStatus string

const (
	KYCNone     KYCStatus = "none"
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

// TradeResult defines the possible outcomes of a trade.
type TradeResult string

const (
	TradePending TradeResult = "Pending"
	TradeWin     TradeResult = "Win"
	TradeLoss    TradeResult = "Loss"
)

// WinMode is an admin-set directive that forces the outcome of a user's
// future trades. Absence means natural resolution.
type WinMode string

const (
	WinModeWin  WinMode = "WIN"
	WinModeLose WinMode = "LOSE"
)

// BalanceOp names the three manual ledger mutations an admin can issue.
type BalanceOp string

const (
	OpAdd    BalanceOp = "add"
	OpReduce BalanceOp = "reduce"
	OpFreeze BalanceOp = "freeze"
)

// BalanceRecord holds a user's funds for a single coin. Frozen funds stay in
// the record but are unavailable to the user.
type BalanceRecord struct {
	UserID    string          `json:"user_id"`
	Coin      string          `json:"coin"`
	Available decimal.Decimal `json:"balance"`
	Frozen    decimal.Decimal `json:"frozen"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DepositRequest is a user-initiated deposit awaiting admin review.
// Screenshot is an opaque locator for the proof-of-payment artifact; this
// service never interprets its bytes.
type DepositRequest struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Coin       string          `json:"coin"`
	Amount     decimal.Decimal `json:"amount"`
	Screenshot string          `json:"screenshot,omitempty"`
	Status     RequestStatus   `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	DecidedAt  *time.Time      `json:"decided_at,omitempty"`
}

// WithdrawalRequest is a user-initiated withdrawal awaiting admin review.
// Approved requests move to completed once the off-system broadcast is
// confirmed.
type WithdrawalRequest struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Coin      string          `json:"coin"`
	Amount    decimal.Decimal `json:"amount"`
	Address   string          `json:"address"`
	Status    RequestStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	DecidedAt *time.Time      `json:"decided_at,omitempty"`
}

// KYCRecord holds a user's identity verification state and the opaque
// locators of the submitted artifacts.
type KYCRecord struct {
	UserID      string     `json:"user_id"`
	Selfie      string     `json:"selfie,omitempty"`
	IDCard      string     `json:"id_card,omitempty"`
	Status      KYCStatus  `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// TradeRecord is a trade produced by the matching engine. Result starts
// Pending and is resolved exactly once.
type TradeRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	Duration  string          `json:"duration"`
	Result    TradeResult     `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// WinModeDirective maps a user to a forced trade outcome.
type WinModeDirective struct {
	UserID    string    `json:"user_id"`
	Mode      WinMode   `json:"mode"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DepositAddress is the admin-configured address users pay into for a coin.
type DepositAddress struct {
	Coin      string    `json:"coin"`
	Address   string    `json:"address"`
	Network   string    `json:"network,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityKind identifies which state machine a transition event belongs to.
type EntityKind string

const (
	KindDeposit    EntityKind = "deposit"
	KindWithdrawal EntityKind = "withdrawal"
	KindKYC        EntityKind = "kyc"
	KindTrade      EntityKind = "trade"
	KindBalance    EntityKind = "balance"
	KindWinMode    EntityKind = "win_mode"
)

// TransitionEvent is the audit record emitted for every state transition or
// ledger mutation applied by the workflow engine.
type TransitionEvent struct {
	EventID    string     `json:"event_id"`
	Kind       EntityKind `json:"kind"`
	EntityID   string     `json:"entity_id"`
	UserID     string     `json:"user_id,omitempty"`
	OldStatus  string     `json:"old_status"`
	NewStatus  string     `json:"new_status"`
	Actor      string     `json:"actor"`
	Detail     string     `json:"detail,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

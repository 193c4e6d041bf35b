// Package api defines the JSON wire types served by the admin HTTP surface.
// Monetary amounts travel as decimal strings to keep client-side precision.
package api

import "time"

// Error is the body returned for every non-2xx response.
type Error struct {
	Message string `json:"message"`
}

// Deposit is the wire form of a deposit request.
type Deposit struct {
	Id         string     `json:"id"`
	UserId     string     `json:"user_id"`
	Coin       string     `json:"coin"`
	Amount     string     `json:"amount"`
	Screenshot string     `json:"screenshot,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

// Withdrawal is the wire form of a withdrawal request.
type Withdrawal struct {
	Id        string     `json:"id"`
	UserId    string     `json:"user_id"`
	Coin      string     `json:"coin"`
	Amount    string     `json:"amount"`
	Address   string     `json:"address"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// KycRecord is the wire form of a KYC submission.
type KycRecord struct {
	UserId      string     `json:"user_id"`
	Selfie      string     `json:"selfie,omitempty"`
	IdCard      string     `json:"id_card,omitempty"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// Trade is the wire form of a trade record.
type Trade struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id"`
	Direction string    `json:"direction"`
	Amount    string    `json:"amount"`
	Duration  string    `json:"duration"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// WinModeEntry is one row of the forced-outcome table.
type WinModeEntry struct {
	UserId    string    `json:"user_id"`
	Mode      string    `json:"mode"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BalanceEntry is one coin's holdings for a user.
type BalanceEntry struct {
	Coin    string `json:"coin"`
	Balance string `json:"balance"`
	Frozen  string `json:"frozen"`
}

// BalancesResponse wraps a user's per-coin balances.
type BalancesResponse struct {
	Balances []BalanceEntry `json:"balances"`
}

// DepositAddress is the wire form of a configured deposit address.
type DepositAddress struct {
	Coin      string    `json:"coin"`
	Address   string    `json:"address"`
	Network   string    `json:"network,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateTradeRequest resolves a pending trade.
type UpdateTradeRequest struct {
	TradeId string `json:"tradeId"`
	Result  string `json:"result"`
}

// TradeModeRequest sets or clears a user's forced outcome. A null mode
// restores natural resolution.
type TradeModeRequest struct {
	Mode *string `json:"mode"`
}

// KycStatusRequest decides a pending KYC submission.
type KycStatusRequest struct {
	UserId    string `json:"user_id"`
	KycStatus string `json:"kyc_status"`
}

// AddBalanceRequest credits a user's available balance.
type AddBalanceRequest struct {
	UserId string `json:"user_id"`
	Coin   string `json:"coin"`
	Amount string `json:"amount"`
}

// ReduceBalanceRequest debits a user's available balance.
type ReduceBalanceRequest struct {
	Coin   string `json:"coin"`
	Amount string `json:"amount"`
}

// FreezeBalanceRequest reclassifies available funds as frozen.
type FreezeBalanceRequest struct {
	UserId string `json:"user_id"`
	Coin   string `json:"coin"`
	Amount string `json:"amount"`
}

// SetDepositAddressRequest configures the platform deposit address for a coin.
type SetDepositAddressRequest struct {
	Coin    string `json:"coin"`
	Address string `json:"address"`
	Network string `json:"network,omitempty"`
}

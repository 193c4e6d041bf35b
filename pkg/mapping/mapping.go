// Package mapping converts between the domain models and the API wire types.
package mapping

import (
	"github.com/novachain/admin-settlement/pkg/api"
	"github.com/novachain/admin-settlement/pkg/models"
)

// ToApiDeposit converts a domain DepositRequest to an API Deposit.
func ToApiDeposit(d *models.DepositRequest) *api.Deposit {
	return &api.Deposit{
		Id:         d.ID,
		UserId:     d.UserID,
		Coin:       d.Coin,
		Amount:     d.Amount.String(),
		Screenshot: d.Screenshot,
		Status:     string(d.Status),
		CreatedAt:  d.CreatedAt,
		DecidedAt:  d.DecidedAt,
	}
}

// ToApiDeposits converts a list of domain deposits.
func ToApiDeposits(deposits []models.DepositRequest) []api.Deposit {
	out := make([]api.Deposit, 0, len(deposits))
	for i := range deposits {
		out = append(out, *ToApiDeposit(&deposits[i]))
	}
	return out
}

// ToApiWithdrawal converts a domain WithdrawalRequest to an API Withdrawal.
func ToApiWithdrawal(w *models.WithdrawalRequest) *api.Withdrawal {
	return &api.Withdrawal{
		Id:        w.ID,
		UserId:    w.UserID,
		Coin:      w.Coin,
		Amount:    w.Amount.String(),
		Address:   w.Address,
		Status:    string(w.Status),
		CreatedAt: w.CreatedAt,
		DecidedAt: w.DecidedAt,
	}
}

// ToApiWithdrawals converts a list of domain withdrawals.
func ToApiWithdrawals(withdrawals []models.WithdrawalRequest) []api.Withdrawal {
	out := make([]api.Withdrawal, 0, len(withdrawals))
	for i := range withdrawals {
		out = append(out, *ToApiWithdrawal(&withdrawals[i]))
	}
	return out
}

// ToApiKycRecord converts a domain KYCRecord to an API KycRecord.
func ToApiKycRecord(r *models.KYCRecord) *api.KycRecord {
	return &api.KycRecord{
		UserId:      r.UserID,
		Selfie:      r.Selfie,
		IdCard:      r.IDCard,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt,
		DecidedAt:   r.DecidedAt,
	}
}

// ToApiKycRecords converts a list of domain KYC records.
func ToApiKycRecords(records []models.KYCRecord) []api.KycRecord {
	out := make([]api.KycRecord, 0, len(records))
	for i := range records {
		out = append(out, *ToApiKycRecord(&records[i]))
	}
	return out
}

// ToApiTrade converts a domain TradeRecord to an API Trade.
func ToApiTrade(t *models.TradeRecord) *api.Trade {
	return &api.Trade{
		Id:        t.ID,
		UserId:    t.UserID,
		Direction: t.Direction,
		Amount:    t.Amount.String(),
		Duration:  t.Duration,
		Result:    string(t.Result),
		CreatedAt: t.CreatedAt,
	}
}

// ToApiTrades converts a list of domain trades.
func ToApiTrades(trades []models.TradeRecord) []api.Trade {
	out := make([]api.Trade, 0, len(trades))
	for i := range trades {
		out = append(out, *ToApiTrade(&trades[i]))
	}
	return out
}

// ToApiWinModes converts the forced-outcome table.
func ToApiWinModes(directives []models.WinModeDirective) []api.WinModeEntry {
	out := make([]api.WinModeEntry, 0, len(directives))
	for _, d := range directives {
		out = append(out, api.WinModeEntry{
			UserId:    d.UserID,
			Mode:      string(d.Mode),
			UpdatedAt: d.UpdatedAt,
		})
	}
	return out
}

// ToApiBalances converts a user's balance records to the balances response.
func ToApiBalances(records []models.BalanceRecord) *api.BalancesResponse {
	entries := make([]api.BalanceEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, api.BalanceEntry{
			Coin:    r.Coin,
			Balance: r.Available.String(),
			Frozen:  r.Frozen.String(),
		})
	}
	return &api.BalancesResponse{Balances: entries}
}

// ToApiDepositAddress converts a domain DepositAddress.
func ToApiDepositAddress(a *models.DepositAddress) *api.DepositAddress {
	return &api.DepositAddress{
		Coin:      a.Coin,
		Address:   a.Address,
		Network:   a.Network,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToApiDepositAddresses converts a list of domain deposit addresses.
func ToApiDepositAddresses(addrs []models.DepositAddress) []api.DepositAddress {
	out := make([]api.DepositAddress, 0, len(addrs))
	for i := range addrs {
		out = append(out, *ToApiDepositAddress(&addrs[i]))
	}
	return out
}

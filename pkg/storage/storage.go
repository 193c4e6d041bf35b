package storage

// Storage defines the root interface for the entire data layer. Components
// should depend on the more granular interfaces (DepositStore, LedgerStore,
// etc.) instead of this one.
type Storage interface {
	DepositStore
	WithdrawalStore
	KYCStore
	TradeStore
	WinModeStore
	LedgerStore
	SettingsStore
}

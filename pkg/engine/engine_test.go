package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/novachain/admin-settlement/pkg/audit"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/metrics"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/novachain/admin-settlement/pkg/storage/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// capturingPublisher records every emitted event for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []models.TransitionEvent
}

func (p *capturingPublisher) PublishTransition(ctx context.Context, event *models.TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

var _ audit.Publisher = (*capturingPublisher)(nil)

func newTestEngine() (*Engine, *memory.Store, *capturingPublisher) {
	store := memory.New()
	publisher := &capturingPublisher{}
	eng := New(store, publisher, nil, zerolog.Nop())
	return eng, store, publisher
}

func adminCred() *auth.Credential {
	return &auth.Credential{Subject: "admin"}
}

func seedDeposit(store *memory.Store, userID, coin, amount string) *models.DepositRequest {
	d := &models.DepositRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		Coin:      coin,
		Amount:    decimal.RequireFromString(amount),
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	store.PutDeposit(d)
	return d
}

func seedWithdrawal(store *memory.Store, userID, coin, amount string) *models.WithdrawalRequest {
	w := &models.WithdrawalRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		Coin:      coin,
		Amount:    decimal.RequireFromString(amount),
		Address:   "0xabc",
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	store.PutWithdrawal(w)
	return w
}

func TestApproveDeposit(t *testing.T) {
	t.Run("Success Credits Exact Amount", func(t *testing.T) {
		eng, store, publisher := newTestEngine()
		deposit := seedDeposit(store, "user-1", "USDT", "250.75")

		updated, err := eng.ApproveDeposit(context.Background(), adminCred(), deposit.ID)

		assert.NoError(t, err)
		assert.Equal(t, models.StatusApproved, updated.Status)
		assert.NotNil(t, updated.DecidedAt)

		balances, err := eng.GetBalances(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.Len(t, balances, 1)
		assert.True(t, balances[0].Available.Equal(decimal.RequireFromString("250.75")))
		assert.True(t, balances[0].Frozen.IsZero())

		assert.Len(t, publisher.events, 1)
		assert.Equal(t, models.KindDeposit, publisher.events[0].Kind)
		assert.Equal(t, string(models.StatusApproved), publisher.events[0].NewStatus)
	})

	t.Run("Double Approve Fails Without Double Credit", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		deposit := seedDeposit(store, "user-1", "USDT", "100")

		_, err := eng.ApproveDeposit(context.Background(), adminCred(), deposit.ID)
		assert.NoError(t, err)

		_, err = eng.ApproveDeposit(context.Background(), adminCred(), deposit.ID)
		assert.ErrorIs(t, err, storage.ErrInvalidStateTransition)

		balances, _ := eng.GetBalances(context.Background(), "user-1")
		assert.True(t, balances[0].Available.Equal(decimal.RequireFromString("100")))
	})

	t.Run("Approve After Deny Fails", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		deposit := seedDeposit(store, "user-1", "BTC", "1")

		_, err := eng.DenyDeposit(context.Background(), adminCred(), deposit.ID)
		assert.NoError(t, err)

		_, err = eng.ApproveDeposit(context.Background(), adminCred(), deposit.ID)
		assert.ErrorIs(t, err, storage.ErrInvalidStateTransition)

		balances, _ := eng.GetBalances(context.Background(), "user-1")
		assert.Empty(t, balances)
	})

	t.Run("Not Found", func(t *testing.T) {
		eng, _, _ := newTestEngine()

		_, err := eng.ApproveDeposit(context.Background(), adminCred(), uuid.NewString())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Unauthorized", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		deposit := seedDeposit(store, "user-1", "USDT", "100")

		_, err := eng.ApproveDeposit(context.Background(), nil, deposit.ID)
		assert.ErrorIs(t, err, storage.ErrUnauthorized)

		expired := &auth.Credential{Subject: "admin", ExpiresAt: time.Now().Add(-time.Minute)}
		_, err = eng.ApproveDeposit(context.Background(), expired, deposit.ID)
		assert.ErrorIs(t, err, storage.ErrUnauthorized)

		got, _ := store.GetDeposit(context.Background(), deposit.ID)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("Concurrent Approves Credit Once", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		deposit := seedDeposit(store, "user-1", "USDT", "100")

		const attempts = 16
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = eng.ApproveDeposit(context.Background(), adminCred(), deposit.ID)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded)

		balances, _ := eng.GetBalances(context.Background(), "user-1")
		assert.True(t, balances[0].Available.Equal(decimal.RequireFromString("100")))
	})
}

func TestWithdrawalLifecycle(t *testing.T) {
	t.Run("Approve Then Complete", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		withdrawal := seedWithdrawal(store, "user-2", "ETH", "3.5")

		approved, err := eng.ApproveWithdrawal(context.Background(), adminCred(), withdrawal.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusApproved, approved.Status)

		completed, err := eng.CompleteWithdrawal(context.Background(), adminCred(), withdrawal.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, completed.Status)
	})

	t.Run("Complete Before Approve Fails", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		withdrawal := seedWithdrawal(store, "user-2", "ETH", "3.5")

		_, err := eng.CompleteWithdrawal(context.Background(), adminCred(), withdrawal.ID)
		assert.ErrorIs(t, err, storage.ErrInvalidStateTransition)
	})

	t.Run("Deny Is Terminal", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		withdrawal := seedWithdrawal(store, "user-2", "ETH", "3.5")

		_, err := eng.DenyWithdrawal(context.Background(), adminCred(), withdrawal.ID)
		assert.NoError(t, err)

		_, err = eng.ApproveWithdrawal(context.Background(), adminCred(), withdrawal.ID)
		assert.ErrorIs(t, err, storage.ErrInvalidStateTransition)
	})
}

func TestSetKYCStatus(t *testing.T) {
	seedKYC := func(store *memory.Store, userID string, status models.KYCStatus) {
		store.PutKYC(&models.KYCRecord{
			UserID:      userID,
			Selfie:      "selfie.jpg",
			IDCard:      "id.jpg",
			Status:      status,
			SubmittedAt: time.Now().UTC(),
		})
	}

	t.Run("Approve Pending", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		seedKYC(store, "user-3", models.KYCPending)

		record, err := eng.SetKYCStatus(context.Background(), adminCred(), "user-3", models.KYCApproved)
		assert.NoError(t, err)
		assert.Equal(t, models.KYCApproved, record.Status)
		assert.NotNil(t, record.DecidedAt)
	})

	t.Run("Decide Twice Fails", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		seedKYC(store, "user-3", models.KYCPending)

		_, err := eng.SetKYCStatus(context.Background(), adminCred(), "user-3", models.KYCRejected)
		assert.NoError(t, err)

		_, err = eng.SetKYCStatus(context.Background(), adminCred(), "user-3", models.KYCApproved)
		assert.ErrorIs(t, err, storage.ErrInvalidStateTransition)
	})

	t.Run("Illegal Target Status", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		seedKYC(store, "user-3", models.KYCPending)

		_, err := eng.SetKYCStatus(context.Background(), adminCred(), "user-3", models.KYCPending)
		assert.ErrorIs(t, err, storage.ErrInvalidStateTransition)
	})
}

func TestSetTradeResult(t *testing.T) {
	seedTrade := func(store *memory.Store, userID string) *models.TradeRecord {
		trade := &models.TradeRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			Direction: "buy",
			Amount:    decimal.RequireFromString("50"),
			Duration:  "60s",
			Result:    models.TradePending,
			CreatedAt: time.Now().UTC(),
		}
		store.PutTrade(trade)
		return trade
	}

	t.Run("Resolve Once", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		trade := seedTrade(store, "user-4")

		updated, err := eng.SetTradeResult(context.Background(), adminCred(), trade.ID, models.TradeWin)
		assert.NoError(t, err)
		assert.Equal(t, models.TradeWin, updated.Result)

		_, err = eng.SetTradeResult(context.Background(), adminCred(), trade.ID, models.TradeLoss)
		assert.ErrorIs(t, err, storage.ErrAlreadySettled)
	})

	t.Run("Pending Is Not A Resolution", func(t *testing.T) {
		eng, store, _ := newTestEngine()
		trade := seedTrade(store, "user-4")

		_, err := eng.SetTradeResult(context.Background(), adminCred(), trade.ID, models.TradePending)
		assert.ErrorIs(t, err, storage.ErrInvalidStateTransition)
	})

	t.Run("Directive Does Not Alter Admin Settlement", func(t *testing.T) {
		eng, store, publisher := newTestEngine()
		trade := seedTrade(store, "user-4")

		// The directive biases the automated resolver, which reads it via
		// GetWinMode. An explicit admin settlement lands verbatim.
		mode := models.WinModeLose
		assert.NoError(t, eng.SetWinMode(context.Background(), adminCred(), "user-4", &mode))

		updated, err := eng.SetTradeResult(context.Background(), adminCred(), trade.ID, models.TradeWin)
		assert.NoError(t, err)
		assert.Equal(t, models.TradeWin, updated.Result)

		last := publisher.events[len(publisher.events)-1]
		assert.Equal(t, string(models.TradeWin), last.NewStatus)
	})

	t.Run("Clearing The Directive Empties The Lookup", func(t *testing.T) {
		eng, _, _ := newTestEngine()

		mode := models.WinModeWin
		assert.NoError(t, eng.SetWinMode(context.Background(), adminCred(), "user-4", &mode))
		assert.NoError(t, eng.SetWinMode(context.Background(), adminCred(), "user-4", nil))

		directive, err := eng.GetWinMode(context.Background(), "user-4")
		assert.NoError(t, err)
		assert.Nil(t, directive)
	})
}

func TestAdjustBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("Freeze Then Debit To Zero", func(t *testing.T) {
		eng, _, _ := newTestEngine()

		_, err := eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpAdd, decimal.RequireFromString("100"))
		assert.NoError(t, err)

		record, err := eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpFreeze, decimal.RequireFromString("30"))
		assert.NoError(t, err)
		assert.True(t, record.Available.Equal(decimal.RequireFromString("70")))
		assert.True(t, record.Frozen.Equal(decimal.RequireFromString("30")))

		record, err = eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpReduce, decimal.RequireFromString("70"))
		assert.NoError(t, err)
		assert.True(t, record.Available.IsZero())
		assert.True(t, record.Frozen.Equal(decimal.RequireFromString("30")))

		// Frozen funds do not back further debits.
		_, err = eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpReduce, decimal.RequireFromString("1"))
		assert.ErrorIs(t, err, storage.ErrInsufficientBalance)
	})

	t.Run("Non-Positive Amounts Rejected", func(t *testing.T) {
		eng, _, _ := newTestEngine()

		_, err := eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpAdd, decimal.Zero)
		assert.ErrorIs(t, err, storage.ErrInvalidAmount)

		_, err = eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpAdd, decimal.RequireFromString("-5"))
		assert.ErrorIs(t, err, storage.ErrInvalidAmount)

		balances, _ := eng.GetBalances(ctx, "user-42")
		assert.Empty(t, balances)
	})

	t.Run("Debit Without Record Fails", func(t *testing.T) {
		eng, _, _ := newTestEngine()

		_, err := eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpReduce, decimal.RequireFromString("10"))
		assert.ErrorIs(t, err, storage.ErrInsufficientBalance)
	})

	t.Run("Freeze Beyond Available Fails", func(t *testing.T) {
		eng, _, _ := newTestEngine()

		_, err := eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpAdd, decimal.RequireFromString("20"))
		assert.NoError(t, err)

		_, err = eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpFreeze, decimal.RequireFromString("21"))
		assert.ErrorIs(t, err, storage.ErrInsufficientBalance)
	})

	t.Run("Balances Are Per Coin", func(t *testing.T) {
		eng, _, _ := newTestEngine()

		_, err := eng.AdjustBalance(ctx, adminCred(), "user-42", "USDT", models.OpAdd, decimal.RequireFromString("100"))
		assert.NoError(t, err)
		_, err = eng.AdjustBalance(ctx, adminCred(), "user-42", "BTC", models.OpAdd, decimal.RequireFromString("0.5"))
		assert.NoError(t, err)

		_, err = eng.AdjustBalance(ctx, adminCred(), "user-42", "BTC", models.OpReduce, decimal.RequireFromString("1"))
		assert.ErrorIs(t, err, storage.ErrInsufficientBalance)

		balances, _ := eng.GetBalances(ctx, "user-42")
		assert.Len(t, balances, 2)
	})
}

func TestSetDepositAddress(t *testing.T) {
	eng, _, _ := newTestEngine()
	ctx := context.Background()

	addr, err := eng.SetDepositAddress(ctx, adminCred(), &models.DepositAddress{
		Coin:    "USDT",
		Address: "TX7k...",
		Network: "TRC20",
	})
	assert.NoError(t, err)
	assert.False(t, addr.UpdatedAt.IsZero())

	// Overwrite replaces the address for the coin.
	_, err = eng.SetDepositAddress(ctx, adminCred(), &models.DepositAddress{
		Coin:    "USDT",
		Address: "TXnew...",
		Network: "TRC20",
	})
	assert.NoError(t, err)

	addrs, err := eng.ListDepositAddresses(ctx)
	assert.NoError(t, err)
	assert.Len(t, addrs, 1)
	assert.Equal(t, "TXnew...", addrs[0].Address)
}

func TestListPendingDeposits(t *testing.T) {
	eng, store, _ := newTestEngine()
	ctx := context.Background()

	seedDeposit(store, "user-1", "USDT", "10")
	decided := seedDeposit(store, "user-1", "USDT", "20")
	_, err := eng.ApproveDeposit(ctx, adminCred(), decided.ID)
	assert.NoError(t, err)

	pending, err := eng.ListPendingDeposits(ctx)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, models.StatusPending, pending[0].Status)
}

func TestPendingBacklogGauge(t *testing.T) {
	store := memory.New()
	collector := metrics.NewCollector()
	eng := New(store, nil, collector, zerolog.Nop())
	ctx := context.Background()

	seedDeposit(store, "user-1", "USDT", "10")
	seedDeposit(store, "user-2", "USDT", "20")
	seedWithdrawal(store, "user-3", "ETH", "1")

	_, err := eng.ListPendingDeposits(ctx)
	assert.NoError(t, err)
	_, err = eng.ListPendingWithdrawals(ctx)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `pending_requests{kind="deposit"} 2`)
	assert.Contains(t, rec.Body.String(), `pending_requests{kind="withdrawal"} 1`)
}

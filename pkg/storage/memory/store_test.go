package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStuckQueries(t *testing.T) {
	store := New()
	ctx := context.Background()

	stale := &models.DepositRequest{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Coin:      "USDT",
		Amount:    decimal.RequireFromString("10"),
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	fresh := &models.DepositRequest{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Coin:      "USDT",
		Amount:    decimal.RequireFromString("10"),
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	store.PutDeposit(stale)
	store.PutDeposit(fresh)

	stuck, err := store.GetStuckDeposits(ctx, 24*time.Hour)
	assert.NoError(t, err)
	assert.Len(t, stuck, 1)
	assert.Equal(t, stale.ID, stuck[0].ID)

	// A decided request is never stuck, no matter how old.
	_, err = store.DenyDeposit(ctx, stale.ID)
	assert.NoError(t, err)

	stuck, err = store.GetStuckDeposits(ctx, 24*time.Hour)
	assert.NoError(t, err)
	assert.Empty(t, stuck)
}

func TestListPendingDeposits(t *testing.T) {
	store := New()
	ctx := context.Background()

	// A creator-written timestamp ahead of this host's clock must not hide
	// the request from the review queue.
	ahead := &models.DepositRequest{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Coin:      "USDT",
		Amount:    decimal.RequireFromString("10"),
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC().Add(5 * time.Minute),
	}
	decided := &models.DepositRequest{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Coin:      "USDT",
		Amount:    decimal.RequireFromString("10"),
		Status:    models.StatusApproved,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	store.PutDeposit(ahead)
	store.PutDeposit(decided)

	pending, err := store.ListPendingDeposits(ctx)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, ahead.ID, pending[0].ID)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	deposit := &models.DepositRequest{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Coin:      "USDT",
		Amount:    decimal.RequireFromString("10"),
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	store.PutDeposit(deposit)

	got, err := store.GetDeposit(ctx, deposit.ID)
	assert.NoError(t, err)

	// Mutating the returned value must not leak into the store.
	got.Status = models.StatusApproved

	again, err := store.GetDeposit(ctx, deposit.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestFreezeConservation(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, err := store.Credit(ctx, "user-1", "USDT", decimal.RequireFromString("100"))
	assert.NoError(t, err)

	record, err := store.Freeze(ctx, "user-1", "USDT", decimal.RequireFromString("40"))
	assert.NoError(t, err)

	total := record.Available.Add(record.Frozen)
	assert.True(t, total.Equal(decimal.RequireFromString("100")))

	_, err = store.Freeze(ctx, "user-1", "USDT", decimal.RequireFromString("61"))
	assert.ErrorIs(t, err, storage.ErrInsufficientBalance)
}

func TestConcurrentBalanceAdjustments(t *testing.T) {
	ctx := context.Background()

	t.Run("Conflicting Credit And Debit Serialize", func(t *testing.T) {
		store := New()
		_, err := store.Credit(ctx, "user-1", "USDT", decimal.RequireFromString("50"))
		assert.NoError(t, err)

		var wg sync.WaitGroup
		var debitErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.Credit(ctx, "user-1", "USDT", decimal.RequireFromString("100"))
		}()
		go func() {
			defer wg.Done()
			_, debitErr = store.Debit(ctx, "user-1", "USDT", decimal.RequireFromString("120"))
		}()
		wg.Wait()

		balances, err := store.GetBalances(ctx, "user-1")
		assert.NoError(t, err)
		assert.Len(t, balances, 1)
		assert.False(t, balances[0].Available.IsNegative())

		// Either the debit saw the credit (50+100-120) or it ran first
		// against insufficient funds (50+100). No interleaving yields
		// anything else.
		if debitErr == nil {
			assert.True(t, balances[0].Available.Equal(decimal.RequireFromString("30")))
		} else {
			assert.ErrorIs(t, debitErr, storage.ErrInsufficientBalance)
			assert.True(t, balances[0].Available.Equal(decimal.RequireFromString("150")))
		}
	})

	t.Run("Mixed Workload Conserves Funds", func(t *testing.T) {
		store := New()
		_, err := store.Credit(ctx, "user-1", "USDT", decimal.RequireFromString("50"))
		assert.NoError(t, err)

		const workers = 8
		var wg sync.WaitGroup
		debitErrs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _ = store.Credit(ctx, "user-1", "USDT", decimal.RequireFromString("10"))
			}()
			go func(i int) {
				defer wg.Done()
				_, debitErrs[i] = store.Debit(ctx, "user-1", "USDT", decimal.RequireFromString("10"))
			}(i)
		}
		wg.Wait()

		debited := 0
		for _, err := range debitErrs {
			if err == nil {
				debited++
			}
		}

		balances, err := store.GetBalances(ctx, "user-1")
		assert.NoError(t, err)
		assert.Len(t, balances, 1)
		assert.False(t, balances[0].Available.IsNegative())

		want := decimal.RequireFromString("50").
			Add(decimal.NewFromInt(int64(workers * 10))).
			Sub(decimal.NewFromInt(int64(debited * 10)))
		assert.True(t, balances[0].Available.Equal(want))
	})
}

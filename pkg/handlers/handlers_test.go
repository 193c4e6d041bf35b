package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/novachain/admin-settlement/pkg/api"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/engine"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const testToken = "test-admin-token"

func newTestServer() (*httptest.Server, *memory.Store) {
	store := memory.New()
	eng := engine.New(store, nil, nil, zerolog.Nop())
	handler := NewApiHandler(eng, zerolog.Nop())
	verifier := auth.NewStaticTokenVerifier(testToken, "admin")
	router := NewRouter(handler, verifier, nil, zerolog.Nop())
	return httptest.NewServer(router), store
}

func doRequest(t *testing.T, method, url string, body any, token string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	assert.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAuthGate(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	t.Run("Missing Token", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/api/deposits", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body map[string]string
		decodeInto(t, resp, &body)
		assert.Equal(t, "Unauthorized", body["message"])
	})

	t.Run("Wrong Token", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/api/deposits", nil, "wrong")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Healthz Is Open", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/healthz", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestDepositEndpoints(t *testing.T) {
	server, store := newTestServer()
	defer server.Close()

	deposit := &models.DepositRequest{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Coin:      "USDT",
		Amount:    decimal.RequireFromString("99.5"),
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	store.PutDeposit(deposit)

	t.Run("List", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/api/deposits", nil, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var deposits []api.Deposit
		decodeInto(t, resp, &deposits)
		assert.Len(t, deposits, 1)
		assert.Equal(t, "99.5", deposits[0].Amount)
		assert.Equal(t, "pending", deposits[0].Status)
	})

	t.Run("Approve Then Repeat Conflicts", func(t *testing.T) {
		url := server.URL + "/api/admin/deposits/" + deposit.ID + "/approve"

		resp := doRequest(t, http.MethodPost, url, nil, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var approved api.Deposit
		decodeInto(t, resp, &approved)
		assert.Equal(t, "approved", approved.Status)

		resp = doRequest(t, http.MethodPost, url, nil, testToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Pending Filter Excludes Decided Requests", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/api/deposits?status=pending", nil, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var deposits []api.Deposit
		decodeInto(t, resp, &deposits)
		assert.Empty(t, deposits)
	})

	t.Run("Approve Unknown Is 404", func(t *testing.T) {
		url := server.URL + "/api/admin/deposits/" + uuid.NewString() + "/approve"
		resp := doRequest(t, http.MethodPost, url, nil, testToken)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestBalanceEndpoints(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	t.Run("Add Then Read Back", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/add-balance", api.AddBalanceRequest{
			UserId: "user-9",
			Coin:   "USDT",
			Amount: "120.5",
		}, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doRequest(t, http.MethodGet, server.URL+"/api/admin/user/user-9/balances", nil, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body api.BalancesResponse
		decodeInto(t, resp, &body)
		assert.Len(t, body.Balances, 1)
		assert.Equal(t, "USDT", body.Balances[0].Coin)
		assert.Equal(t, "120.5", body.Balances[0].Balance)
		assert.Equal(t, "0", body.Balances[0].Frozen)
	})

	t.Run("Invalid Amount Is 400", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/add-balance", api.AddBalanceRequest{
			UserId: "user-9",
			Coin:   "USDT",
			Amount: "not-a-number",
		}, testToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()

		resp = doRequest(t, http.MethodPost, server.URL+"/api/admin/add-balance", api.AddBalanceRequest{
			UserId: "user-9",
			Coin:   "USDT",
			Amount: "-10",
		}, testToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Reduce Beyond Balance Is 422", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/user/user-9/reduce-balance", api.ReduceBalanceRequest{
			Coin:   "USDT",
			Amount: "99999",
		}, testToken)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var body map[string]string
		decodeInto(t, resp, &body)
		assert.Equal(t, "Insufficient balance", body["message"])
	})

	t.Run("Freeze Moves Funds", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/freeze-balance", api.FreezeBalanceRequest{
			UserId: "user-9",
			Coin:   "USDT",
			Amount: "20.5",
		}, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body api.BalancesResponse
		decodeInto(t, resp, &body)
		assert.Equal(t, "100", body.Balances[0].Balance)
		assert.Equal(t, "20.5", body.Balances[0].Frozen)
	})
}

func TestTradeEndpoints(t *testing.T) {
	server, store := newTestServer()
	defer server.Close()

	trade := &models.TradeRecord{
		ID:        uuid.NewString(),
		UserID:    "user-5",
		Direction: "buy",
		Amount:    decimal.RequireFromString("50"),
		Duration:  "60s",
		Result:    models.TradePending,
		CreatedAt: time.Now().UTC(),
	}
	store.PutTrade(trade)

	t.Run("Posted Result Lands Verbatim Despite Directive", func(t *testing.T) {
		mode := "LOSE"
		resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/users/user-5/trade-mode", api.TradeModeRequest{Mode: &mode}, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doRequest(t, http.MethodPost, server.URL+"/api/admin/update-trade", api.UpdateTradeRequest{
			TradeId: trade.ID,
			Result:  "Win",
		}, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated api.Trade
		decodeInto(t, resp, &updated)
		assert.Equal(t, "Win", updated.Result)
	})

	t.Run("Settle Twice Conflicts", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/update-trade", api.UpdateTradeRequest{
			TradeId: trade.ID,
			Result:  "Loss",
		}, testToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var body map[string]string
		decodeInto(t, resp, &body)
		assert.Equal(t, "Trade already settled", body["message"])
	})

	t.Run("Win Mode Table Lists Directives", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/api/admin/user-win-modes", nil, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var entries []api.WinModeEntry
		decodeInto(t, resp, &entries)
		assert.Len(t, entries, 1)
		assert.Equal(t, "user-5", entries[0].UserId)
		assert.Equal(t, "LOSE", entries[0].Mode)
	})

	t.Run("Clearing Win Mode Empties The Table", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/users/user-5/trade-mode", api.TradeModeRequest{Mode: nil}, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doRequest(t, http.MethodGet, server.URL+"/api/admin/user-win-modes", nil, testToken)
		var entries []api.WinModeEntry
		decodeInto(t, resp, &entries)
		assert.Empty(t, entries)
	})
}

func TestKYCEndpoints(t *testing.T) {
	server, store := newTestServer()
	defer server.Close()

	store.PutKYC(&models.KYCRecord{
		UserID:      "user-7",
		Selfie:      "selfie.jpg",
		IDCard:      "id.jpg",
		Status:      models.KYCPending,
		SubmittedAt: time.Now().UTC(),
	})

	t.Run("Pending Queue", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/api/admin/kyc/pending", nil, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var records []api.KycRecord
		decodeInto(t, resp, &records)
		assert.Len(t, records, 1)
		assert.Equal(t, "user-7", records[0].UserId)
	})

	t.Run("Decide Then Repeat Conflicts", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/user-kyc-status", api.KycStatusRequest{
			UserId:    "user-7",
			KycStatus: "approved",
		}, testToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var record api.KycRecord
		decodeInto(t, resp, &record)
		assert.Equal(t, "approved", record.Status)

		resp = doRequest(t, http.MethodPost, server.URL+"/api/admin/user-kyc-status", api.KycStatusRequest{
			UserId:    "user-7",
			KycStatus: "rejected",
		}, testToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestDepositAddressEndpoints(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/deposit-addresses", api.SetDepositAddressRequest{
		Coin:    "BTC",
		Address: "bc1q...",
	}, testToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, server.URL+"/api/admin/deposit-addresses", nil, testToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var addrs []api.DepositAddress
	decodeInto(t, resp, &addrs)
	assert.Len(t, addrs, 1)
	assert.Equal(t, "BTC", addrs[0].Coin)

	resp = doRequest(t, http.MethodPost, server.URL+"/api/admin/deposit-addresses", api.SetDepositAddressRequest{
		Coin: "BTC",
	}, testToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

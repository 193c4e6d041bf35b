package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/novachain/admin-settlement/pkg/api"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/mapping"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/shopspring/decimal"
)

// parseAmount parses a decimal amount off the wire. Unparseable input is an
// invalid amount, same as a non-positive one.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, storage.ErrInvalidAmount
	}
	return amount, nil
}

// GetBalances returns a user's per-coin balances.
func (h *ApiHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	records, err := h.Engine.GetBalances(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiBalances(records))
}

// AddBalance credits a user's available balance.
func (h *ApiHandler) AddBalance(w http.ResponseWriter, r *http.Request) {
	var req api.AddBalanceRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	cred := auth.CredentialFromContext(r.Context())

	record, err := h.Engine.AdjustBalance(r.Context(), cred, req.UserId, req.Coin, models.OpAdd, amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiBalances([]models.BalanceRecord{*record}))
}

// ReduceBalance debits a user's available balance.
func (h *ApiHandler) ReduceBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req api.ReduceBalanceRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	cred := auth.CredentialFromContext(r.Context())

	record, err := h.Engine.AdjustBalance(r.Context(), cred, userID, req.Coin, models.OpReduce, amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiBalances([]models.BalanceRecord{*record}))
}

// FreezeBalance reclassifies available funds as frozen.
func (h *ApiHandler) FreezeBalance(w http.ResponseWriter, r *http.Request) {
	var req api.FreezeBalanceRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	cred := auth.CredentialFromContext(r.Context())

	record, err := h.Engine.AdjustBalance(r.Context(), cred, req.UserId, req.Coin, models.OpFreeze, amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiBalances([]models.BalanceRecord{*record}))
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/novachain/admin-settlement/pkg/api"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/mapping"
	"github.com/novachain/admin-settlement/pkg/models"
)

// ListTrades returns every trade, newest first.
func (h *ApiHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.Engine.ListTrades(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiTrades(trades))
}

// UpdateTrade resolves a pending trade to Win or Loss.
func (h *ApiHandler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateTradeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.TradeId == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "tradeId is required"})
		return
	}
	cred := auth.CredentialFromContext(r.Context())

	trade, err := h.Engine.SetTradeResult(r.Context(), cred, req.TradeId, models.TradeResult(req.Result))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiTrade(trade))
}

// SetTradeMode sets or clears a user's forced outcome. A null mode restores
// natural resolution.
func (h *ApiHandler) SetTradeMode(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req api.TradeModeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	var mode *models.WinMode
	if req.Mode != nil {
		m := models.WinMode(*req.Mode)
		mode = &m
	}
	cred := auth.CredentialFromContext(r.Context())

	if err := h.Engine.SetWinMode(r.Context(), cred, userID, mode); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// ListWinModes returns the full forced-outcome table.
func (h *ApiHandler) ListWinModes(w http.ResponseWriter, r *http.Request) {
	directives, err := h.Engine.ListWinModes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiWinModes(directives))
}

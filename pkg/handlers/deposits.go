package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/mapping"
	"github.com/novachain/admin-settlement/pkg/models"
)

// ListDeposits returns deposit requests, newest first. With ?status=pending
// only the actionable review queue is returned.
func (h *ApiHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	var (
		deposits []models.DepositRequest
		err      error
	)
	if r.URL.Query().Get("status") == string(models.StatusPending) {
		deposits, err = h.Engine.ListPendingDeposits(r.Context())
	} else {
		deposits, err = h.Engine.ListDeposits(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiDeposits(deposits))
}

// ApproveDeposit credits the user and marks the request approved.
func (h *ApiHandler) ApproveDeposit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cred := auth.CredentialFromContext(r.Context())

	deposit, err := h.Engine.ApproveDeposit(r.Context(), cred, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiDeposit(deposit))
}

// DenyDeposit marks the request denied without touching the ledger.
func (h *ApiHandler) DenyDeposit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cred := auth.CredentialFromContext(r.Context())

	deposit, err := h.Engine.DenyDeposit(r.Context(), cred, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiDeposit(deposit))
}

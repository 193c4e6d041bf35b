package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/mapping"
	"github.com/novachain/admin-settlement/pkg/models"
)

// ListWithdrawals returns withdrawal requests, newest first. With
// ?status=pending only the actionable review queue is returned.
func (h *ApiHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	var (
		withdrawals []models.WithdrawalRequest
		err         error
	)
	if r.URL.Query().Get("status") == string(models.StatusPending) {
		withdrawals, err = h.Engine.ListPendingWithdrawals(r.Context())
	} else {
		withdrawals, err = h.Engine.ListWithdrawals(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiWithdrawals(withdrawals))
}

// ApproveWithdrawal marks the request approved for broadcast.
func (h *ApiHandler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cred := auth.CredentialFromContext(r.Context())

	withdrawal, err := h.Engine.ApproveWithdrawal(r.Context(), cred, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiWithdrawal(withdrawal))
}

// DenyWithdrawal marks the request denied.
func (h *ApiHandler) DenyWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cred := auth.CredentialFromContext(r.Context())

	withdrawal, err := h.Engine.DenyWithdrawal(r.Context(), cred, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiWithdrawal(withdrawal))
}

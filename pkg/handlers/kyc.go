package handlers

import (
	"net/http"

	"github.com/novachain/admin-settlement/pkg/api"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/mapping"
	"github.com/novachain/admin-settlement/pkg/models"
)

// ListPendingKYC returns the actionable review queue, oldest first.
func (h *ApiHandler) ListPendingKYC(w http.ResponseWriter, r *http.Request) {
	records, err := h.Engine.ListPendingKYC(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiKycRecords(records))
}

// SetKYCStatus decides a pending KYC submission.
func (h *ApiHandler) SetKYCStatus(w http.ResponseWriter, r *http.Request) {
	var req api.KycStatusRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.UserId == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "user_id is required"})
		return
	}
	cred := auth.CredentialFromContext(r.Context())

	record, err := h.Engine.SetKYCStatus(r.Context(), cred, req.UserId, models.KYCStatus(req.KycStatus))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiKycRecord(record))
}

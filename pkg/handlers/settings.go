package handlers

import (
	"net/http"

	"github.com/novachain/admin-settlement/pkg/api"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/mapping"
	"github.com/novachain/admin-settlement/pkg/models"
)

// SetDepositAddress configures the platform deposit address for a coin.
func (h *ApiHandler) SetDepositAddress(w http.ResponseWriter, r *http.Request) {
	var req api.SetDepositAddressRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Coin == "" || req.Address == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "coin and address are required"})
		return
	}
	cred := auth.CredentialFromContext(r.Context())

	addr, err := h.Engine.SetDepositAddress(r.Context(), cred, &models.DepositAddress{
		Coin:    req.Coin,
		Address: req.Address,
		Network: req.Network,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiDepositAddress(addr))
}

// ListDepositAddresses returns every configured deposit address.
func (h *ApiHandler) ListDepositAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.Engine.ListDepositAddresses(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapping.ToApiDepositAddresses(addrs))
}

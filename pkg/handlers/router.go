package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/metrics"
	custommw "github.com/novachain/admin-settlement/pkg/middleware"
	"github.com/rs/zerolog"
)

// NewRouter mounts the admin API. Every route under /api requires a valid
// admin bearer token; /healthz and /metrics are open.
func NewRouter(h *ApiHandler, verifier auth.Verifier, collector *metrics.Collector, logger zerolog.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(custommw.NewStructuredLogger(logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if collector != nil {
		router.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(custommw.RequireAdmin(verifier))

		r.Get("/deposits", h.ListDeposits)
		r.Get("/withdrawals", h.ListWithdrawals)
		r.Get("/trades", h.ListTrades)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/deposits/{id}/approve", h.ApproveDeposit)
			r.Post("/deposits/{id}/deny", h.DenyDeposit)

			r.Post("/withdrawals/{id}/approve", h.ApproveWithdrawal)
			r.Post("/withdrawals/{id}/deny", h.DenyWithdrawal)

			r.Post("/update-trade", h.UpdateTrade)
			r.Post("/users/{id}/trade-mode", h.SetTradeMode)
			r.Get("/user-win-modes", h.ListWinModes)

			r.Get("/kyc/pending", h.ListPendingKYC)
			r.Post("/user-kyc-status", h.SetKYCStatus)

			r.Post("/add-balance", h.AddBalance)
			r.Post("/user/{id}/reduce-balance", h.ReduceBalance)
			r.Post("/freeze-balance", h.FreezeBalance)
			r.Get("/user/{id}/balances", h.GetBalances)

			r.Post("/deposit-addresses", h.SetDepositAddress)
			r.Get("/deposit-addresses", h.ListDepositAddresses)
		})
	})

	return router
}

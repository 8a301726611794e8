package handlers

import (
	"net/http"

	"github.com/isdelr/smarttools-be/internal/auth"
	"github.com/isdelr/smarttools-be/internal/httputil"
	"github.com/isdelr/smarttools-be/internal/services"
)

// LedgerHandler exposes point history and the leaderboard.
type LedgerHandler struct {
	service services.LedgerServiceProvider
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(service services.LedgerServiceProvider) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// Leaderboard returns the top accounts by balance.
func (h *LedgerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := httputil.QueryInt(r, "limit", services.DefaultLeaderboardLimit)

	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// History returns the caller's recent awards.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	account := auth.AccountFromContext(r.Context())
	limit := httputil.QueryInt(r, "limit", 30)

	entries, err := h.service.History(r.Context(), account.ID, limit)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"total_points": account.Balance,
		"history":      entries,
	})
}

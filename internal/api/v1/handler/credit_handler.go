package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"designmart/internal/api/v1/dto"
	"designmart/internal/middleware"
	"designmart/internal/service"
)

// CreditHandler exposes the authenticated user's credit ledger.
type CreditHandler struct {
	creditService service.CreditService
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(creditService service.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// RegisterRoutes mounts credit routes
func (h *CreditHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/credits/status", authMw(http.HandlerFunc(h.getStatus)))
	mux.Handle("/credits/transactions", authMw(http.HandlerFunc(h.listTransactions)))
}

// getStatus godoc
// @Summary Get credit status
// @Description Returns the caller's aggregated credit balance: the pool selected for the next debit, the total across all live pools and a per-pool breakdown.
// @Tags credits
// @Produce json
// @Success 200 {object} model.CreditStatus
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 503 {string} string "Storage temporarily unavailable"
// @Router /credits/status [get]
func (h *CreditHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	status, err := h.creditService.GetStatus(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve credit status")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// listTransactions godoc
// @Summary List credit transactions
// @Description Pages through the caller's credit audit trail, newest first.
// @Tags credits
// @Produce json
// @Param limit query int false "Page size (default 25, max 100)"
// @Param offset query int false "Offset into the trail"
// @Success 200 {array} dto.TransactionResponseDTO
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 503 {string} string "Storage temporarily unavailable"
// @Router /credits/transactions [get]
func (h *CreditHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	txns, err := h.creditService.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list transactions")
		return
	}
	resp := make([]dto.TransactionResponseDTO, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, dto.TransactionResponseDTO{
			ID:           t.ID,
			PoolID:       t.PoolID,
			Kind:         string(t.Kind),
			Amount:       t.Amount,
			BalanceAfter: t.BalanceAfter,
			Description:  t.Description,
			CreatedAt:    t.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"designmart/internal/api/v1/dto"
	"designmart/internal/model"
	"designmart/internal/service"

	"github.com/go-playground/validator/v10"
)

// AdminHandler exposes the admin console: credit adjustments, per-user
// ledger inspection and design moderation. Every route is gated behind the
// admin role.
type AdminHandler struct {
	creditService service.CreditService
	designService service.DesignService
	validate      *validator.Validate
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(creditService service.CreditService, designService service.DesignService, validate *validator.Validate) *AdminHandler {
	return &AdminHandler{creditService: creditService, designService: designService, validate: validate}
}

// RegisterRoutes mounts admin routes
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, authMw, adminMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/credits", authMw(adminMw(http.HandlerFunc(h.applyCreditOp))))
	mux.Handle("/admin/users/", authMw(adminMw(http.HandlerFunc(h.getUserCredits))))
	mux.Handle("/admin/designs/", authMw(adminMw(http.HandlerFunc(h.moderateDesign))))
}

// applyCreditOp godoc
// @Summary Adjust a user's admin credits
// @Description Applies an add, set or deduct operation to the target user's admin credit pool, creating the pool if the user has none.
// @Tags admin
// @Accept json
// @Produce json
// @Param op body dto.AdminCreditOpDTO true "Credit adjustment"
// @Success 200 {object} dto.AdminCreditOpResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 402 {string} string "Insufficient credits"
// @Failure 403 {string} string "Forbidden: insufficient role"
// @Router /admin/credits [post]
func (h *AdminHandler) applyCreditOp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/admin/credits" {
		http.NotFound(w, r)
		return
	}
	var req dto.AdminCreditOpDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	pool, err := h.creditService.ApplyAdminOperation(r.Context(), service.AdminOperationInput{
		OwnerID: req.UserID,
		Op:      model.AdminOp(req.Op),
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to apply credit operation")
		return
	}
	resp := dto.AdminCreditOpResponseDTO{
		PoolID:           pool.ID,
		UserID:           pool.OwnerID,
		CreditsTotal:     pool.CreditsTotal,
		CreditsRemaining: pool.CreditsRemaining,
		CreditsUsed:      pool.CreditsUsed,
		Status:           string(pool.Status),
		ExpiresAt:        pool.ExpiresAt,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// getUserCredits godoc
// @Summary Inspect a user's credit status
// @Description Returns the aggregated credit status for an arbitrary user.
// @Tags admin
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} model.CreditStatus
// @Failure 403 {string} string "Forbidden: insufficient role"
// @Failure 404 {string} string "Not found"
// @Router /admin/users/{userId}/credits [get]
func (h *AdminHandler) getUserCredits(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/users/")
	userID, found := strings.CutSuffix(rest, "/credits")
	if r.Method != http.MethodGet || !found || userID == "" || strings.Contains(userID, "/") {
		http.NotFound(w, r)
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

// moderateDesign godoc
// @Summary Moderate a design
// @Description Approves or rejects a design that is pending review.
// @Tags admin
// @Accept json
// @Produce json
// @Param designId path string true "Design ID"
// @Param decision body dto.DesignModerateDTO true "Moderation decision"
// @Success 200 {object} dto.DesignResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 403 {string} string "Forbidden: insufficient role"
// @Failure 404 {string} string "Not found"
// @Router /admin/designs/{designId} [patch]
func (h *AdminHandler) moderateDesign(w http.ResponseWriter, r *http.Request) {
	designID := strings.TrimPrefix(r.URL.Path, "/admin/designs/")
	if r.Method != http.MethodPatch || designID == "" || strings.Contains(designID, "/") {
		http.NotFound(w, r)
		return
	}
	var req dto.DesignModerateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	design, err := h.designService.Moderate(r.Context(), designID, req.Action == "approve")
	if err != nil {
		writeServiceError(w, err, "Failed to moderate design")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(designResponse(design))
}

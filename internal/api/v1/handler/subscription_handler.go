package handler

import (
	"encoding/json"
	"net/http"

	"designmart/internal/api/v1/dto"
	"designmart/internal/middleware"
	"designmart/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SubscriptionHandler handles plan purchase endpoints.
type SubscriptionHandler struct {
	paymentSvc *service.PaymentService
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(paymentSvc *service.PaymentService, validate *validator.Validate, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{paymentSvc: paymentSvc, validate: validate, logger: logger}
}

// RegisterRoutes registers the subscription endpoints. The webhook route is
// mounted without auth middleware: Stripe signs its calls and the handler
// verifies the signature itself.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("/subscriptions/checkout", authMiddleware(http.HandlerFunc(h.Checkout)))
	mux.Handle("/plans", authMiddleware(http.HandlerFunc(h.ListPlans)))
	mux.HandleFunc("/subscriptions/webhook", h.Webhook)
}

// ListPlans godoc
// @Summary List credit plans
// @Description Returns the purchasable credit plans, cheapest first.
// @Tags subscriptions
// @Produce json
// @Success 200 {array} model.Plan
// @Failure 401 {string} string "unauthorized"
// @Router /plans [get]
func (h *SubscriptionHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	plans, err := h.paymentSvc.ListPlans(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list plans")
		writeServiceError(w, err, "failed to list plans")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plans)
}

// Checkout godoc
// @Summary Initiate a Stripe Checkout session for a credit plan
// @Description Creates a Stripe Checkout session for the requested plan and returns its URL. Credits are minted only after the webhook confirms payment.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.CheckoutRequestDTO true "Checkout request"
// @Success 200 {object} dto.CheckoutResponseDTO
// @Failure 400 {string} string "invalid request payload"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "failed to create checkout session"
// @Router /subscriptions/checkout [post]
func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	url, err := h.paymentSvc.CreateCheckoutSession(r.Context(), userID, req.PlanID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create checkout session")
		writeServiceError(w, err, "failed to create checkout session")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dto.CheckoutResponseDTO{CheckoutURL: url}); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
}

// Webhook godoc
// @Summary Stripe webhook receiver
// @Description Verifies the Stripe signature, mints credit pools for completed checkouts and voids pools for refunds.
// @Tags subscriptions
// @Accept json
// @Success 200 {string} string "ok"
// @Failure 400 {string} string "signature verification failed"
// @Router /subscriptions/webhook [post]
func (h *SubscriptionHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.paymentSvc.HandleWebhook(w, r)
}

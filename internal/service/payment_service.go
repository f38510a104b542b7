package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"designmart/internal/config"
	"designmart/internal/model"
	"designmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PaymentService manages Stripe checkout and webhook handling. A credit pool
// is minted only after webhook signature verification succeeds; the checkout
// session itself grants nothing.
type PaymentService struct {
	cfg       *config.Config
	userRepo  repository.UserRepository
	planRepo  repository.PlanRepository
	creditSvc CreditService
	logger    zerolog.Logger
}

// NewPaymentService initializes the Stripe key and returns the service with
// a scoped logger.
func NewPaymentService(cfg *config.Config, stripeKey string, userRepo repository.UserRepository, planRepo repository.PlanRepository, creditSvc CreditService, logger zerolog.Logger) *PaymentService {
	stripe.Key = stripeKey
	lg := logger.With().Str("service", "PaymentService").Logger()
	return &PaymentService{cfg: cfg, userRepo: userRepo, planRepo: planRepo, creditSvc: creditSvc, logger: lg}
}

// ListPlans returns the purchasable credit plans, cheapest first.
func (s *PaymentService) ListPlans(ctx context.Context) ([]model.Plan, error) {
	plans, err := s.planRepo.ListActivePlans(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list plans")
		return nil, err
	}
	return plans, nil
}

// GetOrCreateCustomer ensures a Stripe customer exists for a user.
func (s *PaymentService) GetOrCreateCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}
	params := &stripe.CustomerParams{
		Email:    stripe.String(user.Email),
		Name:     stripe.String(user.Name),
		Metadata: map[string]string{"user_id": user.UserID},
	}
	cust, err := customerpkg.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to create Stripe customer")
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	if err := s.userRepo.UpdateStripeCustomerID(ctx, user.UserID, cust.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to store stripe customer id in user_profiles")
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession creates a Stripe Checkout session for a credit plan.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, userID, planID string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for checkout session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("fetch user %s: %w", userID, repository.ErrNotFound)
	}
	plan, err := s.planRepo.GetPlanByID(ctx, planID)
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", planID).Msg("Failed to fetch plan for checkout session")
		return "", err
	}
	if !plan.Active {
		return "", validationErr("plan", fmt.Sprintf("plan %s is not available", planID))
	}
	customerID, err := s.GetOrCreateCustomer(ctx, user)
	if err != nil {
		return "", err
	}
	sessParams := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(plan.StripePriceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(stripe.CheckoutSessionModePayment),
		SuccessURL:         stripe.String(s.cfg.CheckoutReturnURL + "?status=success"),
		CancelURL:          stripe.String(s.cfg.CheckoutReturnURL + "?status=cancel"),
		Metadata:           map[string]string{"user_id": userID, "plan_id": plan.ID},
	}
	// Idempotency key guards the library's network-level retries from
	// minting duplicate sessions.
	sessParams.SetIdempotencyKey(uuid.NewString())
	sess, err := checkoutsession.New(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", planID).Msg("Failed to create Stripe checkout session")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// HandleWebhook processes Stripe webhook events. Signature verification
// happens before anything else touches the payload.
func (s *PaymentService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	s.logger.Info().Str("event_type", string(event.Type)).Msg("Stripe webhook received")

	ctx := r.Context()
	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			s.logger.Error().Err(err).Msg("Invalid checkout.session data")
			http.Error(w, "invalid checkout.session data", http.StatusBadRequest)
			return
		}
		if err := s.fulfillCheckout(ctx, &cs); err != nil {
			s.logger.Error().Err(err).Str("session_id", cs.ID).Msg("Failed to fulfill checkout session")
			http.Error(w, "failed to fulfill checkout", http.StatusInternalServerError)
			return
		}
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			s.logger.Error().Err(err).Msg("Invalid charge.refunded payload")
			http.Error(w, "invalid charge data", http.StatusBadRequest)
			return
		}
		if ch.PaymentIntent == nil || ch.PaymentIntent.ID == "" {
			s.logger.Warn().Str("charge_id", ch.ID).Msg("Refunded charge has no payment intent, nothing to cancel")
			break
		}
		if err := s.creditSvc.CancelPoolByPaymentReference(ctx, ch.PaymentIntent.ID); err != nil {
			// The refund may predate any pool (e.g. fulfillment never
			// ran); log and acknowledge so Stripe stops retrying.
			s.logger.Error().Err(err).Str("payment_intent", ch.PaymentIntent.ID).Msg("Failed to cancel pool for refunded charge")
		}
	default:
		s.logger.Warn().Str("event_type", string(event.Type)).Msg("Unhandled Stripe webhook event")
	}
	w.WriteHeader(http.StatusOK)
}

// fulfillCheckout turns a completed checkout session into a subscription
// credit pool.
func (s *PaymentService) fulfillCheckout(ctx context.Context, cs *stripe.CheckoutSession) error {
	userID := cs.Metadata["user_id"]
	planID := cs.Metadata["plan_id"]
	if userID == "" && cs.Customer != nil && cs.Customer.ID != "" {
		// Session metadata can be stripped when the session is created
		// outside our API, e.g. from the Stripe dashboard.
		user, err := s.userRepo.GetUserByStripeCustomerID(ctx, cs.Customer.ID)
		if err != nil {
			return fmt.Errorf("resolve user for customer %s: %w", cs.Customer.ID, err)
		}
		if user != nil {
			userID = user.UserID
		}
	}
	if userID == "" || planID == "" {
		return fmt.Errorf("checkout session %s missing user_id/plan_id metadata", cs.ID)
	}
	plan, err := s.planRepo.GetPlanByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("fetch plan for fulfillment: %w", err)
	}
	paymentRef := cs.ID
	if cs.PaymentIntent != nil && cs.PaymentIntent.ID != "" {
		paymentRef = cs.PaymentIntent.ID
	}
	pool, err := s.creditSvc.CreateSubscriptionPool(ctx, CreateSubscriptionPoolInput{
		OwnerID:          userID,
		PlanID:           plan.ID,
		PlanLabel:        plan.Label,
		Credits:          plan.Credits,
		ValidityDays:     plan.ValidityDays,
		PaymentReference: paymentRef,
		PaymentMethod:    "stripe",
		AmountPaidCents:  int(cs.AmountTotal),
	})
	if err != nil {
		return fmt.Errorf("mint pool for session %s: %w", cs.ID, err)
	}
	s.logger.Info().
		Str("user_id", userID).
		Str("plan_id", plan.ID).
		Str("pool_id", pool.ID).
		Str("payment_reference", paymentRef).
		Msg("Checkout fulfilled, credit pool minted")
	return nil
}

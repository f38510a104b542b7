package dto

// CheckoutRequestDTO is an incoming checkout session request for a credit
// plan.
type CheckoutRequestDTO struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// CheckoutResponseDTO carries the hosted Stripe Checkout URL.
type CheckoutResponseDTO struct {
	CheckoutURL string `json:"checkout_url"`
}

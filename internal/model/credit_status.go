package model

import "time"

// PoolBreakdown is the per-pool slice of a CreditStatus.
type PoolBreakdown struct {
	PoolID           string     `json:"pool_id"`
	PlanID           string     `json:"plan_id,omitempty"`
	PlanLabel        string     `json:"plan_label"`
	CreditsTotal     int        `json:"credits_total"`
	CreditsRemaining int        `json:"credits_remaining"`
	CreditsUsed      int        `json:"credits_used"`
	Status           PoolStatus `json:"status"`
	ExpiresAt        time.Time  `json:"expires_at"`
	DaysRemaining    int        `json:"days_remaining"`
}

// CreditStatus is the read-side view over all of a user's credit pools.
// It is recomputed from pool rows on every request, never cached.
//
// DisplayBalance is deliberately the remaining credits of the single pool
// selected for the next debit, not a sum: pools are consumed
// earliest-expiry-first and only the selected pool is presented as "your
// current plan balance". TotalAvailable is the informational sum across all
// live pools, so DisplayBalance <= TotalAvailable always holds.
type CreditStatus struct {
	OwnerID string `json:"owner_id"`

	// IsValid is true when at least one pool is live and spendable.
	IsValid bool `json:"is_valid"`
	// HasAnyCredits is true when any pool row exists at all, even
	// exhausted; it tracks "has ever had a plan".
	HasAnyCredits bool `json:"has_any_credits"`

	// Selected pool (the next one to debit), empty when IsValid is false.
	NextPoolID     string `json:"next_pool_id,omitempty"`
	PlanID         string `json:"plan_id,omitempty"`
	PlanLabel      string `json:"plan_label,omitempty"`
	DisplayBalance int    `json:"display_balance"`

	TotalAvailable int `json:"total_available"`

	// Subscriptions lists the live subscription pools, earliest expiry
	// first. Admin is the admin pool breakdown when one exists (live or
	// not).
	Subscriptions []PoolBreakdown `json:"subscriptions"`
	Admin         *PoolBreakdown  `json:"admin,omitempty"`
}

package model

import "time"

// PoolSourceKind identifies how a credit pool came to exist.
type PoolSourceKind string

const (
	PoolSourceSubscription PoolSourceKind = "subscription"
	PoolSourceAdmin        PoolSourceKind = "admin"
)

// PoolStatus is the lifecycle state of a credit pool.
type PoolStatus string

const (
	PoolStatusActive    PoolStatus = "active"
	PoolStatusExpired   PoolStatus = "expired"
	PoolStatusCancelled PoolStatus = "cancelled"
)

// AdminOp is the operation an administrator applies to a user's admin pool.
type AdminOp string

const (
	AdminOpAdd    AdminOp = "add"
	AdminOpSet    AdminOp = "set"
	AdminOpDeduct AdminOp = "deduct"
)

// Valid reports whether op is one of the known admin operations.
func (op AdminOp) Valid() bool {
	switch op {
	case AdminOpAdd, AdminOpSet, AdminOpDeduct:
		return true
	}
	return false
}

// CreditPool is one discrete grant of spendable download credits.
// A user accumulates zero-or-many subscription pools (one per verified
// purchase) and at most one admin pool; the admin singleton is enforced by a
// partial unique index on (owner_id) where source_kind = 'admin'.
//
// Invariant: CreditsTotal == CreditsRemaining + CreditsUsed, backed by a
// check constraint on credit_pools.
type CreditPool struct {
	ID               string         `db:"id" json:"id"`
	OwnerID          string         `db:"owner_id" json:"owner_id"`
	SourceKind       PoolSourceKind `db:"source_kind" json:"source_kind"`
	PlanID           *string        `db:"plan_id" json:"plan_id,omitempty"`
	PlanLabel        string         `db:"plan_label" json:"plan_label"`
	CreditsTotal     int            `db:"credits_total" json:"credits_total"`
	CreditsRemaining int            `db:"credits_remaining" json:"credits_remaining"`
	CreditsUsed      int            `db:"credits_used" json:"credits_used"`
	Status           PoolStatus     `db:"status" json:"status"`
	StartsAt         time.Time      `db:"starts_at" json:"starts_at"`
	ExpiresAt        time.Time      `db:"expires_at" json:"expires_at"`
	PaymentReference *string        `db:"payment_reference" json:"payment_reference,omitempty"`
	PaymentMethod    *string        `db:"payment_method" json:"payment_method,omitempty"`
	AmountPaidCents  *int           `db:"amount_paid_cents" json:"amount_paid_cents,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// IsLive reports whether the pool can be debited right now: active,
// unexpired and holding at least one credit. Expiry is evaluated lazily
// against the supplied clock; there is no background sweeper.
func (p *CreditPool) IsLive(now time.Time) bool {
	return p.Status == PoolStatusActive && p.CreditsRemaining > 0 && p.ExpiresAt.After(now)
}

// DaysRemaining returns the number of whole-or-partial days until expiry,
// i.e. ceil((ExpiresAt - now) / 24h). Expired pools report 0.
func (p *CreditPool) DaysRemaining(now time.Time) int {
	d := p.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

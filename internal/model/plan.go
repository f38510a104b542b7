package model

import "time"

// Plan is a purchasable credit plan. Each verified purchase of a plan mints
// one subscription credit pool with the plan's credits and validity window.
type Plan struct {
	ID            string    `db:"id" json:"id"` // basic | premium | elite
	Label         string    `db:"label" json:"label"`
	PriceCents    int       `db:"price_cents" json:"price_cents"`
	Credits       int       `db:"credits" json:"credits"`
	ValidityDays  int       `db:"validity_days" json:"validity_days"`
	StripePriceID string    `db:"stripe_price_id" json:"-"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

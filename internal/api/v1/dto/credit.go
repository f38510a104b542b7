package dto

import "time"

// AdminCreditOpDTO is an incoming admin console credit adjustment.
type AdminCreditOpDTO struct {
	UserID string `json:"user_id" validate:"required"`
	Op     string `json:"op" validate:"required,oneof=add set deduct"`
	Amount int    `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason,omitempty"`
}

// AdminCreditOpResponseDTO echoes the admin pool after the adjustment.
type AdminCreditOpResponseDTO struct {
	PoolID           string    `json:"pool_id"`
	UserID           string    `json:"user_id"`
	CreditsTotal     int       `json:"credits_total"`
	CreditsRemaining int       `json:"credits_remaining"`
	CreditsUsed      int       `json:"credits_used"`
	Status           string    `json:"status"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// TransactionResponseDTO is one audit trail entry in API responses.
type TransactionResponseDTO struct {
	ID           int64     `json:"id"`
	PoolID       string    `json:"pool_id"`
	Kind         string    `json:"kind"`
	Amount       int       `json:"amount"`
	BalanceAfter int       `json:"balance_after"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

package model

import "time"

// Role is a user's role in the marketplace.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleDesigner Role = "designer"
	RoleAdmin    Role = "admin"
)

// User represents a user in the system
type User struct {
	UserID           string    `db:"user_id" json:"user_id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	Role             Role      `db:"role" json:"role"`
	AvatarURL        string    `db:"avatar_url" json:"avatar_url"`
	StripeCustomerID *string   `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

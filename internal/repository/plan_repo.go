package repository

import (
	"context"
	"errors"
	"fmt"

	"designmart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlanRepository reads the purchasable credit plans.
type PlanRepository interface {
	GetPlanByID(ctx context.Context, planID string) (*model.Plan, error)
	ListActivePlans(ctx context.Context) ([]model.Plan, error)
}

type planRepo struct {
	pool *pgxpool.Pool
}

// NewPlanRepo creates a new PlanRepository.
func NewPlanRepo(pool *pgxpool.Pool) PlanRepository {
	return &planRepo{pool: pool}
}

const planColumns = `id, label, price_cents, credits, validity_days, stripe_price_id, active, created_at, updated_at`

// GetPlanByID returns the plan with its credit grant and validity window.
func (r *planRepo) GetPlanByID(ctx context.Context, planID string) (*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	var p model.Plan
	err := r.pool.QueryRow(ctx, q, planID).Scan(
		&p.ID, &p.Label, &p.PriceCents, &p.Credits, &p.ValidityDays, &p.StripePriceID, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("fetch plan %s: %w", planID, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch plan %s: %w", planID, err)
	}
	return &p, nil
}

// ListActivePlans returns the plans currently offered, cheapest first.
func (r *planRepo) ListActivePlans(ctx context.Context) ([]model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE active ORDER BY price_cents ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()
	var plans []model.Plan
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.Label, &p.PriceCents, &p.Credits, &p.ValidityDays, &p.StripePriceID, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	return plans, nil
}

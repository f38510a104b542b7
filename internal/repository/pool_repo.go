package repository

import (
	"context"
	"errors"
	"fmt"

	"designmart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// adminPoolValidityDays is the expiry window stamped on a freshly created
// admin pool.
const adminPoolValidityDays = 30

// CreditPoolRepository persists credit pools and their audit trail. Every
// balance mutation and its transaction record are committed in one database
// transaction, and every debit is guarded server-side so concurrent requests
// cannot overspend a pool.
type CreditPoolRepository interface {
	// CreateSubscriptionPool inserts a pool minted by a verified payment
	// and records the opening credit transaction.
	CreateSubscriptionPool(ctx context.Context, p *model.CreditPool, description string) error
	// GetOrCreateAdminPool returns the owner's admin pool, creating an
	// empty one (zero counters, 30-day window) if none exists. Idempotent
	// under concurrency via the partial unique admin index.
	GetOrCreateAdminPool(ctx context.Context, ownerID, label string) (*model.CreditPool, error)
	// ListPoolsByOwner returns every pool for the owner, subscription and
	// admin alike, ordered by expiry ascending then creation ascending.
	ListPoolsByOwner(ctx context.Context, ownerID string) ([]model.CreditPool, error)
	// AddCredits grows a pool's total and remaining by amount. A lapsed
	// expiry window restarts so the granted credits are spendable.
	AddCredits(ctx context.Context, poolID string, amount int, description string) (*model.CreditPool, error)
	// SetCredits resets a pool to exactly amount credits with zero used,
	// restarting a lapsed expiry window.
	SetCredits(ctx context.Context, poolID string, amount int, description string) (*model.CreditPool, error)
	// RevokeCredits removes amount granted-but-unspent credits from a pool
	// (total and remaining both drop). Returns ErrInsufficientCredits when
	// remaining < amount.
	RevokeCredits(ctx context.Context, poolID string, amount int, description string) (*model.CreditPool, error)
	// ConsumeCredits spends amount credits from a pool (remaining falls,
	// used rises). Returns ErrInsufficientCredits when remaining < amount.
	ConsumeCredits(ctx context.Context, poolID string, amount int, description string) (*model.CreditPool, error)
	// CancelPoolByPaymentReference flips the pool minted by the given
	// payment to cancelled, e.g. after a refund.
	CancelPoolByPaymentReference(ctx context.Context, paymentReference string) error
}

type creditPoolRepo struct {
	pool *pgxpool.Pool
}

// NewCreditPoolRepo creates a new CreditPoolRepository.
func NewCreditPoolRepo(pool *pgxpool.Pool) CreditPoolRepository {
	return &creditPoolRepo{pool: pool}
}

const poolColumns = `
        id, owner_id, source_kind, plan_id, plan_label,
        credits_total, credits_remaining, credits_used,
        status, starts_at, expires_at,
        payment_reference, payment_method, amount_paid_cents,
        created_at, updated_at`

func scanPool(row pgx.Row) (*model.CreditPool, error) {
	var p model.CreditPool
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.SourceKind,
		&p.PlanID,
		&p.PlanLabel,
		&p.CreditsTotal,
		&p.CreditsRemaining,
		&p.CreditsUsed,
		&p.Status,
		&p.StartsAt,
		&p.ExpiresAt,
		&p.PaymentReference,
		&p.PaymentMethod,
		&p.AmountPaidCents,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const insertTransactionQ = `
        INSERT INTO credit_transactions (owner_id, pool_id, kind, amount, balance_after, description)
        VALUES ($1, $2, $3, $4, $5, $6)`

// CreateSubscriptionPool inserts a subscription pool and its opening credit
// transaction atomically.
func (r *creditPoolRepo) CreateSubscriptionPool(ctx context.Context, p *model.CreditPool, description string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting transaction for pool creation: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	const q = `
        INSERT INTO credit_pools
            (owner_id, source_kind, plan_id, plan_label,
             credits_total, credits_remaining, credits_used,
             status, starts_at, expires_at,
             payment_reference, payment_method, amount_paid_cents)
        VALUES ($1, 'subscription', $2, $3, $4, $4, 0, 'active', $5, $6, $7, $8, $9)
        RETURNING ` + poolColumns
	created, err := scanPool(tx.QueryRow(ctx, q,
		p.OwnerID, p.PlanID, p.PlanLabel, p.CreditsTotal,
		p.StartsAt, p.ExpiresAt,
		p.PaymentReference, p.PaymentMethod, p.AmountPaidCents,
	))
	if err != nil {
		return fmt.Errorf("inserting subscription pool for user %s: %w", p.OwnerID, err)
	}
	if _, err := tx.Exec(ctx, insertTransactionQ,
		created.OwnerID, created.ID, model.TransactionCredit, created.CreditsTotal, created.CreditsRemaining, description,
	); err != nil {
		return fmt.Errorf("recording opening transaction for pool %s: %w", created.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing subscription pool for user %s: %w", p.OwnerID, err)
	}
	*p = *created
	return nil
}

// GetOrCreateAdminPool upserts the admin singleton for the owner. The insert
// conflicts on the partial unique index (owner_id WHERE source_kind='admin'),
// so two concurrent first-time grants converge on one row.
func (r *creditPoolRepo) GetOrCreateAdminPool(ctx context.Context, ownerID, label string) (*model.CreditPool, error) {
	const insertQ = `
        INSERT INTO credit_pools
            (owner_id, source_kind, plan_label,
             credits_total, credits_remaining, credits_used,
             status, starts_at, expires_at)
        VALUES ($1, 'admin', $2, 0, 0, 0, 'active', NOW(), NOW() + ($3 || ' days')::interval)
        ON CONFLICT (owner_id) WHERE source_kind = 'admin' DO NOTHING`
	if _, err := r.pool.Exec(ctx, insertQ, ownerID, label, adminPoolValidityDays); err != nil {
		return nil, fmt.Errorf("upserting admin pool for user %s: %w", ownerID, err)
	}
	const selectQ = `
        SELECT ` + poolColumns + `
        FROM credit_pools
        WHERE owner_id = $1 AND source_kind = 'admin'`
	p, err := scanPool(r.pool.QueryRow(ctx, selectQ, ownerID))
	if err != nil {
		return nil, fmt.Errorf("fetching admin pool for user %s: %w", ownerID, err)
	}
	return p, nil
}

// ListPoolsByOwner returns every pool the owner has, earliest expiry first.
// Ties on expiry break by creation time ascending, which keeps the
// first-created pool as the stable debit target.
func (r *creditPoolRepo) ListPoolsByOwner(ctx context.Context, ownerID string) ([]model.CreditPool, error) {
	const q = `
        SELECT ` + poolColumns + `
        FROM credit_pools
        WHERE owner_id = $1
        ORDER BY expires_at ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing pools for user %s: %w", ownerID, err)
	}
	defer rows.Close()
	var pools []model.CreditPool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pool for user %s: %w", ownerID, err)
		}
		pools = append(pools, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pools for user %s: %w", ownerID, err)
	}
	return pools, nil
}

// AddCredits grows total and remaining together; the pool becomes active
// again since it now holds credits. A grant landing after the expiry window
// lapsed restarts the window, otherwise the new credits would sit unspendable
// in a dead pool.
func (r *creditPoolRepo) AddCredits(ctx context.Context, poolID string, amount int, description string) (*model.CreditPool, error) {
	const q = `
        UPDATE credit_pools
        SET credits_total = credits_total + $2,
            credits_remaining = credits_remaining + $2,
            status = 'active',
            expires_at = CASE WHEN expires_at <= NOW()
                              THEN NOW() + ($3 || ' days')::interval
                              ELSE expires_at END,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + poolColumns
	return r.mutate(ctx, poolID, q, amount, model.TransactionCredit, amount, description, adminPoolValidityDays)
}

// SetCredits is a full reset: total = remaining = amount, used = 0. Like
// AddCredits, a lapsed expiry window restarts.
func (r *creditPoolRepo) SetCredits(ctx context.Context, poolID string, amount int, description string) (*model.CreditPool, error) {
	const q = `
        UPDATE credit_pools
        SET credits_total = $2,
            credits_remaining = $2,
            credits_used = 0,
            status = CASE WHEN $2 > 0 THEN 'active' ELSE 'expired' END,
            expires_at = CASE WHEN expires_at <= NOW()
                              THEN NOW() + ($3 || ' days')::interval
                              ELSE expires_at END,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + poolColumns
	return r.mutate(ctx, poolID, q, amount, model.TransactionCredit, amount, description, adminPoolValidityDays)
}

// RevokeCredits takes back granted-but-unspent credits, so total drops with
// remaining and used stays put. The WHERE guard makes the revoke atomic.
func (r *creditPoolRepo) RevokeCredits(ctx context.Context, poolID string, amount int, description string) (*model.CreditPool, error) {
	const q = `
        UPDATE credit_pools
        SET credits_total = credits_total - $2,
            credits_remaining = credits_remaining - $2,
            status = CASE WHEN credits_remaining - $2 > 0 THEN 'active' ELSE 'expired' END,
            updated_at = NOW()
        WHERE id = $1 AND credits_remaining >= $2
        RETURNING ` + poolColumns
	return r.mutateGuarded(ctx, poolID, q, amount, model.TransactionDebit, description)
}

// ConsumeCredits spends credits: remaining falls, used rises, total is
// untouched. The WHERE guard rejects the debit outright instead of racing a
// read-modify-write.
func (r *creditPoolRepo) ConsumeCredits(ctx context.Context, poolID string, amount int, description string) (*model.CreditPool, error) {
	const q = `
        UPDATE credit_pools
        SET credits_remaining = credits_remaining - $2,
            credits_used = credits_used + $2,
            status = CASE WHEN credits_remaining - $2 > 0 THEN 'active' ELSE 'expired' END,
            updated_at = NOW()
        WHERE id = $1 AND credits_remaining >= $2
        RETURNING ` + poolColumns
	return r.mutateGuarded(ctx, poolID, q, amount, model.TransactionDebit, description)
}

// CancelPoolByPaymentReference marks the matching subscription pool
// cancelled. The pool row stays in place; only its status changes, so no
// transaction record is written.
func (r *creditPoolRepo) CancelPoolByPaymentReference(ctx context.Context, paymentReference string) error {
	const q = `
        UPDATE credit_pools
        SET status = 'cancelled', updated_at = NOW()
        WHERE payment_reference = $1 AND source_kind = 'subscription'`
	tag, err := r.pool.Exec(ctx, q, paymentReference)
	if err != nil {
		return fmt.Errorf("cancelling pool for payment %s: %w", paymentReference, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cancelling pool for payment %s: %w", paymentReference, ErrNotFound)
	}
	return nil
}

// mutate applies an unconditional pool update and records its transaction in
// one database transaction. Extra args follow poolID and amount in the query
// placeholders.
func (r *creditPoolRepo) mutate(ctx context.Context, poolID, updateQ string, amount int, kind model.TransactionKind, txnAmount int, description string, extra ...any) (*model.CreditPool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting transaction for pool %s: %w", poolID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	args := append([]any{poolID, amount}, extra...)
	updated, err := scanPool(tx.QueryRow(ctx, updateQ, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("updating pool %s: %w", poolID, ErrNotFound)
		}
		return nil, fmt.Errorf("updating pool %s: %w", poolID, err)
	}
	if _, err := tx.Exec(ctx, insertTransactionQ,
		updated.OwnerID, updated.ID, kind, txnAmount, updated.CreditsRemaining, description,
	); err != nil {
		return nil, fmt.Errorf("recording transaction for pool %s: %w", poolID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing mutation for pool %s: %w", poolID, err)
	}
	return updated, nil
}

// mutateGuarded is mutate for conditional debits: no matching row means
// either a missing pool or a failed balance guard, told apart by a follow-up
// existence check so the caller gets the right error.
func (r *creditPoolRepo) mutateGuarded(ctx context.Context, poolID, updateQ string, amount int, kind model.TransactionKind, description string) (*model.CreditPool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting transaction for pool %s: %w", poolID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	updated, err := scanPool(tx.QueryRow(ctx, updateQ, poolID, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			const existsQ = `SELECT EXISTS (SELECT 1 FROM credit_pools WHERE id = $1)`
			if checkErr := tx.QueryRow(ctx, existsQ, poolID).Scan(&exists); checkErr != nil {
				return nil, fmt.Errorf("checking pool %s after failed debit: %w", poolID, checkErr)
			}
			if !exists {
				return nil, fmt.Errorf("debiting pool %s: %w", poolID, ErrNotFound)
			}
			return nil, fmt.Errorf("debiting pool %s: %w", poolID, ErrInsufficientCredits)
		}
		return nil, fmt.Errorf("debiting pool %s: %w", poolID, err)
	}
	if _, err := tx.Exec(ctx, insertTransactionQ,
		updated.OwnerID, updated.ID, kind, amount, updated.CreditsRemaining, description,
	); err != nil {
		return nil, fmt.Errorf("recording transaction for pool %s: %w", poolID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing debit for pool %s: %w", poolID, err)
	}
	return updated, nil
}

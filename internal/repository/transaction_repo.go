package repository

import (
	"context"
	"fmt"

	"designmart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository reads the append-only credit audit trail. Writes
// happen inside CreditPoolRepository mutations so a pool change and its
// record commit together; rows are never updated or deleted.
type TransactionRepository interface {
	// ListByOwner returns the owner's transactions, newest first.
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.CreditTransaction, error)
}

type transactionRepo struct {
	pool *pgxpool.Pool
}

// NewTransactionRepo creates a new TransactionRepository.
func NewTransactionRepo(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{pool: pool}
}

// ListByOwner returns the owner's transactions, newest first.
func (r *transactionRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	const q = `
        SELECT id, owner_id, pool_id, kind, amount, balance_after, description, created_at
        FROM credit_transactions
        WHERE owner_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for user %s: %w", ownerID, err)
	}
	defer rows.Close()
	var txns []model.CreditTransaction
	for rows.Next() {
		var t model.CreditTransaction
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.PoolID, &t.Kind, &t.Amount, &t.BalanceAfter, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction for user %s: %w", ownerID, err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions for user %s: %w", ownerID, err)
	}
	return txns, nil
}

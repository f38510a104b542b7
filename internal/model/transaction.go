package model

import "time"

// TransactionKind classifies a credit transaction.
type TransactionKind string

const (
	TransactionCredit TransactionKind = "credit"
	TransactionDebit  TransactionKind = "debit"
)

// CreditTransaction is one immutable audit entry, written in the same
// database transaction as the pool mutation it records. It is display-only:
// pool state is never reconstructed from these rows.
type CreditTransaction struct {
	ID           int64           `db:"id" json:"id"`
	OwnerID      string          `db:"owner_id" json:"owner_id"`
	PoolID       string          `db:"pool_id" json:"pool_id"`
	Kind         TransactionKind `db:"kind" json:"kind"`
	Amount       int             `db:"amount" json:"amount"`
	BalanceAfter int             `db:"balance_after" json:"balance_after"`
	Description  string          `db:"description" json:"description"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

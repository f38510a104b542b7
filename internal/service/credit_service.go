package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"designmart/internal/model"
	"designmart/internal/pubsub"
	"designmart/internal/repository"

	"github.com/rs/zerolog"
)

// adminPoolLabel is the plan label stamped on admin-granted pools.
const adminPoolLabel = "Admin grant"

// CreateSubscriptionPoolInput carries the validated payment data a verified
// purchase mints a pool from.
type CreateSubscriptionPoolInput struct {
	OwnerID          string
	PlanID           string
	PlanLabel        string
	Credits          int
	ValidityDays     int
	PaymentReference string
	PaymentMethod    string
	AmountPaidCents  int
}

// AdminOperationInput is one admin console action against a user's admin
// pool.
type AdminOperationInput struct {
	OwnerID string
	Op      model.AdminOp
	Amount  int
	Reason  string
}

// CreditService owns the credit ledger: pool lifecycle, the aggregated
// status view and credit consumption.
type CreditService interface {
	// GetStatus recomputes the owner's ledger view from pool rows.
	GetStatus(ctx context.Context, ownerID string) (*model.CreditStatus, error)
	// CreateSubscriptionPool mints a pool for a verified payment.
	CreateSubscriptionPool(ctx context.Context, in CreateSubscriptionPoolInput) (*model.CreditPool, error)
	// ApplyAdminOperation fetches-or-creates the owner's admin pool and
	// applies an add/set/deduct to it.
	ApplyAdminOperation(ctx context.Context, in AdminOperationInput) (*model.CreditPool, error)
	// Consume spends amount credits (default 1) from the next pool to
	// debit, falling through the live pools in consumption order.
	Consume(ctx context.Context, ownerID string, amount int, description string) (*model.CreditPool, error)
	// ListTransactions pages through the owner's audit trail.
	ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]model.CreditTransaction, error)
	// CancelPoolByPaymentReference voids the pool a refunded payment
	// minted.
	CancelPoolByPaymentReference(ctx context.Context, paymentReference string) error
}

type creditService struct {
	poolRepo  repository.CreditPoolRepository
	txnRepo   repository.TransactionRepository
	publisher pubsub.Publisher
	topic     string
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCreditService creates a new CreditService with a scoped logger.
func NewCreditService(
	poolRepo repository.CreditPoolRepository,
	txnRepo repository.TransactionRepository,
	publisher pubsub.Publisher,
	eventTopic string,
	logger zerolog.Logger,
) CreditService {
	return &creditService{
		poolRepo:  poolRepo,
		txnRepo:   txnRepo,
		publisher: publisher,
		topic:     eventTopic,
		now:       time.Now,
		logger:    logger.With().Str("service", "CreditService").Logger(),
	}
}

// GetStatus recomputes the owner's ledger view from pool rows. A user with
// no pools gets a zeroed view, not an error.
func (s *creditService) GetStatus(ctx context.Context, ownerID string) (*model.CreditStatus, error) {
	if ownerID == "" {
		return nil, validationErr("owner_id", "must not be empty")
	}
	pools, err := s.poolRepo.ListPoolsByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("Failed to list pools for status")
		return nil, storageErr(err)
	}
	status := buildCreditStatus(ownerID, pools, s.now())
	return &status, nil
}

// CreateSubscriptionPool mints a pool for a verified payment and records the
// opening credit transaction with it.
func (s *creditService) CreateSubscriptionPool(ctx context.Context, in CreateSubscriptionPoolInput) (*model.CreditPool, error) {
	if in.OwnerID == "" {
		return nil, validationErr("owner_id", "must not be empty")
	}
	if in.Credits <= 0 {
		return nil, validationErr("credits", "must be a positive integer")
	}
	if in.ValidityDays <= 0 {
		return nil, validationErr("validity_days", "must be a positive integer")
	}
	now := s.now()
	pool := &model.CreditPool{
		OwnerID:      in.OwnerID,
		SourceKind:   model.PoolSourceSubscription,
		PlanLabel:    in.PlanLabel,
		CreditsTotal: in.Credits,
		StartsAt:     now,
		ExpiresAt:    now.Add(time.Duration(in.ValidityDays) * 24 * time.Hour),
	}
	if in.PlanID != "" {
		pool.PlanID = &in.PlanID
	}
	if in.PaymentReference != "" {
		pool.PaymentReference = &in.PaymentReference
	}
	if in.PaymentMethod != "" {
		pool.PaymentMethod = &in.PaymentMethod
	}
	if in.AmountPaidCents > 0 {
		pool.AmountPaidCents = &in.AmountPaidCents
	}
	desc := fmt.Sprintf("Purchased %s plan (%d credits)", in.PlanLabel, in.Credits)
	if err := s.poolRepo.CreateSubscriptionPool(ctx, pool, desc); err != nil {
		s.logger.Error().Err(err).Str("owner_id", in.OwnerID).Str("plan_id", in.PlanID).Msg("Failed to create subscription pool")
		return nil, storageErr(err)
	}
	s.logger.Info().
		Str("owner_id", in.OwnerID).
		Str("pool_id", pool.ID).
		Str("plan_id", in.PlanID).
		Int("credits", in.Credits).
		Msg("Subscription pool created")
	s.publishEvent(ctx, "credits.granted", pool, in.Credits, desc)
	return pool, nil
}

// ApplyAdminOperation applies one add/set/deduct to the owner's admin pool,
// creating the pool first when this is the user's first admin grant.
func (s *creditService) ApplyAdminOperation(ctx context.Context, in AdminOperationInput) (*model.CreditPool, error) {
	if in.OwnerID == "" {
		return nil, validationErr("owner_id", "must not be empty")
	}
	if !in.Op.Valid() {
		return nil, validationErr("operation", fmt.Sprintf("unknown operation %q", in.Op))
	}
	if in.Amount <= 0 {
		return nil, validationErr("amount", "must be a positive integer")
	}

	pool, err := s.poolRepo.GetOrCreateAdminPool(ctx, in.OwnerID, adminPoolLabel)
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", in.OwnerID).Msg("Failed to fetch or create admin pool")
		return nil, storageErr(err)
	}

	desc := in.Reason
	var updated *model.CreditPool
	switch in.Op {
	case model.AdminOpAdd:
		if desc == "" {
			desc = fmt.Sprintf("Admin added %d credits", in.Amount)
		}
		updated, err = s.poolRepo.AddCredits(ctx, pool.ID, in.Amount, desc)
	case model.AdminOpSet:
		if desc == "" {
			desc = fmt.Sprintf("Admin set balance to %d credits", in.Amount)
		}
		updated, err = s.poolRepo.SetCredits(ctx, pool.ID, in.Amount, desc)
	case model.AdminOpDeduct:
		if desc == "" {
			desc = fmt.Sprintf("Admin deducted %d credits", in.Amount)
		}
		updated, err = s.poolRepo.RevokeCredits(ctx, pool.ID, in.Amount, desc)
	}
	if err != nil {
		s.logger.Error().Err(err).
			Str("owner_id", in.OwnerID).
			Str("operation", string(in.Op)).
			Int("amount", in.Amount).
			Msg("Admin credit operation failed")
		return nil, storageErr(err)
	}
	s.logger.Info().
		Str("owner_id", in.OwnerID).
		Str("operation", string(in.Op)).
		Int("amount", in.Amount).
		Int("balance_after", updated.CreditsRemaining).
		Msg("Admin credit operation applied")
	s.publishEvent(ctx, "credits.adjusted", updated, in.Amount, desc)
	return updated, nil
}

// Consume spends credits from the next pool to debit. When a concurrent
// request drains the selected pool between the read and the guarded update,
// the debit falls through to the next candidate instead of overspending.
func (s *creditService) Consume(ctx context.Context, ownerID string, amount int, description string) (*model.CreditPool, error) {
	if ownerID == "" {
		return nil, validationErr("owner_id", "must not be empty")
	}
	if amount == 0 {
		amount = 1
	}
	if amount < 0 {
		return nil, validationErr("amount", "must be a positive integer")
	}
	pools, err := s.poolRepo.ListPoolsByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("Failed to list pools for consume")
		return nil, storageErr(err)
	}
	now := s.now()
	for _, candidate := range consumptionOrder(pools, now) {
		if candidate.CreditsRemaining < amount {
			continue
		}
		updated, err := s.poolRepo.ConsumeCredits(ctx, candidate.ID, amount, description)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientCredits) {
				continue // lost a race on this pool, try the next one
			}
			s.logger.Error().Err(err).Str("owner_id", ownerID).Str("pool_id", candidate.ID).Msg("Failed to consume credits")
			return nil, storageErr(err)
		}
		s.logger.Info().
			Str("owner_id", ownerID).
			Str("pool_id", updated.ID).
			Int("amount", amount).
			Int("balance_after", updated.CreditsRemaining).
			Msg("Credits consumed")
		s.publishEvent(ctx, "credits.consumed", updated, amount, description)
		return updated, nil
	}
	return nil, fmt.Errorf("consume %d credits for user %s: %w", amount, ownerID, repository.ErrInsufficientCredits)
}

// ListTransactions pages through the owner's audit trail, newest first.
func (s *creditService) ListTransactions(ctx context.Context, ownerID string, limit, offset int) ([]model.CreditTransaction, error) {
	if ownerID == "" {
		return nil, validationErr("owner_id", "must not be empty")
	}
	txns, err := s.txnRepo.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("Failed to list transactions")
		return nil, storageErr(err)
	}
	return txns, nil
}

// CancelPoolByPaymentReference voids the pool a refunded payment minted.
func (s *creditService) CancelPoolByPaymentReference(ctx context.Context, paymentReference string) error {
	if paymentReference == "" {
		return validationErr("payment_reference", "must not be empty")
	}
	if err := s.poolRepo.CancelPoolByPaymentReference(ctx, paymentReference); err != nil {
		s.logger.Error().Err(err).Str("payment_reference", paymentReference).Msg("Failed to cancel pool")
		return storageErr(err)
	}
	s.logger.Info().Str("payment_reference", paymentReference).Msg("Pool cancelled after refund")
	return nil
}

// consumptionOrder returns the live pools in debit order: subscription pools
// earliest expiry first (the input order), then the admin pool as fallback.
func consumptionOrder(pools []model.CreditPool, now time.Time) []model.CreditPool {
	var ordered []model.CreditPool
	var admin *model.CreditPool
	for i := range pools {
		p := pools[i]
		if !p.IsLive(now) {
			continue
		}
		if p.SourceKind == model.PoolSourceAdmin {
			admin = &pools[i]
			continue
		}
		ordered = append(ordered, p)
	}
	if admin != nil {
		ordered = append(ordered, *admin)
	}
	return ordered
}

// publishEvent fans a ledger mutation out for notifications. Publishing is
// observational: failures are logged and the mutation result stands.
func (s *creditService) publishEvent(ctx context.Context, event string, pool *model.CreditPool, amount int, description string) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	payload := struct {
		Event        string `json:"event"`
		OwnerID      string `json:"owner_id"`
		PoolID       string `json:"pool_id"`
		SourceKind   string `json:"source_kind"`
		Amount       int    `json:"amount"`
		BalanceAfter int    `json:"balance_after"`
		Description  string `json:"description"`
	}{
		Event:        event,
		OwnerID:      pool.OwnerID,
		PoolID:       pool.ID,
		SourceKind:   string(pool.SourceKind),
		Amount:       amount,
		BalanceAfter: pool.CreditsRemaining,
		Description:  description,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("Failed to marshal ledger event")
		return
	}
	if _, err := s.publisher.Publish(ctx, s.topic, data); err != nil {
		s.logger.Error().Err(err).Str("event", event).Str("topic", s.topic).Msg("Failed to publish ledger event")
	}
}

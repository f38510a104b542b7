package service

import (
	"time"

	"designmart/internal/model"
)

// buildCreditStatus derives the read-side ledger view from the owner's pool
// rows. It is a pure function over the rows and the clock: nothing is
// mutated, nothing is cached, and a caller with no pools gets a zeroed view
// rather than an error.
//
// Selection policy: live subscription pools are consumed earliest expiry
// first; ties on expiry break by creation time ascending (first created,
// first debited), which the input ordering from ListPoolsByOwner already
// guarantees. The admin pool is only ever a fallback once no subscription
// pool is live.
func buildCreditStatus(ownerID string, pools []model.CreditPool, now time.Time) model.CreditStatus {
	status := model.CreditStatus{
		OwnerID:       ownerID,
		HasAnyCredits: len(pools) > 0,
	}

	var admin *model.CreditPool
	for i := range pools {
		p := &pools[i]
		switch p.SourceKind {
		case model.PoolSourceAdmin:
			admin = p
		case model.PoolSourceSubscription:
			if p.IsLive(now) {
				status.Subscriptions = append(status.Subscriptions, breakdown(p, now))
				status.TotalAvailable += p.CreditsRemaining
			}
		}
	}

	if admin != nil {
		b := breakdown(admin, now)
		status.Admin = &b
		if admin.IsLive(now) {
			status.TotalAvailable += admin.CreditsRemaining
		}
	}

	next := nextPoolToDebit(pools, now)
	if next == nil {
		return status
	}
	status.IsValid = true
	status.NextPoolID = next.ID
	if next.PlanID != nil {
		status.PlanID = *next.PlanID
	}
	status.PlanLabel = next.PlanLabel
	status.DisplayBalance = next.CreditsRemaining
	return status
}

// nextPoolToDebit picks the pool the next spend will hit: the
// earliest-expiring live subscription pool, else the live admin pool, else
// nil. Relies on the expiry-ascending input order.
func nextPoolToDebit(pools []model.CreditPool, now time.Time) *model.CreditPool {
	var admin *model.CreditPool
	for i := range pools {
		p := &pools[i]
		if !p.IsLive(now) {
			continue
		}
		if p.SourceKind == model.PoolSourceSubscription {
			return p
		}
		admin = p
	}
	return admin
}

func breakdown(p *model.CreditPool, now time.Time) model.PoolBreakdown {
	b := model.PoolBreakdown{
		PoolID:           p.ID,
		PlanLabel:        p.PlanLabel,
		CreditsTotal:     p.CreditsTotal,
		CreditsRemaining: p.CreditsRemaining,
		CreditsUsed:      p.CreditsUsed,
		Status:           p.Status,
		ExpiresAt:        p.ExpiresAt,
		DaysRemaining:    p.DaysRemaining(now),
	}
	if p.PlanID != nil {
		b.PlanID = *p.PlanID
	}
	return b
}

package service

import (
	"testing"
	"time"

	"designmart/internal/model"
)

var statusNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func subPool(id, planID string, remaining, used int, expiresAt time.Time, createdAt time.Time) model.CreditPool {
	pid := planID
	return model.CreditPool{
		ID:               id,
		OwnerID:          "user-1",
		SourceKind:       model.PoolSourceSubscription,
		PlanID:           &pid,
		PlanLabel:        planID + " plan",
		CreditsTotal:     remaining + used,
		CreditsRemaining: remaining,
		CreditsUsed:      used,
		Status:           model.PoolStatusActive,
		StartsAt:         createdAt,
		ExpiresAt:        expiresAt,
		CreatedAt:        createdAt,
	}
}

func adminPool(id string, remaining, used int, expiresAt time.Time) model.CreditPool {
	return model.CreditPool{
		ID:               id,
		OwnerID:          "user-1",
		SourceKind:       model.PoolSourceAdmin,
		PlanLabel:        "Admin grant",
		CreditsTotal:     remaining + used,
		CreditsRemaining: remaining,
		CreditsUsed:      used,
		Status:           model.PoolStatusActive,
		ExpiresAt:        expiresAt,
	}
}

func TestBuildCreditStatusNoPools(t *testing.T) {
	status := buildCreditStatus("user-1", nil, statusNow)
	if status.IsValid {
		t.Error("expected IsValid=false for a user with no pools")
	}
	if status.HasAnyCredits {
		t.Error("expected HasAnyCredits=false for a user with no pools")
	}
	if status.DisplayBalance != 0 || status.TotalAvailable != 0 {
		t.Errorf("expected zero balances, got display=%d total=%d", status.DisplayBalance, status.TotalAvailable)
	}
	if status.NextPoolID != "" {
		t.Errorf("expected no selected pool, got %q", status.NextPoolID)
	}
}

func TestBuildCreditStatusSelectsEarliestExpiry(t *testing.T) {
	// Input arrives expiry-ascending, as the repository guarantees.
	pools := []model.CreditPool{
		subPool("pool-a", "basic", 3, 7, statusNow.Add(2*24*time.Hour), statusNow.Add(-20*24*time.Hour)),
		subPool("pool-b", "premium", 20, 0, statusNow.Add(15*24*time.Hour), statusNow.Add(-5*24*time.Hour)),
	}
	status := buildCreditStatus("user-1", pools, statusNow)
	if !status.IsValid {
		t.Fatal("expected IsValid=true")
	}
	if status.NextPoolID != "pool-a" {
		t.Errorf("expected earliest-expiring pool selected, got %q", status.NextPoolID)
	}
	if status.DisplayBalance != 3 {
		t.Errorf("expected display balance from selected pool only, got %d", status.DisplayBalance)
	}
	if status.TotalAvailable != 23 {
		t.Errorf("expected total across live pools 23, got %d", status.TotalAvailable)
	}
	if status.PlanID != "basic" {
		t.Errorf("expected selected plan basic, got %q", status.PlanID)
	}
}

func TestBuildCreditStatusTieBreakIsStable(t *testing.T) {
	sameExpiry := statusNow.Add(10 * 24 * time.Hour)
	pools := []model.CreditPool{
		subPool("pool-old", "basic", 5, 0, sameExpiry, statusNow.Add(-10*24*time.Hour)),
		subPool("pool-new", "basic", 8, 0, sameExpiry, statusNow.Add(-1*24*time.Hour)),
	}
	for i := 0; i < 5; i++ {
		status := buildCreditStatus("user-1", pools, statusNow)
		if status.NextPoolID != "pool-old" {
			t.Fatalf("run %d: expected first-created pool on expiry tie, got %q", i, status.NextPoolID)
		}
	}
}

func TestBuildCreditStatusSkipsDeadPools(t *testing.T) {
	pools := []model.CreditPool{
		// Expired by clock even though status was never flipped.
		subPool("pool-stale", "basic", 10, 0, statusNow.Add(-time.Hour), statusNow.Add(-40*24*time.Hour)),
		// Drained.
		subPool("pool-empty", "basic", 0, 10, statusNow.Add(5*24*time.Hour), statusNow.Add(-3*24*time.Hour)),
		subPool("pool-live", "premium", 12, 8, statusNow.Add(9*24*time.Hour), statusNow.Add(-2*24*time.Hour)),
	}
	// Cancelled pools never count either.
	cancelled := subPool("pool-cancelled", "elite", 50, 0, statusNow.Add(20*24*time.Hour), statusNow.Add(-1*24*time.Hour))
	cancelled.Status = model.PoolStatusCancelled
	pools = append(pools, cancelled)

	status := buildCreditStatus("user-1", pools, statusNow)
	if status.NextPoolID != "pool-live" {
		t.Errorf("expected the only live pool selected, got %q", status.NextPoolID)
	}
	if status.TotalAvailable != 12 {
		t.Errorf("expected total 12 from the live pool only, got %d", status.TotalAvailable)
	}
	if !status.HasAnyCredits {
		t.Error("expected HasAnyCredits=true when pool rows exist")
	}
	if len(status.Subscriptions) != 1 {
		t.Errorf("expected 1 live subscription in breakdown, got %d", len(status.Subscriptions))
	}
}

func TestBuildCreditStatusAdminFallback(t *testing.T) {
	pools := []model.CreditPool{
		adminPool("pool-admin", 4, 1, statusNow.Add(20*24*time.Hour)),
		subPool("pool-drained", "basic", 0, 10, statusNow.Add(25*24*time.Hour), statusNow.Add(-5*24*time.Hour)),
	}
	status := buildCreditStatus("user-1", pools, statusNow)
	if status.NextPoolID != "pool-admin" {
		t.Errorf("expected admin pool fallback when no subscription pool is live, got %q", status.NextPoolID)
	}
	if status.DisplayBalance != 4 {
		t.Errorf("expected display balance 4 from admin pool, got %d", status.DisplayBalance)
	}
	if status.Admin == nil {
		t.Fatal("expected admin breakdown to be present")
	}
	if status.Admin.CreditsRemaining != 4 {
		t.Errorf("expected admin breakdown remaining 4, got %d", status.Admin.CreditsRemaining)
	}
}

func TestBuildCreditStatusAdminNeverPreemptsSubscription(t *testing.T) {
	pools := []model.CreditPool{
		// The admin pool expires before the subscription pool but still
		// must not be selected while a subscription pool is live.
		adminPool("pool-admin", 100, 0, statusNow.Add(2*24*time.Hour)),
		subPool("pool-sub", "basic", 5, 0, statusNow.Add(30*24*time.Hour), statusNow.Add(-1*24*time.Hour)),
	}
	status := buildCreditStatus("user-1", pools, statusNow)
	if status.NextPoolID != "pool-sub" {
		t.Errorf("expected subscription pool selected over admin pool, got %q", status.NextPoolID)
	}
	if status.TotalAvailable != 105 {
		t.Errorf("expected total 105 across both live pools, got %d", status.TotalAvailable)
	}
	if status.DisplayBalance > status.TotalAvailable {
		t.Error("display balance must never exceed total available")
	}
}

func TestConsumptionOrder(t *testing.T) {
	pools := []model.CreditPool{
		adminPool("pool-admin", 10, 0, statusNow.Add(1*24*time.Hour)),
		subPool("pool-first", "basic", 2, 0, statusNow.Add(3*24*time.Hour), statusNow.Add(-2*24*time.Hour)),
		subPool("pool-second", "premium", 30, 0, statusNow.Add(20*24*time.Hour), statusNow.Add(-1*24*time.Hour)),
	}
	ordered := consumptionOrder(pools, statusNow)
	if len(ordered) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ordered))
	}
	want := []string{"pool-first", "pool-second", "pool-admin"}
	for i, id := range want {
		if ordered[i].ID != id {
			t.Errorf("candidate %d: expected %s, got %s", i, id, ordered[i].ID)
		}
	}
}

func TestDaysRemainingRoundsUp(t *testing.T) {
	p := subPool("pool-a", "basic", 5, 0, statusNow.Add(36*time.Hour), statusNow.Add(-24*time.Hour))
	if got := p.DaysRemaining(statusNow); got != 2 {
		t.Errorf("expected a partial day to count as a full day, got %d", got)
	}
	expired := subPool("pool-b", "basic", 5, 0, statusNow.Add(-time.Hour), statusNow.Add(-24*time.Hour))
	if got := expired.DaysRemaining(statusNow); got != 0 {
		t.Errorf("expected 0 days for an expired pool, got %d", got)
	}
}

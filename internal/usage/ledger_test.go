package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyhub-backend/internal/users"
)

func seedUser(t *testing.T, repo users.Repo, plan string, counters users.UsageCounters, periodStart time.Time) users.User {
	t.Helper()
	user := users.User{
		ID:       "user-1",
		Username: "tester",
		Email:    "tester@example.com",
		Profile: users.Profile{
			StudyGoals:  []string{},
			Preferences: users.DefaultPreferences(),
		},
		Subscription: users.Subscription{
			Plan:        plan,
			Usage:       counters,
			PeriodStart: periodStart,
		},
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func TestCheckDeniesAtCeiling(t *testing.T) {
	repo := users.NewMemoryRepo()
	seedUser(t, repo, users.PlanFree, users.UsageCounters{AIQueries: 50}, today())
	ledger := NewLedger(repo)

	err := ledger.Check(context.Background(), "user-1", ResourceAIQueries)
	if !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}

	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *LimitError, got %T", err)
	}
	if limitErr.Resource != ResourceAIQueries || limitErr.Limit != 50 {
		t.Fatalf("unexpected limit error: %+v", limitErr)
	}

	// repeated checks stay denied until an external reset
	for i := 0; i < 3; i++ {
		if err := ledger.Check(context.Background(), "user-1", ResourceAIQueries); !errors.Is(err, ErrLimitReached) {
			t.Fatalf("check %d: expected denial, got %v", i, err)
		}
	}
}

func TestCheckAllowsBelowCeiling(t *testing.T) {
	repo := users.NewMemoryRepo()
	seedUser(t, repo, users.PlanFree, users.UsageCounters{AIQueries: 49, PDFUploads: 4, ImagesGenerated: 9}, today())
	ledger := NewLedger(repo)

	for _, resource := range []Resource{ResourceAIQueries, ResourcePDFUploads, ResourceImagesGenerated} {
		if err := ledger.Check(context.Background(), "user-1", resource); err != nil {
			t.Fatalf("expected %s allowed, got %v", resource, err)
		}
	}
}

func TestPremiumAlwaysAllowed(t *testing.T) {
	repo := users.NewMemoryRepo()
	seedUser(t, repo, users.PlanPremium, users.UsageCounters{AIQueries: 9999, PDFUploads: 9999, ImagesGenerated: 9999}, today())
	ledger := NewLedger(repo)

	for _, resource := range []Resource{ResourceAIQueries, ResourcePDFUploads, ResourceImagesGenerated} {
		if err := ledger.Check(context.Background(), "user-1", resource); err != nil {
			t.Fatalf("premium should always be allowed for %s, got %v", resource, err)
		}
	}
}

func TestRolloverResetsStaleCounters(t *testing.T) {
	repo := users.NewMemoryRepo()
	yesterday := today().Add(-24 * time.Hour)
	seedUser(t, repo, users.PlanFree, users.UsageCounters{AIQueries: 50}, yesterday)
	ledger := NewLedger(repo)

	if err := ledger.Check(context.Background(), "user-1", ResourceAIQueries); err != nil {
		t.Fatalf("expected stale counters to roll over, got %v", err)
	}

	user, err := repo.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Subscription.Usage.AIQueries != 0 {
		t.Fatalf("expected counter reset, got %d", user.Subscription.Usage.AIQueries)
	}
	if !user.Subscription.PeriodStart.Equal(today()) {
		t.Fatalf("expected period rolled to today, got %v", user.Subscription.PeriodStart)
	}
}

func TestRecordIncrementsCounter(t *testing.T) {
	repo := users.NewMemoryRepo()
	seedUser(t, repo, users.PlanFree, users.UsageCounters{}, today())
	ledger := NewLedger(repo)

	ledger.Record(context.Background(), "user-1", ResourcePDFUploads)
	ledger.Record(context.Background(), "user-1", ResourcePDFUploads)

	user, err := repo.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Subscription.Usage.PDFUploads != 2 {
		t.Fatalf("expected 2 uploads recorded, got %d", user.Subscription.Usage.PDFUploads)
	}
}

func TestSnapshotReportsLimits(t *testing.T) {
	repo := users.NewMemoryRepo()
	seedUser(t, repo, users.PlanFree, users.UsageCounters{AIQueries: 3, PDFUploads: 1}, today())
	ledger := NewLedger(repo)

	snap, err := ledger.Snapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Plan != users.PlanFree {
		t.Fatalf("expected free plan, got %s", snap.Plan)
	}
	if snap.Usage["aiQueries"] != 3 || snap.Usage["pdfUploads"] != 1 || snap.Usage["imagesGenerated"] != 0 {
		t.Fatalf("unexpected usage: %+v", snap.Usage)
	}
	if snap.Limits["aiQueries"] != 50 || snap.Limits["pdfUploads"] != 5 || snap.Limits["imagesGenerated"] != 10 {
		t.Fatalf("unexpected limits: %+v", snap.Limits)
	}
}

func TestSnapshotPremiumUnlimited(t *testing.T) {
	repo := users.NewMemoryRepo()
	seedUser(t, repo, users.PlanPremium, users.UsageCounters{AIQueries: 100}, today())
	ledger := NewLedger(repo)

	snap, err := ledger.Snapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	for resource, limit := range snap.Limits {
		if limit != -1 {
			t.Fatalf("expected unlimited %s, got %d", resource, limit)
		}
	}
}

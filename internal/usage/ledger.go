package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studyhub-backend/internal/shared/telemetry"
	"studyhub-backend/internal/users"
)

// Resource names a metered operation.
type Resource string

const (
	ResourceAIQueries       Resource = "aiQueries"
	ResourcePDFUploads      Resource = "pdfUploads"
	ResourceImagesGenerated Resource = "imagesGenerated"
)

// UpgradeURL is returned alongside quota denials so clients can point
// users at the upgrade flow.
const UpgradeURL = "/api/auth/upgrade"

// freeLimits are the per-day ceilings for free-plan accounts.
var freeLimits = map[Resource]int{
	ResourceAIQueries:       50,
	ResourcePDFUploads:      5,
	ResourceImagesGenerated: 10,
}

// ErrLimitReached indicates the account has exhausted its daily allowance
// for a resource.
var ErrLimitReached = errors.New("daily limit reached")

// LimitError carries the resource and ceiling that triggered a denial.
type LimitError struct {
	Resource Resource
	Limit    int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily limit reached for %s (%d per day)", e.Resource, e.Limit)
}

func (e *LimitError) Unwrap() error { return ErrLimitReached }

// Ledger gates metered operations against per-day usage ceilings and
// records consumption after the operation succeeds.
type Ledger struct {
	Users users.Repo
}

// NewLedger constructs a Ledger over the user store.
func NewLedger(repo users.Repo) *Ledger {
	return &Ledger{Users: repo}
}

// Check returns nil when the account may perform one more unit of the
// resource, or a *LimitError when the ceiling is reached. Premium
// accounts are never denied. Counters from a previous day are rolled
// over lazily before comparison.
func (l *Ledger) Check(ctx context.Context, userID string, resource Resource) error {
	limit, ok := freeLimits[resource]
	if !ok {
		return fmt.Errorf("unknown usage resource %q", resource)
	}

	user, err := l.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Subscription.Plan == users.PlanPremium {
		return nil
	}

	user, err = l.rollover(ctx, user)
	if err != nil {
		return err
	}

	if counterFor(user, resource) >= limit {
		return &LimitError{Resource: resource, Limit: limit}
	}
	return nil
}

// Record advances the counter for a completed operation. Callers invoke
// it only after the gated operation succeeds, so usage is charged
// at-least-once rather than for failed attempts.
func (l *Ledger) Record(ctx context.Context, userID string, resource Resource) {
	if err := l.Users.IncrementUsage(ctx, userID, string(resource)); err != nil {
		telemetry.Error("usage.record_failed", map[string]any{
			"userId":   userID,
			"resource": string(resource),
			"error":    err.Error(),
		})
	}
}

// Snapshot reports the account's current counters, ceilings, and plan.
// Premium ceilings are reported as -1 (unlimited).
type Snapshot struct {
	Plan   string         `json:"plan"`
	Usage  map[string]int `json:"usage"`
	Limits map[string]int `json:"limits"`
}

// Snapshot returns the current usage picture after applying rollover.
func (l *Ledger) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	user, err := l.Users.GetByID(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	user, err = l.rollover(ctx, user)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Plan:   user.Subscription.Plan,
		Usage:  make(map[string]int, len(freeLimits)),
		Limits: make(map[string]int, len(freeLimits)),
	}
	for resource, limit := range freeLimits {
		snap.Usage[string(resource)] = counterFor(user, resource)
		if user.Subscription.Plan == users.PlanPremium {
			snap.Limits[string(resource)] = -1
		} else {
			snap.Limits[string(resource)] = limit
		}
	}
	return snap, nil
}

// rollover zeroes counters whose period started before today (UTC) and
// returns the refreshed user.
func (l *Ledger) rollover(ctx context.Context, user users.User) (users.User, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if !user.Subscription.PeriodStart.Before(today) {
		return user, nil
	}
	if err := l.Users.ResetUsage(ctx, user.ID, today); err != nil {
		return users.User{}, err
	}
	user.Subscription.Usage = users.UsageCounters{}
	user.Subscription.PeriodStart = today
	return user, nil
}

func counterFor(user users.User, resource Resource) int {
	switch resource {
	case ResourceAIQueries:
		return user.Subscription.Usage.AIQueries
	case ResourcePDFUploads:
		return user.Subscription.Usage.PDFUploads
	case ResourceImagesGenerated:
		return user.Subscription.Usage.ImagesGenerated
	}
	return 0
}

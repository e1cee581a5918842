// Package repository declares the Store boundary: the persistence
// operations every usecase depends on, independent of the underlying SQL
// engine. Concrete implementations live under infra/adapter/persistence.
package repository

import (
	"context"
	"time"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// AccountRepository exposes the atomic account-lifecycle operations
// described in the Store component: due-account selection, fetch
// outcome recording, and tier reclassification.
type AccountRepository interface {
	// Get returns the account by id, or (nil, nil) if not found.
	Get(ctx context.Context, id int64) (*entity.Account, error)
	// GetByHandle returns the account by handle, or (nil, nil) if not found.
	GetByHandle(ctx context.Context, handle string) (*entity.Account, error)
	// Create inserts a new account, defaulting to PENDING/MEDIUM.
	Create(ctx context.Context, account *entity.Account) error

	// LockAndSelectDue returns up to n accounts of the given tier with
	// next_fetch_at <= now and status != QUARANTINED, in randomized order.
	LockAndSelectDue(ctx context.Context, tier entity.Tier, n int) ([]*entity.Account, error)
	// SelectStale returns up to n PENDING accounts whose next_fetch_at is
	// older than now-hours, oldest-first. This is the scavenger selection.
	SelectStale(ctx context.Context, hours int, n int) ([]*entity.Account, error)

	// MarkFetchSuccess sets status=OK, clears failures, and advances
	// last/next fetch timestamps.
	MarkFetchSuccess(ctx context.Context, id int64, nextFetchAt time.Time) (bool, error)
	// MarkFetchFailure increments consecutive_failures; quarantines the
	// account if the threshold is reached, otherwise schedules retryAt.
	MarkFetchFailure(ctx context.Context, id int64, retryAt time.Time, maxFailures int) (bool, error)

	// RecomputeProfilingTiers reclassifies every non-quarantined account's
	// tier from its 7-day posting rate and returns the number updated.
	RecomputeProfilingTiers(ctx context.Context, now time.Time) (int, error)

	// ListEligibleForProfiling returns accounts with >= minEnrichments
	// completed enrichments in the last `days` days whose profile is
	// missing or older than staleDays.
	ListEligibleForProfiling(ctx context.Context, days int, minEnrichments int, staleDays int) ([]*entity.Account, error)
}

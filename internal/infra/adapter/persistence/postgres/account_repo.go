package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/repository"
	"github.com/mengke002/info-collector-X/internal/resilience/circuitbreaker"
)

type AccountRepo struct{ db *circuitbreaker.DBCircuitBreaker }

func NewAccountRepo(db *circuitbreaker.DBCircuitBreaker) repository.AccountRepository {
	return &AccountRepo{db: db}
}

func scanAccount(row interface {
	Scan(dest ...interface{}) error
}) (*entity.Account, error) {
	var a entity.Account
	if err := row.Scan(
		&a.ID, &a.Handle, &a.Tier, &a.Status, &a.LastFetchedAt, &a.NextFetchAt,
		&a.ConsecutiveFailures, &a.AvgPostsPerDay, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

const accountColumns = `id, handle, tier, status, last_fetched_at, next_fetch_at, consecutive_failures, avg_posts_per_day, created_at`

func (r *AccountRepo) Get(ctx context.Context, id int64) (*entity.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

func (r *AccountRepo) GetByHandle(ctx context.Context, handle string) (*entity.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE handle = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, handle))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByHandle: %w", err)
	}
	return a, nil
}

func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	if a.Tier == "" {
		a.Tier = entity.TierMedium
	}
	if a.Status == "" {
		a.Status = entity.AccountPending
	}
	if a.NextFetchAt.IsZero() {
		a.NextFetchAt = time.Now().UTC()
	}
	const query = `
INSERT INTO accounts (handle, tier, status, last_fetched_at, next_fetch_at, consecutive_failures, avg_posts_per_day)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (handle) DO NOTHING
RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		a.Handle, a.Tier, a.Status, a.LastFetchedAt, a.NextFetchAt, a.ConsecutiveFailures, a.AvgPostsPerDay,
	).Scan(&a.ID)
	if err == sql.ErrNoRows {
		return nil // handle already existed; account.handle uniqueness enforced
	}
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// LockAndSelectDue returns up to n due, non-quarantined accounts of the
// given tier in randomized order. FOR UPDATE SKIP LOCKED lets concurrent
// fetch workers partition the due set without blocking on each other,
// though the spec notes two overlapping schedulers may still race a
// single account through independent fetch attempts -- this only
// prevents them from reading the exact same locked row.
func (r *AccountRepo) LockAndSelectDue(ctx context.Context, tier entity.Tier, n int) ([]*entity.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
WHERE tier = $1 AND status != $2 AND next_fetch_at <= now()
ORDER BY random()
LIMIT $3
FOR UPDATE SKIP LOCKED`
	return r.queryAccounts(ctx, query, tier, entity.AccountQuarantined, n)
}

// SelectStale is the scavenger selection: PENDING accounts whose
// next_fetch_at drifted more than `hours` into the past, oldest first.
func (r *AccountRepo) SelectStale(ctx context.Context, hours int, n int) ([]*entity.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
WHERE status = $1 AND next_fetch_at < now() - ($2 || ' hours')::interval
ORDER BY next_fetch_at ASC
LIMIT $3
FOR UPDATE SKIP LOCKED`
	return r.queryAccounts(ctx, query, entity.AccountPending, hours, n)
}

func (r *AccountRepo) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]*entity.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queryAccounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := make([]*entity.Account, 0, 16)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("queryAccounts: scan: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepo) MarkFetchSuccess(ctx context.Context, id int64, nextFetchAt time.Time) (bool, error) {
	const query = `
UPDATE accounts SET
    status = $1,
    consecutive_failures = 0,
    last_fetched_at = now(),
    next_fetch_at = $2
WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, entity.AccountOK, nextFetchAt, id)
	if err != nil {
		return false, fmt.Errorf("MarkFetchSuccess: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *AccountRepo) MarkFetchFailure(ctx context.Context, id int64, retryAt time.Time, maxFailures int) (bool, error) {
	const query = `
UPDATE accounts SET
    consecutive_failures = consecutive_failures + 1,
    status = CASE WHEN consecutive_failures + 1 >= $1 THEN $2 ELSE $3 END,
    next_fetch_at = CASE WHEN consecutive_failures + 1 >= $1 THEN next_fetch_at ELSE $4 END
WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, maxFailures, entity.AccountQuarantined, entity.AccountFailed, retryAt, id)
	if err != nil {
		return false, fmt.Errorf("MarkFetchFailure: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RecomputeProfilingTiers reclassifies every non-quarantined account from
// its posts-per-observed-day over the trailing 7 days, denominator
// clamped to [1,7]. New accounts (<3 days old) with zero posts in the
// window are pinned to MEDIUM (cold-start fallback) rather than falling
// through to LOW.
func (r *AccountRepo) RecomputeProfilingTiers(ctx context.Context, now time.Time) (int, error) {
	const query = `
WITH stats AS (
    SELECT
        a.id,
        a.created_at,
        COUNT(p.id) AS post_count,
        LEAST(GREATEST(COALESCE(EXTRACT(DAY FROM (now() - MIN(p.published_at)))::int + 1, 1), 1), 7) AS days_observed
    FROM accounts a
    LEFT JOIN posts p ON p.account_id = a.id AND p.published_at >= now() - interval '7 days'
    WHERE a.status != $1
    GROUP BY a.id, a.created_at
),
classified AS (
    SELECT
        id,
        CASE
            WHEN post_count = 0 AND created_at > now() - interval '3 days' THEN $2
            WHEN (post_count::float / days_observed) > 10 THEN $3
            WHEN (post_count::float / days_observed) > 1 THEN $2
            ELSE $4
        END AS new_tier,
        CASE WHEN days_observed > 0 THEN post_count::float / days_observed ELSE 0 END AS avg_per_day
    FROM stats
)
UPDATE accounts a
SET tier = c.new_tier, avg_posts_per_day = c.avg_per_day
FROM classified c
WHERE a.id = c.id`
	res, err := r.db.ExecContext(ctx, query,
		entity.AccountQuarantined, entity.TierMedium, entity.TierHigh, entity.TierLow,
	)
	if err != nil {
		return 0, fmt.Errorf("RecomputeProfilingTiers: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *AccountRepo) ListEligibleForProfiling(ctx context.Context, days int, minEnrichments int, staleDays int) ([]*entity.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts a
WHERE (
    SELECT COUNT(*) FROM posts p
    JOIN enrichments e ON e.post_id = p.id
    WHERE p.account_id = a.id AND e.status = 'COMPLETED' AND p.published_at >= now() - ($1 || ' days')::interval
) >= $2
AND NOT EXISTS (
    SELECT 1 FROM profiles pr WHERE pr.account_id = a.id AND pr.generated_at >= now() - ($3 || ' days')::interval
)
ORDER BY a.id ASC`
	return r.queryAccounts(ctx, query, days, minEnrichments, staleDays)
}

// Package scheduler implements the per-account fetch state machine, tier
// intervals, the quiet window, and due-account selection described in
// spec §4.5. It owns "when should this account be fetched next", not the
// fetch itself (that's the fetch worker pool).
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/repository"
)

// Scheduler selects due accounts and records fetch outcomes against the
// per-account state machine (PENDING -> OK/FAILED -> QUARANTINED).
type Scheduler struct {
	accounts repository.AccountRepository
	cfg      Config
}

// New builds a Scheduler bound to the given account repository.
func New(accounts repository.AccountRepository, cfg Config) *Scheduler {
	return &Scheduler{accounts: accounts, cfg: cfg}
}

// SelectDue returns up to the configured per-tier batch cap of due accounts
// for the given tier. Drifted PENDING accounts are picked up separately by
// SelectScavenged. Returns (nil, nil) with no DB round-trip during the
// quiet window.
func (s *Scheduler) SelectDue(ctx context.Context, tier entity.Tier, now time.Time) ([]*entity.Account, error) {
	if s.cfg.Quiet.InQuietWindow(now) {
		slog.Info("scheduler: quiet window active, skipping selection", slog.String("tier", string(tier)))
		return nil, nil
	}

	accounts, err := s.accounts.LockAndSelectDue(ctx, tier, s.cfg.BatchCapPerTier)
	if err != nil {
		return nil, fmt.Errorf("select due accounts for tier %s: %w", tier, err)
	}
	return accounts, nil
}

// SelectScavenged returns PENDING accounts whose next_fetch_at has drifted
// past the configured scavenger window, a safety net for accounts missed by
// tiered selection entirely (e.g. a newly-created account whose first
// scheduled fetch silently never ran). Also respects the quiet window.
func (s *Scheduler) SelectScavenged(ctx context.Context, now time.Time) ([]*entity.Account, error) {
	if s.cfg.Quiet.InQuietWindow(now) {
		return nil, nil
	}
	accounts, err := s.accounts.SelectStale(ctx, s.cfg.ScavengerHours, s.cfg.ScavengerCap)
	if err != nil {
		return nil, fmt.Errorf("select scavenged accounts: %w", err)
	}
	return accounts, nil
}

// RecordSuccess transitions the account to OK and schedules its next fetch
// one tier interval out from now, per spec §4.5's success transition.
func (s *Scheduler) RecordSuccess(ctx context.Context, account *entity.Account, now time.Time) error {
	nextFetchAt := now.Add(s.tierInterval(account.Tier))
	ok, err := s.accounts.MarkFetchSuccess(ctx, account.ID, nextFetchAt)
	if err != nil {
		return fmt.Errorf("record fetch success for account %d: %w", account.ID, err)
	}
	if !ok {
		slog.Warn("scheduler: MarkFetchSuccess affected no rows", slog.Int64("account_id", account.ID))
	}
	return nil
}

// RecordFailure transitions the account toward FAILED or QUARANTINED,
// incrementing consecutive_failures and, if the configured threshold isn't
// crossed, scheduling a jittered retry per spec §4.5's failure transition.
func (s *Scheduler) RecordFailure(ctx context.Context, account *entity.Account, now time.Time) error {
	retryAt := now.Add(jitteredDuration(s.cfg.Retry.Min, s.cfg.Retry.Max))
	ok, err := s.accounts.MarkFetchFailure(ctx, account.ID, retryAt, s.cfg.MaxFailures)
	if err != nil {
		return fmt.Errorf("record fetch failure for account %d: %w", account.ID, err)
	}
	if !ok {
		slog.Warn("scheduler: MarkFetchFailure affected no rows", slog.Int64("account_id", account.ID))
	}
	return nil
}

// tierInterval resolves a tier to its configured fetch interval. LOW draws
// uniformly from [LowMin, LowMax) on each call so accounts in the same tier
// don't all land on the same cadence.
func (s *Scheduler) tierInterval(tier entity.Tier) time.Duration {
	switch tier {
	case entity.TierHigh:
		return s.cfg.TierIntervals.High
	case entity.TierMedium:
		return s.cfg.TierIntervals.Medium
	case entity.TierLow:
		return jitteredDuration(s.cfg.TierIntervals.LowMin, s.cfg.TierIntervals.LowMax)
	default:
		return s.cfg.TierIntervals.Medium
	}
}

// RecomputeTiers runs the scheduled tier-reclassification job (spec §4.5),
// reassigning every non-quarantined account's tier from its trailing 7-day
// posting rate. Returns the number of accounts updated.
func (s *Scheduler) RecomputeTiers(ctx context.Context, now time.Time) (int, error) {
	n, err := s.accounts.RecomputeProfilingTiers(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("recompute profiling tiers: %w", err)
	}
	slog.Info("scheduler: tier reclassification completed", slog.Int("accounts_updated", n))
	return n, nil
}

// jitteredDuration returns a uniformly random duration in [min, max). If
// max <= min, min is returned (no jitter).
func jitteredDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	span := max - min
	return min + time.Duration(rand.Int63n(int64(span)))
}

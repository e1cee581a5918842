// Package profile runs the weekly-ish profile analysis job: for each
// account with enough recent activity and a missing or stale profile,
// format its enrichments into a timestamped list, ask the model for a
// structured summary, and overwrite the stored profile. Grounded on the
// teacher's usecase/fetch.Service.runSequential loop -- the same
// process-one-account-then-move-on shape, without the worker pool, since
// spec §4.10 explicitly wants this job sequential rather than parallel
// (each pass consumes a full model context; concurrency adds little).
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/infra/modelclient"
	"github.com/mengke002/info-collector-X/internal/repository"
)

// EnrichmentReader is the read path the profile analyzer needs out of
// the enrichment repository.
type EnrichmentReader interface {
	SelectEnrichedForAccount(ctx context.Context, accountID int64, days int) ([]entity.EnrichedPost, error)
}

// AccountSelector is the read path the profile analyzer needs out of the
// account repository.
type AccountSelector interface {
	ListEligibleForProfiling(ctx context.Context, days int, minEnrichments int, staleDays int) ([]*entity.Account, error)
}

// Service runs one profile analysis batch.
type Service struct {
	Accounts    AccountSelector
	Enrichments EnrichmentReader
	Profiles    repository.ProfileRepository
	Backend     modelclient.Backend
	cfg         Config
}

// NewService builds a profile analyzer Service.
func NewService(accounts AccountSelector, enrichments EnrichmentReader, profiles repository.ProfileRepository, backend modelclient.Backend, cfg Config) *Service {
	return &Service{Accounts: accounts, Enrichments: enrichments, Profiles: profiles, Backend: backend, cfg: cfg}
}

// RunStats summarizes one Run call.
type RunStats struct {
	Eligible  int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Run implements spec §4.10: select eligible accounts, and for each one
// in turn, format its recent activity, call the model, parse the
// response, and upsert the profile. One account's failure does not stop
// the others.
func (s *Service) Run(ctx context.Context, now time.Time) (*RunStats, error) {
	start := time.Now()
	accounts, err := s.Accounts.ListEligibleForProfiling(ctx, s.cfg.Days, s.cfg.MinEnrichments, s.cfg.StaleDays)
	if err != nil {
		return nil, fmt.Errorf("list eligible accounts: %w", err)
	}

	if len(accounts) > s.cfg.UserLimit {
		accounts = accounts[:s.cfg.UserLimit]
	}

	stats := &RunStats{Eligible: len(accounts)}
	for _, account := range accounts {
		if s.analyzeOne(ctx, account, now) {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}

	stats.Duration = time.Since(start)
	slog.Info("profile run completed",
		slog.Int("eligible", stats.Eligible),
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (s *Service) analyzeOne(ctx context.Context, account *entity.Account, now time.Time) bool {
	enrichments, err := s.Enrichments.SelectEnrichedForAccount(ctx, account.ID, s.cfg.Days)
	if err != nil {
		slog.Warn("select enrichments for account failed", slog.Int64("account_id", account.ID), slog.Any("error", err))
		return false
	}
	if len(enrichments) < s.cfg.MinEnrichments {
		return false
	}

	activity := FormatActivity(enrichments)
	prompt := BuildPrompt(account.Handle, activity)

	result, err := s.Backend.TextChat(ctx, prompt, s.cfg.ModelID, s.cfg.Temperature, s.cfg.MaxRetries)
	if err != nil {
		slog.Warn("profile model call failed", slog.Int64("account_id", account.ID), slog.Any("error", err))
		return false
	}

	parsed, err := ParseProfileResponse(result.Content)
	if err != nil {
		slog.Warn("profile response parse failed", slog.Int64("account_id", account.ID), slog.Any("error", err))
		return false
	}

	p := &entity.Profile{
		AccountID:             account.ID,
		Keywords:              parsed.Keywords,
		SentimentTrend:        parsed.SentimentTrend,
		MentionedAssetClasses: parsed.MentionedAssetClasses,
		ContentFormatRatio:    parsed.ContentFormatRatio,
		InteractionGraph:      parsed.InteractionGraph,
		RoleLabel:             parsed.RoleLabel,
		TrajectorySummary:     parsed.TrajectorySummary,
		GeneratedAt:           now,
	}
	if _, err := s.Profiles.Upsert(ctx, p); err != nil {
		slog.Error("profile upsert failed", slog.Int64("account_id", account.ID), slog.Any("error", err))
		return false
	}
	return true
}

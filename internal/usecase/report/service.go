// Package report selects the highest-ranked enriched posts in a time
// window, packs them into a prompt context, fans the context out to
// multiple models in parallel, and persists and publishes whichever
// variants come back. The fan-out-and-collect shape generalizes the
// teacher's multi-channel notification dispatch, adapted here to fan out
// to multiple models and collect every outcome instead of firing and
// forgetting.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/infra/modelclient"
	"github.com/mengke002/info-collector-X/internal/observability/tracing"
	"github.com/mengke002/info-collector-X/internal/repository"
	"github.com/mengke002/info-collector-X/internal/usecase/score"
)

// Service runs one report synthesis pass.
type Service struct {
	Enrichments  repository.EnrichmentRepository
	Reports      repository.ReportRepository
	LightBackend modelclient.Backend
	DeepBackends []modelclient.Backend
	Channels     []PublishChannel
	cfg          Config
}

// NewService builds a report synthesis Service. LightBackend is used for
// every model in cfg.LightModelIDs; DeepBackends must have one entry per
// cfg.DeepModelIDs entry.
func NewService(enrichments repository.EnrichmentRepository, reports repository.ReportRepository, lightBackend modelclient.Backend, deepBackends []modelclient.Backend, channels []PublishChannel, cfg Config) *Service {
	return &Service{
		Enrichments:  enrichments,
		Reports:      reports,
		LightBackend: lightBackend,
		DeepBackends: deepBackends,
		Channels:     channels,
		cfg:          cfg,
	}
}

// VariantResult records one (mode, model) attempt's outcome.
type VariantResult struct {
	Mode     Mode
	ModelID  string
	Success  bool
	ReportID int64
	Err      error
}

// RunStats summarizes one Run call.
type RunStats struct {
	CandidatesConsidered int
	PostsPacked          int
	Variants             []VariantResult
	Duration             time.Duration
}

// AnySucceeded reports whether at least one variant was persisted.
func (s *RunStats) AnySucceeded() bool {
	for _, v := range s.Variants {
		if v.Success {
			return true
		}
	}
	return false
}

// Run implements spec §4.9 steps 1-6: select candidates, rank, pack
// context for both the light and deep modes, fan each mode's prompt out
// to its configured models in parallel, and persist and publish every
// successful variant. A model or publish failure never aborts the run;
// the overall error return is non-nil only when candidate selection
// itself fails.
func (s *Service) Run(ctx context.Context, now time.Time) (*RunStats, error) {
	start := time.Now()
	windowEnd := now
	windowStart := now.Add(-time.Duration(s.cfg.HoursBack) * time.Hour)

	candidateCap := s.cfg.Limit * s.cfg.CandidateMultiplier
	candidates, err := s.Enrichments.SelectEnrichedInWindow(ctx, windowStart, windowEnd, candidateCap, s.cfg.ExcludeTags)
	if err != nil {
		return nil, fmt.Errorf("select enriched posts: %w", err)
	}

	stats := &RunStats{CandidatesConsidered: len(candidates)}
	if len(candidates) == 0 {
		stats.Duration = time.Since(start)
		return stats, nil
	}

	ranked := score.RankAll(candidates, s.cfg.Score)
	if len(ranked) > s.cfg.Limit {
		ranked = ranked[:s.cfg.Limit]
	}
	stats.PostsPacked = len(ranked)

	lightCtx, lightSources := PackContext(ranked, ModeLight, s.cfg.MaxContextChars)
	deepCtx, deepSources := PackContext(ranked, ModeDeep, s.cfg.MaxContextChars)

	lightBackends := make([]modelclient.Backend, len(s.cfg.LightModelIDs))
	for i := range lightBackends {
		lightBackends[i] = s.LightBackend
	}

	lightResults := s.fanOut(ctx, ModeLight, BuildLightPrompt(lightCtx), lightBackends, s.cfg.LightModelIDs)
	deepResults := s.fanOut(ctx, ModeDeep, BuildDeepPrompt(deepCtx), s.DeepBackends, s.cfg.DeepModelIDs)

	stats.Variants = append(stats.Variants, s.finishVariants(ctx, ModeLight, entity.ReportDailyLight, lightResults, lightSources, windowStart, windowEnd, len(ranked), now, nil)...)
	stats.Variants = append(stats.Variants, s.finishVariants(ctx, ModeDeep, entity.ReportDailyDeep, deepResults, deepSources, windowStart, windowEnd, len(ranked), now, nil)...)

	stats.Duration = time.Since(start)
	slog.Info("report run completed",
		slog.Int("candidates", stats.CandidatesConsidered),
		slog.Int("posts_packed", stats.PostsPacked),
		slog.Int("variants", len(stats.Variants)),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// fanOut dispatches one mode's prompt to every configured model
// concurrently, tracing the overall fan-out as a single span per spec's
// ambient observability note.
func (s *Service) fanOut(ctx context.Context, mode Mode, prompt string, backends []modelclient.Backend, modelIDs []string) []modelclient.ModelResult {
	if len(backends) == 0 {
		return nil
	}
	ctx, span := tracing.GetTracer().Start(ctx, fmt.Sprintf("report.fanout.%s", mode))
	defer span.End()

	return modelclient.ParallelFanOut(ctx, backends, modelIDs, func(ctx context.Context, backend modelclient.Backend, modelID string) (*modelclient.ChatResult, error) {
		ctx, callSpan := tracing.GetTracer().Start(ctx, "report.model_call")
		defer callSpan.End()
		return backend.TextChat(ctx, prompt, modelID, s.cfg.Temperature, s.cfg.MaxRetries)
	})
}

// finishVariants post-processes every model result for one mode: wrap
// successes with the standard header and sources appendix, rewrite
// citations, persist, and publish best-effort.
func (s *Service) finishVariants(ctx context.Context, mode Mode, kind entity.ReportKind, results []modelclient.ModelResult, sources map[string]Source, windowStart, windowEnd time.Time, postCount int, now time.Time, accountID *int64) []VariantResult {
	variants := make([]VariantResult, 0, len(results))
	for _, result := range results {
		v := VariantResult{Mode: mode, ModelID: result.ModelID}
		if result.Err != nil {
			v.Err = result.Err
			slog.Warn("report model call failed", slog.String("mode", string(mode)), slog.String("model_id", result.ModelID), slog.Any("error", result.Err))
			variants = append(variants, v)
			continue
		}

		body := RewriteCitations(result.Result.Content, sources)
		title := reportTitle(kind, now)
		full := BuildHeader(title, now, windowStart, windowEnd, postCount) + body + BuildSourcesAppendix(sources)

		report := &entity.Report{
			Kind:        kind,
			Title:       title,
			Body:        full,
			WindowStart: windowStart,
			WindowEnd:   windowEnd,
			AccountID:   accountID,
			ModelName:   result.ModelID,
			CreatedAt:   now,
		}
		if err := report.Validate(); err != nil {
			v.Err = err
			variants = append(variants, v)
			continue
		}

		if _, err := s.Reports.Insert(ctx, report); err != nil {
			v.Err = fmt.Errorf("insert report: %w", err)
			slog.Error("report insert failed", slog.String("mode", string(mode)), slog.Any("error", err))
			variants = append(variants, v)
			continue
		}

		v.Success = true
		v.ReportID = report.ID
		PublishAll(ctx, report, s.Channels)
		variants = append(variants, v)
	}
	return variants
}

func reportTitle(kind entity.ReportKind, now time.Time) string {
	switch kind {
	case entity.ReportDailyDeep:
		return fmt.Sprintf("Deep Digest — %s", now.Format("2006-01-02"))
	case entity.ReportMonthlyKOL:
		return fmt.Sprintf("Account Profile Report — %s", now.Format("2006-01-02"))
	default:
		return fmt.Sprintf("Daily Digest — %s", now.Format("2006-01-02"))
	}
}

// AccountStats summarizes one RunForAccount call.
type AccountStats struct {
	PostsConsidered int
	Variant         VariantResult
	Duration        time.Duration
}

// RunForAccount implements the kol_report task: synthesize a single
// MONTHLY_KOL report scoped to one account's own posting history over the
// last days days, using the same rank/pack/fan-out/persist/publish
// pipeline as Run but against one deep backend instead of the full
// multi-model fan-out.
func (s *Service) RunForAccount(ctx context.Context, account *entity.Account, days int, now time.Time) (*AccountStats, error) {
	start := time.Now()
	windowEnd := now
	windowStart := now.Add(-time.Duration(days) * 24 * time.Hour)

	posts, err := s.Enrichments.SelectEnrichedForAccount(ctx, account.ID, days)
	if err != nil {
		return nil, fmt.Errorf("select enriched posts for account %d: %w", account.ID, err)
	}

	stats := &AccountStats{PostsConsidered: len(posts)}
	if len(posts) == 0 {
		stats.Duration = time.Since(start)
		return stats, nil
	}

	ranked := score.RankAll(posts, s.cfg.Score)
	if len(ranked) > s.cfg.Limit {
		ranked = ranked[:s.cfg.Limit]
	}

	packed, sources := PackContext(ranked, ModeDeep, s.cfg.MaxContextChars)
	backend := s.LightBackend
	if len(s.DeepBackends) > 0 {
		backend = s.DeepBackends[0]
	}
	var modelID string
	if len(s.cfg.DeepModelIDs) > 0 {
		modelID = s.cfg.DeepModelIDs[0]
	} else {
		modelID = s.cfg.LightModelIDs[0]
	}

	results := s.fanOut(ctx, ModeDeep, BuildKOLPrompt(account.Handle, packed), []modelclient.Backend{backend}, []string{modelID})
	variants := s.finishVariants(ctx, ModeDeep, entity.ReportMonthlyKOL, results, sources, windowStart, windowEnd, len(ranked), now, &account.ID)
	if len(variants) > 0 {
		stats.Variant = variants[0]
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

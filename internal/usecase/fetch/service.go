// Package fetch runs the gateway-fetch-then-store step of the pipeline
// over a batch of due accounts, generalized from the teacher's RSS
// crawl/summarize fetch pool: a bounded worker pool gated by a semaphore
// channel, now fetching an account's posts instead of a feed's articles
// and committing them through the Store instead of an AI summarizer.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/infra/gateway"
	"github.com/mengke002/info-collector-X/internal/repository"
)

// GatewayClient fetches one account's recent posts from the ingest
// gateway. Satisfied by *gateway.Client in production.
type GatewayClient interface {
	FetchUserPosts(ctx context.Context, handle string) ([]gateway.PostDraft, error)
}

// SchedulerHook records the outcome of one account's fetch attempt against
// the account state machine. Satisfied by *scheduler.Scheduler.
type SchedulerHook interface {
	RecordSuccess(ctx context.Context, account *entity.Account, now time.Time) error
	RecordFailure(ctx context.Context, account *entity.Account, now time.Time) error
}

// Service runs fetch batches over a set of accounts.
type Service struct {
	Gateway   GatewayClient
	PostRepo  repository.PostRepository
	Scheduler SchedulerHook
	cfg       Config
}

// NewService builds a fetch Service.
func NewService(gatewayClient GatewayClient, postRepo repository.PostRepository, scheduler SchedulerHook, cfg Config) *Service {
	return &Service{Gateway: gatewayClient, PostRepo: postRepo, Scheduler: scheduler, cfg: cfg}
}

// BatchStats summarizes one RunBatch call.
type BatchStats struct {
	Accounts   int
	Succeeded  int
	Failed     int
	PostsFound int64
	PostsNew   int64
	Duration   time.Duration
}

// RunBatchOptions adjusts a single RunBatch call's trailing-delay
// behavior. The zero value runs the batch's normal pacing.
type RunBatchOptions struct {
	// SkipTrailingDelay omits the end-of-batch jitter sleep, for a caller
	// that already knows no further batch follows this one and so has
	// nothing left to pace against (full_crawl's final tier).
	SkipTrailingDelay bool
}

// RunBatch fetches every given account's posts, upserts new ones, and
// records the outcome against the scheduler. Per spec §4.6: when the pool
// is sized 1, accounts are processed sequentially with 6-12s jitter
// between each; when sized >1, accounts are processed concurrently and a
// single 60-120s jitter sleep runs once at the end of the batch. Ordering
// across accounts carries no guarantee either way; within one account, all
// of its posts are inserted as a single transaction (see PostRepository).
func (s *Service) RunBatch(ctx context.Context, accounts []*entity.Account) (*BatchStats, error) {
	return s.RunBatchWithOptions(ctx, accounts, RunBatchOptions{})
}

// RunBatchWithOptions is RunBatch with control over the trailing pacing
// delay, for callers chaining several batches back to back (full_crawl).
func (s *Service) RunBatchWithOptions(ctx context.Context, accounts []*entity.Account, opts RunBatchOptions) (*BatchStats, error) {
	start := time.Now()
	stats := &BatchStats{Accounts: len(accounts)}

	if s.cfg.PoolSize <= 1 {
		s.runSequential(ctx, accounts, stats)
	} else {
		if err := s.runConcurrent(ctx, accounts, stats); err != nil {
			return stats, err
		}
		if !opts.SkipTrailingDelay {
			if err := sleepJitter(ctx, s.cfg.BatchJitterMin, s.cfg.BatchJitterMax); err != nil {
				return stats, err
			}
		}
	}

	stats.Duration = time.Since(start)
	slog.Info("fetch batch completed",
		slog.Int("accounts", stats.Accounts),
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("failed", stats.Failed),
		slog.Int64("posts_found", stats.PostsFound),
		slog.Int64("posts_new", stats.PostsNew),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (s *Service) runSequential(ctx context.Context, accounts []*entity.Account, stats *BatchStats) {
	for i, account := range accounts {
		s.fetchOne(ctx, account, stats)
		if i < len(accounts)-1 {
			if err := sleepJitter(ctx, s.cfg.SingleAccountJitterMin, s.cfg.SingleAccountJitterMax); err != nil {
				return
			}
		}
	}
}

func (s *Service) runConcurrent(ctx context.Context, accounts []*entity.Account, stats *BatchStats) error {
	sem := make(chan struct{}, s.cfg.PoolSize)
	eg, egCtx := errgroup.WithContext(ctx)

	results := make(chan *BatchStats, len(accounts))
	for _, account := range accounts {
		account := account
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			local := &BatchStats{}
			s.fetchOne(egCtx, account, local)
			results <- local
			return nil
		})
	}
	err := eg.Wait()
	close(results)

	for local := range results {
		stats.Succeeded += local.Succeeded
		stats.Failed += local.Failed
		stats.PostsFound += local.PostsFound
		stats.PostsNew += local.PostsNew
	}
	return err
}

func (s *Service) fetchOne(ctx context.Context, account *entity.Account, stats *BatchStats) {
	now := time.Now()
	drafts, err := s.Gateway.FetchUserPosts(ctx, account.Handle)
	if err != nil {
		slog.Warn("gateway fetch failed", slog.String("handle", account.Handle), slog.Any("error", err))
		stats.Failed++
		if recErr := s.Scheduler.RecordFailure(ctx, account, now); recErr != nil {
			slog.Error("failed to record fetch failure", slog.Int64("account_id", account.ID), slog.Any("error", recErr))
		}
		return
	}

	stats.PostsFound += int64(len(drafts))

	posts := make([]*entity.Post, 0, len(drafts))
	for _, draft := range drafts {
		posts = append(posts, &entity.Post{
			AccountID:   account.ID,
			PostURL:     draft.PostURL,
			Body:        draft.Body,
			Kind:        draft.Kind,
			MediaURLs:   draft.MediaURLs,
			PublishedAt: draft.PublishedAt,
		})
	}

	inserted, err := s.PostRepo.InsertPosts(ctx, posts)
	if err != nil {
		slog.Warn("insert posts failed", slog.String("handle", account.Handle), slog.Any("error", err))
		stats.Failed++
		if recErr := s.Scheduler.RecordFailure(ctx, account, now); recErr != nil {
			slog.Error("failed to record fetch failure", slog.Int64("account_id", account.ID), slog.Any("error", recErr))
		}
		return
	}

	stats.PostsNew += int64(inserted)
	stats.Succeeded++
	if err := s.Scheduler.RecordSuccess(ctx, account, now); err != nil {
		slog.Error("failed to record fetch success", slog.Int64("account_id", account.ID), slog.Any("error", err))
	}
}

// sleepJitter sleeps a uniformly random duration in [min, max], returning
// early with ctx.Err() if the context is cancelled first.
func sleepJitter(ctx context.Context, min, max time.Duration) error {
	if max <= min {
		return sleepOrDone(ctx, min)
	}
	span := max - min
	d := min + time.Duration(rand.Int63n(int64(span)))
	return sleepOrDone(ctx, d)
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("jitter sleep interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

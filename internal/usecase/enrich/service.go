// Package enrich claims un-enriched posts, routes each to a text or vision
// model depending on its media, parses the model's structured output, and
// commits the result. Generalized from the teacher's
// usecase/fetch/service.go worker-pool-with-semaphore shape (there:
// summarySem gating concurrent AI summarization calls; here: separate
// text/vision semaphores gating concurrent enrichment calls) plus the
// teacher's createSummarizer-style "pick a backend for this call" dispatch
// generalized from "text model vs vision model, primary vs fallback".
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/infra/imageproc"
	"github.com/mengke002/info-collector-X/internal/infra/modelclient"
	"github.com/mengke002/info-collector-X/internal/repository"
)

// ImageProcessor pre-downloads and resizes post media for vision calls.
// Satisfied by *imageproc.Processor.
type ImageProcessor interface {
	ProcessAll(ctx context.Context, urls []string) []imageproc.Result
}

// Service runs one enrichment batch.
type Service struct {
	Repo                   repository.EnrichmentRepository
	Images                 ImageProcessor
	TextBackend            modelclient.Backend
	VisionPrimaryBackend   modelclient.Backend
	VisionSecondaryBackend modelclient.Backend
	cfg                    Config
}

// NewService builds an enrichment Service.
func NewService(repo repository.EnrichmentRepository, images ImageProcessor, textBackend, visionPrimary, visionSecondary modelclient.Backend, cfg Config) *Service {
	return &Service{
		Repo:                   repo,
		Images:                 images,
		TextBackend:            textBackend,
		VisionPrimaryBackend:   visionPrimary,
		VisionSecondaryBackend: visionSecondary,
		cfg:                    cfg,
	}
}

// RunStats summarizes one Run call.
type RunStats struct {
	Claimed   int
	Completed int
	Failed    int
	Duration  time.Duration
}

// Run claims up to the configured batch size of eligible posts and
// enriches each one, per spec §4.7.
func (s *Service) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	posts, err := s.Repo.ClaimPendingEnrichments(ctx, s.cfg.BatchSize, s.cfg.HoursBack)
	if err != nil {
		return nil, fmt.Errorf("claim pending enrichments: %w", err)
	}

	stats := &RunStats{Claimed: len(posts)}
	if len(posts) == 0 {
		stats.Duration = time.Since(start)
		return stats, nil
	}

	imageResults := s.preprocessImages(ctx, posts)

	textSem := make(chan struct{}, s.cfg.TextWorkers)
	visionSem := make(chan struct{}, s.cfg.VisionWorkers)
	eg, egCtx := errgroup.WithContext(ctx)

	results := make(chan bool, len(posts))
	for _, post := range posts {
		post := post
		eg.Go(func() error {
			images := selectSuccessfulImages(post.MediaURLs, imageResults, s.cfg.MaxImagesPerPost)
			useVision := s.cfg.ImageMode == ImageModeInlineBase64 && len(images) > 0

			var sem chan struct{}
			if useVision {
				sem = visionSem
			} else {
				sem = textSem
			}
			sem <- struct{}{}
			defer func() { <-sem }()

			completed := s.enrichOne(egCtx, post, images, useVision)
			results <- completed
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return stats, fmt.Errorf("enrichment batch: %w", err)
	}
	close(results)

	for completed := range results {
		if completed {
			stats.Completed++
		} else {
			stats.Failed++
		}
	}

	stats.Duration = time.Since(start)
	slog.Info("enrichment run completed",
		slog.Int("claimed", stats.Claimed),
		slog.Int("completed", stats.Completed),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// preprocessImages collects every media URL across the claimed batch and
// resolves them once through the shared-cache image processor, so posts
// that reference the same media (retweets, shared images) only pay the
// download cost once.
func (s *Service) preprocessImages(ctx context.Context, posts []*entity.Post) map[string]imageproc.Result {
	if s.cfg.ImageMode != ImageModeInlineBase64 {
		return nil
	}

	urlSet := make(map[string]struct{})
	for _, post := range posts {
		for _, url := range post.MediaURLs {
			urlSet[url] = struct{}{}
		}
	}
	if len(urlSet) == 0 {
		return nil
	}

	urls := make([]string, 0, len(urlSet))
	for url := range urlSet {
		urls = append(urls, url)
	}

	results := s.Images.ProcessAll(ctx, urls)
	byURL := make(map[string]imageproc.Result, len(results))
	for _, r := range results {
		byURL[r.URL] = r
	}
	return byURL
}

// selectSuccessfulImages filters a post's media URLs down to the ones that
// processed successfully, in the post's original order, capped at
// maxImages so a post with unusually many attachments doesn't blow out the
// vision prompt's context. maxImages <= 0 means no cap.
func selectSuccessfulImages(mediaURLs []string, byURL map[string]imageproc.Result, maxImages int) []imageproc.Result {
	if byURL == nil {
		return nil
	}
	images := make([]imageproc.Result, 0, len(mediaURLs))
	for _, url := range mediaURLs {
		if r, ok := byURL[url]; ok && r.Success {
			images = append(images, r)
			if maxImages > 0 && len(images) >= maxImages {
				break
			}
		}
	}
	return images
}

// enrichOne dispatches a single post to the text or vision path, parses the
// response, and commits the result. Returns true if the enrichment
// completed, false if it was committed as FAILED.
func (s *Service) enrichOne(ctx context.Context, post *entity.Post, images []imageproc.Result, useVision bool) bool {
	var (
		result  *modelclient.ChatResult
		callErr error
	)

	if useVision {
		result, callErr = s.callVision(ctx, post, images)
	} else {
		prompt := BuildTextPrompt(post)
		result, callErr = s.TextBackend.TextChat(ctx, prompt, s.cfg.TextModelID, s.cfg.Temperature, s.cfg.MaxRetries)
	}

	if callErr != nil {
		s.commitFailure(ctx, post.ID, fmt.Sprintf("model call failed: %v", callErr), "")
		return false
	}

	parsed, parseErr := ParseEnrichmentResponse(result.Content)
	if parseErr != nil {
		s.commitFailure(ctx, post.ID, fmt.Sprintf("parse failure: %v", parseErr), result.Model)
		return false
	}

	enrichment := toEnrichment(post.ID, parsed, result.Model)
	if _, err := s.Repo.CommitEnrichment(ctx, enrichment); err != nil {
		slog.Error("commit enrichment failed", slog.Int64("post_id", post.ID), slog.Any("error", err))
		return false
	}
	return true
}

// callVision builds the vision prompt and tries the primary vision model,
// falling back to the secondary on failure, per spec §4.7 step 5. If image
// pre-processing left no usable images at all (all downloads failed), the
// caller never reaches this path -- useVision is already false in that case.
func (s *Service) callVision(ctx context.Context, post *entity.Post, images []imageproc.Result) (*modelclient.ChatResult, error) {
	prompt := BuildVisionPrompt(post, len(images))
	attachments := make([]modelclient.ImageAttachment, 0, len(images))
	for _, img := range images {
		attachments = append(attachments, modelclient.ImageAttachment{Kind: modelclient.ImageInlineBase64, Value: img.Base64})
	}

	backends := []modelclient.Backend{s.VisionPrimaryBackend, s.VisionSecondaryBackend}
	modelIDs := []string{s.cfg.PrimaryVisionModelID, s.cfg.SecondaryVisionModelID}

	return modelclient.SequentialFanOut(ctx, backends, modelIDs, func(ctx context.Context, backend modelclient.Backend, modelID string) (*modelclient.ChatResult, error) {
		return backend.VisionChat(ctx, prompt, modelID, s.cfg.Temperature, s.cfg.MaxRetries, attachments)
	})
}

func (s *Service) commitFailure(ctx context.Context, postID int64, reason string, modelName string) {
	enrichment := &entity.Enrichment{
		PostID:             postID,
		Status:             entity.EnrichmentFailed,
		DeepInterpretation: reason,
		ModelName:          modelName,
	}
	if _, err := s.Repo.CommitEnrichment(ctx, enrichment); err != nil {
		slog.Error("commit enrichment failure failed", slog.Int64("post_id", postID), slog.Any("error", err))
	}
}

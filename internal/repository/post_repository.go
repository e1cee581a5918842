package repository

import (
	"context"
	"time"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// PostRepository exposes post ingest and window-based retrieval.
type PostRepository interface {
	// InsertPosts inserts any posts whose post_url is not already present
	// and returns the count of newly inserted rows. Must execute as a
	// single transaction per caller-supplied batch (one account's fetch).
	InsertPosts(ctx context.Context, posts []*entity.Post) (int, error)
}

// EnrichmentRepository exposes the claim/commit lifecycle for enrichments
// and the windowed read used by scoring and report synthesis.
type EnrichmentRepository interface {
	// ClaimPendingEnrichments returns up to n posts published within the
	// last hoursBack hours that have no enrichment row or a PENDING one,
	// inserting a PENDING placeholder for each returned post in the same
	// transaction. This insert is the claim.
	ClaimPendingEnrichments(ctx context.Context, n int, hoursBack int) ([]*entity.Post, error)

	// CommitEnrichment upserts the final enrichment row for a post.
	CommitEnrichment(ctx context.Context, e *entity.Enrichment) (bool, error)

	// SelectEnrichedInWindow returns up to cap enriched posts published in
	// [start, end], excluding any whose tag is in excludeTags, joined with
	// the owning account's handle.
	SelectEnrichedInWindow(ctx context.Context, start, end time.Time, cap int, excludeTags []string) ([]entity.EnrichedPost, error)

	// SelectEnrichedForAccount returns every completed enrichment for one
	// account's posts published in the last `days` days, oldest-first,
	// joined with the owning account's handle. Used by the profile
	// analyzer to format one account's recent activity for the model.
	SelectEnrichedForAccount(ctx context.Context, accountID int64, days int) ([]entity.EnrichedPost, error)
}

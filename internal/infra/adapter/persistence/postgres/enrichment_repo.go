package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/repository"
	"github.com/mengke002/info-collector-X/internal/resilience/circuitbreaker"
)

type EnrichmentRepo struct{ db *circuitbreaker.DBCircuitBreaker }

func NewEnrichmentRepo(db *circuitbreaker.DBCircuitBreaker) repository.EnrichmentRepository {
	return &EnrichmentRepo{db: db}
}

// ClaimPendingEnrichments selects posts needing enrichment and inserts a
// PENDING placeholder for each in the same transaction. FOR UPDATE SKIP
// LOCKED makes a concurrently running claim skip the rows this
// transaction holds until it commits; after that, the PENDING
// placeholder still matches the selection, so a later claim can return
// the same post again until its enrichment is committed as COMPLETED or
// FAILED. The
// breaker has no transaction-spanning Execute, so the transaction itself
// is opened on the underlying connection directly; every other query in
// this file runs through the breaker.
func (r *EnrichmentRepo) ClaimPendingEnrichments(ctx context.Context, n int, hoursBack int) ([]*entity.Post, error) {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ClaimPendingEnrichments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const selectQuery = `
SELECT p.id, p.account_id, p.post_url, p.body, p.kind, p.media_urls, p.published_at, p.created_at
FROM posts p
LEFT JOIN enrichments e ON e.post_id = p.id
WHERE p.published_at >= now() - ($1 || ' hours')::interval
  AND (e.post_id IS NULL OR e.status = $2)
ORDER BY p.published_at ASC
LIMIT $3
FOR UPDATE OF p SKIP LOCKED`

	rows, err := tx.QueryContext(ctx, selectQuery, hoursBack, entity.EnrichmentPending, n)
	if err != nil {
		return nil, fmt.Errorf("ClaimPendingEnrichments: select: %w", err)
	}
	posts := make([]*entity.Post, 0, n)
	for rows.Next() {
		var p entity.Post
		var mediaURLs []string
		if err := rows.Scan(&p.ID, &p.AccountID, &p.PostURL, &p.Body, &p.Kind, pgArrayScanner(&mediaURLs), &p.PublishedAt, &p.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("ClaimPendingEnrichments: scan: %w", err)
		}
		p.MediaURLs = mediaURLs
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("ClaimPendingEnrichments: rows: %w", err)
	}
	_ = rows.Close()

	if len(posts) == 0 {
		return nil, tx.Commit()
	}

	const placeholderQuery = `
INSERT INTO enrichments (post_id, status, summary, tag, content_type, entities, deep_interpretation, image_description, model_name, created_at, updated_at)
VALUES ($1, $2, '', '', '', '[]', '', NULL, '', now(), now())
ON CONFLICT (post_id) DO NOTHING`
	for _, p := range posts {
		if _, err := tx.ExecContext(ctx, placeholderQuery, p.ID, entity.EnrichmentPending); err != nil {
			return nil, fmt.Errorf("ClaimPendingEnrichments: placeholder: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ClaimPendingEnrichments: commit: %w", err)
	}
	return posts, nil
}

func (r *EnrichmentRepo) CommitEnrichment(ctx context.Context, e *entity.Enrichment) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, fmt.Errorf("CommitEnrichment: validate: %w", err)
	}
	entitiesJSON, err := json.Marshal(e.Entities)
	if err != nil {
		return false, fmt.Errorf("CommitEnrichment: marshal entities: %w", err)
	}

	const query = `
INSERT INTO enrichments (post_id, status, summary, tag, content_type, entities, deep_interpretation, image_description, model_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
ON CONFLICT (post_id) DO UPDATE SET
    status = EXCLUDED.status,
    summary = EXCLUDED.summary,
    tag = EXCLUDED.tag,
    content_type = EXCLUDED.content_type,
    entities = EXCLUDED.entities,
    deep_interpretation = EXCLUDED.deep_interpretation,
    image_description = EXCLUDED.image_description,
    model_name = EXCLUDED.model_name,
    updated_at = now()`
	_, err = r.db.ExecContext(ctx, query,
		e.PostID, e.Status, e.Summary, e.Tag, e.ContentType, entitiesJSON,
		e.DeepInterpretation, e.ImageDescription, e.ModelName,
	)
	if err != nil {
		return false, fmt.Errorf("CommitEnrichment: %w", err)
	}
	return true, nil
}

func (r *EnrichmentRepo) SelectEnrichedInWindow(ctx context.Context, start, end time.Time, cap int, excludeTags []string) ([]entity.EnrichedPost, error) {
	const query = `
SELECT
    p.id, p.account_id, p.post_url, p.body, p.kind, p.media_urls, p.published_at, p.created_at,
    e.status, e.summary, e.tag, e.content_type, e.entities, e.deep_interpretation, e.image_description, e.model_name, e.created_at, e.updated_at,
    a.handle
FROM posts p
JOIN enrichments e ON e.post_id = p.id
JOIN accounts a ON a.id = p.account_id
WHERE p.published_at BETWEEN $1 AND $2
  AND e.status = $3
  AND ($4::text[] IS NULL OR NOT (e.tag = ANY($4)))
ORDER BY p.published_at DESC
LIMIT $5`

	var excludeArg interface{}
	if len(excludeTags) > 0 {
		excludeArg = stringArray(excludeTags)
	}

	rows, err := r.db.QueryContext(ctx, query, start, end, entity.EnrichmentCompleted, excludeArg, cap)
	if err != nil {
		return nil, fmt.Errorf("SelectEnrichedInWindow: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEnrichedPosts(rows, "SelectEnrichedInWindow", cap)
}

// SelectEnrichedForAccount implements the profile analyzer's per-account
// read: every completed enrichment for one account's posts in the last
// `days` days, oldest-first so the formatted activity list reads
// chronologically.
func (r *EnrichmentRepo) SelectEnrichedForAccount(ctx context.Context, accountID int64, days int) ([]entity.EnrichedPost, error) {
	const query = `
SELECT
    p.id, p.account_id, p.post_url, p.body, p.kind, p.media_urls, p.published_at, p.created_at,
    e.status, e.summary, e.tag, e.content_type, e.entities, e.deep_interpretation, e.image_description, e.model_name, e.created_at, e.updated_at,
    a.handle
FROM posts p
JOIN enrichments e ON e.post_id = p.id
JOIN accounts a ON a.id = p.account_id
WHERE p.account_id = $1
  AND e.status = $2
  AND p.published_at >= now() - ($3 || ' days')::interval
ORDER BY p.published_at ASC`

	rows, err := r.db.QueryContext(ctx, query, accountID, entity.EnrichmentCompleted, days)
	if err != nil {
		return nil, fmt.Errorf("SelectEnrichedForAccount: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEnrichedPosts(rows, "SelectEnrichedForAccount", 0)
}

// scanEnrichedPosts decodes every row of an enriched-post-shaped query
// into the shared entity.EnrichedPost join, shared by the windowed and
// per-account reads above.
func scanEnrichedPosts(rows *sql.Rows, op string, sizeHint int) ([]entity.EnrichedPost, error) {
	result := make([]entity.EnrichedPost, 0, sizeHint)
	for rows.Next() {
		var ep entity.EnrichedPost
		var mediaURLs []string
		var entitiesJSON []byte
		if err := rows.Scan(
			&ep.Post.ID, &ep.Post.AccountID, &ep.Post.PostURL, &ep.Post.Body, &ep.Post.Kind, pgArrayScanner(&mediaURLs), &ep.Post.PublishedAt, &ep.Post.CreatedAt,
			&ep.Enrichment.Status, &ep.Enrichment.Summary, &ep.Enrichment.Tag, &ep.Enrichment.ContentType, &entitiesJSON,
			&ep.Enrichment.DeepInterpretation, &ep.Enrichment.ImageDescription, &ep.Enrichment.ModelName, &ep.Enrichment.CreatedAt, &ep.Enrichment.UpdatedAt,
			&ep.AccountHandle,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		ep.Post.MediaURLs = mediaURLs
		ep.Enrichment.PostID = ep.Post.ID
		if len(entitiesJSON) > 0 {
			if err := json.Unmarshal(entitiesJSON, &ep.Enrichment.Entities); err != nil {
				return nil, fmt.Errorf("%s: unmarshal entities: %w", op, err)
			}
		}
		result = append(result, ep)
	}
	return result, rows.Err()
}

// pgArrayScanner adapts a *[]string destination through the pgx stdlib
// driver's native text[] decoding.
func pgArrayScanner(dest *[]string) interface{} {
	return (*stringArray)(dest)
}

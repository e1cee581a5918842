package postgres

import (
	"context"
	"fmt"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/repository"
	"github.com/mengke002/info-collector-X/internal/resilience/circuitbreaker"
)

type PostRepo struct{ db *circuitbreaker.DBCircuitBreaker }

func NewPostRepo(db *circuitbreaker.DBCircuitBreaker) repository.PostRepository {
	return &PostRepo{db: db}
}

// InsertPosts inserts all posts for one account's fetch inside a single
// transaction, skipping duplicates on post_url. Only the newly inserted
// rows are counted, matching the Store contract. The breaker has no
// transaction-spanning Execute, so the transaction is opened on the
// underlying connection directly.
func (r *PostRepo) InsertPosts(ctx context.Context, posts []*entity.Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("InsertPosts: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
INSERT INTO posts (account_id, post_url, body, kind, media_urls, published_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (post_url) DO NOTHING`

	inserted := 0
	for _, p := range posts {
		if err := p.Validate(); err != nil {
			return inserted, fmt.Errorf("InsertPosts: validate: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, p.AccountID, p.PostURL, p.Body, p.Kind, mediaURLsToPG(p.MediaURLs), p.PublishedAt)
		if err != nil {
			return inserted, fmt.Errorf("InsertPosts: exec: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("InsertPosts: commit: %w", err)
	}
	return inserted, nil
}

// mediaURLsToPG adapts a Go string slice to the text[] wire format via
// stringArray's driver.Valuer implementation.
func mediaURLsToPG(urls []string) interface{} {
	if urls == nil {
		return stringArray{}
	}
	return stringArray(urls)
}

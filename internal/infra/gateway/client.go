// Package gateway talks to the RSS-style ingest gateway that fronts the
// social platform: it knows nothing about HTTP handlers or storage, only
// how to turn one account's feed into a batch of draft posts.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/resilience/circuitbreaker"
	"github.com/mengke002/info-collector-X/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

// PostDraft is a post as extracted from the gateway feed, before it has
// an account_id or a database identity.
type PostDraft struct {
	PostURL     string
	Body        string
	Kind        entity.PostKind
	MediaURLs   []string
	PublishedAt time.Time
}

// Client fetches a social account's recent posts through the gateway.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// New creates a gateway Client pointed at baseURL (e.g.
// "https://gateway.internal"), reusing the teacher's per-backend
// circuit-breaker/retry pairing for feed fetches.
func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// FetchUserPosts retrieves {gateway_base}/twitter/user/{handle} and parses
// each feed entry into a PostDraft. Per the gateway contract, any
// network or parse error is reported to the caller as an error but is
// never fatal to the calling job: the fetch worker pool records a fetch
// failure for the account and moves on to the next one.
func (c *Client) FetchUserPosts(ctx context.Context, handle string) ([]PostDraft, error) {
	feedURL := fmt.Sprintf("%s/twitter/user/%s", c.baseURL, handle)

	var drafts []PostDraft
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("gateway circuit breaker open, request rejected",
					slog.String("service", "gateway"),
					slog.String("handle", handle),
					slog.String("state", c.circuitBreaker.State().String()))
			}
			return err
		}
		drafts = cbResult.([]PostDraft)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("FetchUserPosts(%s): %w", handle, retryErr)
	}
	return drafts, nil
}

func (c *Client) doFetch(ctx context.Context, feedURL string) ([]PostDraft, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "InfoCollectorXBot"
	fp.Client = c.httpClient

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	drafts := make([]PostDraft, 0, len(feed.Items))
	for _, item := range feed.Items {
		publishedAt := time.Now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		}

		body, mediaURLs := htmlToMarkdownAndMedia(item.Description)
		if body == "" {
			body = item.Title
		}

		drafts = append(drafts, PostDraft{
			PostURL:     item.Link,
			Body:        body,
			Kind:        classifyKind(body, mediaURLs),
			MediaURLs:   mediaURLs,
			PublishedAt: publishedAt,
		})
	}
	return drafts, nil
}

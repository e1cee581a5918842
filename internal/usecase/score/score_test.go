package score_test

import (
	"testing"
	"time"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/usecase/score"
)

func TestScore_AllWeightsZeroAndBaseOneScoresExactlyOne(t *testing.T) {
	t.Parallel()

	cfg := score.Config{Base: 1}
	post := entity.Post{Body: "anything, any length, http://example.com", Kind: entity.PostOriginal}
	enrichment := entity.Enrichment{ContentType: "NEWS", Tag: "MARKET", DeepInterpretation: "some analysis"}

	got := score.Score(post, enrichment, cfg)

	if got != 1 {
		t.Errorf("Score() = %v, want 1", got)
	}
}

func TestScore_AppliesEachTermIndependently(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		post       entity.Post
		enrichment entity.Enrichment
		cfg        score.Config
		want       float64
	}{
		{
			name:       "content type table lookup",
			post:       entity.Post{Kind: entity.PostOriginal},
			enrichment: entity.Enrichment{ContentType: "ANALYSIS"},
			cfg:        score.Config{Base: 0, ContentTypeScore: map[string]float64{"ANALYSIS": 3}},
			want:       3,
		},
		{
			name:       "content type absent from table scores zero",
			post:       entity.Post{Kind: entity.PostOriginal},
			enrichment: entity.Enrichment{ContentType: "MEME"},
			cfg:        score.Config{Base: 0, ContentTypeScore: map[string]float64{"ANALYSIS": 3}},
			want:       0,
		},
		{
			name:       "tag table lookup",
			post:       entity.Post{Kind: entity.PostOriginal},
			enrichment: entity.Enrichment{Tag: "SECURITY"},
			cfg:        score.Config{Base: 0, TagScore: map[string]float64{"SECURITY": 2}},
			want:       2,
		},
		{
			name:       "body length weight",
			post:       entity.Post{Body: "0123456789", Kind: entity.PostOriginal},
			enrichment: entity.Enrichment{},
			cfg:        score.Config{Base: 0, BodyWeight: 0.1},
			want:       1,
		},
		{
			name:       "interpretation length weight",
			post:       entity.Post{Kind: entity.PostOriginal},
			enrichment: entity.Enrichment{DeepInterpretation: "0123456789"},
			cfg:        score.Config{Base: 0, InterpretationWeight: 0.1},
			want:       1,
		},
		{
			name:       "media bonus applied when post has media",
			post:       entity.Post{Kind: entity.PostOriginal, MediaURLs: []string{"https://img/1.jpg"}},
			enrichment: entity.Enrichment{},
			cfg:        score.Config{Base: 0, MediaBonus: 1.5},
			want:       1.5,
		},
		{
			name:       "media bonus absent without media",
			post:       entity.Post{Kind: entity.PostOriginal},
			enrichment: entity.Enrichment{},
			cfg:        score.Config{Base: 0, MediaBonus: 1.5},
			want:       0,
		},
		{
			name:       "link bonus applied for LINK_SHARE kind",
			post:       entity.Post{Kind: entity.PostLinkShare},
			enrichment: entity.Enrichment{},
			cfg:        score.Config{Base: 0, LinkBonus: 0.5},
			want:       0.5,
		},
		{
			name:       "link bonus applied when body contains http",
			post:       entity.Post{Kind: entity.PostOriginal, Body: "see http://example.com"},
			enrichment: entity.Enrichment{},
			cfg:        score.Config{Base: 0, LinkBonus: 0.5},
			want:       0.5,
		},
		{
			name:       "link bonus absent without a link or LINK_SHARE kind",
			post:       entity.Post{Kind: entity.PostOriginal, Body: "no links here"},
			enrichment: entity.Enrichment{},
			cfg:        score.Config{Base: 0, LinkBonus: 0.5},
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := score.Score(tt.post, tt.enrichment, tt.cfg)
			if got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankAll_SortsByScoreDescThenPublishedAtDesc(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := score.Config{Base: 1}

	older := entity.EnrichedPost{
		Post:       entity.Post{PublishedAt: now.Add(-2 * time.Hour), Kind: entity.PostOriginal},
		Enrichment: entity.Enrichment{},
	}
	newer := entity.EnrichedPost{
		Post:       entity.Post{PublishedAt: now.Add(-1 * time.Hour), Kind: entity.PostOriginal},
		Enrichment: entity.Enrichment{},
	}
	highScore := entity.EnrichedPost{
		Post:       entity.Post{PublishedAt: now.Add(-3 * time.Hour), Kind: entity.PostOriginal, MediaURLs: []string{"x"}},
		Enrichment: entity.Enrichment{},
	}
	cfg.MediaBonus = 10

	ranked := score.RankAll([]entity.EnrichedPost{older, newer, highScore}, cfg)

	if len(ranked) != 3 {
		t.Fatalf("RankAll() returned %d items, want 3", len(ranked))
	}
	if !ranked[0].Post.Post.PublishedAt.Equal(highScore.Post.PublishedAt) {
		t.Errorf("expected highest-scoring post first, got published_at %v", ranked[0].Post.Post.PublishedAt)
	}
	if !ranked[1].Post.Post.PublishedAt.Equal(newer.Post.PublishedAt) {
		t.Errorf("expected tie-break by more recent published_at second, got %v", ranked[1].Post.Post.PublishedAt)
	}
	if !ranked[2].Post.Post.PublishedAt.Equal(older.Post.PublishedAt) {
		t.Errorf("expected older tied post last, got %v", ranked[2].Post.Post.PublishedAt)
	}
}

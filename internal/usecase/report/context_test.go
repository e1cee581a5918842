package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/usecase/score"
)

func candidate(handle, body string, mediaURLs []string, interpretation string) score.Scored {
	return score.Scored{
		Post: entity.EnrichedPost{
			Post: entity.Post{
				PostURL:     "https://example.com/" + handle,
				Body:        body,
				Kind:        entity.PostOriginal,
				MediaURLs:   mediaURLs,
				PublishedAt: time.Now(),
			},
			Enrichment:    entity.Enrichment{DeepInterpretation: interpretation},
			AccountHandle: handle,
		},
	}
}

func TestPackContext_LightModeOmitsInsightForTextOnly(t *testing.T) {
	ranked := []score.Scored{candidate("alice", "hello world", nil, "deep take")}
	packed, sources := PackContext(ranked, ModeLight, 10000)

	assert.Contains(t, packed, "[T1 @alice]")
	assert.Contains(t, packed, "hello world")
	assert.NotContains(t, packed, "deep take")
	assert.Equal(t, Source{Index: 1, Handle: "alice", PostURL: "https://example.com/alice"}, sources["T1"])
}

func TestPackContext_DeepModeIncludesInsightEvenTextOnly(t *testing.T) {
	ranked := []score.Scored{candidate("alice", "hello world", nil, "deep take")}
	packed, _ := PackContext(ranked, ModeDeep, 10000)

	assert.Contains(t, packed, "deep take")
}

func TestPackContext_LightModeIncludesInsightForMediaBearingPost(t *testing.T) {
	ranked := []score.Scored{candidate("alice", "look at this", []string{"https://img/1.png"}, "deep take")}
	packed, _ := PackContext(ranked, ModeLight, 10000)

	assert.Contains(t, packed, "deep take")
	assert.Contains(t, packed, "[attached 1 images]")
}

func TestPackContext_StopsBeforeExceedingBudget(t *testing.T) {
	ranked := []score.Scored{
		candidate("alice", strings.Repeat("a", 50), nil, ""),
		candidate("bob", strings.Repeat("b", 50), nil, ""),
		candidate("carol", strings.Repeat("c", 50), nil, ""),
	}
	packed, sources := PackContext(ranked, ModeLight, 120)

	assert.Contains(t, packed, "@alice")
	assert.Len(t, sources, 1)
}

func TestPackContext_AlwaysIncludesFirstCandidateEvenIfOversized(t *testing.T) {
	ranked := []score.Scored{candidate("alice", strings.Repeat("a", 500), nil, "")}
	packed, sources := PackContext(ranked, ModeLight, 10)

	assert.Contains(t, packed, "@alice")
	assert.Len(t, sources, 1)
}

func TestPackContext_StripsMediaURLsFromBody(t *testing.T) {
	ranked := []score.Scored{candidate("alice", "check this https://img/1.png out", []string{"https://img/1.png"}, "")}
	packed, _ := PackContext(ranked, ModeLight, 10000)

	assert.NotContains(t, packed, "https://img/1.png")
	assert.Contains(t, packed, "check this")
}

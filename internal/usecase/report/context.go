package report

import (
	"fmt"
	"strings"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/mengke002/info-collector-X/internal/usecase/score"
)

// Mode selects which report variant a context pack is built for; it
// changes whether the insight line is included for text-only posts.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDeep  Mode = "deep"
)

// Source is one packed candidate's citation metadata, keyed by its "Tn"
// label in the caller's sources map.
type Source struct {
	Index   int
	Handle  string
	PostURL string
}

// PackContext implements spec §4.9 step 3: iterate ranked candidates in
// order, format each as a compact block, and accumulate until the next
// block would exceed maxContextChars. Returns the packed text and a
// sources map for later citation rewriting.
func PackContext(ranked []score.Scored, mode Mode, maxContextChars int) (string, map[string]Source) {
	var sb strings.Builder
	sources := make(map[string]Source)

	for i, candidate := range ranked {
		label := fmt.Sprintf("T%d", i+1)
		block := formatBlock(label, candidate.Post, mode)
		if sb.Len() > 0 && sb.Len()+len(block) > maxContextChars {
			break
		}
		sb.WriteString(block)
		sources[label] = Source{
			Index:   i + 1,
			Handle:  candidate.Post.AccountHandle,
			PostURL: candidate.Post.Post.PostURL,
		}
	}

	return sb.String(), sources
}

func formatBlock(label string, ep entity.EnrichedPost, mode Mode) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s @%s]\n", label, ep.AccountHandle))

	hasMedia := ep.Post.HasMedia()
	if hasMedia {
		sb.WriteString(fmt.Sprintf("[attached %d images]\n", len(ep.Post.MediaURLs)))
	}
	sb.WriteString(stripMediaURLs(ep.Post.Body, ep.Post.MediaURLs))
	sb.WriteString("\n")

	// Light mode drops the insight line for text-only posts: the
	// body alone carries enough signal for a bullet-list digest, and
	// skipping it keeps the light-mode context pack materially
	// smaller per spec §4.9 step 3's bandwidth-saving note.
	includeInsight := mode == ModeDeep || hasMedia
	if includeInsight {
		sb.WriteString(fmt.Sprintf("→ insight: %s\n", ep.Enrichment.DeepInterpretation))
	}
	sb.WriteString("\n")
	return sb.String()
}

func stripMediaURLs(body string, mediaURLs []string) string {
	for _, url := range mediaURLs {
		body = strings.ReplaceAll(body, url, "")
	}
	return strings.TrimSpace(body)
}

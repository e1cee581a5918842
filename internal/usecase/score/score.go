// Package score implements the pure, deterministic value function the
// report synthesizer uses to rank enriched posts before context packing.
// Grounded on the teacher's internal/common/pagination package: a small,
// dependency-free computational package with an exhaustive table-driven
// test suite, generalized from "compute a page offset" to "compute a
// ranking score".
package score

import (
	"sort"
	"strings"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// Score implements spec §4.8's formula exactly:
//
//	score = base
//	      + content_type_score[content_type]
//	      + tag_score[tag]
//	      + body_length × body_weight
//	      + interpretation_length × interp_weight
//	      + (media_bonus if post has any media else 0)
//	      + (link_bonus if kind=LINK_SHARE OR body contains "http")
//
// All table lookups default to 0 for an unconfigured key. The function is
// pure: no randomness, no time-dependent state, no I/O.
func Score(post entity.Post, enrichment entity.Enrichment, cfg Config) float64 {
	s := cfg.Base
	s += cfg.ContentTypeScore[enrichment.ContentType]
	s += cfg.TagScore[enrichment.Tag]
	s += float64(len(post.Body)) * cfg.BodyWeight
	s += float64(len(enrichment.DeepInterpretation)) * cfg.InterpretationWeight
	if post.HasMedia() {
		s += cfg.MediaBonus
	}
	if hasLink(post) {
		s += cfg.LinkBonus
	}
	return s
}

func hasLink(post entity.Post) bool {
	return post.Kind == entity.PostLinkShare || strings.Contains(post.Body, "http")
}

// Scored pairs an EnrichedPost with its computed score, for sorting.
type Scored struct {
	Post  entity.EnrichedPost
	Value float64
}

// RankAll scores every candidate and returns them sorted by (score DESC,
// published_at DESC), implementing spec §4.9 step 2's tie-break rule.
func RankAll(posts []entity.EnrichedPost, cfg Config) []Scored {
	scored := make([]Scored, len(posts))
	for i, p := range posts {
		scored[i] = Scored{Post: p, Value: Score(p.Post, p.Enrichment, cfg)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return less(scored[i], scored[j]) })
	return scored
}

// less reports whether a should sort before b: higher score first, ties
// broken by more recent published_at first.
func less(a, b Scored) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	return a.Post.Post.PublishedAt.After(b.Post.Post.PublishedAt)
}

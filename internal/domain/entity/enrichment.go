package entity

import (
	"time"
	"unicode/utf8"
)

// EnrichmentStatus tracks an enrichment row's progress from placeholder to
// terminal result. A post's enrichment transitions PENDING -> {COMPLETED,
// FAILED} exactly once; the PENDING row itself is the enrichment claim.
type EnrichmentStatus string

const (
	EnrichmentPending   EnrichmentStatus = "PENDING"
	EnrichmentCompleted EnrichmentStatus = "COMPLETED"
	EnrichmentFailed    EnrichmentStatus = "FAILED"
)

// NamedEntity is one item of the enrichment's extracted entity list, e.g.
// {Name: "Ethereum", Type: "asset"}.
type NamedEntity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Enrichment is the structured and narrative LLM analysis attached
// one-to-one to a Post. The placeholder PENDING row is inserted by
// claim_pending_enrichments in the same transaction that selects the post;
// a post whose row is still PENDING stays eligible for the next claim.
type Enrichment struct {
	PostID             int64
	Status             EnrichmentStatus
	Summary            string // <= 50 chars
	Tag                string
	ContentType        string
	Entities           []NamedEntity
	DeepInterpretation string
	ImageDescription   *string // nil if text-only
	ModelName          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks structural invariants before an Enrichment crosses the
// Store boundary via commit_enrichment.
func (e *Enrichment) Validate() error {
	if e.PostID <= 0 {
		return &ValidationError{Field: "post_id", Message: "post_id is required"}
	}
	switch e.Status {
	case EnrichmentPending, EnrichmentCompleted, EnrichmentFailed:
	default:
		return &ValidationError{Field: "status", Message: "invalid enrichment status"}
	}
	if utf8.RuneCountInString(e.Summary) > 50 {
		return &ValidationError{Field: "summary", Message: "summary must not exceed 50 characters"}
	}
	return nil
}

// EnrichedPost joins a Post, its Enrichment, and the owning Account's
// handle -- the shape select_enriched_in_window returns for scoring and
// report synthesis.
type EnrichedPost struct {
	Post          Post
	Enrichment    Enrichment
	AccountHandle string
}

package entity

import "time"

// PostKind is the rule-classified shape of a post's content, assigned by
// the gateway client at ingest time.
type PostKind string

const (
	PostOriginal  PostKind = "ORIGINAL"
	PostReply     PostKind = "REPLY"
	PostQuote     PostKind = "QUOTE"
	PostLinkShare PostKind = "LINK_SHARE"
)

// Post is one ingested item from an account's feed. post_url is the
// dedupe key: the fetch worker inserts-if-new and silently drops repeats.
// Posts are immutable once written.
type Post struct {
	ID          int64
	AccountID   int64
	PostURL     string
	Body        string // markdown, converted from the feed's HTML description
	Kind        PostKind
	MediaURLs   []string
	PublishedAt time.Time
	CreatedAt   time.Time
}

// Validate checks structural invariants before a Post crosses the Store
// boundary.
func (p *Post) Validate() error {
	if p.PostURL == "" {
		return &ValidationError{Field: "post_url", Message: "post_url is required"}
	}
	if p.AccountID <= 0 {
		return &ValidationError{Field: "account_id", Message: "account_id is required"}
	}
	switch p.Kind {
	case PostOriginal, PostReply, PostQuote, PostLinkShare:
	default:
		return &ValidationError{Field: "kind", Message: "invalid post kind"}
	}
	return nil
}

// HasMedia reports whether the post references any media URLs, used by
// both the scorer's media bonus and the enricher's text/vision routing.
func (p *Post) HasMedia() bool {
	return len(p.MediaURLs) > 0
}

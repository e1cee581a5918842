package entity

import "time"

// ContentFormatRatio estimates how an account's posts split across
// original commentary, link sharing, and reply/interaction activity.
// The three percentages are model estimates, not an exact partition, and
// are not required to sum to 100.
type ContentFormatRatio struct {
	OriginalThoughtPct  int `json:"original_thought_percentage"`
	LinkSharingPct      int `json:"link_sharing_percentage"`
	ReplyInteractionPct int `json:"reply_interaction_percentage"`
}

// Profile is a one-to-one structured summary of an account's recent
// enriched posts, overwritten wholesale on each refresh by the profile
// analyzer job.
type Profile struct {
	AccountID             int64
	Keywords              []string            `json:"keywords"`
	SentimentTrend        string              `json:"sentiment_trend"`
	MentionedAssetClasses []string            `json:"mentioned_asset_classes"`
	ContentFormatRatio    ContentFormatRatio  `json:"content_format_ratio"`
	InteractionGraph      map[string]int      `json:"interaction_graph"`
	RoleLabel             string              `json:"role_label"`
	TrajectorySummary     string              `json:"trajectory_summary"`
	GeneratedAt           time.Time
}

// Validate checks structural invariants before a Profile crosses the Store
// boundary via upsert_profile.
func (p *Profile) Validate() error {
	if p.AccountID <= 0 {
		return &ValidationError{Field: "account_id", Message: "account_id is required"}
	}
	return nil
}

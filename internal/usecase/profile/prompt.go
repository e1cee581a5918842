package profile

import (
	"fmt"
	"strings"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// FormatActivity renders one account's recent enrichments as a
// timestamped list, the input the profile prompt asks the model to
// summarize, per spec §4.10's "format their enrichments into a
// timestamped list" step.
func FormatActivity(enrichments []entity.EnrichedPost) string {
	var sb strings.Builder
	for _, ep := range enrichments {
		sb.WriteString(fmt.Sprintf("[%s] (%s/%s) %s\n",
			ep.Post.PublishedAt.Format("2006-01-02"),
			ep.Enrichment.Tag,
			ep.Enrichment.ContentType,
			ep.Enrichment.Summary))
		if ep.Enrichment.DeepInterpretation != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", ep.Enrichment.DeepInterpretation))
		}
	}
	return sb.String()
}

// BuildPrompt builds the fixed profile-analysis prompt over one
// account's formatted activity.
func BuildPrompt(handle, activity string) string {
	return fmt.Sprintf(`You are building a structured profile of the account @%s from its
recent activity below. Each line is one post: date, (tag/content_type),
summary, followed by an optional deeper interpretation.

Respond with a single JSON object, no surrounding prose, with exactly
these fields:
  "keywords": array of 5-10 recurring keywords or phrases
  "sentiment_trend": one of "BULLISH", "BEARISH", "NEUTRAL", "MIXED"
  "mentioned_asset_classes": array of asset categories mentioned (e.g. "L1", "DeFi", "NFT")
  "content_format_ratio": object with integer percentages estimating how this account's posts split across:
    "original_thought_percentage": original commentary/analysis posts
    "link_sharing_percentage": posts that mainly share a link
    "reply_interaction_percentage": replies and other interaction posts
  "interaction_graph": object mapping other handles this account frequently engages with to a mention count
  "role_label": a short label for this account's apparent role (e.g. "protocol team", "independent analyst", "news aggregator")
  "trajectory_summary": one paragraph describing how this account's focus has evolved over the activity window

Activity:
%s`, handle, activity)
}

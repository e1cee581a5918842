package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProfileJSON = `{"keywords":["eth","l2"],"sentiment_trend":"BULLISH","mentioned_asset_classes":["L1","L2"],"content_format_ratio":{"original_thought_percentage":60,"link_sharing_percentage":30,"reply_interaction_percentage":10},"interaction_graph":{"bob":3},"role_label":"analyst","trajectory_summary":"shifted from trading to research"}`

func TestParseProfileResponse_StrictParseSucceeds(t *testing.T) {
	r, err := ParseProfileResponse(validProfileJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"eth", "l2"}, r.Keywords)
	assert.Equal(t, "BULLISH", r.SentimentTrend)
	assert.Equal(t, 3, r.InteractionGraph["bob"])
	assert.Equal(t, 60, r.ContentFormatRatio.OriginalThoughtPct)
	assert.Equal(t, 30, r.ContentFormatRatio.LinkSharingPct)
	assert.Equal(t, 10, r.ContentFormatRatio.ReplyInteractionPct)
}

func TestParseProfileResponse_RepairsWrappedJSONWithTrailingComma(t *testing.T) {
	wrapped := "Here is the profile:\n```json\n" + `{"keywords":["eth"],"sentiment_trend":"NEUTRAL","mentioned_asset_classes":[],"interaction_graph":{},"role_label":"trader","trajectory_summary":"steady",}` + "\n```"
	r, err := ParseProfileResponse(wrapped)
	require.NoError(t, err)
	assert.Equal(t, "steady", r.TrajectorySummary)
}

func TestParseProfileResponse_RejectsEmptyTrajectorySummary(t *testing.T) {
	_, err := ParseProfileResponse(`{"keywords":["eth"],"trajectory_summary":""}`)
	assert.Error(t, err)
}

func TestParseProfileResponse_RejectsEmptyKeywords(t *testing.T) {
	_, err := ParseProfileResponse(`{"keywords":[],"trajectory_summary":"x"}`)
	assert.Error(t, err)
}

func TestParseProfileResponse_NoJSONObjectFound(t *testing.T) {
	_, err := ParseProfileResponse("no json here")
	assert.Error(t, err)
}

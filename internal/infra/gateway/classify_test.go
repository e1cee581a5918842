package gateway

import (
	"testing"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestClassifyKind_Reply(t *testing.T) {
	assert.Equal(t, entity.PostReply, classifyKind("@someone thanks for the heads up", nil))
	assert.Equal(t, entity.PostReply, classifyKind("Replying to @someone's thread", nil))
}

func TestClassifyKind_Quote(t *testing.T) {
	body := "Here's a great take\n> original tweet text here"
	assert.Equal(t, entity.PostQuote, classifyKind(body, nil))
}

func TestClassifyKind_LinkShare(t *testing.T) {
	body := "https://example.com/some/very/long/path/that/dominates/the/body/content/here"
	assert.Equal(t, entity.PostLinkShare, classifyKind(body, nil))
}

func TestClassifyKind_Original(t *testing.T) {
	body := "Just shipped a new feature, excited for feedback from the team."
	assert.Equal(t, entity.PostOriginal, classifyKind(body, nil))
}

func TestClassifyKind_ReplyTakesPriorityOverLinkShare(t *testing.T) {
	body := "@someone check this out https://example.com/x"
	assert.Equal(t, entity.PostReply, classifyKind(body, nil))
}

func TestUrlDensity(t *testing.T) {
	assert.InDelta(t, 0.0, urlDensity("no urls here"), 0.001)
	assert.Greater(t, urlDensity("https://example.com"), 0.9)
}

package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

func TestInterpretationTargetChars(t *testing.T) {
	assert.Equal(t, 100, interpretationTargetChars(50))
	assert.Equal(t, 150, interpretationTargetChars(150))
	assert.Equal(t, 250, interpretationTargetChars(500))
}

func TestImageDescriptionTargetChars(t *testing.T) {
	assert.Equal(t, 150, imageDescriptionTargetChars(1))
	assert.Equal(t, 250, imageDescriptionTargetChars(2))
	assert.Equal(t, 300, imageDescriptionTargetChars(3))
}

func TestBuildTextPrompt_IncludesBodyAndVocabularies(t *testing.T) {
	post := &entity.Post{Body: "short body", Kind: entity.PostOriginal}
	prompt := BuildTextPrompt(post)

	assert.Contains(t, prompt, "short body")
	assert.Contains(t, prompt, "ORIGINAL")
	assert.Contains(t, prompt, "MARKET")
	assert.Contains(t, prompt, "ANALYSIS")
	assert.NotContains(t, prompt, "image_description")
}

func TestBuildVisionPrompt_IncludesImageCountAndDescriptionField(t *testing.T) {
	post := &entity.Post{Body: "look at this", Kind: entity.PostOriginal}
	prompt := BuildVisionPrompt(post, 2)

	assert.Contains(t, prompt, "2 image(s)")
	assert.Contains(t, prompt, "image_description")
}

func TestQuotedList_FormatsAsJSONArray(t *testing.T) {
	result := quotedList([]string{"A", "B"})
	assert.Equal(t, `["A", "B"]`, result)
	assert.True(t, strings.HasPrefix(result, "["))
}

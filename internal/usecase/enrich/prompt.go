package enrich

import (
	"fmt"
	"strings"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// interpretationTargetChars picks the target length for deep_interpretation
// from the post body length, per spec §4.7 step 4's text-prompt rule.
func interpretationTargetChars(bodyLen int) int {
	switch {
	case bodyLen < 100:
		return 100
	case bodyLen < 300:
		return 150
	default:
		return 250
	}
}

// visionInterpretationTargetChars picks the target length for
// deep_interpretation on an image-bearing post, scaled by combined
// body/image complexity per spec §4.7 step 4's vision-prompt rule.
func visionInterpretationTargetChars(bodyLen, imageCount int) int {
	switch {
	case bodyLen < 100 && imageCount <= 1:
		return 150
	case bodyLen < 300 && imageCount <= 2:
		return 200
	default:
		return 300
	}
}

// imageDescriptionTargetChars scales the target length for image_description
// with the number of attached images, per spec §4.7 step 4.
func imageDescriptionTargetChars(imageCount int) int {
	switch {
	case imageCount <= 1:
		return 150
	case imageCount == 2:
		return 250
	default:
		return 300
	}
}

const jsonSchemaInstruction = `Respond with a single strict JSON object and nothing else -- no prose, no markdown fences, no text before or after the braces. The object must have exactly these fields:
{
  "summary": string, at most 50 characters,
  "tag": one of %s,
  "content_type": one of %s,
  "entities": array of {"name": string, "type": string},
  "deep_interpretation": string, target length ~%d characters
%s}`

// BuildTextPrompt builds the enrichment prompt for a post with no
// processable images.
func BuildTextPrompt(post *entity.Post) string {
	target := interpretationTargetChars(len(post.Body))
	schema := fmt.Sprintf(jsonSchemaInstruction,
		quotedList(Tags), quotedList(ContentTypes), target, "")

	var b strings.Builder
	b.WriteString("Analyze the following social media post and extract structured metadata plus a short interpretive analysis.\n\n")
	b.WriteString("Post kind: ")
	b.WriteString(string(post.Kind))
	b.WriteString("\nPost body:\n")
	b.WriteString(post.Body)
	b.WriteString("\n\n")
	b.WriteString(schema)
	return b.String()
}

// BuildVisionPrompt builds the enrichment prompt for an image-bearing post,
// where the model also produces an image_description field.
func BuildVisionPrompt(post *entity.Post, imageCount int) string {
	interpTarget := visionInterpretationTargetChars(len(post.Body), imageCount)
	descTarget := imageDescriptionTargetChars(imageCount)
	imageField := fmt.Sprintf(`  "image_description": string, target length ~%d characters
`, descTarget)
	schema := fmt.Sprintf(jsonSchemaInstruction,
		quotedList(Tags), quotedList(ContentTypes), interpTarget, imageField)

	var b strings.Builder
	b.WriteString("Analyze the following social media post, including its attached image(s), and extract structured metadata plus a short interpretive analysis.\n\n")
	b.WriteString("Post kind: ")
	b.WriteString(string(post.Kind))
	b.WriteString("\nPost body:\n")
	b.WriteString(post.Body)
	b.WriteString(fmt.Sprintf("\n\n%d image(s) are attached.\n\n", imageCount))
	b.WriteString(schema)
	return b.String()
}

func quotedList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

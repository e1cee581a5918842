package enrich

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// rawEnrichment mirrors the JSON shape the enrichment prompt demands.
type rawEnrichment struct {
	Summary            string               `json:"summary"`
	Tag                string               `json:"tag"`
	ContentType        string               `json:"content_type"`
	Entities           []entity.NamedEntity `json:"entities"`
	DeepInterpretation string               `json:"deep_interpretation"`
	ImageDescription   *string              `json:"image_description"`
}

var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)
var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

// ParseEnrichmentResponse implements spec §4.7 step 6: try a strict parse
// first; on failure, regex-extract the first {...} block from the full
// response and strip trailing commas before retrying; on failure again,
// return an error (terminal for that post, no further retry).
func ParseEnrichmentResponse(raw string) (*rawEnrichment, error) {
	parsed, err := strictParse(raw)
	if err == nil {
		return parsed, validate(parsed)
	}

	repaired, ok := extractAndRepair(raw)
	if !ok {
		return nil, fmt.Errorf("parse enrichment response: no JSON object found: %w", err)
	}

	parsed, repairErr := strictParse(repaired)
	if repairErr != nil {
		return nil, fmt.Errorf("parse enrichment response: repaired JSON still invalid: %w", repairErr)
	}
	return parsed, validate(parsed)
}

func strictParse(raw string) (*rawEnrichment, error) {
	var r rawEnrichment
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func extractAndRepair(raw string) (string, bool) {
	block := jsonBlockPattern.FindString(raw)
	if block == "" {
		return "", false
	}
	return trailingCommaPattern.ReplaceAllString(block, "$1"), true
}

func validate(r *rawEnrichment) error {
	if n := utf8.RuneCountInString(r.Summary); n > 50 {
		return fmt.Errorf("summary exceeds 50 characters (%d)", n)
	}
	if !slices.Contains(Tags, r.Tag) {
		return fmt.Errorf("tag %q is not in the closed vocabulary", r.Tag)
	}
	if !slices.Contains(ContentTypes, r.ContentType) {
		return fmt.Errorf("content_type %q is not in the closed vocabulary", r.ContentType)
	}
	if r.DeepInterpretation == "" {
		return fmt.Errorf("deep_interpretation must not be empty")
	}
	return nil
}

// toEnrichment builds the committed Enrichment row from a successfully
// parsed and validated model response.
func toEnrichment(postID int64, r *rawEnrichment, modelName string) *entity.Enrichment {
	return &entity.Enrichment{
		PostID:             postID,
		Status:             entity.EnrichmentCompleted,
		Summary:            r.Summary,
		Tag:                r.Tag,
		ContentType:        r.ContentType,
		Entities:           r.Entities,
		DeepInterpretation: r.DeepInterpretation,
		ImageDescription:   r.ImageDescription,
		ModelName:          modelName,
	}
}

package profile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

// rawProfile mirrors the JSON shape the profile prompt demands.
type rawProfile struct {
	Keywords              []string                  `json:"keywords"`
	SentimentTrend        string                    `json:"sentiment_trend"`
	MentionedAssetClasses []string                  `json:"mentioned_asset_classes"`
	ContentFormatRatio    entity.ContentFormatRatio `json:"content_format_ratio"`
	InteractionGraph      map[string]int            `json:"interaction_graph"`
	RoleLabel             string                    `json:"role_label"`
	TrajectorySummary     string                    `json:"trajectory_summary"`
}

var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)
var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

// ParseProfileResponse mirrors the enricher's strict-then-repair JSON
// parse strategy (internal/usecase/enrich/parse.go): try a strict parse
// first, then regex-extract the first {...} block and strip trailing
// commas before retrying once more.
func ParseProfileResponse(raw string) (*rawProfile, error) {
	parsed, err := strictParse(raw)
	if err == nil {
		return parsed, validate(parsed)
	}

	repaired, ok := extractAndRepair(raw)
	if !ok {
		return nil, fmt.Errorf("parse profile response: no JSON object found: %w", err)
	}

	parsed, repairErr := strictParse(repaired)
	if repairErr != nil {
		return nil, fmt.Errorf("parse profile response: repaired JSON still invalid: %w", repairErr)
	}
	return parsed, validate(parsed)
}

func strictParse(raw string) (*rawProfile, error) {
	var r rawProfile
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

func validate(r *rawProfile) error {
	if r.TrajectorySummary == "" {
		return fmt.Errorf("trajectory_summary must not be empty")
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("keywords must not be empty")
	}
	return nil
}

package score

import (
	"strconv"
	"strings"

	"github.com/mengke002/info-collector-X/pkg/config"
)

// Config holds every weight and table the scorer's formula reads. All
// fields are configured with spec-supplied defaults; none are hardcoded
// into the formula itself.
type Config struct {
	Base                 float64
	ContentTypeScore     map[string]float64
	TagScore             map[string]float64
	BodyWeight           float64
	InterpretationWeight float64
	MediaBonus           float64
	LinkBonus            float64
}

// LoadConfig reads scorer weights from the environment, falling back to
// spec defaults chosen to favor analysis-heavy, well-sourced posts over
// short shill/meme content without zeroing anything out.
func LoadConfig() Config {
	return Config{
		Base:                 config.GetEnvFloat("SCORE_BASE", 1.0),
		ContentTypeScore:     parseScoreTable(config.GetEnvString("SCORE_CONTENT_TYPE_TABLE", defaultContentTypeTable)),
		TagScore:             parseScoreTable(config.GetEnvString("SCORE_TAG_TABLE", defaultTagTable)),
		BodyWeight:           config.GetEnvFloat("SCORE_BODY_WEIGHT", 0.01),
		InterpretationWeight: config.GetEnvFloat("SCORE_INTERPRETATION_WEIGHT", 0.02),
		MediaBonus:           config.GetEnvFloat("SCORE_MEDIA_BONUS", 1.5),
		LinkBonus:            config.GetEnvFloat("SCORE_LINK_BONUS", 0.5),
	}
}

const (
	defaultContentTypeTable = "ANALYSIS:3,NEWS:2.5,ANNOUNCEMENT:2,OPINION:1.5,QUESTION:1,SHILL:-1,MEME:-1.5"
	defaultTagTable         = "SECURITY:2,GOVERNANCE:1.5,TECHNICAL:1.5,MARKET:1,PARTNERSHIP:1,PRODUCT:1"
)

// parseScoreTable parses a "KEY:value,KEY:value" env-var table into a
// lookup map. Malformed entries are skipped (not fatal): a misconfigured
// table degrades to that key scoring 0, rather than crashing the run.
func parseScoreTable(raw string) map[string]float64 {
	table := make(map[string]float64)
	if raw == "" {
		return table
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		table[key] = value
	}
	return table
}

package report

import (
	"github.com/mengke002/info-collector-X/internal/usecase/score"
	"github.com/mengke002/info-collector-X/pkg/config"
)

// Config controls one report synthesis run, per spec §4.9's parameters
// (hours, limit, candidate_multiplier) plus the context-packing and
// model fan-out settings the spec leaves to configuration.
type Config struct {
	HoursBack           int
	Limit               int
	CandidateMultiplier int
	MaxContextChars     int
	ExcludeTags         []string

	LightModelIDs []string
	DeepModelIDs  []string
	Temperature   float64
	MaxRetries    int

	Score score.Config
}

// LoadConfig reads report synthesizer tuning from the environment.
func LoadConfig() Config {
	return Config{
		HoursBack:           config.GetEnvInt("REPORT_HOURS_BACK", 24),
		Limit:               config.GetEnvInt("REPORT_LIMIT", 20),
		CandidateMultiplier: config.GetEnvInt("REPORT_CANDIDATE_MULTIPLIER", 3),
		MaxContextChars:     config.GetEnvInt("REPORT_MAX_CONTEXT_CHARS", 24000),
		ExcludeTags:         config.GetEnvStringList("REPORT_EXCLUDE_TAGS", nil),
		LightModelIDs:       config.GetEnvStringList("REPORT_LIGHT_MODELS", []string{"claude-3-5-haiku-20241022"}),
		DeepModelIDs:        config.GetEnvStringList("REPORT_DEEP_MODELS", []string{"claude-3-5-sonnet-20241022", "gpt-4o"}),
		Temperature:         config.GetEnvFloat("REPORT_TEMPERATURE", 0.4),
		MaxRetries:          config.GetEnvInt("REPORT_MAX_RETRIES", 3),
		Score:               score.LoadConfig(),
	}
}

package profile

import "github.com/mengke002/info-collector-X/pkg/config"

// Config controls one profile analyzer run.
type Config struct {
	Days           int
	MinEnrichments int
	StaleDays      int
	UserLimit      int
	ModelID        string
	Temperature    float64
	MaxRetries     int
}

// LoadConfig reads profile analyzer tuning from the environment.
func LoadConfig() Config {
	return Config{
		Days:           config.GetEnvInt("PROFILE_DAYS", 30),
		MinEnrichments: config.GetEnvInt("PROFILE_MIN_ENRICHMENTS", 3),
		StaleDays:      config.GetEnvInt("PROFILE_STALE_DAYS", 7),
		UserLimit:      config.GetEnvInt("PROFILE_USER_LIMIT", 20),
		ModelID:        config.GetEnvString("PROFILE_MODEL_ID", "claude-3-5-sonnet-20241022"),
		Temperature:    config.GetEnvFloat("PROFILE_TEMPERATURE", 0.3),
		MaxRetries:     config.GetEnvInt("PROFILE_MAX_RETRIES", 2),
	}
}

package enrich

import (
	"github.com/mengke002/info-collector-X/pkg/config"
)

// ContentTypes and Tags are the closed vocabularies the enrichment prompt
// enumerates and the parser validates against; see DESIGN.md's Open
// Question decision for why these particular values were chosen.
var (
	ContentTypes = []string{"ANNOUNCEMENT", "ANALYSIS", "OPINION", "NEWS", "SHILL", "MEME", "QUESTION", "OTHER"}
	Tags         = []string{"MARKET", "TECHNICAL", "GOVERNANCE", "SECURITY", "PARTNERSHIP", "PRODUCT", "COMMUNITY", "OTHER"}
)

// ImageMode controls whether the enricher pre-downloads and inlines image
// media as base64 for vision calls, or skips image processing entirely
// (treating every post as text-only).
type ImageMode string

const (
	ImageModeInlineBase64 ImageMode = "inline_base64"
	ImageModeDisabled     ImageMode = "disabled"
)

// Config controls one enrichment run.
type Config struct {
	HoursBack     int
	BatchSize     int
	TextWorkers   int
	VisionWorkers int
	ImageMode     ImageMode
	// MaxImagesPerPost caps how many of a post's media URLs are attached to
	// the vision prompt, keeping the model call's context bounded for
	// posts with unusually many images.
	MaxImagesPerPost int

	TextModelID            string
	PrimaryVisionModelID   string
	SecondaryVisionModelID string
	Temperature            float64
	MaxRetries             int
}

// LoadConfig reads enricher tuning from the environment.
func LoadConfig() Config {
	return Config{
		HoursBack:              config.GetEnvInt("ENRICH_HOURS_BACK", 48),
		BatchSize:              config.GetEnvInt("ENRICH_BATCH_SIZE", 100),
		TextWorkers:            config.GetEnvInt("ENRICH_TEXT_WORKERS", 5),
		VisionWorkers:          config.GetEnvInt("ENRICH_VISION_WORKERS", 2),
		ImageMode:              ImageMode(config.GetEnvString("ENRICH_IMAGE_MODE", string(ImageModeInlineBase64))),
		MaxImagesPerPost:       config.GetEnvInt("ENRICH_MAX_IMAGES_PER_POST", 4),
		TextModelID:            config.GetEnvString("ENRICH_TEXT_MODEL", "claude-3-5-haiku-20241022"),
		PrimaryVisionModelID:   config.GetEnvString("ENRICH_PRIMARY_VISION_MODEL", "claude-3-5-sonnet-20241022"),
		SecondaryVisionModelID: config.GetEnvString("ENRICH_SECONDARY_VISION_MODEL", "gpt-4o"),
		Temperature:            0.3,
		MaxRetries:             config.GetEnvInt("ENRICH_MAX_RETRIES", 3),
	}
}

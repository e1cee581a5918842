package fetch

import (
	"time"

	"github.com/mengke002/info-collector-X/pkg/config"
)

// Config controls the fetch worker pool's parallelism and the
// backpressure jitter spec §4.6 requires between accounts (pool size 1)
// or between batches (pool size >1).
type Config struct {
	PoolSize               int
	SingleAccountJitterMin time.Duration
	SingleAccountJitterMax time.Duration
	BatchJitterMin         time.Duration
	BatchJitterMax         time.Duration
}

// LoadConfig reads fetch pool tuning from the environment. poolSizeOverride,
// when > 0, takes precedence (the CLI flag in spec §4.6's "CLI > env >
// config > default 1" precedence chain).
func LoadConfig(poolSizeOverride int) Config {
	poolSize := poolSizeOverride
	if poolSize <= 0 {
		poolSize = config.GetEnvInt("FETCH_POOL_SIZE", 1)
	}
	return Config{
		PoolSize:               poolSize,
		SingleAccountJitterMin: config.GetEnvDuration("FETCH_ACCOUNT_JITTER_MIN", 6*time.Second),
		SingleAccountJitterMax: config.GetEnvDuration("FETCH_ACCOUNT_JITTER_MAX", 12*time.Second),
		BatchJitterMin:         config.GetEnvDuration("FETCH_BATCH_JITTER_MIN", 60*time.Second),
		BatchJitterMax:         config.GetEnvDuration("FETCH_BATCH_JITTER_MAX", 120*time.Second),
	}
}

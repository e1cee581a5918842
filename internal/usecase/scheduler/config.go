package scheduler

import (
	"time"

	"github.com/mengke002/info-collector-X/pkg/config"
)

// TierIntervals holds the nominal fetch cadence for each tier. LOW is a
// range: the scheduler draws uniformly within [LowMin, LowMax) each time it
// schedules a LOW-tier account, so load doesn't clump around one interval.
type TierIntervals struct {
	High   time.Duration
	Medium time.Duration
	LowMin time.Duration
	LowMax time.Duration
}

// RetryWindow bounds the uniform jitter applied to a post-failure retry.
type RetryWindow struct {
	Min time.Duration
	Max time.Duration
}

// QuietWindow is a UTC hour range during which fetch jobs do no work.
// Start == End disables the window.
type QuietWindow struct {
	StartHour int
	EndHour   int
}

// Config holds everything the scheduler needs to pick accounts and compute
// their next fetch time, loaded from environment variables the way the
// teacher's summarizer/worker packages load theirs via pkg/config.GetEnv*.
type Config struct {
	TierIntervals   TierIntervals
	Retry           RetryWindow
	MaxFailures     int
	Quiet           QuietWindow
	BatchCapPerTier int
	ScavengerHours  int
	ScavengerCap    int
}

// LoadConfig reads scheduler tuning from the environment, falling back to
// spec defaults.
func LoadConfig() Config {
	return Config{
		TierIntervals: TierIntervals{
			High:   config.GetEnvDuration("SCHEDULER_TIER_HIGH_INTERVAL", 20*time.Minute),
			Medium: config.GetEnvDuration("SCHEDULER_TIER_MEDIUM_INTERVAL", 90*time.Minute),
			LowMin: config.GetEnvDuration("SCHEDULER_TIER_LOW_MIN_INTERVAL", 3*time.Hour),
			LowMax: config.GetEnvDuration("SCHEDULER_TIER_LOW_MAX_INTERVAL", 5*time.Hour),
		},
		Retry: RetryWindow{
			Min: config.GetEnvDuration("SCHEDULER_RETRY_MIN", 5*time.Minute),
			Max: config.GetEnvDuration("SCHEDULER_RETRY_MAX", 15*time.Minute),
		},
		MaxFailures:     config.GetEnvInt("SCHEDULER_MAX_FAILURES", 5),
		Quiet: QuietWindow{
			StartHour: config.GetEnvInt("SCHEDULER_QUIET_START_HOUR", 0),
			EndHour:   config.GetEnvInt("SCHEDULER_QUIET_END_HOUR", 0),
		},
		BatchCapPerTier: config.GetEnvInt("SCHEDULER_BATCH_CAP", 50),
		ScavengerHours:  config.GetEnvInt("SCHEDULER_SCAVENGER_HOURS", 6),
		ScavengerCap:    config.GetEnvInt("SCHEDULER_SCAVENGER_CAP", 20),
	}
}

// InQuietWindow reports whether t's UTC hour falls in [StartHour, EndHour).
// StartHour == EndHour disables the window entirely. The window wraps
// midnight when StartHour > EndHour (e.g. 22 -> 6).
func (q QuietWindow) InQuietWindow(t time.Time) bool {
	if q.StartHour == q.EndHour {
		return false
	}
	hour := t.UTC().Hour()
	if q.StartHour < q.EndHour {
		return hour >= q.StartHour && hour < q.EndHour
	}
	return hour >= q.StartHour || hour < q.EndHour
}

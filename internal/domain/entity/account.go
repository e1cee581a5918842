package entity

import "time"

// Tier classifies an account's nominal fetch cadence, assigned by the
// tier-reclassification job from observed posting rate.
type Tier string

const (
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

// AccountStatus tracks an account's position in the fetch lifecycle state
// machine. Kept as a plain string column in the schema; this type is the
// boundary enumeration application code is expected to use.
type AccountStatus string

const (
	AccountPending     AccountStatus = "PENDING"
	AccountOK          AccountStatus = "OK"
	AccountFailed      AccountStatus = "FAILED"
	AccountQuarantined AccountStatus = "QUARANTINED"
)

// Account is an external social-media identity monitored by the pipeline,
// keyed by its public handle. Scheduling state is mutated by the fetch
// worker pool on every attempt and by the weekly tier-recompute job;
// accounts are never deleted, only quarantined.
type Account struct {
	ID                 int64
	Handle             string
	Tier               Tier
	Status             AccountStatus
	LastFetchedAt      *time.Time
	NextFetchAt        time.Time
	ConsecutiveFailures int
	AvgPostsPerDay     float64
	CreatedAt          time.Time
}

// Validate checks structural invariants that must hold before an Account
// crosses the Store boundary (insert or update).
func (a *Account) Validate() error {
	if a.Handle == "" {
		return &ValidationError{Field: "handle", Message: "handle is required"}
	}
	switch a.Tier {
	case TierHigh, TierMedium, TierLow:
	default:
		return &ValidationError{Field: "tier", Message: "tier must be HIGH, MEDIUM, or LOW"}
	}
	switch a.Status {
	case AccountPending, AccountOK, AccountFailed, AccountQuarantined:
	default:
		return &ValidationError{Field: "status", Message: "invalid account status"}
	}
	if a.ConsecutiveFailures < 0 {
		return &ValidationError{Field: "consecutive_failures", Message: "must not be negative"}
	}
	return nil
}

// IsQuarantined reports whether the account's failure count has crossed the
// caller-supplied threshold. Kept separate from Validate so the scheduler
// can assert invariant 1 (quarantined iff consecutive_failures >= max) in
// tests without constructing a full Store round-trip.
func (a *Account) IsQuarantined(maxFailures int) bool {
	return a.ConsecutiveFailures >= maxFailures
}

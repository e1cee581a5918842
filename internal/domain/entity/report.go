package entity

import "time"

// ReportKind distinguishes the three report variants the synthesizer can
// produce. DAILY_LIGHT and DAILY_DEEP share a context pack but differ in
// prompt shape; MONTHLY_KOL is scoped to a single account.
type ReportKind string

const (
	ReportDailyLight ReportKind = "DAILY_LIGHT"
	ReportDailyDeep  ReportKind = "DAILY_DEEP"
	ReportMonthlyKOL ReportKind = "MONTHLY_KOL"
)

// Report is an append-only digest produced by the report synthesizer.
// Reports are never mutated once persisted.
type Report struct {
	ID          int64
	Kind        ReportKind
	Title       string
	Body        string // markdown
	WindowStart time.Time
	WindowEnd   time.Time
	AccountID   *int64 // set only for MONTHLY_KOL
	ModelName   string
	CreatedAt   time.Time
}

// Validate checks structural invariants before a Report crosses the Store
// boundary via insert_report.
func (r *Report) Validate() error {
	switch r.Kind {
	case ReportDailyLight, ReportDailyDeep, ReportMonthlyKOL:
	default:
		return &ValidationError{Field: "kind", Message: "invalid report kind"}
	}
	if r.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if r.WindowEnd.Before(r.WindowStart) {
		return &ValidationError{Field: "window", Message: "window end must not precede window start"}
	}
	return nil
}

package analytics

import "context"

// Service is the query surface consumed by the reporting/export
// collaborators.
type Service interface {
	// GetAnalytics resolves the period, runs the time-budgeted aggregation
	// pass (or serves a cached snapshot) and returns the result. Budget
	// exhaustion is never an error: callers get a reduced-fidelity snapshot
	// with Enhanced=false instead.
	GetAnalytics(ctx context.Context, req Request) (Snapshot, error)

	// BuildDailyPivot produces the user × calendar-day productive-hours
	// matrix for the resolved period.
	BuildDailyPivot(ctx context.Context, req PivotRequest) (PivotMatrix, error)
}

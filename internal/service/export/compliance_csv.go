package export

import (
	"context"
	"fmt"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
)

// ComplianceCSV renders one row per user with the hour splits and the
// compliance score (100 − 2.5 per exceeded break day − 2.5 per exceeded
// lunch day − 10 per exceeded week, floored at 0).
func (s *Service) ComplianceCSV(ctx context.Context, granularity period.Granularity, periodID, userFilter string) (string, error) {
	snap, err := s.analytics.GetAnalytics(ctx, analytics.Request{
		Granularity: granularity,
		PeriodID:    periodID,
		User:        userFilter,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get analytics: %w", err)
	}

	var b csvBuilder
	b.row("Compliance Report")
	b.row("Generated", snap.GeneratedAt)
	b.row("Period", snap.Period.ID, snap.Period.Start+" - "+snap.Period.End)
	if !snap.Enhanced {
		b.row("Note", "basic analytics: per-user detail unavailable for this period")
	}
	b.blank()
	b.row("User", "Productive Hours", "Non-Productive Hours", "Break Hours", "Lunch Hours", "Compliance Score")

	for _, c := range snap.Compliance {
		productive := float64(c.WeekdayProductiveSeconds+c.WeekendProductiveSeconds) / 3600.0
		nonProductive := float64(c.BreakSeconds+c.LunchSeconds) / 3600.0
		b.row(
			c.User,
			formatHours(productive),
			formatHours(nonProductive),
			formatHours(float64(c.BreakSeconds)/3600.0),
			formatHours(float64(c.LunchSeconds)/3600.0),
			formatHours(c.ComplianceScore),
		)
	}

	return b.String(), nil
}

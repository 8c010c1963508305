package analytics

import (
	"fmt"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
)

// buildInsights turns the aggregated numbers into the short narrative lines
// the dashboard surfaces. Order matters: most actionable first.
func buildInsights(snap analytics.Snapshot) []string {
	var insights []string

	if !snap.Enhanced {
		insights = append(insights,
			"Basic analytics only: the aggregation pass ran out of time; per-user compliance and rankings were skipped for this period.")
		return insights
	}

	if snap.TotalEvents == 0 {
		insights = append(insights, "No attendance activity recorded in this period.")
		return insights
	}

	if snap.Overview.EfficiencyPct < 70 {
		insights = append(insights, fmt.Sprintf(
			"Efficiency is %.1f%%, below the 70%% target; non-productive time is eating into billable hours.",
			snap.Overview.EfficiencyPct))
	} else if snap.Overview.EfficiencyPct >= 90 {
		insights = append(insights, fmt.Sprintf(
			"Strong efficiency at %.1f%% for this period.", snap.Overview.EfficiencyPct))
	}

	if snap.Overview.CompliancePct < 85 {
		insights = append(insights, fmt.Sprintf(
			"Break/lunch compliance is at %.1f%%; review the users with repeated overages.",
			snap.Overview.CompliancePct))
	}

	totalViolations := 0
	worstUser := ""
	worstCount := 0
	for _, c := range snap.Compliance {
		totalViolations += c.ViolationDays
		if c.ViolationDays > worstCount {
			worstCount = c.ViolationDays
			worstUser = c.User
		}
	}
	if worstCount >= 3 {
		insights = append(insights, fmt.Sprintf(
			"%s has %d break/lunch violation days this period, the most of any user.",
			worstUser, worstCount))
	} else if totalViolations == 0 {
		insights = append(insights, "No break or lunch cap violations this period.")
	}

	if len(snap.TopPerformers) > 0 {
		top := snap.TopPerformers[0]
		insights = append(insights, fmt.Sprintf(
			"%s leads weekday capacity at %.1f%% (%.1f productive hours).",
			top.User, top.CapacityPct, top.WeekdayProductiveHours))
	}

	if snap.Overview.TopState != "" {
		insights = append(insights, fmt.Sprintf(
			"Most time was logged in the %q state.", snap.Overview.TopState))
	}

	return insights
}

package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/period"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/record"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/cache"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/clock"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/timeparse"
)

// Once this fraction of the processing window is gone by the time the scan
// finishes, the remaining derivations are skipped and the caller gets the
// reduced-fidelity snapshot.
const degradeWindowFraction = 0.6

// RowProvider supplies the normalized, ascending-sorted row set.
type RowProvider interface {
	FetchAll(ctx context.Context) ([]record.AttendanceRecord, error)
}

type ServiceImpl struct {
	rows   RowProvider
	blob   *cache.Blob
	clock  clock.Clock
	loc    *time.Location
	logger *slog.Logger

	window       time.Duration
	scanBudget   time.Duration
	analyticsTTL time.Duration
}

func NewAnalyticsService(
	rows RowProvider,
	blob *cache.Blob,
	clk clock.Clock,
	loc *time.Location,
	logger *slog.Logger,
	window time.Duration,
	scanBudget time.Duration,
	analyticsTTL time.Duration,
) analytics.Service {
	return &ServiceImpl{
		rows:         rows,
		blob:         blob,
		clock:        clk,
		loc:          loc,
		logger:       logger,
		window:       window,
		scanBudget:   scanBudget,
		analyticsTTL: analyticsTTL,
	}
}

// GetAnalytics implements analytics.Service.
func (s *ServiceImpl) GetAnalytics(ctx context.Context, req analytics.Request) (analytics.Snapshot, error) {
	if err := req.Validate(); err != nil {
		return analytics.Snapshot{}, err
	}
	bounds, err := period.Resolve(req.Granularity, req.PeriodID, s.loc)
	if err != nil {
		return analytics.Snapshot{}, err
	}

	cacheKey := "analytics:" + req.CacheKey()
	var cached analytics.Snapshot
	if hit, err := s.blob.ReadJSON(ctx, cacheKey, &cached); err != nil {
		s.logger.Warn("analytics cache read failed", "key", cacheKey, "error", err)
	} else if hit {
		return cached, nil
	}

	overall := clock.NewBudget(s.clock, s.window)

	rows, err := s.rows.FetchAll(ctx)
	if err != nil {
		// Configuration errors (missing columns) and store failures
		// propagate; resource exhaustion never reaches here.
		return analytics.Snapshot{}, fmt.Errorf("failed to load attendance rows: %w", err)
	}

	// Anything unexpected past this point must still yield a renderable
	// snapshot.
	snap := func() (snap analytics.Snapshot) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("analytics aggregation panicked", "panic", r,
					"period", req.PeriodID)
				snap = s.baseSnapshot(req, bounds, newAccumulators())
				snap.Insights = []string{"Analytics are temporarily unavailable for this period."}
			}
		}()
		return s.aggregate(req, bounds, rows, overall)
	}()

	if err := s.blob.WriteJSON(ctx, cacheKey, snap, s.analyticsTTL); err != nil {
		s.logger.Warn("analytics cache write failed", "key", cacheKey, "error", err)
	}
	return snap, nil
}

func (s *ServiceImpl) aggregate(
	req analytics.Request,
	bounds period.Bounds,
	rows []record.AttendanceRecord,
	overall *clock.Budget,
) analytics.Snapshot {
	scanBudget := clock.NewBudget(s.clock, s.scanBudget)
	acc := scanRecords(rows, bounds, req.User, scanBudget, s.loc)

	if acc.budgetExceeded || overall.FractionUsed() > degradeWindowFraction {
		return s.basicSnapshot(req, bounds, acc)
	}
	return s.fullSnapshot(req, bounds, acc)
}

// baseSnapshot fills the fields shared by both fidelity levels.
func (s *ServiceImpl) baseSnapshot(req analytics.Request, bounds period.Bounds, acc *accumulators) analytics.Snapshot {
	states := make(map[string]analytics.StateSummary, len(acc.stateCounts))
	for state, count := range acc.stateCounts {
		secs := acc.stateDurations[state]
		states[state] = analytics.StateSummary{
			Count:           count,
			DurationSeconds: secs,
			Hours:           float64(secs) / 3600.0,
		}
	}

	productive, nonProductive := acc.hoursSplit()

	recent := make([]analytics.EventView, 0, len(acc.recent.Items()))
	for _, e := range acc.recent.Items() {
		recent = append(recent, analytics.EventView{
			User:            e.record.User,
			State:           e.record.State,
			Timestamp:       e.at.Format(time.RFC3339),
			DurationSeconds: e.record.DurationSeconds,
		})
	}

	return analytics.Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: s.clock.Now().In(s.loc).Format(time.RFC3339),
		UserFilter:  req.User,
		Period: analytics.PeriodMeta{
			Granularity: string(bounds.Granularity),
			ID:          bounds.ID,
			Start:       bounds.Start.Format("2006-01-02"),
			End:         bounds.End.Format("2006-01-02"),
			WorkingDays: bounds.WorkingDays(),
			Timezone:    s.loc.String(),
		},
		TotalEvents:        acc.events,
		States:             states,
		ProductiveHours:    productive,
		NonProductiveHours: nonProductive,
		Compliance:         []analytics.UserCompliance{},
		TopPerformers:      []analytics.RankingEntry{},
		Daily:              []analytics.DailyMetric{},
		RecentEvents:       recent,
	}
}

// basicSnapshot is the reduced-fidelity result produced on budget
// exhaustion: state counts/durations and the population-level hours split
// only.
func (s *ServiceImpl) basicSnapshot(req analytics.Request, bounds period.Bounds, acc *accumulators) analytics.Snapshot {
	snap := s.baseSnapshot(req, bounds, acc)
	snap.Enhanced = false
	snap.Overview = analytics.Overview{
		ActiveUsers:        len(acc.users),
		TotalEvents:        acc.events,
		ProductiveHours:    snap.ProductiveHours,
		NonProductiveHours: snap.NonProductiveHours,
		EfficiencyPct:      efficiencyRate(snap.ProductiveHours, snap.NonProductiveHours),
		TopState:           topState(acc),
	}
	snap.Insights = buildInsights(snap)
	return snap
}

func (s *ServiceImpl) fullSnapshot(req analytics.Request, bounds period.Bounds, acc *accumulators) analytics.Snapshot {
	snap := s.baseSnapshot(req, bounds, acc)
	snap.Enhanced = true
	snap.Compliance = buildCompliance(acc, s.loc)
	snap.TopPerformers = buildRanking(acc, bounds)
	snap.Daily = buildDailySeries(acc, bounds, s.loc)
	snap.Overview = analytics.Overview{
		ActiveUsers:        len(acc.users),
		TotalEvents:        acc.events,
		ProductiveHours:    snap.ProductiveHours,
		NonProductiveHours: snap.NonProductiveHours,
		EfficiencyPct:      efficiencyRate(snap.ProductiveHours, snap.NonProductiveHours),
		CompliancePct:      complianceRate(acc),
		TopState:           topState(acc),
	}
	snap.Insights = buildInsights(snap)
	return snap
}

func buildDailySeries(acc *accumulators, bounds period.Bounds, loc *time.Location) []analytics.DailyMetric {
	days := bounds.Days()
	out := make([]analytics.DailyMetric, 0, len(days))
	for _, d := range days {
		key := timeparse.DateKey(d, loc)
		out = append(out, analytics.DailyMetric{
			Date:            key,
			Weekend:         timeparse.IsWeekend(timeparse.ISOWeekday(d)),
			ProductiveHours: float64(acc.dayProductive[key]) / 3600.0,
		})
	}
	return out
}

func topState(acc *accumulators) string {
	best := ""
	var bestSecs int64 = -1
	for state, secs := range acc.stateDurations {
		if secs > bestSecs || (secs == bestSecs && state < best) {
			best = state
			bestSecs = secs
		}
	}
	return best
}

// Package ingest implements the row fetch & cache layer: it pulls the raw
// attendance rows from the backing store in chunks under a cooperative time
// budget, normalizes them, sorts by effective time and keeps the result in
// the chunked cache.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/domain/record"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/cache"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/clock"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/timeparse"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/repository/postgresql"
)

// rowEncodingVersion suffixes the cache key; bump when compactRow changes.
const (
	rowEncodingVersion = "c1"
	rowCacheKey        = "attendance:rows:" + rowEncodingVersion

	// Fetch stops early once this fraction of the processing window is
	// spent, returning the partial result rather than timing out.
	fetchBudgetFraction = 0.8
)

// compactRow is the cached encoding of a record. DateKey is omitted when it
// matches the timestamp's date and re-derived on decode; weekday fields are
// always re-derived.
type compactRow struct {
	U string `json:"u"`
	S string `json:"s"`
	T int64  `json:"t"` // unix milliseconds
	D int64  `json:"d"` // duration seconds
	K string `json:"k,omitempty"`
}

type Service struct {
	rows   postgresql.RowStore
	blob   *cache.Blob
	clock  clock.Clock
	loc    *time.Location
	logger *slog.Logger

	chunkSize int
	window    time.Duration
	rowTTL    time.Duration
}

func NewService(
	rows postgresql.RowStore,
	blob *cache.Blob,
	clk clock.Clock,
	loc *time.Location,
	logger *slog.Logger,
	chunkSize int,
	window time.Duration,
	rowTTL time.Duration,
) *Service {
	return &Service{
		rows:      rows,
		blob:      blob,
		clock:     clk,
		loc:       loc,
		logger:    logger,
		chunkSize: chunkSize,
		window:    window,
		rowTTL:    rowTTL,
	}
}

// FetchAll returns every normalized attendance record, sorted ascending by
// effective time. Within the row cache TTL the backing store is not touched
// at all. A fetch that overruns its share of the processing window returns
// the rows processed so far; partial results are still sorted and cached.
func (s *Service) FetchAll(ctx context.Context) ([]record.AttendanceRecord, error) {
	if records, ok := s.readCached(ctx); ok {
		return records, nil
	}

	records, err := s.fetchFromStore(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].EffectiveTime(s.loc).Before(records[j].EffectiveTime(s.loc))
	})

	if err := s.writeCached(ctx, records); err != nil {
		s.logger.Warn("row cache write failed", "error", err)
	}
	return records, nil
}

func (s *Service) readCached(ctx context.Context) ([]record.AttendanceRecord, bool) {
	var compact []compactRow
	ok, err := s.blob.ReadJSON(ctx, rowCacheKey, &compact)
	if err != nil {
		s.logger.Warn("row cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	records := make([]record.AttendanceRecord, 0, len(compact))
	for _, c := range compact {
		records = append(records, s.expand(c))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].EffectiveTime(s.loc).Before(records[j].EffectiveTime(s.loc))
	})
	return records, true
}

func (s *Service) expand(c compactRow) record.AttendanceRecord {
	ts := time.UnixMilli(c.T).In(s.loc)
	dateKey := c.K
	if dateKey == "" {
		dateKey = timeparse.DateKey(ts, s.loc)
	}
	anchor := ts
	if midnight, ok := timeparse.MidnightOf(dateKey, s.loc); ok && c.K != "" {
		anchor = midnight
	}
	weekday := timeparse.ISOWeekday(anchor)
	return record.AttendanceRecord{
		User:            c.U,
		State:           c.S,
		Timestamp:       ts,
		DurationSeconds: c.D,
		DateKey:         dateKey,
		ISOWeekday:      weekday,
		Weekend:         timeparse.IsWeekend(weekday),
	}
}

func (s *Service) writeCached(ctx context.Context, records []record.AttendanceRecord) error {
	compact := make([]compactRow, 0, len(records))
	for _, r := range records {
		c := compactRow{
			U: r.User,
			S: r.State,
			T: r.Timestamp.UnixMilli(),
			D: r.DurationSeconds,
		}
		if r.DateKey != timeparse.DateKey(r.Timestamp, s.loc) {
			c.K = r.DateKey
		}
		compact = append(compact, c)
	}
	return s.blob.WriteJSON(ctx, rowCacheKey, compact, s.rowTTL)
}

// columnIndexes locates the required columns by header name,
// case-insensitively. The legacy duration header reads "DurationMin" even
// though the values are seconds.
func columnIndexes(headers []string) (ts, user, state, dur, date int, err error) {
	ts, user, state, dur, date = -1, -1, -1, -1, -1
	for i, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "timestamp":
			ts = i
		case "user":
			user = i
		case "state":
			state = i
		case "durationmin", "duration":
			dur = i
		case "date":
			date = i
		}
	}
	if ts < 0 || user < 0 || state < 0 || dur < 0 {
		return 0, 0, 0, 0, 0, fmt.Errorf(
			"%w: have %v", analytics.ErrRequiredColumnsMissing, headers)
	}
	return ts, user, state, dur, date, nil
}

func (s *Service) fetchFromStore(ctx context.Context) ([]record.AttendanceRecord, error) {
	headers, err := s.rows.Headers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read row store headers: %w", err)
	}
	tsCol, userCol, stateCol, durCol, dateCol, err := columnIndexes(headers)
	if err != nil {
		return nil, err
	}

	budget := clock.NewBudget(s.clock, s.window)
	var records []record.AttendanceRecord
	dropped := 0

	for offset := 0; ; offset += s.chunkSize {
		chunk, err := s.rows.ReadChunk(ctx, offset, s.chunkSize)
		if err != nil {
			return nil, fmt.Errorf("failed to read row chunk at %d: %w", offset, err)
		}
		if len(chunk) == 0 {
			break
		}

		for _, cells := range chunk {
			raw := record.RawRow{
				User:      cell(cells, userCol),
				State:     cell(cells, stateCol),
				Timestamp: cell(cells, tsCol),
				Duration:  cell(cells, durCol),
			}
			if dateCol >= 0 {
				raw.Date = cell(cells, dateCol)
			}
			rec, err := record.Normalize(raw, s.loc)
			if err != nil {
				dropped++
				s.logger.Warn("dropping unusable attendance row",
					"reason", err, "user", raw.User, "timestamp", raw.Timestamp)
				continue
			}
			records = append(records, rec)
		}

		if budget.FractionUsed() > fetchBudgetFraction {
			s.logger.Warn("row fetch stopped early on time budget",
				"elapsed", budget.Elapsed(), "rows", len(records))
			break
		}
	}

	if dropped > 0 {
		s.logger.Warn("dropped rows during ingestion", "count", dropped)
	}
	return records, nil
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// Invalidate drops the cached row set so the next fetch re-reads the store.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.blob.Delete(ctx, rowCacheKey); err != nil {
		s.logger.Warn("row cache invalidation failed", "error", err)
	}
}

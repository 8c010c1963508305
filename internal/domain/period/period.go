// Package period resolves (granularity, period identifier) pairs into
// inclusive local-time bounds. All arithmetic is pure and deterministic.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/timeparse"
)

type Granularity string

const (
	Week     Granularity = "Week"
	BiWeekly Granularity = "BiWeekly"
	Month    Granularity = "Month"
	Quarter  Granularity = "Quarter"
	Year     Granularity = "Year"
)

// ParseGranularity accepts the canonical names case-insensitively plus the
// short aliases used by the reporting collaborators.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "weekly":
		return Week, nil
	case "biweekly", "bi-weekly":
		return BiWeekly, nil
	case "month", "monthly":
		return Month, nil
	case "quarter", "quarterly":
		return Quarter, nil
	case "year", "yearly":
		return Year, nil
	}
	return "", fmt.Errorf("%w: unknown granularity %q", ErrInvalidPeriod, s)
}

// Bounds is a resolved period: Start is midnight local time, End is
// 23:59:59.999 local time of the last included day.
type Bounds struct {
	Granularity Granularity
	ID          string
	Start       time.Time
	End         time.Time
}

func (b Bounds) Contains(t time.Time) bool {
	return !t.Before(b.Start) && !t.After(b.End)
}

// Days returns the midnight of every calendar day in the period, in order.
func (b Bounds) Days() []time.Time {
	var days []time.Time
	for d := b.Start; !d.After(b.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WorkingDays counts the Monday-Friday days in the period.
func (b Bounds) WorkingDays() int {
	n := 0
	for _, d := range b.Days() {
		if !timeparse.IsWeekend(timeparse.ISOWeekday(d)) {
			n++
		}
	}
	return n
}

var (
	weekRe     = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)
	biWeeklyRe = regexp.MustCompile(`^(\d{4})-BW(\d{1,2})$`)
	monthRe    = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	quarterRe  = regexp.MustCompile(`^Q([1-4])-(\d{4})$`)
	yearRe     = regexp.MustCompile(`^(\d{4})$`)
)

// Resolve converts a granularity-specific identifier into inclusive bounds.
// Fails with ErrInvalidPeriod on malformed identifiers and ErrPeriodRequired
// on an empty one.
func Resolve(g Granularity, id string, loc *time.Location) (Bounds, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Bounds{}, ErrPeriodRequired
	}

	switch g {
	case Week:
		m := weekRe.FindStringSubmatch(id)
		if m == nil {
			return Bounds{}, fmt.Errorf("%w: want YYYY-Www, got %q", ErrInvalidPeriod, id)
		}
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		if week < 1 || week > 53 {
			return Bounds{}, fmt.Errorf("%w: week %d out of range", ErrInvalidPeriod, week)
		}
		start := isoWeekStart(year, loc).AddDate(0, 0, (week-1)*7)
		return bounds(g, id, start, start.AddDate(0, 0, 6), loc), nil

	case BiWeekly:
		m := biWeeklyRe.FindStringSubmatch(id)
		if m == nil {
			return Bounds{}, fmt.Errorf("%w: want YYYY-BWnn, got %q", ErrInvalidPeriod, id)
		}
		year, _ := strconv.Atoi(m[1])
		n, _ := strconv.Atoi(m[2])
		if n < 1 || n > 27 {
			return Bounds{}, fmt.Errorf("%w: biweek %d out of range", ErrInvalidPeriod, n)
		}
		start := isoWeekStart(year, loc).AddDate(0, 0, (n-1)*14)
		return bounds(g, id, start, start.AddDate(0, 0, 13), loc), nil

	case Month:
		m := monthRe.FindStringSubmatch(id)
		if m == nil {
			return Bounds{}, fmt.Errorf("%w: want YYYY-MM, got %q", ErrInvalidPeriod, id)
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return Bounds{}, fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, month)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		return bounds(g, id, start, start.AddDate(0, 1, -1), loc), nil

	case Quarter:
		m := quarterRe.FindStringSubmatch(id)
		if m == nil {
			return Bounds{}, fmt.Errorf("%w: want Qn-YYYY, got %q", ErrInvalidPeriod, id)
		}
		q, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		start := time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, loc)
		end := time.Date(year, time.Month(q*3), 1, 0, 0, 0, 0, loc).AddDate(0, 1, -1)
		return bounds(g, id, start, end, loc), nil

	case Year:
		m := yearRe.FindStringSubmatch(id)
		if m == nil {
			return Bounds{}, fmt.Errorf("%w: want YYYY, got %q", ErrInvalidPeriod, id)
		}
		year, _ := strconv.Atoi(m[1])
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return bounds(g, id, start, time.Date(year, time.December, 31, 0, 0, 0, 0, loc), loc), nil
	}

	return Bounds{}, fmt.Errorf("%w: unknown granularity %q", ErrInvalidPeriod, g)
}

// isoWeekStart returns the Monday of ISO week 1: the week containing
// January 4.
func isoWeekStart(year int, loc *time.Location) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	offset := timeparse.ISOWeekday(jan4) - 1
	return jan4.AddDate(0, 0, -offset)
}

func bounds(g Granularity, id string, start, endDay time.Time, loc *time.Location) Bounds {
	end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return Bounds{
		Granularity: g,
		ID:          id,
		Start:       time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc),
		End:         end,
	}
}

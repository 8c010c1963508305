// Package timeparse normalizes the heterogeneous date/time text found in the
// imported attendance sheets into local-calendar instants.
package timeparse

import (
	"errors"
	"strings"
	"time"
)

var ErrUnparsable = errors.New("unparsable timestamp")

// Layouts tried in order. The sheet exports mix ISO date-times, bare ISO
// dates, and the locale slash format "M/D/YYYY, h:mm:ss AM/PM" (with or
// without seconds and with or without the comma). Go's "3" hour verb handles
// the 12-hour ambiguity: 12 AM parses to hour 0, 12 PM stays 12.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	// Generic fallbacks seen in older exports.
	time.RFC1123,
	time.ANSIC,
}

// Parse interprets raw as a point in time in loc. Returns ErrUnparsable when
// no known format matches.
func Parse(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrUnparsable
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrUnparsable
}

// DateKey derives the local calendar date ("2006-01-02") of t, independent of
// its time of day.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// ISOWeekday maps Go's Sunday=0 weekday onto ISO numbering, Monday=1 through
// Sunday=7.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// IsWeekend reports whether an ISO weekday falls on Saturday or Sunday.
func IsWeekend(isoWeekday int) bool {
	return isoWeekday == 6 || isoWeekday == 7
}

// MidnightOf returns the start of the calendar day named by key in loc. The
// boolean is false when key is not a valid date key.
func MidnightOf(key string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02", key, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

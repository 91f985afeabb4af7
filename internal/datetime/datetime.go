// Package datetime converts between the date/time values picked in the
// booking forms and the datetime strings the backend expects.
//
// Every function is pure apart from IsToday, IsYesterday and
// GetYesterdayFormatted, which read the wall clock at call time. Functions
// that need a timezone take one explicitly; callers pass time.Local to get
// host-local behavior.
package datetime

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// CombineDateTime applies a "H:MM AM|PM" time onto the calendar day of
// dateISO and formats it as "YYYY-MM-DD HH:00:00".
//
// The minute is parsed and applied but the output always ends in ":00:00".
// TODO(product): confirm whether search/booking requests should carry the
// picked minute; until then the top-of-hour output is kept as is.
func CombineDateTime(dateISO string, time12h string, loc *time.Location) (string, error) {
	day, err := parseDate(dateISO, loc)
	if err != nil {
		return "", err
	}

	clock, err := ParseClock(time12h)
	if err != nil {
		return "", err
	}

	combined := atClock(day, clock)
	return combined.Format("2006-01-02 15") + ":00:00", nil
}

// CalculateTotalDuration returns the absolute number of hours between two
// date + "HH:MMAM" pairs. The result is the same whichever pair comes first;
// callers own the ordering check.
func CalculateTotalDuration(fromDate string, fromTime string, toDate string, toTime string, loc *time.Location) (float64, error) {
	start, err := combine(fromDate, fromTime, loc)
	if err != nil {
		return 0, fmt.Errorf("from: %w", err)
	}

	end, err := combine(toDate, toTime, loc)
	if err != nil {
		return 0, fmt.Errorf("to: %w", err)
	}

	return math.Abs(end.Sub(start).Hours()), nil
}

// FormatDate renders "DD/MM".
func FormatDate(t time.Time) string {
	return t.Format("02/01")
}

// FormatDateYear renders "DD/MM/YYYY".
func FormatDateYear(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormattedDateTime renders "YYYY-MM-DD hh:mm AM".
func FormattedDateTime(t time.Time) string {
	return t.Format(dateLayout) + " " + ClockOf(t.Hour(), t.Minute()).String()
}

// GetDateOnly extracts the local calendar day of an ISO string.
func GetDateOnly(iso string, loc *time.Location) (string, error) {
	t, err := parseDate(iso, loc)
	if err != nil {
		return "", err
	}
	return t.Format(dateLayout), nil
}

func ConvertToMySQLDate(t time.Time) string {
	return t.Format(dateLayout)
}

func ConvertToMySQLDatetime(t time.Time) string {
	return t.Format(datetimeLayout)
}

// SeparateDateAndTime splits a backend datetime (or ISO string) into a
// "YYYY-MM-DD" day and a "hh:mm AM" time of day.
func SeparateDateAndTime(datetime string, loc *time.Location) (string, string, error) {
	t, err := parseDate(datetime, loc)
	if err != nil {
		return "", "", err
	}
	return t.Format(dateLayout), ClockOf(t.Hour(), t.Minute()).String(), nil
}

func GetYesterdayFormatted() string {
	return time.Now().Add(-24 * time.Hour).Format(dateLayout)
}

func IsToday(t time.Time) bool {
	return sameLocalDay(t, time.Now())
}

func IsYesterday(t time.Time) bool {
	return sameLocalDay(t, time.Now().Add(-24*time.Hour))
}

func sameLocalDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.In(time.Local).Date()
	by, bm, bd := b.In(time.Local).Date()
	return ay == by && am == bm && ad == bd
}

func combine(date string, clockText string, loc *time.Location) (time.Time, error) {
	day, err := parseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}

	clock, err := ParseClock(clockText)
	if err != nil {
		return time.Time{}, err
	}

	return atClock(day, clock), nil
}

func atClock(day time.Time, clock Clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour24(), clock.Minute, 0, 0, day.Location())
}

// parseDate accepts RFC 3339, a backend datetime or a bare date. Strings
// carrying an offset are moved into loc; the others are read in loc.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	value := strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), nil
	}

	for _, layout := range []string{datetimeLayout, "2006-01-02T15:04:05", dateLayout} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformed, raw)
}

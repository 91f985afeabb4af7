package booking

import (
	"fmt"
	"math"
	"time"

	"go-driveway/internal/datetime"
)

type Policy string

const (
	// AdvanceOneHour moves an invalid end to one hour after the start.
	AdvanceOneHour Policy = "advance"
	// ClampToFrom moves an invalid end onto the start.
	ClampToFrom Policy = "clamp"
)

// Window is the from/to pair picked in the search and booking forms. Times
// use the "hh:mm AM" layout of the time pickers.
type Window struct {
	FromDate time.Time `json:"from_date"`
	FromTime string    `json:"from_time"`
	ToDate   time.Time `json:"to_date"`
	ToTime   string    `json:"to_time"`
}

func (w Window) Instants(loc *time.Location) (time.Time, time.Time, error) {
	from, err := at(w.FromDate, w.FromTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}

	to, err := at(w.ToDate, w.ToTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}

	return from, to, nil
}

// Normalize makes sure the end of the window does not precede its start.
// An end day earlier than the start day is moved onto the start day keeping
// its time of day; an end still at or before the start is then fixed up
// according to policy.
func (w Window) Normalize(loc *time.Location, policy Policy) (Window, error) {
	from, to, err := w.Instants(loc)
	if err != nil {
		return Window{}, err
	}

	if dayOf(to).Before(dayOf(from)) {
		to = time.Date(from.Year(), from.Month(), from.Day(), to.Hour(), to.Minute(), 0, 0, to.Location())
	}

	if !to.After(from) {
		switch policy {
		case ClampToFrom:
			to = from
		default:
			to = from.Add(time.Hour)
		}
	}

	return Window{
		FromDate: dayOf(from),
		FromTime: w.FromTime,
		ToDate:   dayOf(to),
		ToTime:   datetime.ClockOf(to.Hour(), to.Minute()).String(),
	}, nil
}

// Duration is the absolute length of the window in hours.
func (w Window) Duration(loc *time.Location) (float64, error) {
	return datetime.CalculateTotalDuration(
		datetime.ConvertToMySQLDate(w.FromDate.In(zone(loc))), w.FromTime,
		datetime.ConvertToMySQLDate(w.ToDate.In(zone(loc))), w.ToTime,
		loc,
	)
}

// SearchParams renders both ends as backend datetimes.
func (w Window) SearchParams(loc *time.Location) (string, string, error) {
	from, err := datetime.CombineDateTime(datetime.ConvertToMySQLDate(w.FromDate.In(zone(loc))), w.FromTime, loc)
	if err != nil {
		return "", "", fmt.Errorf("from: %w", err)
	}

	to, err := datetime.CombineDateTime(datetime.ConvertToMySQLDate(w.ToDate.In(zone(loc))), w.ToTime, loc)
	if err != nil {
		return "", "", fmt.Errorf("to: %w", err)
	}

	return from, to, nil
}

// EstimatePrice charges every started hour, with a one hour minimum.
func EstimatePrice(hours float64, hourlyRate float64) float64 {
	billable := math.Ceil(hours)
	if billable < 1 {
		billable = 1
	}
	return billable * hourlyRate
}

func at(day time.Time, clockText string, loc *time.Location) (time.Time, error) {
	clock, err := datetime.ParseClock(clockText)
	if err != nil {
		return time.Time{}, err
	}

	local := day.In(zone(loc))
	return time.Date(local.Year(), local.Month(), local.Day(), clock.Hour24(), clock.Minute, 0, 0, zone(loc)), nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func zone(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

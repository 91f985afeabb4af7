package datetime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned for date or time strings that do not match the
// layouts the booking forms produce.
var ErrMalformed = errors.New("malformed date/time input")

type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// Clock is a 12-hour time of day as picked in the booking forms.
type Clock struct {
	Hour     int
	Minute   int
	Meridiem Meridiem
}

// Hour24 converts the clock hour to 24-hour form: 12 AM is 0, 12 PM stays 12,
// any other PM hour gains 12.
func (c Clock) Hour24() int {
	hour := c.Hour % 12
	if c.Meridiem == PM {
		hour += 12
	}
	return hour
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d %s", c.Hour, c.Minute, c.Meridiem)
}

// ParseClock reads "H:MM AM", "HH:MM PM" and the compact "HH:MMAM" form.
// Hour, minute and meridiem are validated separately.
func ParseClock(raw string) (Clock, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if len(value) < 2 {
		return Clock{}, fmt.Errorf("%w: time %q", ErrMalformed, raw)
	}

	meridiem := Meridiem(value[len(value)-2:])
	if meridiem != AM && meridiem != PM {
		return Clock{}, fmt.Errorf("%w: time %q has no AM/PM suffix", ErrMalformed, raw)
	}

	hm := strings.TrimSpace(value[:len(value)-2])
	hourPart, minutePart, found := strings.Cut(hm, ":")
	if !found || len(hourPart) == 0 || len(hourPart) > 2 || len(minutePart) != 2 {
		return Clock{}, fmt.Errorf("%w: time %q", ErrMalformed, raw)
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 12 {
		return Clock{}, fmt.Errorf("%w: hour in %q", ErrMalformed, raw)
	}

	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: minute in %q", ErrMalformed, raw)
	}

	return Clock{Hour: hour, Minute: minute, Meridiem: meridiem}, nil
}

// ClockOf returns the 12-hour reading of a 24-hour hour and minute.
func ClockOf(hour24 int, minute int) Clock {
	meridiem := AM
	if hour24 >= 12 {
		meridiem = PM
	}

	hour := hour24 % 12
	if hour == 0 {
		hour = 12
	}

	return Clock{Hour: hour, Minute: minute, Meridiem: meridiem}
}

package temporal

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for streaks and daily summaries.
const DateLayout = "2006-01-02"

// LocalDate returns the calendar date of t in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(orUTC(loc)).Format(DateLayout)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(orUTC(loc))
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, l.Location())
}

// DayBounds returns [start, end) of the local day containing t. The span is
// not always 24h: DST transitions shorten or lengthen it.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// DateBounds is DayBounds for a YYYY-MM-DD date.
func DateBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, orUTC(loc))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return d, d.AddDate(0, 0, 1), nil
}

// WeekStart returns Monday 00:00 local of the week containing t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	start := StartOfDay(t, loc)
	offset := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, -offset)
}

// DaysBetween returns the number of calendar days from one date to another.
func DaysBetween(from, to string) (int, error) {
	a, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", from, err)
	}
	b, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", to, err)
	}
	return int(b.Sub(a).Hours() / 24), nil
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// Package temporal turns natural-language time expressions into instants.
//
// Resolution is explicit about its inputs: every call receives the reference
// instant and the user's location, and every returned instant is in UTC.
package temporal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnrecognized is returned when no rule and no fallback parser matched.
var ErrUnrecognized = errors.New("temporal: unrecognized time expression")

// Match identifies which family resolved an expression.
type Match string

const (
	MatchRelative Match = "relative"
	MatchAbsolute Match = "absolute"
	MatchFallback Match = "fallback"
)

// Fixed clock anchors for part-of-day expressions.
const (
	morningHour   = 7
	afternoonHour = 14
	eveningHour   = 18
	tonightHour   = 20
	lastNightHour = 22
	earlierOffset = 2 * time.Hour
)

// maxLookback bounds "N units ago" so the arithmetic cannot overflow.
const maxLookback = 10 * 365 * 24 * time.Hour

// errOutOfRange marks text a rule matched but refused to resolve. The
// fallback parser is not consulted for it.
var errOutOfRange = fmt.Errorf("%w: out of range", ErrUnrecognized)

type rule struct {
	re      *regexp.Regexp
	family  Match
	resolve func(m []string, ref time.Time, loc *time.Location) (time.Time, bool)
}

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	prefixRe = regexp.MustCompile(`^(?:at|around|about|approximately|approx\.?|~)\s+`)
)

var rules = []rule{
	{regexp.MustCompile(`^(?:just now|right now|now)$`), MatchRelative,
		func(_ []string, ref time.Time, _ *time.Location) (time.Time, bool) { return ref, true }},
	{regexp.MustCompile(`^half an? hour ago$`), MatchRelative,
		func(_ []string, ref time.Time, _ *time.Location) (time.Time, bool) { return ref.Add(-30 * time.Minute), true }},
	{regexp.MustCompile(`^(\d+|an?) (?:min|mins|minute|minutes) ago$`), MatchRelative,
		func(m []string, ref time.Time, _ *time.Location) (time.Time, bool) {
			return ago(ref, count(m[1]), time.Minute)
		}},
	{regexp.MustCompile(`^(\d+|an?) (?:h|hr|hrs|hour|hours) ago$`), MatchRelative,
		func(m []string, ref time.Time, _ *time.Location) (time.Time, bool) {
			return ago(ref, count(m[1]), time.Hour)
		}},
	{regexp.MustCompile(`^(\d+|an?) (?:day|days) ago$`), MatchRelative,
		func(m []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			n := count(m[1])
			if n < 0 || int64(n) > int64(maxLookback/(24*time.Hour)) {
				return time.Time{}, false
			}
			t := ref.In(loc).AddDate(0, 0, -n)
			return t, !t.After(ref)
		}},
	{regexp.MustCompile(`^(?:last week|a week ago|1 week ago)$`), MatchRelative,
		func(_ []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			return ref.In(loc).AddDate(0, 0, -7), true
		}},
	{regexp.MustCompile(`^yesterday$`), MatchRelative,
		func(_ []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			return ref.In(loc).AddDate(0, 0, -1), true
		}},
	{regexp.MustCompile(`^yesterday (?:at |around )?(\d{1,2})(?::(\d{2}))? ?(am|pm|a\.m\.?|p\.m\.?)?$`), MatchRelative,
		func(m []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			h, min, ok := clock(m[1], m[2], m[3])
			if !ok {
				return time.Time{}, false
			}
			return onDay(ref, loc, -1, h, min), true
		}},
	{regexp.MustCompile(`^yesterday (?:at |around )?(noon|midday|midnight)$`), MatchRelative,
		func(m []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			if m[1] == "midnight" {
				return onDay(ref, loc, -1, 0, 0), true
			}
			return onDay(ref, loc, -1, 12, 0), true
		}},
	{regexp.MustCompile(`^yesterday (morning|afternoon|evening|night)$`), MatchRelative,
		func(m []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			return onDay(ref, loc, -1, partOfDay(m[1]), 0), true
		}},
	{regexp.MustCompile(`^last night$`), MatchRelative,
		func(_ []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			return onDay(ref, loc, -1, lastNightHour, 0), true
		}},
	{regexp.MustCompile(`^(?:this |in the )?(morning|afternoon|evening)$`), MatchRelative,
		func(m []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			return onDay(ref, loc, 0, partOfDay(m[1]), 0), true
		}},
	{regexp.MustCompile(`^tonight$`), MatchRelative,
		func(_ []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			return onDay(ref, loc, 0, tonightHour, 0), true
		}},
	{regexp.MustCompile(`^earlier(?: today)?$`), MatchRelative,
		func(_ []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			t := ref.Add(-earlierOffset)
			if midnight := StartOfDay(ref, loc); t.Before(midnight) {
				t = midnight
			}
			return t, true
		}},
	{regexp.MustCompile(`^(?:today )?(?:at )?(noon|midday|midnight)$`), MatchAbsolute,
		func(m []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			if m[1] == "midnight" {
				return onDay(ref, loc, 0, 0, 0), true
			}
			return onDay(ref, loc, 0, 12, 0), true
		}},
	{regexp.MustCompile(`^(?:today )?(?:at )?(\d{1,2})(?::(\d{2}))? ?(am|pm|a\.m\.?|p\.m\.?)(?: today)?$`), MatchAbsolute,
		func(m []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			h, min, ok := clock(m[1], m[2], m[3])
			if !ok {
				return time.Time{}, false
			}
			return onDay(ref, loc, 0, h, min), true
		}},
	{regexp.MustCompile(`^(?:today )?(?:at )?(\d{1,2}):(\d{2})(?: today)?$`), MatchAbsolute,
		func(m []string, ref time.Time, loc *time.Location) (time.Time, bool) {
			h, min, ok := clock(m[1], m[2], "")
			if !ok {
				return time.Time{}, false
			}
			return onDay(ref, loc, 0, h, min), true
		}},
}

// Resolve interprets text relative to ref in loc. Absolute clock times are
// placed on the current local day. The result is in UTC.
func Resolve(text string, ref time.Time, loc *time.Location) (time.Time, error) {
	t, _, err := resolve(text, ref, loc)
	return t, err
}

// ResolveOrParse tries Resolve first and then a generic date parser that
// understands calendar dates and timestamps. It reports which path matched.
func ResolveOrParse(text string, ref time.Time, loc *time.Location) (time.Time, Match, error) {
	t, family, err := resolve(text, ref, loc)
	if err == nil {
		return t, family, nil
	}
	if errors.Is(err, errOutOfRange) {
		return time.Time{}, "", ErrUnrecognized
	}
	raw := strings.TrimSpace(text)
	if raw == "" {
		return time.Time{}, "", ErrUnrecognized
	}
	t, err = dateparse.ParseIn(raw, orUTC(loc))
	if err != nil {
		return time.Time{}, "", ErrUnrecognized
	}
	return t.UTC(), MatchFallback, nil
}

func resolve(text string, ref time.Time, loc *time.Location) (time.Time, Match, error) {
	loc = orUTC(loc)
	s := normalize(text)
	if s == "" {
		return time.Time{}, "", ErrUnrecognized
	}
	matched := false
	for _, r := range rules {
		m := r.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if t, ok := r.resolve(m, ref, loc); ok {
			return t.UTC(), r.family, nil
		}
		matched = true
	}
	if matched {
		return time.Time{}, "", errOutOfRange
	}
	return time.Time{}, "", ErrUnrecognized
}

func normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimRight(s, ".!?,;")
	s = spaceRe.ReplaceAllString(s, " ")
	s = normalizeNumbers(s)
	return prefixRe.ReplaceAllString(s, "")
}

// count turns a captured quantity into an int; "a"/"an" mean one. It
// returns -1 when the digits do not fit an int.
func count(s string) int {
	if s == "a" || s == "an" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// ago steps n units back from ref. Counts beyond maxLookback are refused.
func ago(ref time.Time, n int, unit time.Duration) (time.Time, bool) {
	if n < 0 || int64(n) > int64(maxLookback/unit) {
		return time.Time{}, false
	}
	t := ref.Add(-time.Duration(n) * unit)
	return t, !t.After(ref)
}

// clock validates an hour/minute pair with an optional meridiem.
func clock(hour, minute, meridiem string) (int, int, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return 0, 0, false
	}
	min := 0
	if minute != "" {
		if min, err = strconv.Atoi(minute); err != nil || min > 59 {
			return 0, 0, false
		}
	}
	switch strings.ReplaceAll(meridiem, ".", "") {
	case "am":
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		if h == 12 {
			h = 0
		}
	case "pm":
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		if h != 12 {
			h += 12
		}
	default:
		if h > 23 {
			return 0, 0, false
		}
	}
	return h, min, true
}

func partOfDay(s string) int {
	switch s {
	case "morning":
		return morningHour
	case "afternoon":
		return afternoonHour
	case "night":
		return lastNightHour
	}
	return eveningHour
}

// onDay builds hour:minute on the local day dayOffset days from ref.
func onDay(ref time.Time, loc *time.Location, dayOffset, hour, minute int) time.Time {
	l := ref.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day()+dayOffset, hour, minute, 0, 0, loc)
}

// Package epoch converts the feed's day-of-year timestamps to and from
// absolute times and finds the stored epoch closest to a given instant.
//
// Epoch strings have the shape YYYY-DDDThh:mm:ss.fffZ, e.g.
// 2025-063T12:00:00.000Z. They do not sort correctly as strings across
// year boundaries, so every comparison goes through Parse.
package epoch

import (
	"regexp"
	"strings"
	"time"

	"github.com/vjranagit/isstracker/pkg/fault"
)

const (
	parseLayout = "2006-002T15:04:05Z"
	milliLayout = "2006-002T15:04:05.000Z"
	microLayout = "2006-002T15:04:05.000000Z"
	nanoLayout  = "2006-002T15:04:05.000000000Z"
)

var shape = regexp.MustCompile(`^\d{4}-\d{3}T\d{2}:\d{2}:\d{2}\.\d{1,9}Z$`)

// Parse converts an epoch string to a UTC time
func Parse(raw string) (time.Time, error) {
	if !shape.MatchString(raw) {
		return time.Time{}, &fault.TimestampParseError{Raw: raw, Reason: "expected YYYY-DDDThh:mm:ss.fffZ"}
	}

	// the time package accepts a fractional second after the seconds
	// field even when the layout does not name one
	t, err := time.Parse(parseLayout, raw)
	if err != nil {
		return time.Time{}, &fault.TimestampParseError{Raw: raw, Reason: reason(err)}
	}
	return t.UTC(), nil
}

// Format renders t as an epoch string with the shortest of millisecond,
// microsecond or nanosecond precision that represents t exactly
func Format(t time.Time) string {
	t = t.UTC()
	ns := t.Nanosecond()
	switch {
	case ns%int(time.Millisecond) == 0:
		return t.Format(milliLayout)
	case ns%int(time.Microsecond) == 0:
		return t.Format(microLayout)
	default:
		return t.Format(nanoLayout)
	}
}

// Nearest returns the key closest in time to target.
// On equal distance the earlier key in keys wins.
// A key that does not parse fails the whole scan.
func Nearest(target time.Time, keys []string) (string, error) {
	if len(keys) == 0 {
		return "", fault.ErrEmpty
	}

	best := ""
	var bestDistance time.Duration
	for i, key := range keys {
		t, err := Parse(key)
		if err != nil {
			return "", err
		}
		d := absDuration(t.Sub(target))
		if i == 0 || d < bestDistance {
			best = key
			bestDistance = d
		}
	}
	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// reason strips the layout echo from a time.ParseError
func reason(err error) string {
	if pe, ok := err.(*time.ParseError); ok && pe.Message != "" {
		return strings.TrimPrefix(pe.Message, ": ")
	}
	return err.Error()
}

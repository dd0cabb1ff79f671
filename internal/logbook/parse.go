// Package logbook validates and aggregates rows extracted from
// photographed paper logbook pages. Everything in this package is a
// pure function over its inputs; nothing here touches storage, the
// network, or the clock.
package logbook

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// DurationPlaceholder is what FormatDuration renders when no duration
// is known. It is display output, never an error condition.
const DurationPlaceholder = "--:--"

const minutesInDay = 24 * 60

var (
	dateRe    = regexp.MustCompile(`^\s*(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2}|\d{4})\s*$`)
	clockRe   = regexp.MustCompile(`^\s*(\d{1,2})[:.](\d{2})\s*$`)
	decimalRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*$`)
)

// ParseDate parses a handwritten day/month/year date. Separators may
// be "/", "-" or ".". Two-digit years above 50 map to the 1900s,
// otherwise the 2000s.
func ParseDate(text string) (time.Time, error) {
	m := dateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q", text)
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		if year > 50 {
			year += 1900
		} else {
			year += 2000
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date %q out of range", text)
	}

	// time.Date normalises overflow (31/02 becomes 02/03 or 03/03);
	// reject anything that did not survive round-tripping
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) || d.Year() != year {
		return time.Time{}, fmt.Errorf("date %q is not a real calendar date", text)
	}

	return d, nil
}

// ParseClockTime parses a 24-hour clock time written as H:MM or H.MM
// and returns minutes since midnight.
func ParseClockTime(text string) (int, error) {
	m := clockRe.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("unrecognised time %q", text)
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("time %q out of range", text)
	}

	return hours*60 + minutes, nil
}

// ParseDuration parses a duration written either as an H:MM / H.MM
// token or as a bare decimal number of hours ("1.75" is 105 minutes).
// The token form wins when both could apply, so "1.30" is an hour and
// thirty minutes, not 1.3 hours.
func ParseDuration(text string) (int, error) {
	if m := clockRe.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		if minutes <= 59 {
			return hours*60 + minutes, nil
		}
	}

	if m := decimalRe.FindStringSubmatch(text); m != nil {
		hours, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return int(math.Round(hours * 60)), nil
		}
	}

	return 0, fmt.Errorf("unrecognised duration %q", text)
}

// FormatDuration renders minutes as "H:MM". A nil input renders as
// the placeholder rather than failing; callers format unknown
// durations all the time.
func FormatDuration(minutes *int) string {
	if minutes == nil {
		return DurationPlaceholder
	}
	return fmt.Sprintf("%d:%02d", *minutes/60, *minutes%60)
}

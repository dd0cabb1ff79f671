package logbook

import (
	"fmt"
	"time"
)

// Rules is the fixed configuration the row validator applies. The
// thresholds come from the licensing authority's logbook guidance, not
// from anything tunable per student.
type Rules struct {
	MaxSessionHours       int
	MinSessionMinutes     int
	MaxDailyHours         int
	EarliestPlausibleDate time.Time
}

// DefaultRules returns the standard rule configuration.
func DefaultRules() Rules {
	return Rules{
		MaxSessionHours:       2,
		MinSessionMinutes:     5,
		MaxDailyHours:         8,
		EarliestPlausibleDate: time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// reconcileSlackMinutes is how far a handwritten duration may disagree
// with the computed one before it is an error. Handwriting rounds.
const reconcileSlackMinutes = 5

const (
	plausibleDistanceKm = 200
	plausibleSpeedKmh   = 100
)

// ValidateRow applies every consistency rule to one extracted row.
// Rules are evaluated independently and never short-circuit: a row can
// accumulate several errors and warnings at once. Only errors make a
// row invalid; warnings are advisory.
func ValidateRow(row Row, today time.Time, rules Rules) ValidatedRow {
	v := ValidatedRow{
		Row:      row,
		Errors:   []Issue{},
		Warnings: []Issue{},
	}

	validateDate(&v, today, rules)
	computed := validateTimes(&v, rules)
	reconcileRecordedDuration(&v, computed)
	if !row.SignaturePresent {
		v.Warnings = append(v.Warnings, Issue{Field: "signature", Message: "supervisor signature is missing"})
	}
	validateOdometer(&v, computed)
	if row.Confidence == ConfidenceLow {
		v.Warnings = append(v.Warnings, Issue{Field: "confidence", Message: "row was hard to read; check the extracted values against the page"})
	}

	// Prefer the duration computed from the time endpoints; fall back
	// to the handwritten one when the times are unreadable.
	if computed != nil {
		v.DurationMinutes = computed
	} else if v.Row.RecordedDuration.State == FieldPresent {
		if recorded, err := ParseDuration(v.Row.RecordedDuration.Raw); err == nil {
			v.DurationMinutes = &recorded
		}
	}

	v.Valid = len(v.Errors) == 0
	return v
}

func validateDate(v *ValidatedRow, today time.Time, rules Rules) {
	switch v.Row.Date.State {
	case FieldAbsent:
		v.Errors = append(v.Errors, Issue{Field: "date", Message: "date is missing"})
	case FieldUnclear:
		v.Errors = append(v.Errors, Issue{Field: "date", Message: "date could not be read from the page"})
	case FieldPresent:
		d, err := ParseDate(v.Row.Date.Raw)
		if err != nil {
			v.Errors = append(v.Errors, Issue{Field: "date", Message: err.Error()})
			return
		}
		v.Date = &d
		if d.After(today) {
			v.Errors = append(v.Errors, Issue{Field: "date", Message: fmt.Sprintf("date %s is in the future", d.Format("2006-01-02"))})
		}
		if d.Before(rules.EarliestPlausibleDate) {
			v.Warnings = append(v.Warnings, Issue{Field: "date", Message: fmt.Sprintf("date %s is earlier than plausible for a current logbook", d.Format("2006-01-02"))})
		}
	}
}

// validateTimes checks both time endpoints and returns the computed
// session duration when both parse, or nil.
func validateTimes(v *ValidatedRow, rules Rules) *int {
	start, finish := v.Row.StartTime, v.Row.FinishTime

	if start.State != FieldPresent || finish.State != FieldPresent {
		v.Errors = append(v.Errors, Issue{Field: "time", Message: "start and/or finish time is missing or could not be read"})
		return nil
	}

	startMin, startErr := ParseClockTime(start.Raw)
	finishMin, finishErr := ParseClockTime(finish.Raw)
	if startErr != nil {
		v.Errors = append(v.Errors, Issue{Field: "startTime", Message: startErr.Error()})
	}
	if finishErr != nil {
		v.Errors = append(v.Errors, Issue{Field: "finishTime", Message: finishErr.Error()})
	}
	if startErr != nil || finishErr != nil {
		return nil
	}

	// A finish before the start is an overnight session, not an error
	if finishMin < startMin {
		finishMin += minutesInDay
	}
	computed := finishMin - startMin

	if computed < rules.MinSessionMinutes {
		v.Errors = append(v.Errors, Issue{
			Field:   "time",
			Message: fmt.Sprintf("session of %d minutes is shorter than %d minutes; the times are probably mis-entered", computed, rules.MinSessionMinutes),
		})
	}
	if computed > rules.MaxSessionHours*60 {
		v.Warnings = append(v.Warnings, Issue{
			Field:   "time",
			Message: fmt.Sprintf("session is longer than %d hours; a break is legally required after %d continuous hours", rules.MaxSessionHours, rules.MaxSessionHours),
		})
	}

	return &computed
}

func reconcileRecordedDuration(v *ValidatedRow, computed *int) {
	recorded := v.Row.RecordedDuration

	if recorded.State == FieldUnclear {
		if computed != nil {
			v.Warnings = append(v.Warnings, Issue{Field: "duration", Message: "recorded duration could not be read; using the duration computed from the times"})
		}
		return
	}
	if recorded.State != FieldPresent {
		return
	}

	recordedMin, err := ParseDuration(recorded.Raw)
	if err != nil {
		if computed != nil {
			v.Warnings = append(v.Warnings, Issue{Field: "duration", Message: "recorded duration is unreadable; using the duration computed from the times"})
		}
		return
	}
	if computed == nil {
		return
	}

	diff := recordedMin - *computed
	if diff < 0 {
		diff = -diff
	}
	if diff > reconcileSlackMinutes {
		v.Errors = append(v.Errors, Issue{
			Field:   "duration",
			Message: fmt.Sprintf("recorded duration %s does not match %s computed from the times", FormatDuration(&recordedMin), FormatDuration(computed)),
		})
	}
}

func validateOdometer(v *ValidatedRow, computed *int) {
	start, finish := v.Row.OdometerStart, v.Row.OdometerFinish
	if start == nil || finish == nil {
		return
	}

	if *finish < *start {
		v.Errors = append(v.Errors, Issue{Field: "odometer", Message: "finish odometer reading is lower than the start reading"})
		return
	}

	distance := *finish - *start
	if distance > plausibleDistanceKm && computed != nil && *computed > 0 {
		speed := distance / (float64(*computed) / 60)
		if speed > plausibleSpeedKmh {
			v.Warnings = append(v.Warnings, Issue{
				Field:   "odometer",
				Message: fmt.Sprintf("%.0f km in %s implies %.0f km/h; check the odometer readings", distance, FormatDuration(computed), speed),
			})
		}
	}
}

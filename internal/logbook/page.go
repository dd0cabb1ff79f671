package logbook

import (
	"fmt"
	"time"
)

// PageType is the category of logbook page, which decides which
// cumulative bucket the page's minutes feed.
type PageType string

const (
	PageDaySupervised       PageType = "day_supervised"
	PageNightSupervised     PageType = "night_supervised"
	PageProfessionalDriving PageType = "professional_driving"
	PageProfessionalStamp   PageType = "professional_stamp"
)

// Known reports whether t is one of the four page categories.
func (t PageType) Known() bool {
	switch t {
	case PageDaySupervised, PageNightSupervised, PageProfessionalDriving, PageProfessionalStamp:
		return true
	}
	return false
}

// SubtotalCheck is the outcome of reconciling the page's own declared
// subtotal against the computed sum.
type SubtotalCheck string

const (
	SubtotalNotDeclared SubtotalCheck = "not_declared"
	SubtotalUnreadable  SubtotalCheck = "unreadable"
	SubtotalMatched     SubtotalCheck = "matched"
	SubtotalMismatched  SubtotalCheck = "mismatched"
)

// subtotalSlackMinutes mirrors the per-row reconciliation slack: the
// page's handwritten subtotal is advisory evidence, not ground truth.
const subtotalSlackMinutes = 5

// PageScanResult is everything derived from one scanned page.
type PageScanResult struct {
	PageType       PageType       `json:"pageType"`
	PageNumber     *int           `json:"pageNumber,omitempty"`
	Rows           []ValidatedRow `json:"rows"`
	EntryCount     int            `json:"entryCount"`
	ValidCount     int            `json:"validCount"`
	TotalMinutes   int            `json:"totalMinutes"`
	TotalFormatted string         `json:"totalFormatted"`
	ErrorCount     int            `json:"errorCount"`
	WarningCount   int            `json:"warningCount"`
	Errors         []Issue        `json:"errors"`
	Warnings       []Issue        `json:"warnings"`
	SubtotalCheck  SubtotalCheck  `json:"subtotalCheck"`
	Notes          string         `json:"notes,omitempty"`
}

// AggregatePage reduces a page's validated rows to a PageScanResult.
// Only valid rows contribute minutes; invalid rows are kept in the
// output so the caller can show what was rejected and why.
func AggregatePage(pageType PageType, pageNumber *int, rows []ValidatedRow, declaredSubtotal Field, rules Rules) PageScanResult {
	res := PageScanResult{
		PageType:   pageType,
		PageNumber: pageNumber,
		Rows:       rows,
		EntryCount: len(rows),
		Errors:     []Issue{},
		Warnings:   []Issue{},
	}

	perDay := map[time.Time]int{}
	for _, r := range rows {
		for _, is := range r.Errors {
			res.Errors = append(res.Errors, Issue{
				Field:   fmt.Sprintf("row %d: %s", r.Row.Index, is.Field),
				Message: is.Message,
			})
		}
		for _, is := range r.Warnings {
			res.Warnings = append(res.Warnings, Issue{
				Field:   fmt.Sprintf("row %d: %s", r.Row.Index, is.Field),
				Message: is.Message,
			})
		}
		if r.Valid && r.DurationMinutes != nil {
			res.ValidCount++
			res.TotalMinutes += *r.DurationMinutes
			if r.Date != nil {
				perDay[*r.Date] += *r.DurationMinutes
			}
		} else if r.Valid {
			res.ValidCount++
		}
	}

	for day, minutes := range perDay {
		if minutes > rules.MaxDailyHours*60 {
			res.Warnings = append(res.Warnings, Issue{
				Field:   "page",
				Message: fmt.Sprintf("%s on %s exceeds the %d hour daily limit", FormatDuration(&minutes), day.Format("2006-01-02"), rules.MaxDailyHours),
			})
		}
	}

	res.SubtotalCheck = checkSubtotal(&res, declaredSubtotal)
	res.TotalFormatted = FormatDuration(&res.TotalMinutes)
	res.ErrorCount = len(res.Errors)
	res.WarningCount = len(res.Warnings)
	return res
}

func checkSubtotal(res *PageScanResult, declared Field) SubtotalCheck {
	switch declared.State {
	case FieldAbsent:
		return SubtotalNotDeclared
	case FieldUnclear:
		return SubtotalUnreadable
	}

	declaredMin, err := ParseDuration(declared.Raw)
	if err != nil {
		res.Warnings = append(res.Warnings, Issue{Field: "subtotal", Message: fmt.Sprintf("declared page subtotal %q is unreadable", declared.Raw)})
		return SubtotalUnreadable
	}

	diff := declaredMin - res.TotalMinutes
	if diff < 0 {
		diff = -diff
	}
	if diff > subtotalSlackMinutes {
		res.Warnings = append(res.Warnings, Issue{
			Field:   "subtotal",
			Message: fmt.Sprintf("declared subtotal %s disagrees with computed total %s", FormatDuration(&declaredMin), FormatDuration(&res.TotalMinutes)),
		})
		return SubtotalMismatched
	}
	return SubtotalMatched
}

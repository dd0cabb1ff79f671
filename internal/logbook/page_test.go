package logbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validatedRows(t *testing.T, rows ...Row) []ValidatedRow {
	t.Helper()
	out := make([]ValidatedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, ValidateRow(r, testToday, DefaultRules()))
	}
	return out
}

func TestAggregatePageSumsOnlyValidRows(t *testing.T) {
	good := goodRow()

	bad := goodRow()
	bad.Index = 2
	bad.Date = NewField("unclear")
	// The invalid row still carries a duration; it must not count

	rows := validatedRows(t, good, bad)
	res := AggregatePage(PageDaySupervised, nil, rows, Field{}, DefaultRules())

	assert.Equal(t, 2, res.EntryCount)
	assert.Equal(t, 1, res.ValidCount)
	assert.Equal(t, 90, res.TotalMinutes)
	assert.Equal(t, "1:30", res.TotalFormatted)
	assert.Len(t, res.Rows, 2, "invalid rows are kept for display")
	assert.Equal(t, SubtotalNotDeclared, res.SubtotalCheck)
}

func TestAggregatePageCollectsRowIssues(t *testing.T) {
	bad := goodRow()
	bad.Index = 3
	bad.Date = NewField("unclear")
	bad.SignaturePresent = false

	res := AggregatePage(PageDaySupervised, nil, validatedRows(t, bad), Field{}, DefaultRules())

	assert.Equal(t, 1, res.ErrorCount)
	assert.Equal(t, 1, res.WarningCount)
	assert.Equal(t, "row 3: date", res.Errors[0].Field)
	assert.Equal(t, "row 3: signature", res.Warnings[0].Field)
}

func TestAggregatePageSubtotalWithinSlack(t *testing.T) {
	res := AggregatePage(PageDaySupervised, nil, validatedRows(t, goodRow()), NewField("1:33"), DefaultRules())

	assert.Equal(t, SubtotalMatched, res.SubtotalCheck)
	assert.Empty(t, res.Warnings)
}

func TestAggregatePageSubtotalMismatchIsAWarning(t *testing.T) {
	res := AggregatePage(PageDaySupervised, nil, validatedRows(t, goodRow()), NewField("3:00"), DefaultRules())

	assert.Equal(t, SubtotalMismatched, res.SubtotalCheck)
	assert.Equal(t, 1, res.WarningCount)
	assert.Equal(t, "subtotal", res.Warnings[0].Field)
	// Advisory only: the computed total stands
	assert.Equal(t, 90, res.TotalMinutes)
}

func TestAggregatePageUnreadableSubtotal(t *testing.T) {
	res := AggregatePage(PageDaySupervised, nil, validatedRows(t, goodRow()), NewField("smudged"), DefaultRules())

	assert.Equal(t, SubtotalUnreadable, res.SubtotalCheck)
	assert.Equal(t, 1, res.WarningCount)
}

func TestAggregatePageDailyLimitWarning(t *testing.T) {
	morning := goodRow()
	morning.StartTime = NewField("6:00")
	morning.FinishTime = NewField("11:00")
	morning.RecordedDuration = NewField("5:00")

	afternoon := goodRow()
	afternoon.Index = 2
	afternoon.StartTime = NewField("13:00")
	afternoon.FinishTime = NewField("17:30")
	afternoon.RecordedDuration = NewField("4:30")

	res := AggregatePage(PageDaySupervised, nil, validatedRows(t, morning, afternoon), Field{}, DefaultRules())

	// 9:30 on one date beats the 8 hour daily cap
	pageWarnings := 0
	for _, wrn := range res.Warnings {
		if wrn.Field == "page" {
			pageWarnings++
		}
	}
	assert.Equal(t, 1, pageWarnings)
	assert.Equal(t, 570, res.TotalMinutes)
}

func TestAggregatePageEmpty(t *testing.T) {
	res := AggregatePage(PageNightSupervised, nil, nil, Field{}, DefaultRules())

	assert.Equal(t, 0, res.EntryCount)
	assert.Equal(t, 0, res.TotalMinutes)
	assert.Equal(t, "0:00", res.TotalFormatted)
}

package logbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

// goodRow returns a row that passes every rule.
func goodRow() Row {
	odoStart, odoFinish := 45210.0, 45255.0
	return Row{
		Index:            1,
		Date:             NewField("5/3/24"),
		Supervisor:       NewField("M. Harrison"),
		LicenceNumber:    NewField("HAR8812"),
		StartTime:        NewField("9:15"),
		FinishTime:       NewField("10:45"),
		RecordedDuration: NewField("1:30"),
		SignaturePresent: true,
		OdometerStart:    &odoStart,
		OdometerFinish:   &odoFinish,
		Confidence:       ConfidenceHigh,
	}
}

func fieldNames(issues []Issue) []string {
	names := make([]string, 0, len(issues))
	for _, is := range issues {
		names = append(names, is.Field)
	}
	return names
}

func TestValidateRowCleanRow(t *testing.T) {
	v := ValidateRow(goodRow(), testToday, DefaultRules())

	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)
	require.NotNil(t, v.DurationMinutes)
	assert.Equal(t, 90, *v.DurationMinutes)
	require.NotNil(t, v.Date)
	assert.Equal(t, "2024-03-05", v.Date.Format("2006-01-02"))
}

func TestValidateRowUnclearDate(t *testing.T) {
	row := goodRow()
	row.Date = NewField("unclear")

	v := ValidateRow(row, testToday, DefaultRules())

	assert.False(t, v.Valid)
	assert.Contains(t, fieldNames(v.Errors), "date")
	// The times still parse, so the duration survives the bad date
	require.NotNil(t, v.DurationMinutes)
	assert.Equal(t, 90, *v.DurationMinutes)
}

func TestValidateRowFutureDate(t *testing.T) {
	row := goodRow()
	row.Date = NewField("1/1/25")

	v := ValidateRow(row, testToday, DefaultRules())

	assert.False(t, v.Valid)
	assert.Contains(t, fieldNames(v.Errors), "date")
}

func TestValidateRowImplausiblyOldDateIsOnlyAWarning(t *testing.T) {
	row := goodRow()
	row.Date = NewField("5/3/04")

	v := ValidateRow(row, testToday, DefaultRules())

	assert.True(t, v.Valid)
	assert.Contains(t, fieldNames(v.Warnings), "date")
}

func TestValidateRowUnclearTimeEndpoint(t *testing.T) {
	row := goodRow()
	row.FinishTime = NewField("unclear")

	v := ValidateRow(row, testToday, DefaultRules())

	assert.False(t, v.Valid)
	assert.Contains(t, fieldNames(v.Errors), "time")
	// Duration falls back to the recorded column
	require.NotNil(t, v.DurationMinutes)
	assert.Equal(t, 90, *v.DurationMinutes)
}

func TestValidateRowOvernightSessionCrossesMidnight(t *testing.T) {
	row := goodRow()
	row.StartTime = NewField("23:30")
	row.FinishTime = NewField("0:30")
	row.RecordedDuration = NewField("1:00")

	v := ValidateRow(row, testToday, DefaultRules())

	assert.True(t, v.Valid)
	require.NotNil(t, v.DurationMinutes)
	assert.Equal(t, 60, *v.DurationMinutes)
}

func TestValidateRowTooShortSession(t *testing.T) {
	row := goodRow()
	row.StartTime = NewField("9:15")
	row.FinishTime = NewField("9:17")
	row.RecordedDuration = Field{}

	v := ValidateRow(row, testToday, DefaultRules())

	assert.False(t, v.Valid)
	assert.Contains(t, fieldNames(v.Errors), "time")
}

func TestValidateRowLongSessionIsOnlyAWarning(t *testing.T) {
	row := goodRow()
	row.StartTime = NewField("9:00")
	row.FinishTime = NewField("12:30")
	row.RecordedDuration = NewField("3:30")

	v := ValidateRow(row, testToday, DefaultRules())

	assert.True(t, v.Valid)
	assert.Contains(t, fieldNames(v.Warnings), "time")
}

func TestValidateRowRecordedDurationMismatch(t *testing.T) {
	row := goodRow()
	row.RecordedDuration = NewField("2:00") // computed is 1:30

	v := ValidateRow(row, testToday, DefaultRules())

	assert.False(t, v.Valid)
	assert.Contains(t, fieldNames(v.Errors), "duration")
	// Computed wins for the output duration
	require.NotNil(t, v.DurationMinutes)
	assert.Equal(t, 90, *v.DurationMinutes)
}

func TestValidateRowRecordedDurationWithinSlack(t *testing.T) {
	row := goodRow()
	row.RecordedDuration = NewField("1:35") // 5 minutes off; handwriting rounds

	v := ValidateRow(row, testToday, DefaultRules())

	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)
}

func TestValidateRowUnclearRecordedDurationIsOnlyAWarning(t *testing.T) {
	row := goodRow()
	row.RecordedDuration = NewField("unclear")

	v := ValidateRow(row, testToday, DefaultRules())

	assert.True(t, v.Valid)
	assert.Contains(t, fieldNames(v.Warnings), "duration")
	require.NotNil(t, v.DurationMinutes)
	assert.Equal(t, 90, *v.DurationMinutes)
}

func TestValidateRowMissingSignature(t *testing.T) {
	row := goodRow()
	row.SignaturePresent = false

	v := ValidateRow(row, testToday, DefaultRules())

	assert.True(t, v.Valid)
	assert.Contains(t, fieldNames(v.Warnings), "signature")
}

func TestValidateRowOdometerGoesBackwards(t *testing.T) {
	row := goodRow()
	start, finish := 45255.0, 45210.0
	row.OdometerStart = &start
	row.OdometerFinish = &finish

	v := ValidateRow(row, testToday, DefaultRules())

	assert.False(t, v.Valid)
	assert.Contains(t, fieldNames(v.Errors), "odometer")
}

func TestValidateRowImplausibleSpeed(t *testing.T) {
	row := goodRow()
	start, finish := 1000.0, 1250.0 // 250 km in 1:30 is ~167 km/h
	row.OdometerStart = &start
	row.OdometerFinish = &finish

	v := ValidateRow(row, testToday, DefaultRules())

	assert.True(t, v.Valid)
	assert.Contains(t, fieldNames(v.Warnings), "odometer")
}

func TestValidateRowLowConfidence(t *testing.T) {
	row := goodRow()
	row.Confidence = ConfidenceLow

	v := ValidateRow(row, testToday, DefaultRules())

	assert.True(t, v.Valid)
	assert.Contains(t, fieldNames(v.Warnings), "confidence")
}

// A row is valid iff the error list is empty; warnings never count.
func TestValidateRowWarningsNeverBlockValidity(t *testing.T) {
	row := goodRow()
	row.SignaturePresent = false
	row.Confidence = ConfidenceLow
	row.RecordedDuration = NewField("unclear")
	row.Date = NewField("5/3/04")
	start, finish := 1000.0, 1250.0
	row.OdometerStart = &start
	row.OdometerFinish = &finish

	v := ValidateRow(row, testToday, DefaultRules())

	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)
	assert.GreaterOrEqual(t, len(v.Warnings), 5)
}

// Rules never short-circuit: one row can collect several errors.
func TestValidateRowAccumulatesIndependentErrors(t *testing.T) {
	row := goodRow()
	row.Date = NewField("unclear")
	row.RecordedDuration = NewField("2:00")
	start, finish := 45255.0, 45210.0
	row.OdometerStart = &start
	row.OdometerFinish = &finish

	v := ValidateRow(row, testToday, DefaultRules())

	assert.False(t, v.Valid)
	names := fieldNames(v.Errors)
	assert.Contains(t, names, "date")
	assert.Contains(t, names, "duration")
	assert.Contains(t, names, "odometer")
}

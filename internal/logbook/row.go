package logbook

import (
	"encoding/json"
	"strings"
	"time"
)

// UnclearMarker is the literal the extraction model emits for a cell
// it could not read. It is folded into FieldState at decode time so
// nothing downstream compares the raw string.
const UnclearMarker = "unclear"

// FieldState classifies the text captured for one logbook cell.
type FieldState int

const (
	// FieldAbsent means the cell was empty on the page.
	FieldAbsent FieldState = iota
	// FieldUnclear means the extraction model could not read the cell.
	FieldUnclear
	// FieldPresent means text was captured and may be parseable.
	FieldPresent
)

// Field is one extracted text cell plus its legibility state.
type Field struct {
	Raw   string
	State FieldState
}

// NewField classifies raw extracted text into a Field.
func NewField(raw string) Field {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return Field{State: FieldAbsent}
	case strings.EqualFold(raw, UnclearMarker):
		return Field{Raw: raw, State: FieldUnclear}
	default:
		return Field{Raw: raw, State: FieldPresent}
	}
}

// UnmarshalJSON decodes a field from the extraction payload, where it
// appears as a plain (possibly null) string.
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Field{State: FieldAbsent}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = NewField(s)
	return nil
}

// MarshalJSON renders the field back to its raw string form.
func (f Field) MarshalJSON() ([]byte, error) {
	if f.State == FieldAbsent {
		return []byte("null"), nil
	}
	return json.Marshal(f.Raw)
}

// Confidence is the extraction model's self-reported legibility label
// for a row.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Row is one extracted logbook line as reported by the vision model.
// It is consumed once by ValidateRow and not kept afterwards.
type Row struct {
	Index            int        `json:"index"`
	Date             Field      `json:"date"`
	Supervisor       Field      `json:"supervisor"`
	LicenceNumber    Field      `json:"licenceNumber"`
	StartTime        Field      `json:"startTime"`
	FinishTime       Field      `json:"finishTime"`
	RecordedDuration Field      `json:"duration"`
	SignaturePresent bool       `json:"signaturePresent"`
	OdometerStart    *float64   `json:"odometerStart"`
	OdometerFinish   *float64   `json:"odometerFinish"`
	Confidence       Confidence `json:"confidence"`
	Notes            string     `json:"notes,omitempty"`
}

// Issue is a single validation finding attached to a field.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidatedRow is a Row plus everything validation derived from it.
// It is computed once and immutable thereafter.
type ValidatedRow struct {
	Row             Row        `json:"row"`
	Date            *time.Time `json:"date,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Errors          []Issue    `json:"errors"`
	Warnings        []Issue    `json:"warnings"`
	Valid           bool       `json:"valid"`
}

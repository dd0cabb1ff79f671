package extraction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsalter/lplate/internal/logbook"
)

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"bare object",
			`{"pageType":"day_supervised"}`,
			`{"pageType":"day_supervised"}`,
		},
		{
			"prose before and after",
			`Here is the extracted data: {"a":1} Let me know if you need more.`,
			`{"a":1}`,
		},
		{
			"markdown code fence",
			"```json\n{\"a\":1}\n```",
			`{"a":1}`,
		},
		{
			"nested objects",
			`{"a":{"b":{"c":1}}}`,
			`{"a":{"b":{"c":1}}}`,
		},
		{
			"braces inside string values",
			`{"notes":"entry like {this} and \"quoted\" text"}`,
			`{"notes":"entry like {this} and \"quoted\" text"}`,
		},
		{
			"first of two objects",
			`{"a":1} trailer {"b":2}`,
			`{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstJSONObject(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstJSONObjectNoObject(t *testing.T) {
	for _, text := range []string{"", "no json here", "unbalanced { forever", "} only closing"} {
		_, err := firstJSONObject(text)
		assert.ErrorIs(t, err, ErrNoPayload, "input %q", text)
	}
}

func TestParsePayload(t *testing.T) {
	reply := "Sure, here is the page:\n```json\n" + `{
		"pageType": "day_supervised",
		"pageNumber": 3,
		"entries": [
			{
				"index": 1,
				"date": "5/3/24",
				"supervisor": "J Smith",
				"licenceNumber": "12345678",
				"startTime": "9:15",
				"finishTime": "10:45",
				"duration": "1:30",
				"signaturePresent": true,
				"odometerStart": 45210,
				"odometerFinish": 45255,
				"confidence": "high",
				"notes": ""
			},
			{
				"date": "unclear",
				"supervisor": null,
				"startTime": "14:00",
				"finishTime": "15:00",
				"duration": "1:00",
				"signaturePresent": false,
				"confidence": "low",
				"notes": "water damage"
			}
		],
		"subtotal": "2:30",
		"pageNotes": "bottom edge torn"
	}` + "\n```"

	p, err := ParsePayload(reply)
	require.NoError(t, err)

	assert.Equal(t, logbook.PageDaySupervised, p.PageType)
	require.NotNil(t, p.PageNumber)
	assert.Equal(t, 3, *p.PageNumber)
	require.Len(t, p.Entries, 2)
	assert.Equal(t, "bottom edge torn", p.PageNotes)
	assert.Equal(t, logbook.FieldPresent, p.Subtotal.State)
	assert.Equal(t, "2:30", p.Subtotal.Raw)

	first := p.Entries[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, logbook.FieldPresent, first.Date.State)
	assert.Equal(t, "5/3/24", first.Date.Raw)
	assert.True(t, first.SignaturePresent)
	require.NotNil(t, first.OdometerStart)
	assert.Equal(t, 45210.0, *first.OdometerStart)

	second := p.Entries[1]
	assert.Equal(t, 2, second.Index, "omitted index defaults to position")
	assert.Equal(t, logbook.FieldUnclear, second.Date.State)
	assert.Equal(t, logbook.FieldAbsent, second.Supervisor.State)
	assert.Nil(t, second.OdometerStart)
	assert.Equal(t, logbook.ConfidenceLow, second.Confidence)
}

func TestParsePayloadUnknownPageType(t *testing.T) {
	_, err := ParsePayload(`{"pageType":"mystery_page","entries":[]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown page type")
}

func TestParsePayloadMalformedJSON(t *testing.T) {
	_, err := ParsePayload(`{"pageType": "day_supervised", "entries": [}`)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoPayload))
}

func TestParsePayloadNoObject(t *testing.T) {
	_, err := ParsePayload("I could not read the page, sorry.")
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestParsePayloadAbsentSubtotal(t *testing.T) {
	p, err := ParsePayload(`{"pageType":"night_supervised","entries":[],"subtotal":null}`)
	require.NoError(t, err)
	assert.Equal(t, logbook.FieldAbsent, p.Subtotal.State)
}

package logbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // "2006-01-02", empty means parse must fail
	}{
		{"slash separators", "5/3/24", "2024-03-05"},
		{"dash separators", "05-03-2024", "2024-03-05"},
		{"dot separators", "5.3.24", "2024-03-05"},
		{"four digit year", "17/11/2023", "2023-11-17"},
		{"two digit year maps to 1900s", "1/6/99", "1999-06-01"},
		{"two digit year boundary maps to 2000s", "1/6/50", "2050-06-01"},
		{"two digit year above boundary maps to 1900s", "1/6/51", "1951-06-01"},
		{"invalid calendar date", "31/02/2024", ""},
		{"month out of range", "5/13/24", ""},
		{"day out of range", "32/1/24", ""},
		{"not a date", "yesterday", ""},
		{"empty", "", ""},
		{"missing component", "5/3", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.want == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"colon form", "9:15", 9*60 + 15, false},
		{"dot form", "9.15", 9*60 + 15, false},
		{"midnight", "0:00", 0, false},
		{"last minute of day", "23:59", 23*60 + 59, false},
		{"hours out of range", "24:00", 0, true},
		{"minutes out of range", "9:60", 0, true},
		{"single minute digit", "9:5", 0, true},
		{"garbage", "quarter past nine", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClockTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"colon token", "1:30", 90, false},
		{"dot token is hours and minutes", "1.30", 90, false},
		{"bare integer is hours", "2", 120, false},
		{"decimal hours", "1.5", 90, false},
		{"two digit fraction reads as minutes", "0.33", 33, false},
		{"decimal hours rounds to nearest minute", "0.333", 20, false},
		{"dot token with invalid minutes falls back to decimal", "1.75", 105, false},
		{"zero", "0:00", 0, false},
		{"garbage", "an hour", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Canonical H:MM inputs must round-trip through parse and format
// unchanged.
func TestFormatDurationRoundTrip(t *testing.T) {
	for _, canonical := range []string{"0:00", "0:05", "1:30", "2:05", "10:59"} {
		minutes, err := ParseDuration(canonical)
		require.NoError(t, err, canonical)
		assert.Equal(t, canonical, FormatDuration(&minutes))
	}
}

func TestFormatDurationNil(t *testing.T) {
	assert.Equal(t, DurationPlaceholder, FormatDuration(nil))
}

// Package extraction calls the vision model with one logbook page
// image and turns its text reply into a structured page payload. Any
// failure here is terminal for the page: there are no partial results,
// and row-level problems are the validator's business, not ours.
package extraction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jsalter/lplate/internal/logbook"
)

// ErrNoPayload means the model's reply contained no balanced JSON
// object at all.
var ErrNoPayload = errors.New("extraction response contains no JSON object")

// Payload is the one JSON object embedded in the model's reply.
type Payload struct {
	PageType   logbook.PageType `json:"pageType"`
	PageNumber *int             `json:"pageNumber"`
	Entries    []logbook.Row    `json:"entries"`
	Subtotal   logbook.Field    `json:"subtotal"`
	PageNotes  string           `json:"pageNotes"`
}

// ParsePayload locates the first balanced {...} substring in the
// model's reply and decodes it. Models wrap JSON in prose and code
// fences unpredictably; scanning for the object is more robust than
// stripping any particular wrapper.
func ParsePayload(text string) (*Payload, error) {
	raw, err := firstJSONObject(text)
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode extraction payload: %w", err)
	}
	if !p.PageType.Known() {
		return nil, fmt.Errorf("extraction payload has unknown page type %q", p.PageType)
	}

	// Guarantee usable row indexes even if the model omitted them
	for i := range p.Entries {
		if p.Entries[i].Index == 0 {
			p.Entries[i].Index = i + 1
		}
	}

	return &p, nil
}

// firstJSONObject returns the first brace-balanced substring, tracking
// string literals so braces inside quoted values don't confuse the
// depth count.
func firstJSONObject(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}

	return "", ErrNoPayload
}

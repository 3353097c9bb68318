package services

import (
	"strings"
	"time"
)

// canonical form stored in member_birthday
const birthdayFormat = "2006-01-02"

// Layouts accepted from free-form registration input. Non-padded layouts
// also match zero-padded values.
var birthdayLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// NormalizeBirthday parses a free-form date string and returns it in
// YYYY-MM-DD form. Unparseable input yields nil rather than an error:
// a malformed optional field does not block registration.
func NormalizeBirthday(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			normalized := t.Format(birthdayFormat)
			return &normalized
		}
	}
	return nil
}

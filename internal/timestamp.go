package internal

import (
	"fmt"
	"strings"
	"time"
)

// Layouts seen in issued certificates, most specific first. Offsets are
// written with and without a colon, and sometimes as hours only.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Birth dates may be truncated to the month or the year.
var dateOfBirthLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
}

func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp '%s'", value)
}

// ParseDateOfBirth parses a possibly truncated birth date. An empty value is
// the zero time.
func ParseDateOfBirth(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateOfBirthLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
	}
	// some issuers write the birth date as a full timestamp
	t, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date of birth '%s'", value)
	}
	return t, nil
}

func parseOptionalTimestamp(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	return ParseTimestamp(value)
}

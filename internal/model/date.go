package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout used when writing dates to the spreadsheet.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"02/01/2006",
	"2/1/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
}

// ParseDate parses the date formats found in the spreadsheet. Day-first
// slashed dates follow the Mexican convention.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDate formats t for the spreadsheet, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(DateLayout)
}

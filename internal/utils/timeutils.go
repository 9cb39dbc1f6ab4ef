package utils

import (
	"fmt"
	"strings"
	"time"
)

// PushTimeLayout is the layout the failures backend uses for push times.
const PushTimeLayout = "2006-01-02 15:04:05"

// DayLayout is the layout of startday/endday range bounds.
const DayLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	PushTimeLayout,
	"2006-01-02T15:04:05",
	DayLayout,
}

// ParseTimestamp parses a push time or graph date in any of the layouts the backend emits.
// Values without a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: unsupported layout", value)
}

// ParseDay parses a YYYY-MM-DD range bound.
func ParseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty day value")
	}
	t, err := time.Parse(DayLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day: %w", err)
	}
	return t, nil
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
)

// TimeLayout is the canonical textual form of entity timestamps: ISO-8601 with
// microsecond precision and no zone designator. Timestamps are always UTC.
const TimeLayout = "2006-01-02T15:04:05.000000"

// Now returns the current instant in UTC at the precision TimeLayout preserves.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a timestamp written by FormatTime, or any date-time form
// strfmt understands (RFC 3339 with offsets, reduced precision).
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	dt, err := strfmt.ParseDateTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return time.Time(dt).UTC(), nil
}

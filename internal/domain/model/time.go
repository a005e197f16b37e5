package model

import (
	"fmt"
	"time"
)

// feedTimeLayout matches the zone-less timestamps the provider emits
// (e.g. "2021-06-30T21:00:00"). Query parameters use the same shape.
const feedTimeLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses an ISO-8601 timestamp, with or without a zone offset.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(feedTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

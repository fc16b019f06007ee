package util

import (
	"strconv"
	"time"
)

// StampLayout is the wall-clock layout used in model metadata.
const StampLayout = "2006-01-02 15:04:05"

// ParseTime tries RFC3339, RFC3339Nano, StampLayout and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(StampLayout, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// LoadZone resolves an IANA zone name. When the zone database is missing
// (scratch images), it falls back to a fixed offset carrying the same name.
func LoadZone(name string, fallbackOffsetHours int) *time.Location {
	if name == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone(name, fallbackOffsetHours*3600)
}

// FormatStamp renders t in loc using StampLayout.
func FormatStamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(StampLayout)
}

package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestFormatStampInZone(t *testing.T) {
	ts := time.Date(2024, 1, 31, 20, 30, 5, 0, time.UTC)
	loc := LoadZone("Asia/Seoul", 9)
	if got := FormatStamp(ts, loc); got != "2024-02-01 05:30:05" {
		t.Fatalf("unexpected stamp %q", got)
	}
}

func TestLoadZoneFallback(t *testing.T) {
	loc := LoadZone("Nowhere/Atlantis", 9)
	_, off := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	if off != 9*3600 {
		t.Fatalf("expected +9h fallback, got %d", off)
	}
	if LoadZone("", 9) != time.UTC {
		t.Fatalf("empty zone should be UTC")
	}
}

func TestParseIntDefault(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"", 3, 3},
		{"7", 3, 7},
		{"x", 3, 3},
	}
	for _, c := range cases {
		if got := ParseIntDefault(c.in, c.def); got != c.want {
			t.Fatalf("ParseIntDefault(%q,%d)=%d want %d", c.in, c.def, got, c.want)
		}
	}
}

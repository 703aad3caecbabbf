package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2026-03-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, ok := ParseTime("2026-03-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if DayKey(got) != "2026-03-10" {
		t.Fatalf("unexpected day %v", DayKey(got))
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2026, 3, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2026, 3, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestClampInt(t *testing.T) {
	if ClampInt(5, 1, 10) != 5 {
		t.Fatalf("in-range value must pass through")
	}
	if ClampInt(-3, 1, 10) != 1 {
		t.Fatalf("below range must clamp to lo")
	}
	if ClampInt(50, 1, 10) != 10 {
		t.Fatalf("above range must clamp to hi")
	}
}

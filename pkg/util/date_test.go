package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	if _, ok := ParseDate("10/10/2024"); ok {
		t.Fatalf("expected parse failure")
	}
	if _, ok := ParseDate(""); ok {
		t.Fatalf("expected parse failure for empty string")
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestFormatDateRoundTrip(t *testing.T) {
	d := time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)
	got, ok := ParseDate(FormatDate(d))
	if !ok || !got.Equal(d) {
		t.Fatalf("round trip failed: %v", got)
	}
}

func TestTruncateDate(t *testing.T) {
	d := time.Date(2023, 3, 5, 14, 30, 12, 0, time.UTC)
	got := TruncateDate(d)
	if got.Hour() != 0 || got.Minute() != 0 || !got.Equal(time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected truncation %v", got)
	}
}

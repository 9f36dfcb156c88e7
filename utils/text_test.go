package utils

import (
	"testing"
	"time"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  spaced   out\n\ttext ", "spaced out text"},
		{"Q&amp;A session &nbsp; today", "Q&A session today"},
		{"&lt;b&gt;bold&lt;/b&gt;", "<b>bold</b>"},
	}
	for _, tc := range cases {
		if got := CleanText(tc.in); got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	got := ParseDate("2026-08-15T10:30:00Z")
	want := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("RFC3339: got %v", got)
	}

	if got := ParseDate("2026-08-15"); got.IsZero() {
		t.Fatal("date-only layout rejected")
	}
	if got := ParseDate("Jan 2, 2026"); got.IsZero() {
		t.Fatal("long-form layout rejected")
	}
	if got := ParseDate("not a date"); !got.IsZero() {
		t.Fatalf("garbage parsed to %v", got)
	}
	if got := ParseDate("  "); !got.IsZero() {
		t.Fatal("blank input should be zero time")
	}
}

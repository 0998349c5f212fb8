package race

import (
	"testing"
	"time"
)

func TestWordsPerMinute(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		chars   int
		started time.Time
		now     time.Time
		want    int
	}{
		{"one minute", 250, start, start.Add(time.Minute), 50},
		{"half minute", 100, start, start.Add(30 * time.Second), 40},
		{"unset start", 250, time.Time{}, start, 0},
		{"zero elapsed", 250, start, start, 0},
		{"now before start", 250, start, start.Add(-time.Second), 0},
		{"zero chars", 0, start, start.Add(time.Minute), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WordsPerMinute(tc.chars, tc.started, tc.now); got != tc.want {
				t.Fatalf("WordsPerMinute = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAccuracy(t *testing.T) {
	cases := []struct {
		name   string
		chars  int
		errors int
		want   int
	}{
		{"no errors", 100, 0, 100},
		{"some errors", 100, 7, 93},
		{"rounding", 3, 1, 67},
		{"empty sample", 0, 0, 100},
		{"empty with errors", 0, 3, 100},
		{"errors exceed chars", 10, 25, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Accuracy(tc.chars, tc.errors)
			if got != tc.want {
				t.Fatalf("Accuracy = %d, want %d", got, tc.want)
			}
			if got < 0 || got > 100 {
				t.Fatalf("Accuracy out of range: %d", got)
			}
		})
	}
}

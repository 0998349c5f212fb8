package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/coderace-dev/coderace/internal/model"
)

func TestMovingAverageWindow(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	got := MovingAverage(values, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MovingAverage[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMovingAverageNoWindow(t *testing.T) {
	values := []float64{1, 2, 3}
	got := MovingAverage(values, 1)
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("window 1 must copy values, got %v", got)
		}
	}
}

func TestSparkline(t *testing.T) {
	out := Sparkline([]float64{0, 50, 100})
	if len(out) != 3 {
		t.Fatalf("expected 3 chars, got %q", out)
	}
	if out[0] != ' ' || out[2] != '@' {
		t.Fatalf("expected min/max chars at the ends, got %q", out)
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	out := Sparkline([]float64{5, 5, 5})
	if len(out) != 3 || out[0] != out[1] || out[1] != out[2] {
		t.Fatalf("flat series must use one level, got %q", out)
	}
}

func testRaces() []model.RaceAggregate {
	base := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	return []model.RaceAggregate{
		{RaceID: 1, EndedAt: base, Lang: "go", Mode: model.ModeSolo, WPM: 40, Accuracy: 95, Completed: true},
		{RaceID: 2, EndedAt: base.Add(time.Hour), Lang: "go", Mode: model.ModeMulti, WPM: 60, Accuracy: 97, Completed: false},
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, testRaces()); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Races: 2", "Avg WPM: 50.0", "Best WPM: 60", "Avg Accuracy: 96.0%", "Completed: 1 (50%)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No races found.") {
		t.Fatalf("expected empty notice, got %q", buf.String())
	}
}

func TestRenderHistoryNewestFirst(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHistory(&buf, testRaces(), 0); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := buf.String()
	multiIdx := strings.Index(out, "multi")
	soloIdx := strings.Index(out, "solo")
	if multiIdx < 0 || soloIdx < 0 || multiIdx > soloIdx {
		t.Fatalf("history must list newest race first:\n%s", out)
	}
	if !strings.Contains(out, "timeout") || !strings.Contains(out, "finished") {
		t.Fatalf("history must show the finish reason:\n%s", out)
	}
}

func TestFormatTableAlignment(t *testing.T) {
	lines := formatTable(
		[]string{"Name", "WPM"},
		[][]string{{"ann", "7"}, {"bob", "112"}},
		map[int]bool{1: true},
	)
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(lines))
	}
	if lines[1] != "ann    7" {
		t.Fatalf("right-aligned column mismatch: %q", lines[1])
	}
	if lines[2] != "bob  112" {
		t.Fatalf("right-aligned column mismatch: %q", lines[2])
	}
}

func TestPlotSeriesFixedWidth(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Curves", []Series{
		{Name: "WPM", Values: []float64{10, 20, 30}},
	}, 12, 4)
	if err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Curves") {
		t.Fatalf("plot missing title:\n%s", out)
	}
	if !strings.Contains(out, "WPM (min 10.0, max 30.0)") {
		t.Fatalf("plot missing series range:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 6 {
		t.Fatalf("expected chart rows, axis, and legend:\n%s", out)
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(100); got != 92 {
		t.Fatalf("PlotWidthFor(100) = %d, want 92", got)
	}
	if got := PlotWidthFor(5); got != minPlotWidth {
		t.Fatalf("narrow terminals must clamp to the minimum, got %d", got)
	}
}

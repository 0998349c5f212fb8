package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	fallbackWidth     = 80
)

var seriesMarkers = []rune{'*', '+', 'o', 'x'}

// PlotWidthFor derives the plot width from a total terminal width,
// leaving room for the axis gutter.
func PlotWidthFor(totalWidth int) int {
	width := totalWidth - 8
	if width < minPlotWidth {
		return minPlotWidth
	}
	return width
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallbackWidth
}

// PlotSeries draws the series as an ASCII chart. Each series is scaled
// to its own min/max; the ranges are printed below the chart. A width
// of 0 sizes the plot to the terminal.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	if len(series) == 0 {
		return nil
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}
	if height <= 0 {
		height = defaultPlotHeight
	}

	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", width))
	}

	type seriesRange struct {
		min float64
		max float64
	}
	ranges := make([]seriesRange, len(series))
	for si, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		lo, hi := s.Values[0], s.Values[0]
		for _, v := range s.Values[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		ranges[si] = seriesRange{min: lo, max: hi}
		marker := seriesMarkers[si%len(seriesMarkers)]
		for x := 0; x < width; x++ {
			v := sampleAt(s.Values, x, width)
			pos := 0.5
			if hi-lo > 1e-9 {
				pos = (v - lo) / (hi - lo)
			}
			y := height - 1 - int(math.Round(pos*float64(height-1)))
			if y < 0 {
				y = 0
			}
			if y >= height {
				y = height - 1
			}
			grid[y][x] = marker
		}
	}

	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, row := range grid {
		if _, err := fmt.Fprintf(w, " | %s\n", string(row)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, " +%s\n", strings.Repeat("-", width+1)); err != nil {
		return err
	}
	for si, s := range series {
		marker := seriesMarkers[si%len(seriesMarkers)]
		if _, err := fmt.Fprintf(w, " %c %s (min %.1f, max %.1f)\n", marker, s.Name, ranges[si].min, ranges[si].max); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// sampleAt maps a plot column back to a value index, stretching or
// compressing the series to the plot width.
func sampleAt(values []float64, x, width int) float64 {
	if len(values) == 1 || width == 1 {
		return values[0]
	}
	idx := int(math.Round(float64(x) / float64(width-1) * float64(len(values)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}

package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named percentage series (0..100) for charting.
type Series struct {
	Name   string
	Values []float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

const (
	defaultChartHeight  = 8
	minChartWidth       = 10
	axisSeparator       = " │ "
	terminalWidthBackup = 80
)

var axisLabels = [3]string{"100%", "50%", "0%"}

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dotted", period: 4, on: 1},
	{name: "dashed", period: 6, on: 3},
}

// RenderAccuracyChart plots daily accuracy and its moving average.
// Days without answers carry the previous value forward so gaps do not read as 0%.
func RenderAccuracyChart(w io.Writer, rows []DailyRow, window, totalWidth int) error {
	if len(rows) == 0 {
		return nil
	}
	acc := make([]float64, len(rows))
	answered := false
	last := 0.0
	for i, r := range rows {
		if r.Total > 0 {
			last = r.Accuracy() * 100
			answered = true
		}
		acc[i] = last
	}
	if !answered {
		return nil
	}
	return PlotPercent(w, "Accuracy", []Series{
		{Name: "daily", Values: acc},
		{Name: fmt.Sprintf("%d-day avg", window), Values: MovingAverage(acc, window)},
	}, ChartWidthFor(totalWidth), defaultChartHeight)
}

// PlotPercent draws braille line charts on a fixed 0..100 scale.
func PlotPercent(w io.Writer, title string, series []Series, width, height int) error {
	if height <= 0 {
		height = defaultChartHeight
	}
	if width <= 0 {
		width = ChartWidthFor(0)
	}
	width = max(width, minChartWidth)

	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	drawn := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		style := lineStyles[len(drawn)%len(lineStyles)]
		drawn = append(drawn, s)
		prevX, prevY := -1, -1
		for x, v := range resample(s.Values, width) {
			px, py := x*2, percentToDot(v, height*4)
			if prevX < 0 {
				prevX, prevY = px, py
			}
			drawLine(prevX, prevY, px, py, func(dx, dy int) {
				if style.plots(dx) {
					setDot(cells, dx, dy)
				}
			})
			prevX, prevY = px, py
		}
	}
	if len(drawn) == 0 {
		return nil
	}

	labelWidth := runewidth.StringWidth(axisLabels[0])
	lines := make([]string, 0, height+2)
	if title != "" {
		lines = append(lines, title)
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(axisLabelAt(y, height), labelWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			row.WriteRune(rune(0x2800 + int(cells[y][x])))
		}
		lines = append(lines, row.String())
	}
	legend := make([]string, 0, len(drawn))
	for i, s := range drawn {
		legend = append(legend, fmt.Sprintf("%s (%s)", s.Name, lineStyles[i%len(lineStyles)].name))
	}
	lines = append(lines, "Legend: "+strings.Join(legend, "  "), "")
	return writeLines(w, lines)
}

// ChartWidthFor computes a plot width that fits within totalWidth.
// A non-positive totalWidth uses the terminal width of stdout.
func ChartWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	axisWidth := runewidth.StringWidth(axisLabels[0]) + runewidth.StringWidth(axisSeparator)
	return max(totalWidth-axisWidth, minChartWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func axisLabelAt(y, height int) string {
	switch {
	case y == 0:
		return axisLabels[0]
	case height > 2 && y == height/2:
		return axisLabels[1]
	case height > 1 && y == height-1:
		return axisLabels[2]
	}
	return ""
}

func (ls lineStyle) plots(x int) bool {
	return ls.period <= 1 || x%ls.period < ls.on
}

// resample stretches or averages values to exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n >= width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// percentToDot maps 0..100 onto dot rows, 0 being the top.
func percentToDot(v float64, dots int) int {
	v = math.Max(0, math.Min(100, v))
	return int(math.Round((1 - v/100) * float64(dots-1)))
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// braille dot bits indexed by [x%2][y%4]
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func setDot(cells [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if x < 0 || y < 0 || cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleBits[x%2][y%4]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

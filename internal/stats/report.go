package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/speedtype/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	terminalWidthBackup = 80
	sparkLabelWidth     = 12
)

// Summary aggregates a history of results.
type Summary struct {
	Count       int
	AvgWPM      float64
	BestWPM     int
	AvgNetWPM   float64
	AvgAccuracy float64
	TotalTime   float64
	BestStreak  int
}

// Summarize computes aggregate values over results.
func Summarize(results []model.TestResult) Summary {
	var sum Summary
	if len(results) == 0 {
		return sum
	}
	var wpm, net, acc float64
	for _, r := range results {
		wpm += float64(r.WPM)
		net += float64(r.NetWPM)
		acc += float64(r.Accuracy)
		sum.TotalTime += r.Time
		if r.WPM > sum.BestWPM {
			sum.BestWPM = r.WPM
		}
		if r.MaxStreak > sum.BestStreak {
			sum.BestStreak = r.MaxStreak
		}
	}
	n := float64(len(results))
	sum.Count = len(results)
	sum.AvgWPM = wpm / n
	sum.AvgNetWPM = net / n
	sum.AvgAccuracy = acc / n
	return sum
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// WPMTrend returns WPM values oldest first, ready for a sparkline.
func WPMTrend(results []model.TestResult, window int) []float64 {
	values := make([]float64, len(results))
	for i, r := range results {
		values[len(results)-1-i] = float64(r.WPM)
	}
	return MovingAverage(values, window)
}

// RenderSummary prints a summary block for results (newest first).
func RenderSummary(w io.Writer, results []model.TestResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	sum := Summarize(results)
	lines := []string{
		"Summary",
		fmt.Sprintf("Tests: %d", sum.Count),
		fmt.Sprintf("Avg WPM: %.1f", sum.AvgWPM),
		fmt.Sprintf("Best WPM: %d", sum.BestWPM),
		fmt.Sprintf("Avg Net WPM: %.1f", sum.AvgNetWPM),
		fmt.Sprintf("Avg Accuracy: %.1f%%", sum.AvgAccuracy),
		fmt.Sprintf("Best Streak: %d", sum.BestStreak),
	}
	trend := WPMTrend(results, 3)
	if len(trend) > 1 {
		width := max(terminalWidth(w)-sparkLabelWidth, 1)
		if len(trend) > width {
			trend = trend[len(trend)-width:]
		}
		lines = append(lines, "WPM Trend:  "+colorize(w, Sparkline(trend)))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderHistoryTable prints one row per result.
func RenderHistoryTable(w io.Writer, results []model.TestResult) error {
	if len(results) == 0 {
		return nil
	}
	headers := []string{"Date", "WPM", "Net", "CPM", "Accuracy", "Errors", "Time", "Difficulty", "Policy"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, ResultRow(r))
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ResultRow formats a result as table cells.
func ResultRow(r model.TestResult) []string {
	return []string{
		r.Date.Local().Format("Jan 02 15:04"),
		fmt.Sprintf("%d", r.WPM),
		fmt.Sprintf("%d", r.NetWPM),
		fmt.Sprintf("%d", r.CPM),
		fmt.Sprintf("%d%%", r.Accuracy),
		fmt.Sprintf("%d", r.Errors),
		fmt.Sprintf("%.0fs", r.Time),
		string(r.Difficulty),
		string(r.Policy),
	}
}

func terminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func colorize(w io.Writer, s string) string {
	if os.Getenv("NO_COLOR") != "" {
		return s
	}
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return s
	}
	return "\x1b[36m" + s + "\x1b[0m"
}

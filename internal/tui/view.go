package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/model"
)

func contentWidth(width int) int {
	return max(int(float64(width)*0.70), 1)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.loading {
		return m.place(pendingStyle.Render("Loading text…"))
	}
	snap := m.engine.Snapshot()
	if len(snap.Characters) == 0 {
		return m.place(pendingStyle.Render("No text available. Press esc to fetch a new one."))
	}

	width := contentWidth(m.width)
	if m.width == 0 {
		width = 0
	}
	sections := []string{renderHeader(snap, m.config.Difficulty)}
	if snap.State == engine.StateFinished && m.lastResult != nil {
		sections = append(sections, renderResult(*m.lastResult, snap.PersonalBest))
	} else {
		text := wrapStyledRunes(buildStyledRunes(snap.Characters), width)
		if width > 0 {
			text = lipgloss.NewStyle().Width(width).Render(text)
		}
		sections = append(sections, text, m.progress.ViewAs(m.progressValue(snap)), renderMetrics(snap))
	}
	if m.status != "" {
		sections = append(sections, footerStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n\n")

	footer := renderFooter(snap, m.lastResult) + "\n" + m.help.View(m.keys)
	if m.width == 0 || m.height < 4 {
		return content + "\n\n" + footer
	}
	body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
}

func (m *Model) place(s string) string {
	if m.width == 0 || m.height == 0 {
		return s
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

// progressValue is the countdown fraction, or the typed fraction when untimed.
func (m *Model) progressValue(snap engine.Snapshot) float64 {
	if m.engine.Config().Duration > 0 {
		return m.engine.Progress()
	}
	if len(snap.Characters) == 0 {
		return 0
	}
	return float64(len([]rune(snap.Input))) / float64(len(snap.Characters))
}

func renderHeader(snap engine.Snapshot, difficulty model.Difficulty) string {
	parts := []string{
		strings.ToUpper(snap.State.String()),
		string(snap.Policy),
		string(difficulty),
	}
	if snap.Remaining > 0 || snap.State == engine.StateFinished {
		parts = append(parts, formatClock(snap.Remaining))
	}
	return headerStyle.Render(strings.Join(parts, " · "))
}

func renderMetrics(snap engine.Snapshot) string {
	mt := snap.Metrics
	return fmt.Sprintf("WPM %d  Net %d  CPM %d  Acc %d%%  Errors %d  Streak %d/%d  %s",
		mt.WPM, mt.NetWPM, mt.CPM, mt.Accuracy, mt.Errors, mt.Streak, mt.MaxStreak, formatClock(snap.Elapsed))
}

func renderResult(r model.TestResult, best *model.TestResult) string {
	lines := []string{
		headerStyle.Render(fmt.Sprintf("%d WPM", r.WPM)),
		fmt.Sprintf("Net WPM    %d", r.NetWPM),
		fmt.Sprintf("CPM        %d", r.CPM),
		fmt.Sprintf("Accuracy   %d%%", r.Accuracy),
		fmt.Sprintf("Errors     %d (%d/min)", r.Errors, r.ErrorRate),
		fmt.Sprintf("Words      %d/%d correct", r.CorrectWords, r.WordCount),
		fmt.Sprintf("Max streak %d", r.MaxStreak),
		fmt.Sprintf("Keystrokes %d/%d", r.CorrectKeystrokes, r.TotalKeystrokes),
		fmt.Sprintf("Time       %.1fs", r.Time),
	}
	if best != nil && best.ID == r.ID {
		lines = append(lines, headerStyle.Render("New personal best!"))
	}
	lines = append(lines, "", pendingStyle.Render("enter: next text · ctrl+s: copy result"))
	return resultStyle.Render(strings.Join(lines, "\n"))
}

func renderFooter(snap engine.Snapshot, last *model.TestResult) string {
	progress := 0
	if len(snap.Characters) > 0 {
		progress = int(float64(len([]rune(snap.Input))) / float64(len(snap.Characters)) * 100)
	}
	segments := []string{fmt.Sprintf("Progress %d%%", progress)}
	if last != nil {
		segments = append(segments, fmt.Sprintf("Last %d WPM · %d%%", last.WPM, last.Accuracy))
	}
	if snap.PersonalBest != nil {
		segments = append(segments, fmt.Sprintf("Best %d WPM", snap.PersonalBest.WPM))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Package historyui provides the Bubble Tea history browser.
package historyui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/stats"
	"github.com/verte-zerg/speedtype/internal/store"
)

const (
	tabOverview = iota
	tabResults
)

const trendWindow = 3

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	trendStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	modalStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// ResultLister loads stored results, newest first.
type ResultLister interface {
	ListResults(ctx context.Context, filter store.ResultFilter) ([]model.TestResult, error)
}

// Model implements the Bubble Tea history UI.
type Model struct {
	store  ResultLister
	filter store.ResultFilter
	now    func() time.Time

	results []model.TestResult
	errMsg  string

	tabs      []string
	activeTab int
	table     table.Model
	detail    bool

	width  int
	height int
}

// NewModel constructs a history UI model.
func NewModel(st ResultLister, filter store.ResultFilter) *Model {
	m := &Model{
		store:  st,
		filter: filter,
		now:    time.Now,
		tabs:   []string{"Overview", "Results"},
		table:  buildTable(nil, time.Now(), 0, 1),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		if m.detail {
			if msg.Type == tea.KeyEscape || msg.Type == tea.KeyEnter {
				m.detail = false
			}
			return m, nil
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "p":
			m.filter.Policy = nextPolicyFilter(m.filter.Policy)
			m.refresh()
			return m, nil
		case "enter":
			if m.activeTab == tabResults && len(m.results) > 0 {
				m.detail = true
			}
			return m, nil
		default:
			if m.activeTab == tabResults {
				var cmd tea.Cmd
				m.table, cmd = m.table.Update(msg)
				return m, cmd
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.detail {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderDetail())
	}
	header := padLines(m.renderTabs(), m.width) + "\n" + headerStyle.Render(m.renderFilterSummary())
	footer := m.renderFooter()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	var body string
	if m.activeTab == tabResults {
		body = m.table.View()
	} else {
		body = renderOverview(m.results, m.width)
	}
	return strings.Join([]string{header, fitLines(body, m.width, bodyHeight), footer}, "\n")
}

func (m *Model) refresh() {
	results, err := m.store.ListResults(context.Background(), m.filter)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load results: %v", err)
		m.results = nil
	} else {
		m.errMsg = ""
		m.results = results
	}
	m.table.SetRows(buildRows(m.results, m.now()))
	m.table.GotoTop()
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-7, 1))
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	if m.activeTab == tabResults {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) selected() (model.TestResult, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.results) {
		return model.TestResult{}, false
	}
	return m.results[idx], true
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFilterSummary() string {
	policy := "all"
	if m.filter.Policy != "" {
		policy = string(m.filter.Policy)
	}
	parts := []string{"Policy: " + policy}
	if m.filter.Difficulty != "" {
		parts = append(parts, "Difficulty: "+string(m.filter.Difficulty))
	}
	if m.filter.Since != nil {
		parts = append(parts, "Since: "+m.filter.Since.Format("2006-01-02"))
	}
	if m.filter.Limit > 0 {
		parts = append(parts, fmt.Sprintf("Last: %d", m.filter.Limit))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Policy: p  Quit: q"
	if m.activeTab == tabResults {
		help = "Nav: left/right  Scroll: up/down  Details: enter  Policy: p  Quit: q"
	}
	out := headerStyle.Render(help)
	if m.errMsg != "" {
		out += "\n" + errorStyle.Render(m.errMsg)
	}
	return out
}

func (m *Model) renderDetail() string {
	r, ok := m.selected()
	if !ok {
		return ""
	}
	lines := []string{
		cardValueStyle.Render(fmt.Sprintf("%d WPM · %d Net · %d%%", r.WPM, r.NetWPM, r.Accuracy)),
		"",
		fmt.Sprintf("Date        %s", r.Date.Local().Format("2006-01-02 15:04")),
		fmt.Sprintf("CPM         %d", r.CPM),
		fmt.Sprintf("Errors      %d (%d/min)", r.Errors, r.ErrorRate),
		fmt.Sprintf("Words       %d/%d correct", r.CorrectWords, r.WordCount),
		fmt.Sprintf("Keystrokes  %d/%d", r.CorrectKeystrokes, r.TotalKeystrokes),
		fmt.Sprintf("Max streak  %d", r.MaxStreak),
		fmt.Sprintf("Time        %.1fs", r.Time),
		fmt.Sprintf("Difficulty  %s", r.Difficulty),
		fmt.Sprintf("Policy      %s", r.Policy),
		"",
		headerStyle.Render(engine.ShareText(r)),
	}
	return modalStyle.Width(max(min(m.width-4, 72), 20)).Render(strings.Join(lines, "\n"))
}

func renderOverview(results []model.TestResult, width int) string {
	if len(results) == 0 {
		return "No results found."
	}
	sum := stats.Summarize(results)
	cards := []string{
		metricCard("Tests", fmt.Sprintf("%d", sum.Count)),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", sum.AvgWPM)),
		metricCard("Best WPM", fmt.Sprintf("%d", sum.BestWPM)),
		metricCard("Avg Net WPM", fmt.Sprintf("%.1f", sum.AvgNetWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", sum.AvgAccuracy)),
		metricCard("Best Streak", fmt.Sprintf("%d", sum.BestStreak)),
	}
	var grid string
	if width < 80 {
		grid = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		grid = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	trend := stats.WPMTrend(results, trendWindow)
	if len(trend) < 2 {
		return grid
	}
	if width > 14 && len(trend) > width-14 {
		trend = trend[len(trend)-(width-14):]
	}
	return grid + "\n\n" + cardTitleStyle.Render("WPM trend  ") + trendStyle.Render(stats.Sparkline(trend))
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func tableColumns() []table.Column {
	return []table.Column{
		{Title: "When", Width: 16},
		{Title: "WPM", Width: 5},
		{Title: "Net", Width: 5},
		{Title: "CPM", Width: 5},
		{Title: "Acc", Width: 5},
		{Title: "Errors", Width: 6},
		{Title: "Time", Width: 6},
		{Title: "Difficulty", Width: 10},
		{Title: "Policy", Width: 11},
	}
}

func buildRows(results []model.TestResult, now time.Time) []table.Row {
	return lo.Map(results, func(r model.TestResult, _ int) table.Row {
		return table.Row{
			humanize.RelTime(r.Date, now, "ago", "from now"),
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d", r.NetWPM),
			fmt.Sprintf("%d", r.CPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			fmt.Sprintf("%d", r.Errors),
			fmt.Sprintf("%.0fs", r.Time),
			string(r.Difficulty),
			string(r.Policy),
		}
	})
}

func buildTable(results []model.TestResult, now time.Time, width, height int) table.Model {
	t := table.New(
		table.WithColumns(tableColumns()),
		table.WithRows(buildRows(results, now)),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// nextPolicyFilter cycles all -> traditional -> actual -> standard -> all.
func nextPolicyFilter(p model.CalculationPolicy) model.CalculationPolicy {
	if p == "" {
		return model.Policies[0]
	}
	for i, candidate := range model.Policies {
		if candidate == p && i+1 < len(model.Policies) {
			return model.Policies[i+1]
		}
	}
	return ""
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/store"
	"github.com/verte-zerg/speedtype/internal/textsource"
)

const (
	tickInterval = time.Second
	fetchTimeout = 20 * time.Second
)

// durationChoices are the countdown lengths offered in seconds.
var durationChoices = []int{15, 30, 60, 120, 300}

// ResultStore persists finished results and settings.
type ResultStore interface {
	InsertResult(ctx context.Context, r model.TestResult) error
	PruneResults(ctx context.Context, keep int) (int64, error)
	Set(ctx context.Context, key, value string) error
}

type textMsg struct {
	gen  int
	text string
}

type tickMsg struct {
	gen int
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	config   model.Config
	engine   *engine.Engine
	store    ResultStore
	provider textsource.Provider
	log      logrus.FieldLogger
	copyText func(string) error

	keys     keyMap
	help     help.Model
	progress progress.Model

	width  int
	height int

	loading  bool
	fetchGen int
	tickGen  int

	finished   *model.TestResult
	lastResult *model.TestResult
	status     string
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	resultStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#C89A3A")).Padding(0, 2)
)

// NewModel constructs a typing TUI model around eng.
func NewModel(cfg model.Config, eng *engine.Engine, st ResultStore, provider textsource.Provider, log logrus.FieldLogger) *Model {
	m := &Model{
		config:   cfg,
		engine:   eng,
		store:    st,
		provider: provider,
		log:      log,
		copyText: clipboard.WriteAll,
		keys:     newKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	eng.Subscribe(func(ev engine.Event) {
		if ev.Kind == engine.EventFinished && ev.Result != nil {
			r := *ev.Result
			m.finished = &r
		}
	})
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.fetchText()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(contentWidth(msg.Width), 10)
	case textMsg:
		if msg.gen == m.fetchGen {
			m.loading = false
			if err := m.engine.SetReferenceText(msg.text); err != nil {
				m.log.WithError(err).Warn("failed to set reference text")
			}
		}
	case tickMsg:
		if msg.gen == m.tickGen && m.engine.State() == engine.StateRunning {
			m.engine.Tick()
			if m.engine.State() == engine.StateRunning {
				cmd = m.scheduleTick()
			}
		}
	case progress.FrameMsg:
		updated, frameCmd := m.progress.Update(msg)
		if p, ok := updated.(progress.Model); ok {
			m.progress = p
		}
		cmd = frameCmd
	case tea.KeyMsg:
		var quit bool
		cmd, quit = m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
	}
	m.persistFinished()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	state := m.engine.State()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, true
	case key.Matches(msg, m.keys.Reset):
		m.engine.Reset()
		m.tickGen++
		m.status = ""
		return m.fetchText(), false
	case key.Matches(msg, m.keys.Pause):
		switch state {
		case engine.StateRunning:
			m.engine.Pause()
			m.tickGen++
		case engine.StatePaused:
			m.engine.Resume()
			return m.scheduleTick(), false
		}
		return nil, false
	case key.Matches(msg, m.keys.Policy):
		if state == engine.StateRunning || state == engine.StatePaused {
			return nil, false
		}
		m.cyclePolicy()
		return nil, false
	case key.Matches(msg, m.keys.Difficulty):
		if state == engine.StateRunning || state == engine.StatePaused {
			return nil, false
		}
		return m.cycleDifficulty(), false
	case key.Matches(msg, m.keys.TextType):
		if state == engine.StateRunning || state == engine.StatePaused {
			return nil, false
		}
		return m.cycleTextType(), false
	case key.Matches(msg, m.keys.Duration):
		if state == engine.StateRunning || state == engine.StatePaused {
			return nil, false
		}
		m.cycleDuration()
		return nil, false
	case key.Matches(msg, m.keys.Share):
		m.copyShareText()
		return nil, false
	case key.Matches(msg, m.keys.Start):
		if m.loading {
			return nil, false
		}
		switch state {
		case engine.StateIdle:
			return m.start(), false
		case engine.StateFinished:
			m.engine.Reset()
			return m.fetchText(), false
		}
		return nil, false
	}

	if m.loading {
		return nil, false
	}
	var cmd tea.Cmd
	input := []rune(m.engine.Snapshot().Input)
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		if state != engine.StateRunning || len(input) == 0 {
			return nil, false
		}
		input = input[:len(input)-1]
	case tea.KeySpace:
		input = append(input, ' ')
	case tea.KeyRunes:
		input = append(input, msg.Runes...)
	default:
		return nil, false
	}
	if state == engine.StateIdle {
		cmd = m.start()
		if m.engine.State() != engine.StateRunning {
			return nil, false
		}
	}
	m.engine.OnInput(string(input))
	return cmd, false
}

func (m *Model) start() tea.Cmd {
	if err := m.engine.Start(); err != nil {
		m.log.WithError(err).Warn("failed to start session")
		m.status = err.Error()
		return nil
	}
	m.status = ""
	return m.scheduleTick()
}

func (m *Model) scheduleTick() tea.Cmd {
	m.tickGen++
	gen := m.tickGen
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *Model) fetchText() tea.Cmd {
	m.fetchGen++
	m.loading = true
	gen := m.fetchGen
	provider := m.provider
	difficulty, textType := m.config.Difficulty, m.config.TextType
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return textMsg{gen: gen, text: textsource.FetchOrFallback(ctx, provider, difficulty, textType, log)}
	}
}

func (m *Model) cyclePolicy() {
	next := m.engine.Config().Policy.Next()
	if err := m.engine.SetPolicy(next); err != nil {
		m.log.WithError(err).Warn("failed to change policy")
		return
	}
	m.config.Policy = next
	m.status = "Policy: " + string(next)
	m.saveSetting(store.KeyPolicy, string(next))
}

// cycleDifficulty switches difficulty and fetches a text of the new size.
func (m *Model) cycleDifficulty() tea.Cmd {
	next := m.config.Difficulty.Next()
	if err := m.engine.SetDifficulty(next); err != nil {
		m.log.WithError(err).Warn("failed to change difficulty")
		return nil
	}
	m.config.Difficulty = next
	m.status = "Difficulty: " + string(next)
	m.saveSetting(store.KeyDifficulty, string(next))
	return m.fetchText()
}

func (m *Model) cycleTextType() tea.Cmd {
	next := m.config.TextType.Next()
	m.config.TextType = next
	m.status = "Text: " + string(next)
	m.saveSetting(store.KeyTextType, string(next))
	return m.fetchText()
}

func (m *Model) cycleDuration() {
	next := nextDuration(m.config.Duration)
	if err := m.engine.SetDuration(time.Duration(next) * time.Second); err != nil {
		m.log.WithError(err).Warn("failed to change duration")
		return
	}
	m.config.Duration = next
	m.status = "Duration: " + formatClock(time.Duration(next)*time.Second)
	m.saveSetting(store.KeyDuration, strconv.Itoa(next))
}

// nextDuration returns the smallest choice above seconds, wrapping to the first.
func nextDuration(seconds int) int {
	for _, d := range durationChoices {
		if d > seconds {
			return d
		}
	}
	return durationChoices[0]
}

func (m *Model) saveSetting(name, value string) {
	if m.store == nil {
		return
	}
	if err := m.store.Set(context.Background(), name, value); err != nil {
		m.log.WithError(err).WithField("key", name).Warn("failed to save setting")
	}
}

func (m *Model) copyShareText() {
	if m.lastResult == nil {
		return
	}
	if err := m.copyText(engine.ShareText(*m.lastResult)); err != nil {
		m.log.WithError(err).Warn("failed to copy share text")
		m.status = "Clipboard unavailable"
		return
	}
	m.status = "Result copied to clipboard"
}

// persistFinished stores a result produced by the engine during this update.
func (m *Model) persistFinished() {
	if m.finished == nil {
		return
	}
	r := *m.finished
	m.finished = nil
	m.lastResult = &r
	if m.store == nil {
		return
	}
	ctx := context.Background()
	if err := m.store.InsertResult(ctx, r); err != nil {
		m.log.WithError(err).Error("failed to save result")
		return
	}
	if m.config.HistoryLimit <= 0 {
		return
	}
	if _, err := m.store.PruneResults(ctx, m.config.HistoryLimit); err != nil {
		m.log.WithError(err).Warn("failed to prune results")
	}
}

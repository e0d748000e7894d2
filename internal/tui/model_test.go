package tui

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/speedtype/internal/engine"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/store"
)

type memoryStore struct {
	results  []model.TestResult
	settings map[string]string
	pruned   []int
}

func (s *memoryStore) InsertResult(_ context.Context, r model.TestResult) error {
	s.results = append(s.results, r)
	return nil
}

func (s *memoryStore) PruneResults(_ context.Context, keep int) (int64, error) {
	s.pruned = append(s.pruned, keep)
	return 0, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	if s.settings == nil {
		s.settings = map[string]string{}
	}
	s.settings[key] = value
	return nil
}

type staticProvider string

func (p staticProvider) FetchText(context.Context, model.Difficulty, model.TextType) (string, error) {
	return string(p), nil
}

func newTestModel(t *testing.T, text string) (*Model, *memoryStore) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := model.Config{
		Duration:     30,
		Policy:       model.PolicyStandard,
		Difficulty:   model.DifficultyEasy,
		TextType:     model.TextParagraphs,
		HistoryLimit: 20,
	}
	eng, err := engine.New(engine.Config{
		Policy:       cfg.Policy,
		Difficulty:   cfg.Difficulty,
		Duration:     30 * time.Second,
		HistoryLimit: cfg.HistoryLimit,
	}, engine.WithLogger(log))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	st := &memoryStore{}
	m := NewModel(cfg, eng, st, staticProvider(text), log)
	msg := m.Init()()
	m.Update(msg)
	return m, st
}

func typeRunes(m *Model, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestFirstKeyStartsAndFinishPersists(t *testing.T) {
	m, st := newTestModel(t, "go fast")
	if m.engine.State() != engine.StateIdle {
		t.Fatalf("expected idle after text load, got %s", m.engine.State())
	}

	typeRunes(m, "go")
	if m.engine.State() != engine.StateRunning {
		t.Fatalf("expected running, got %s", m.engine.State())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.engine.Snapshot().Input; got != "g" {
		t.Fatalf("expected backspace to trim input, got %q", got)
	}

	typeRunes(m, "o fast")
	if m.engine.State() != engine.StateFinished {
		t.Fatalf("expected finished, got %s", m.engine.State())
	}
	if len(st.results) != 1 || len(st.pruned) != 1 || st.pruned[0] != 20 {
		t.Fatalf("expected result persisted and pruned, got %d results %v", len(st.results), st.pruned)
	}
	if m.lastResult == nil || m.lastResult.ID != st.results[0].ID {
		t.Fatalf("expected last result to match stored result")
	}
}

func TestPauseTogglesAndDropsStaleTicks(t *testing.T) {
	m, _ := newTestModel(t, "hello")
	typeRunes(m, "h")
	gen := m.tickGen

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlAt})
	if m.engine.State() != engine.StatePaused {
		t.Fatalf("expected paused, got %s", m.engine.State())
	}
	remaining := m.engine.Remaining()
	m.Update(tickMsg{gen: gen})
	if m.engine.Remaining() != remaining {
		t.Fatalf("stale tick should not advance countdown")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlAt})
	if m.engine.State() != engine.StateRunning {
		t.Fatalf("expected running after resume, got %s", m.engine.State())
	}
	m.Update(tickMsg{gen: m.tickGen})
	if m.engine.Remaining() != remaining-time.Second {
		t.Fatalf("expected countdown to advance, got %s", m.engine.Remaining())
	}
}

func TestTabCyclesPolicyWhenIdle(t *testing.T) {
	m, st := newTestModel(t, "hello")
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.engine.Config().Policy; got != model.PolicyTraditional {
		t.Fatalf("expected traditional, got %s", got)
	}
	if st.settings[store.KeyPolicy] != "traditional" {
		t.Fatalf("expected policy persisted, got %v", st.settings)
	}

	typeRunes(m, "h")
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.engine.Config().Policy; got != model.PolicyTraditional {
		t.Fatalf("policy must not change while running, got %s", got)
	}
}

func TestSettingKeysPersistWhenIdle(t *testing.T) {
	m, st := newTestModel(t, "hello")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if got := m.engine.Config().Difficulty; got != model.DifficultyMedium {
		t.Fatalf("expected medium, got %s", got)
	}
	if cmd == nil || !m.loading {
		t.Fatalf("expected a new text fetch after difficulty change")
	}
	m.Update(cmd())
	if m.loading || m.engine.State() != engine.StateIdle {
		t.Fatalf("expected idle with new text, loading=%v state=%s", m.loading, m.engine.State())
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.config.TextType != model.TextQuotes || cmd == nil {
		t.Fatalf("expected quotes and a fetch, got %s", m.config.TextType)
	}
	m.Update(cmd())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	if got := m.engine.Remaining(); got != 60*time.Second {
		t.Fatalf("expected 60s countdown, got %s", got)
	}

	want := map[string]string{
		store.KeyDifficulty: "medium",
		store.KeyTextType:   "quotes",
		store.KeyDuration:   "60",
	}
	for k, v := range want {
		if st.settings[k] != v {
			t.Fatalf("expected %s=%s persisted, got %v", k, v, st.settings)
		}
	}

	typeRunes(m, "h")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if st.settings[store.KeyDuration] != "60" || m.engine.Config().Difficulty != model.DifficultyMedium {
		t.Fatalf("settings must not change while running, got %v", st.settings)
	}
}

func TestNextDurationWraps(t *testing.T) {
	cases := map[int]int{0: 15, 15: 30, 45: 60, 300: 15, 900: 15}
	for in, want := range cases {
		if got := nextDuration(in); got != want {
			t.Fatalf("nextDuration(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestShareCopiesLastResult(t *testing.T) {
	m, _ := newTestModel(t, "ok")
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if copied != "" {
		t.Fatalf("nothing should be copied before a finish")
	}
	typeRunes(m, "ok")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if copied != engine.ShareText(*m.lastResult) {
		t.Fatalf("unexpected share text %q", copied)
	}
}

func TestEscResetsWithoutRecording(t *testing.T) {
	m, st := newTestModel(t, "hello")
	typeRunes(m, "he")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if m.engine.State() != engine.StateIdle || !m.loading {
		t.Fatalf("expected idle and loading after esc")
	}
	if cmd == nil {
		t.Fatalf("expected fetch command")
	}
	m.Update(cmd())
	if m.loading || len(st.results) != 0 {
		t.Fatalf("expected loaded text and no stored results")
	}
	if m.View() == "" {
		t.Fatalf("expected view output")
	}
}

package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/speedtype/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T, policy model.CalculationPolicy, duration time.Duration, reference string) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.Policy = policy
	cfg.Duration = duration
	ids := 0
	e, err := New(cfg, WithClock(clock), WithIDGenerator(func() string {
		ids++
		return "result-" + string(rune('0'+ids))
	}))
	require.NoError(t, err)
	require.NoError(t, e.SetReferenceText(reference))
	return e, clock
}

func typeSequence(e *Engine, text string) {
	runes := []rune(text)
	for i := range runes {
		e.OnInput(string(runes[:i+1]))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
		err   error
	}{
		{"policy", Config{Policy: "fast", HistoryLimit: 20}, "policy", ErrInvalidPolicy},
		{"duration", Config{Policy: model.PolicyStandard, Duration: -time.Second, HistoryLimit: 20}, "duration", ErrInvalidDuration},
		{"history", Config{Policy: model.PolicyStandard}, "history-limit", ErrInvalidHistoryLimit},
		{"difficulty", Config{Policy: model.PolicyStandard, HistoryLimit: 20, Difficulty: "insane"}, "difficulty", ErrInvalidDifficulty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestStartWithoutReference(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	err = e.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyReference)
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, StateIdle, e.State())
}

func TestStartWhileActive(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 0, "cat")
	require.NoError(t, e.Start())
	assert.ErrorIs(t, e.Start(), ErrSessionActive)
	assert.ErrorIs(t, e.SetReferenceText("dog"), ErrSessionActive)
	assert.ErrorIs(t, e.SetPolicy(model.PolicyActual), ErrSessionActive)

	e.Pause()
	assert.ErrorIs(t, e.Start(), ErrSessionActive)
}

func TestInputIgnoredUnlessRunning(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 0, "cat")
	assert.False(t, e.OnInput("c"))
	assert.Equal(t, 0, e.Metrics().TotalKeystrokes)

	require.NoError(t, e.Start())
	assert.True(t, e.OnInput("c"))
	e.Pause()
	assert.False(t, e.OnInput("ca"))
	assert.Equal(t, "c", e.Snapshot().Input)
	assert.Equal(t, 1, e.Metrics().TotalKeystrokes)
}

func TestFinishOnCompletion(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 60*time.Second, "cat")
	require.NoError(t, e.Start())
	e.OnInput("cat")

	assert.Equal(t, StateFinished, e.State())
	history := e.History()
	require.Len(t, history, 1)
	assert.Equal(t, 0, history[0].Errors)
	assert.Equal(t, 100, history[0].Accuracy)
	assert.Equal(t, 3, history[0].TextLength)
	assert.Equal(t, 1, history[0].WordCount)
	assert.Equal(t, 1, history[0].CorrectWords)
	assert.Equal(t, model.PolicyStandard, history[0].Policy)
}

func TestInputPastReferenceFinishes(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyTraditional, 0, "cat")
	require.NoError(t, e.Start())
	e.OnInput("catdog")

	assert.Equal(t, StateFinished, e.State())
	history := e.History()
	require.Len(t, history, 1)
	assert.Equal(t, 0, history[0].Errors)
	assert.Equal(t, 100, history[0].Accuracy)
	assert.Equal(t, 0, history[0].Streak)
	assert.Equal(t, 0, history[0].CorrectWords)
	assert.Equal(t, 3, history[0].TextLength)

	assert.False(t, e.OnInput("catdogs"))
	assert.Len(t, e.History(), 1)
}

func TestTraditionalAccuracy(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyTraditional, 0, "cat")
	require.NoError(t, e.Start())
	e.OnInput("cap")

	result, ok := e.PersonalBest()
	require.True(t, ok)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 67, result.Accuracy)

	chars := e.Snapshot().Characters
	assert.Equal(t, model.CharCorrect, chars[0].Status)
	assert.Equal(t, model.CharCorrect, chars[1].Status)
	assert.Equal(t, model.CharIncorrect, chars[2].Status)
}

func TestStandardKeystrokeAccuracy(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 0, "cat")
	require.NoError(t, e.Start())
	typeSequence(e, "cax")

	require.Equal(t, StateFinished, e.State())
	m := e.Metrics()
	assert.Equal(t, 3, m.TotalKeystrokes)
	assert.Equal(t, 2, m.CorrectKeystrokes)
	assert.Equal(t, 67, m.Accuracy)
}

func TestStreakReset(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 0, "abcdefgh")
	require.NoError(t, e.Start())
	typeSequence(e, "abcdex")

	m := e.Metrics()
	assert.Equal(t, 0, m.Streak)
	assert.Equal(t, 5, m.MaxStreak)
}

func TestCursorAndBackspace(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 0, "abc")
	require.NoError(t, e.Start())
	assert.True(t, e.Snapshot().Characters[0].IsCursor)

	e.OnInput("ax")
	chars := e.Snapshot().Characters
	assert.True(t, chars[2].IsCursor)
	assert.False(t, chars[0].IsCursor)
	assert.Equal(t, model.CharIncorrect, chars[1].Status)

	e.OnInput("a")
	chars = e.Snapshot().Characters
	assert.True(t, chars[1].IsCursor)
	assert.Equal(t, model.CharUnknown, chars[1].Status)
	assert.Equal(t, model.CharUnknown, chars[2].Status)
}

func TestRatesPerPolicy(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		e, clock := newTestEngine(t, model.PolicyStandard, 0, "hello world")
		require.NoError(t, e.Start())
		e.OnInput("hello")
		clock.advance(time.Minute)
		e.Tick()

		m := e.Metrics()
		assert.Equal(t, 1, m.WPM)
		assert.Equal(t, 1, m.NetWPM)
		assert.Equal(t, 5, m.CPM)
		assert.Equal(t, 0, m.ErrorRate)
	})

	t.Run("traditional", func(t *testing.T) {
		e, clock := newTestEngine(t, model.PolicyTraditional, 0, "the cat")
		require.NoError(t, e.Start())
		e.OnInput("thx")
		clock.advance(30 * time.Second)
		e.Tick()

		m := e.Metrics()
		assert.Equal(t, 1, m.WPM)
		assert.Equal(t, 0, m.NetWPM)
		assert.Equal(t, 6, m.CPM)
		assert.Equal(t, 2, m.ErrorRate)
		assert.Equal(t, 67, m.Accuracy)
	})

	t.Run("actual", func(t *testing.T) {
		e, clock := newTestEngine(t, model.PolicyActual, 0, "the cat sat")
		require.NoError(t, e.Start())
		e.OnInput("the cot")
		clock.advance(time.Minute)
		e.Tick()

		m := e.Metrics()
		assert.Equal(t, 2, m.WPM)
		assert.Equal(t, 1, m.NetWPM)
		assert.Equal(t, 7, m.CPM)
		assert.Equal(t, 50, m.Accuracy)
		assert.Equal(t, 1, m.Errors)
	})
}

func TestPauseIsIdempotent(t *testing.T) {
	e, clock := newTestEngine(t, model.PolicyStandard, 60*time.Second, "hello")
	require.NoError(t, e.Start())
	e.OnInput("h")
	clock.advance(10 * time.Second)

	e.Pause()
	elapsed := e.Elapsed()
	remaining := e.Remaining()
	e.Pause()

	assert.Equal(t, StatePaused, e.State())
	assert.Equal(t, elapsed, e.Elapsed())
	assert.Equal(t, remaining, e.Remaining())

	e.Tick()
	assert.Equal(t, remaining, e.Remaining())
}

func TestElapsedExcludesPause(t *testing.T) {
	e, clock := newTestEngine(t, model.PolicyStandard, 0, "hello world")
	require.NoError(t, e.Start())

	clock.advance(5 * time.Second)
	e.OnInput("h")
	clock.advance(30 * time.Second)
	e.Pause()
	clock.advance(time.Minute)
	e.Resume()
	clock.advance(30 * time.Second)

	assert.Equal(t, time.Minute, e.Elapsed())

	e.OnInput("he")
	result, ok := e.Finish()
	require.True(t, ok)
	assert.InDelta(t, 60.0, result.Time, 0.001)
}

func TestCountdownFinishes(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 3*time.Second, "abcdef")
	require.NoError(t, e.Start())
	e.OnInput("a")

	e.Tick()
	e.Tick()
	assert.Equal(t, StateRunning, e.State())
	assert.InDelta(t, 2.0/3.0, e.Progress(), 0.001)

	e.Tick()
	assert.Equal(t, StateFinished, e.State())
	assert.Equal(t, time.Duration(0), e.Remaining())
	assert.Len(t, e.History(), 1)
}

func TestResetDiscardsSession(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 60*time.Second, "hello")
	require.NoError(t, e.Start())
	e.OnInput("hel")
	e.Reset()

	assert.Equal(t, StateIdle, e.State())
	assert.Empty(t, e.History())
	snap := e.Snapshot()
	assert.Empty(t, snap.Input)
	assert.Equal(t, "hello", snap.Reference)
	assert.Equal(t, 0, snap.Metrics.TotalKeystrokes)
	assert.Equal(t, 60*time.Second, snap.Remaining)

	_, ok := e.Finish()
	assert.False(t, ok)
}

func TestFinishFromPaused(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 60*time.Second, "hello")
	require.NoError(t, e.Start())
	e.OnInput("he")
	e.Pause()

	result, ok := e.Finish()
	require.True(t, ok)
	assert.Equal(t, StateFinished, e.State())
	assert.Equal(t, "result-1", result.ID)
}

func TestRestartAfterFinish(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 0, "ab")
	require.NoError(t, e.Start())
	e.OnInput("ab")
	require.Equal(t, StateFinished, e.State())

	require.NoError(t, e.Start())
	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, 0, e.Metrics().TotalKeystrokes)
	assert.Len(t, e.History(), 1)
}

func TestPersonalBest(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	e, err := New(DefaultConfig(), WithClock(clock), WithHistory([]model.TestResult{
		{ID: "a", WPM: 50},
		{ID: "b", WPM: 80},
	}))
	require.NoError(t, err)

	best, ok := e.PersonalBest()
	require.True(t, ok)
	assert.Equal(t, "b", best.ID)

	e.AppendToHistory(model.TestResult{ID: "c", WPM: 60})
	best, _ = e.PersonalBest()
	assert.Equal(t, "b", best.ID)

	e.AppendToHistory(model.TestResult{ID: "d", WPM: 90})
	best, _ = e.PersonalBest()
	assert.Equal(t, "d", best.ID)
	assert.Equal(t, "d", e.History()[0].ID)

	e.ClearHistory()
	assert.Empty(t, e.History())
	_, ok = e.PersonalBest()
	assert.False(t, ok)
}

func TestSubscribe(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 0, "ab")
	var kinds []EventKind
	var finished *model.TestResult
	unsubscribe := e.Subscribe(func(ev Event) {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventFinished {
			finished = ev.Result
		}
	})

	require.NoError(t, e.Start())
	e.OnInput("a")
	e.OnInput("ab")

	assert.Equal(t, []EventKind{EventStateChange, EventInput, EventInput, EventFinished}, kinds)
	require.NotNil(t, finished)
	assert.Equal(t, 100, finished.Accuracy)

	unsubscribe()
	e.Reset()
	assert.Len(t, kinds, 4)
}

func TestSnapshotIsCopy(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 0, "abc")
	require.NoError(t, e.Start())
	e.OnInput("a")

	snap := e.Snapshot()
	snap.Characters[0].Status = model.CharIncorrect
	assert.Equal(t, model.CharCorrect, e.Snapshot().Characters[0].Status)
}

func TestSetPolicyBetweenSessions(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 0, "abc")
	require.NoError(t, e.SetPolicy(model.PolicyActual))
	assert.Equal(t, model.PolicyActual, e.Config().Policy)

	err := e.SetPolicy("unknown")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestSetDifficultyAndDuration(t *testing.T) {
	e, _ := newTestEngine(t, model.PolicyStandard, 60*time.Second, "abc")
	require.NoError(t, e.SetDifficulty(model.DifficultyExpert))
	require.NoError(t, e.SetDuration(15*time.Second))
	assert.Equal(t, model.DifficultyExpert, e.Config().Difficulty)
	assert.Equal(t, 15*time.Second, e.Remaining())

	assert.ErrorIs(t, e.SetDifficulty("insane"), ErrInvalidDifficulty)
	assert.ErrorIs(t, e.SetDuration(-time.Second), ErrInvalidDuration)

	require.NoError(t, e.Start())
	assert.ErrorIs(t, e.SetDifficulty(model.DifficultyEasy), ErrSessionActive)
	assert.ErrorIs(t, e.SetDuration(30*time.Second), ErrSessionActive)

	e.OnInput("abc")
	result := e.History()[0]
	assert.Equal(t, model.DifficultyExpert, result.Difficulty)
}

func TestShareText(t *testing.T) {
	got := ShareText(model.TestResult{WPM: 72, NetWPM: 68, Accuracy: 96})
	assert.Equal(t, "I just typed 72 WPM (68 Net WPM) with 96% accuracy on the Typing Speed Tester! Can you beat my score?", got)
	assert.Equal(t, "typing-test-history-2024-03-01.json", ExportFileName(time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)))
}

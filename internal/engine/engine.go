// Package engine implements the typing session state machine and its scoring.
//
// An Engine is driven by two stimuli: input buffer updates (OnInput) and a
// periodic Tick. Both must be delivered from a single goroutine; the Engine
// does no locking of its own.
package engine

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/stats"
)

// State is the lifecycle state of a session.
type State int

// Session states.
const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "idle"
	}
}

// Config holds the engine settings.
type Config struct {
	Policy     model.CalculationPolicy
	Difficulty model.Difficulty
	// Duration is the countdown length. Zero disables the countdown.
	Duration     time.Duration
	HistoryLimit int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Policy:       model.PolicyStandard,
		Difficulty:   model.DifficultyMedium,
		Duration:     60 * time.Second,
		HistoryLimit: DefaultHistoryLimit,
	}
}

func (c Config) validate() error {
	if !c.Policy.Valid() {
		return &ConfigurationError{Field: "policy", Err: ErrInvalidPolicy}
	}
	if c.Duration < 0 {
		return &ConfigurationError{Field: "duration", Err: ErrInvalidDuration}
	}
	if c.HistoryLimit <= 0 {
		return &ConfigurationError{Field: "history-limit", Err: ErrInvalidHistoryLimit}
	}
	if !c.Difficulty.Valid() {
		return &ConfigurationError{Field: "difficulty", Err: ErrInvalidDifficulty}
	}
	return nil
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithHistory seeds the history, newest first.
func WithHistory(results []model.TestResult) Option {
	return func(e *Engine) { e.seed = results }
}

// WithIDGenerator overrides the result ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// EventKind identifies what triggered an Event.
type EventKind int

// Event kinds.
const (
	EventStateChange EventKind = iota
	EventInput
	EventTick
	EventFinished
)

// Event is delivered to subscribers after every mutation.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	// Result is set for EventFinished.
	Result *model.TestResult
}

// Snapshot is a copy of the engine state for rendering.
type Snapshot struct {
	State        State
	Policy       model.CalculationPolicy
	Reference    string
	Input        string
	Characters   []model.CharacterState
	Words        []model.WordResult
	CorrectWords int
	Metrics      model.SessionMetrics
	Remaining    time.Duration
	Elapsed      time.Duration
	PersonalBest *model.TestResult
}

type listener struct {
	id int
	fn func(Event)
}

// Engine evaluates one typing session at a time and keeps the result history.
type Engine struct {
	cfg   Config
	clock Clock
	log   logrus.FieldLogger
	newID func() string
	seed  []model.TestResult

	state        State
	reference    []rune
	input        []rune
	chars        []model.CharacterState
	words        []model.WordResult
	correctWords int
	metrics      model.SessionMetrics
	remaining    int

	started      bool
	startedAt    time.Time
	segmentStart time.Time
	activeTime   time.Duration

	history *History
	best    *model.TestResult

	listeners    []listener
	nextListener int
}

// New constructs an idle Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	e := &Engine{
		cfg:   cfg,
		clock: ClockFunc(time.Now),
		log:   discard,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.history = NewHistory(cfg.HistoryLimit, e.seed)
	e.seed = nil
	if best, ok := e.history.Best(); ok {
		e.best = &best
	}
	e.clearSession()
	return e, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Config returns the engine settings.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetReferenceText replaces the reference text and returns the engine to Idle.
func (e *Engine) SetReferenceText(text string) error {
	if e.active() {
		return ErrSessionActive
	}
	e.reference = []rune(text)
	e.clearSession()
	e.setState(StateIdle)
	return nil
}

// SetPolicy changes the calculation policy between sessions.
func (e *Engine) SetPolicy(p model.CalculationPolicy) error {
	if !p.Valid() {
		return &ConfigurationError{Field: "policy", Err: ErrInvalidPolicy}
	}
	if e.active() {
		return ErrSessionActive
	}
	e.cfg.Policy = p
	return nil
}

// SetDifficulty changes the difficulty recorded on results between sessions.
func (e *Engine) SetDifficulty(d model.Difficulty) error {
	if !d.Valid() {
		return &ConfigurationError{Field: "difficulty", Err: ErrInvalidDifficulty}
	}
	if e.active() {
		return ErrSessionActive
	}
	e.cfg.Difficulty = d
	return nil
}

// SetDuration changes the countdown length between sessions. Zero disables it.
func (e *Engine) SetDuration(d time.Duration) error {
	if d < 0 {
		return &ConfigurationError{Field: "duration", Err: ErrInvalidDuration}
	}
	if e.active() {
		return ErrSessionActive
	}
	e.cfg.Duration = d
	if e.state == StateIdle {
		e.remaining = int(d / time.Second)
	}
	return nil
}

// Start begins a new session. The start timestamp is taken on the first keystroke.
func (e *Engine) Start() error {
	if e.active() {
		return ErrSessionActive
	}
	if len(e.reference) == 0 {
		return &ConfigurationError{Field: "reference", Err: ErrEmptyReference}
	}
	e.clearSession()
	e.setState(StateRunning)
	return nil
}

// Pause freezes the countdown and the active time. It is a no-op unless running.
func (e *Engine) Pause() {
	if e.state != StateRunning {
		return
	}
	e.freeze()
	e.setState(StatePaused)
}

// Resume continues a paused session. It is a no-op unless paused.
func (e *Engine) Resume() {
	if e.state != StatePaused {
		return
	}
	if e.started {
		e.segmentStart = e.clock.Now()
	}
	e.setState(StateRunning)
}

// Reset discards the current session without recording a result.
func (e *Engine) Reset() {
	e.clearSession()
	e.setState(StateIdle)
}

// Tick advances the countdown by one second and recomputes the metrics.
func (e *Engine) Tick() {
	if e.state != StateRunning {
		return
	}
	timed := e.cfg.Duration > 0
	if timed && e.remaining > 0 {
		e.remaining--
	}
	e.evaluate()
	e.notify(EventTick, nil)
	if timed && e.remaining <= 0 {
		e.Finish()
	}
}

// OnInput evaluates the full input buffer. It returns false when the input
// was dropped because no session is running.
func (e *Engine) OnInput(buffer string) bool {
	if e.state != StateRunning {
		e.log.WithError(ErrIgnoredInput).WithField("state", e.state.String()).Debug("input dropped")
		return false
	}
	input := []rune(buffer)
	if !e.started && len(input) > 0 {
		now := e.clock.Now()
		e.started = true
		e.startedAt = now
		e.segmentStart = now
	}
	e.input = input

	e.metrics.TotalKeystrokes++
	if n := len(input); n > 0 {
		last := n - 1
		if last < len(e.reference) && input[last] == e.reference[last] {
			e.metrics.Streak++
			e.metrics.MaxStreak = max(e.metrics.MaxStreak, e.metrics.Streak)
			e.metrics.CorrectKeystrokes++
		} else {
			e.metrics.Streak = 0
		}
	}

	e.evaluate()
	e.notify(EventInput, nil)
	if len(input) >= len(e.reference) {
		e.Finish()
	}
	return true
}

// Finish ends a running or paused session, records its result and returns it.
func (e *Engine) Finish() (model.TestResult, bool) {
	if !e.active() {
		return model.TestResult{}, false
	}
	e.freeze()
	e.state = StateFinished
	e.evaluate()

	result := e.buildResult()
	e.history.Append(result)
	e.updateBest(result)

	e.log.WithFields(logrus.Fields{
		"id":       result.ID,
		"wpm":      result.WPM,
		"accuracy": result.Accuracy,
		"policy":   string(result.Policy),
	}).Info("session finished")
	e.notify(EventFinished, &result)
	return result, true
}

// Metrics returns the live metrics.
func (e *Engine) Metrics() model.SessionMetrics {
	return e.metrics
}

// Elapsed returns the active typing time, excluding pauses.
func (e *Engine) Elapsed() time.Duration {
	if !e.started {
		return 0
	}
	if e.state == StateRunning {
		return e.activeTime + e.since(e.segmentStart)
	}
	return e.activeTime
}

// Remaining returns the countdown time left.
func (e *Engine) Remaining() time.Duration {
	return time.Duration(e.remaining) * time.Second
}

// Progress returns the consumed fraction of the countdown in [0, 1].
func (e *Engine) Progress() float64 {
	total := int(e.cfg.Duration / time.Second)
	if total <= 0 {
		return 0
	}
	return float64(total-e.remaining) / float64(total)
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		State:        e.state,
		Policy:       e.cfg.Policy,
		Reference:    string(e.reference),
		Input:        string(e.input),
		Characters:   append([]model.CharacterState(nil), e.chars...),
		Words:        append([]model.WordResult(nil), e.words...),
		CorrectWords: e.correctWords,
		Metrics:      e.metrics,
		Remaining:    e.Remaining(),
		Elapsed:      e.Elapsed(),
	}
	if e.best != nil {
		best := *e.best
		snap.PersonalBest = &best
	}
	return snap
}

// Subscribe registers fn for every subsequent Event. The returned function removes it.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.nextListener++
	id := e.nextListener
	e.listeners = append(e.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// History returns the stored results, newest first.
func (e *Engine) History() []model.TestResult {
	return e.history.Results()
}

// AppendToHistory stores r at the head of the history.
func (e *Engine) AppendToHistory(r model.TestResult) {
	e.history.Append(r)
	e.updateBest(r)
}

// ClearHistory drops every stored result and the personal best.
func (e *Engine) ClearHistory() {
	e.history.Clear()
	e.best = nil
}

// SerializeHistory renders the history as a JSON array.
func (e *Engine) SerializeHistory() ([]byte, error) {
	return e.history.Serialize()
}

// PersonalBest returns the highest-WPM result seen by this engine.
func (e *Engine) PersonalBest() (model.TestResult, bool) {
	if e.best == nil {
		return model.TestResult{}, false
	}
	return *e.best, true
}

func (e *Engine) active() bool {
	return e.state == StateRunning || e.state == StatePaused
}

func (e *Engine) setState(s State) {
	if e.state != s {
		e.log.WithFields(logrus.Fields{"from": e.state.String(), "to": s.String()}).Debug("session state changed")
	}
	e.state = s
	e.notify(EventStateChange, nil)
}

func (e *Engine) clearSession() {
	e.input = nil
	e.chars = newCharacterStates(e.reference)
	e.words = nil
	e.correctWords = 0
	e.metrics = model.SessionMetrics{Accuracy: 100}
	e.remaining = int(e.cfg.Duration / time.Second)
	e.started = false
	e.startedAt = time.Time{}
	e.segmentStart = time.Time{}
	e.activeTime = 0
}

// freeze folds the running segment into the accumulated active time.
func (e *Engine) freeze() {
	if e.state == StateRunning && e.started {
		e.activeTime += e.since(e.segmentStart)
		e.segmentStart = e.clock.Now()
	}
}

func (e *Engine) since(t time.Time) time.Duration {
	return max(e.clock.Now().Sub(t), 0)
}

func (e *Engine) evaluate() {
	mismatches := classifyCharacters(e.chars, e.reference, e.input)
	words := analyzeWords(string(e.reference), string(e.input))
	e.words = words.words
	e.correctWords = words.correctWords

	errs := mismatches
	if e.cfg.Policy != model.PolicyTraditional {
		errs = words.errors
	}
	rates := stats.Compute(e.cfg.Policy, stats.Sample{
		InputLength:       len(e.input),
		InputWords:        CountWords(string(e.input)),
		Errors:            errs,
		TypedWords:        len(words.words),
		CorrectWords:      words.correctWords,
		TotalKeystrokes:   e.metrics.TotalKeystrokes,
		CorrectKeystrokes: e.metrics.CorrectKeystrokes,
		Elapsed:           e.Elapsed(),
	})
	e.metrics.Errors = errs
	e.metrics.WPM = rates.WPM
	e.metrics.NetWPM = rates.NetWPM
	e.metrics.CPM = rates.CPM
	e.metrics.Accuracy = rates.Accuracy
	e.metrics.ErrorRate = rates.ErrorRate
}

func (e *Engine) buildResult() model.TestResult {
	m := e.metrics
	return model.TestResult{
		ID:                e.newID(),
		WPM:               m.WPM,
		NetWPM:            m.NetWPM,
		CPM:               m.CPM,
		Accuracy:          m.Accuracy,
		Errors:            m.Errors,
		ErrorRate:         m.ErrorRate,
		Streak:            m.Streak,
		MaxStreak:         m.MaxStreak,
		TotalKeystrokes:   m.TotalKeystrokes,
		CorrectKeystrokes: m.CorrectKeystrokes,
		Time:              e.activeTime.Seconds(),
		Date:              e.clock.Now().UTC(),
		Difficulty:        e.cfg.Difficulty,
		Policy:            e.cfg.Policy,
		TextLength:        len(e.reference),
		WordCount:         CountWords(string(e.reference)),
		CorrectWords:      e.correctWords,
	}
}

func (e *Engine) updateBest(r model.TestResult) {
	if e.best == nil || r.WPM > e.best.WPM {
		best := r
		e.best = &best
	}
}

func (e *Engine) notify(kind EventKind, result *model.TestResult) {
	if len(e.listeners) == 0 {
		return
	}
	ev := Event{Kind: kind, Snapshot: e.Snapshot(), Result: result}
	for _, l := range append([]listener(nil), e.listeners...) {
		l.fn(ev)
	}
}

// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// CalculationPolicy selects the formula set used for session metrics.
type CalculationPolicy string

// Supported calculation policies.
const (
	PolicyTraditional CalculationPolicy = "traditional"
	PolicyActual      CalculationPolicy = "actual"
	PolicyStandard    CalculationPolicy = "standard"
)

// Policies lists every policy in display order.
var Policies = []CalculationPolicy{PolicyTraditional, PolicyActual, PolicyStandard}

// Valid reports whether p is a known policy.
func (p CalculationPolicy) Valid() bool {
	switch p {
	case PolicyTraditional, PolicyActual, PolicyStandard:
		return true
	}
	return false
}

// Next returns the policy following p, wrapping around.
func (p CalculationPolicy) Next() CalculationPolicy {
	for i, candidate := range Policies {
		if candidate == p {
			return Policies[(i+1)%len(Policies)]
		}
	}
	return PolicyStandard
}

// ParsePolicy parses a policy name case-insensitively.
func ParsePolicy(s string) (CalculationPolicy, error) {
	p := CalculationPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown calculation policy %q", s)
	}
	return p, nil
}

// Difficulty controls the size of generated reference texts.
type Difficulty string

// Supported difficulty levels.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Difficulties lists every difficulty in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// Next returns the difficulty following d, wrapping around.
func (d Difficulty) Next() Difficulty {
	for i, candidate := range Difficulties {
		if candidate == d {
			return Difficulties[(i+1)%len(Difficulties)]
		}
	}
	return DifficultyMedium
}

// WordCount returns the target word count for the difficulty.
func (d Difficulty) WordCount() int {
	switch d {
	case DifficultyEasy:
		return 20
	case DifficultyHard:
		return 100
	case DifficultyExpert:
		return 150
	default:
		return 50
	}
}

// ParseDifficulty parses a difficulty name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// TextType selects the flavour of reference text.
type TextType string

// Supported text types.
const (
	TextParagraphs TextType = "paragraphs"
	TextQuotes     TextType = "quotes"
)

// TextTypes lists every text type in display order.
var TextTypes = []TextType{TextParagraphs, TextQuotes}

// Next returns the text type following t, wrapping around.
func (t TextType) Next() TextType {
	for i, candidate := range TextTypes {
		if candidate == t {
			return TextTypes[(i+1)%len(TextTypes)]
		}
	}
	return TextParagraphs
}

// ParseTextType parses a text type name case-insensitively.
func ParseTextType(s string) (TextType, error) {
	t := TextType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TextParagraphs, TextQuotes:
		return t, nil
	}
	return "", fmt.Errorf("unknown text type %q", s)
}

// Config defines practice settings.
type Config struct {
	Duration     int
	Policy       CalculationPolicy
	Difficulty   Difficulty
	TextType     TextType
	WordsFile    string
	TextEndpoint string
	HistoryLimit int
}

// CharStatus classifies a reference character against the input.
type CharStatus int

// Character statuses.
const (
	CharUnknown CharStatus = iota
	CharCorrect
	CharIncorrect
)

func (s CharStatus) String() string {
	switch s {
	case CharCorrect:
		return "correct"
	case CharIncorrect:
		return "incorrect"
	default:
		return "unknown"
	}
}

// CharacterState is the per-index view of the reference text.
type CharacterState struct {
	Char     rune
	Status   CharStatus
	IsCursor bool
}

// WordResult compares one typed word with its reference word.
type WordResult struct {
	Text               string `json:"text"`
	IsCorrect          bool   `json:"isCorrect"`
	IsPartiallyCorrect bool   `json:"isPartiallyCorrect"`
	ErrorCount         int    `json:"errorCount"`
}

// SessionMetrics holds the live scoring values of a session.
type SessionMetrics struct {
	WPM               int
	NetWPM            int
	CPM               int
	Accuracy          int
	Errors            int
	ErrorRate         int
	Streak            int
	MaxStreak         int
	TotalKeystrokes   int
	CorrectKeystrokes int
}

// TestResult is the frozen record of a finished session.
type TestResult struct {
	ID                string            `json:"id"`
	WPM               int               `json:"wpm"`
	NetWPM            int               `json:"netWpm"`
	CPM               int               `json:"cpm"`
	Accuracy          int               `json:"accuracy"`
	Errors            int               `json:"errors"`
	ErrorRate         int               `json:"errorRate"`
	Streak            int               `json:"streak"`
	MaxStreak         int               `json:"maxStreak"`
	TotalKeystrokes   int               `json:"totalKeystrokes"`
	CorrectKeystrokes int               `json:"correctKeystrokes"`
	Time              float64           `json:"time"`
	Date              time.Time         `json:"date"`
	Difficulty        Difficulty        `json:"difficulty"`
	Policy            CalculationPolicy `json:"calculationMethod"`
	TextLength        int               `json:"textLength"`
	WordCount         int               `json:"wordCount"`
	CorrectWords      int               `json:"correctWords"`
}

// Metrics returns the SessionMetrics portion of the result.
func (r TestResult) Metrics() SessionMetrics {
	return SessionMetrics{
		WPM:               r.WPM,
		NetWPM:            r.NetWPM,
		CPM:               r.CPM,
		Accuracy:          r.Accuracy,
		Errors:            r.Errors,
		ErrorRate:         r.ErrorRate,
		Streak:            r.Streak,
		MaxStreak:         r.MaxStreak,
		TotalKeystrokes:   r.TotalKeystrokes,
		CorrectKeystrokes: r.CorrectKeystrokes,
	}
}

// ErrInvalidResult marks a result record that cannot be stored.
var ErrInvalidResult = errors.New("invalid result")

var (
	minResultDate = time.Unix(0, math.MinInt64)
	maxResultDate = time.Unix(0, math.MaxInt64)
)

// Validate checks that r can be stored and ranked.
func (r TestResult) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return fmt.Errorf("%w: id is empty", ErrInvalidResult)
	case !r.Policy.Valid():
		return fmt.Errorf("%w: unknown calculation policy %q", ErrInvalidResult, r.Policy)
	case !r.Difficulty.Valid():
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidResult, r.Difficulty)
	case r.Date.IsZero(), r.Date.Before(minResultDate), r.Date.After(maxResultDate):
		return fmt.Errorf("%w: date %s out of range", ErrInvalidResult, r.Date.Format(time.RFC3339))
	}
	return nil
}

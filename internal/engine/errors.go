package engine

import (
	"errors"
	"fmt"
)

// Engine errors.
var (
	ErrEmptyReference      = errors.New("reference text is empty")
	ErrInvalidPolicy       = errors.New("unknown calculation policy")
	ErrInvalidDifficulty   = errors.New("unknown difficulty")
	ErrInvalidDuration     = errors.New("duration must not be negative")
	ErrInvalidHistoryLimit = errors.New("history limit must be positive")
	ErrSessionActive       = errors.New("a session is already in progress")

	// ErrIgnoredInput marks input received outside a running session.
	// It is only logged; OnInput never returns it.
	ErrIgnoredInput = errors.New("input ignored outside a running session")
)

// ConfigurationError reports an unusable engine or session setting.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

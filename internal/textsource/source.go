// Package textsource supplies reference texts for typing sessions.
package textsource

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/speedtype/internal/model"
)

// FallbackText is used when no provider can supply a text.
const FallbackText = "The quick brown fox jumps over the lazy dog. This pangram contains every letter of the English alphabet at least once."

// ErrEmptyText is returned by providers that produced no usable text.
var ErrEmptyText = errors.New("provider returned empty text")

// Provider fetches a reference text.
type Provider interface {
	FetchText(ctx context.Context, difficulty model.Difficulty, textType model.TextType) (string, error)
}

// FetchOrFallback returns the provider text, or FallbackText when the provider fails.
func FetchOrFallback(ctx context.Context, p Provider, difficulty model.Difficulty, textType model.TextType, log logrus.FieldLogger) string {
	text, err := p.FetchText(ctx, difficulty, textType)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyText
	}
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"difficulty": string(difficulty),
			"type":       string(textType),
		}).Warn("using fallback text")
		return FallbackText
	}
	return normalize(text)
}

// normalize collapses whitespace runs into single spaces.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

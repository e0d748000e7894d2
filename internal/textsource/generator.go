package textsource

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/speedtype/internal/model"
)

//go:embed data/quotes.txt
var quotesData string

const (
	minSentenceWords = 6
	maxSentenceWords = 14
)

// Generator builds texts locally from a word list and the embedded quotes.
type Generator struct {
	rnd    *rand.Rand
	words  []string
	quotes []string
}

// NewGenerator returns a Generator over words seeded with the current time.
func NewGenerator(words []string) *Generator {
	return NewGeneratorWithSeed(words, time.Now().UnixNano())
}

// NewGeneratorWithSeed returns a deterministic Generator.
func NewGeneratorWithSeed(words []string, seed int64) *Generator {
	var quotes []string
	for _, line := range strings.Split(quotesData, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			quotes = append(quotes, line)
		}
	}
	return &Generator{
		rnd:    rand.New(rand.NewSource(seed)),
		words:  words,
		quotes: quotes,
	}
}

// FetchText implements Provider.
func (g *Generator) FetchText(ctx context.Context, difficulty model.Difficulty, textType model.TextType) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	count := difficulty.WordCount()
	switch textType {
	case model.TextQuotes:
		return g.Quotes(count), nil
	case model.TextParagraphs, "":
		if len(g.words) == 0 {
			return "", fmt.Errorf("word list is empty")
		}
		return g.Paragraph(count), nil
	default:
		return "", fmt.Errorf("unsupported text type %q", textType)
	}
}

// Paragraph returns count words grouped into capitalized sentences.
func (g *Generator) Paragraph(count int) string {
	var b strings.Builder
	for written := 0; written < count; {
		n := minSentenceWords + g.rnd.Intn(maxSentenceWords-minSentenceWords+1)
		n = min(n, count-written)
		if written > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(g.sentence(n))
		written += n
	}
	return b.String()
}

func (g *Generator) sentence(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = g.words[g.rnd.Intn(len(g.words))]
	}
	parts[0] = capitalize(parts[0])
	return strings.Join(parts, " ") + "."
}

// Quotes joins random quotes until at least count words are collected.
func (g *Generator) Quotes(count int) string {
	if len(g.quotes) == 0 {
		return FallbackText
	}
	var picked []string
	words := 0
	for _, idx := range g.rnd.Perm(len(g.quotes)) {
		picked = append(picked, g.quotes[idx])
		words += len(strings.Fields(g.quotes[idx]))
		if words >= count {
			break
		}
	}
	return strings.Join(picked, " ")
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

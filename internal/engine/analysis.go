package engine

import (
	"strings"

	"github.com/verte-zerg/speedtype/internal/model"
)

func newCharacterStates(reference []rune) []model.CharacterState {
	chars := make([]model.CharacterState, len(reference))
	for i, r := range reference {
		chars[i] = model.CharacterState{Char: r, IsCursor: i == 0}
	}
	return chars
}

// classifyCharacters updates chars in place and returns the number of mismatches.
func classifyCharacters(chars []model.CharacterState, reference, input []rune) int {
	mismatches := 0
	for i := range chars {
		chars[i].IsCursor = i == len(input)
		switch {
		case i >= len(input):
			chars[i].Status = model.CharUnknown
		case input[i] == reference[i]:
			chars[i].Status = model.CharCorrect
		default:
			chars[i].Status = model.CharIncorrect
			mismatches++
		}
	}
	return mismatches
}

type wordAnalysis struct {
	words        []model.WordResult
	correctWords int
	errors       int
}

// analyzeWords compares input and reference word by word up to the shorter word count.
func analyzeWords(reference, input string) wordAnalysis {
	refWords := strings.Fields(reference)
	inputWords := strings.Fields(input)
	n := min(len(refWords), len(inputWords))

	out := wordAnalysis{words: make([]model.WordResult, 0, n)}
	for i := 0; i < n; i++ {
		typed := []rune(inputWords[i])
		want := []rune(refWords[i])
		errs := 0
		for j := 0; j < max(len(typed), len(want)); j++ {
			if j >= len(typed) || j >= len(want) || typed[j] != want[j] {
				errs++
			}
		}
		correct := inputWords[i] == refWords[i]
		if correct {
			out.correctWords++
		}
		out.errors += errs
		out.words = append(out.words, model.WordResult{
			Text:               inputWords[i],
			IsCorrect:          correct,
			IsPartiallyCorrect: !correct && errs < len(want),
			ErrorCount:         errs,
		})
	}
	return out
}

// CountWords returns the number of whitespace separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

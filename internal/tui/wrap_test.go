package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/speedtype/internal/model"
)

func charStates(target, input string) []model.CharacterState {
	t := []rune(target)
	in := []rune(input)
	out := make([]model.CharacterState, len(t))
	for i, r := range t {
		out[i] = model.CharacterState{Char: r, IsCursor: i == len(in)}
		if i < len(in) {
			if in[i] == r {
				out[i].Status = model.CharCorrect
			} else {
				out[i].Status = model.CharIncorrect
			}
		}
	}
	return out
}

func TestBuildStyledRunesCursor(t *testing.T) {
	runes := buildStyledRunes(charStates("ab", "a"))
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != currentWordStyle.Underline(true).Render("b") {
		t.Fatalf("expected underlined current word style for cursor rune")
	}
}

func TestBuildStyledRunesCursorOnSpace(t *testing.T) {
	runes := buildStyledRunes(charStates("a b", "a"))
	if runes[1].s != cursorStyle.Render(" ") {
		t.Fatalf("expected cursor style on pending space")
	}
}

func TestBuildStyledRunesNoCursorWhenComplete(t *testing.T) {
	runes := buildStyledRunes(charStates("a", "a"))
	if len(runes) != 1 {
		t.Fatalf("expected 1 rune, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for completed rune")
	}
}

func TestBuildStyledRunesKeepsTargetOnMistype(t *testing.T) {
	runes := buildStyledRunes(charStates("abc", "ax"))
	if runes[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected incorrect style for second rune")
	}
}

func TestBuildStyledRunesWordHighlighting(t *testing.T) {
	runes := buildStyledRunes(charStates("one two", "o"))
	if runes[0].s != correctStyle.Render("o") {
		t.Fatalf("expected correct style for typed rune")
	}
	if runes[2].s != currentWordStyle.Render("e") {
		t.Fatalf("expected current word style for untyped in current word")
	}
	if runes[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
	if runes[6].s != pendingStyle.Render("o") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestBuildStyledRunesWrongSpaceDot(t *testing.T) {
	runes := buildStyledRunes(charStates("a b", "ax"))
	if len(runes) != 3 {
		t.Fatalf("expected 3 runes, got %d", len(runes))
	}
	if runes[1].s != incorrectStyle.Render("•") {
		t.Fatalf("expected red dot for wrong space")
	}
}

func TestWrapStyledRunesBreaksOnSpace(t *testing.T) {
	runes := buildStyledRunes(charStates("aaa bbb ccc", ""))
	out := wrapStyledRunes(runes, 7)
	if got := strings.Count(out, "\n"); got != 1 {
		t.Fatalf("expected one line break, got %d in %q", got, out)
	}
}

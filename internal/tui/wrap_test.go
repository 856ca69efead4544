package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func plainSpans(text string) []span {
	return []span{{text: text, style: lipgloss.NewStyle()}}
}

func TestWrapStyledRunesAtSpaces(t *testing.T) {
	runes := buildStyledRunes(plainSpans("one two three"))
	got := wrapStyledRunes(runes, 8)
	if got != "one two\nthree" {
		t.Fatalf("unexpected wrap %q", got)
	}
}

func TestWrapStyledRunesHardBreaks(t *testing.T) {
	runes := buildStyledRunes(plainSpans("ab\ncd"))
	if got := wrapStyledRunes(runes, 10); got != "ab\ncd" {
		t.Fatalf("unexpected wrap %q", got)
	}
}

func TestWrapStyledRunesWideRunes(t *testing.T) {
	runes := buildStyledRunes(plainSpans("消費税率は十"))
	if runes[0].width != 2 {
		t.Fatalf("expected wide rune, got width %d", runes[0].width)
	}
	got := wrapStyledRunes(runes, 5)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 || lines[0] != "消費" || lines[2] != "は十" {
		t.Fatalf("unexpected wrap %q", got)
	}
}

func TestBuildStyledRunesKeepsSpanStyles(t *testing.T) {
	runes := buildStyledRunes([]span{
		{text: "a", style: textStyle},
		{text: "b", style: blankStyle},
	})
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != textStyle.Render("a") || runes[1].s != blankStyle.Render("b") {
		t.Fatalf("expected span styles to carry over")
	}
}

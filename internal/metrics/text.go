// Package metrics computes the local measurements recorded in telemetry:
// size features of turn text and statistics of a run's poll loop.
package metrics

import (
	"strings"
	"unicode/utf8"
)

// Text holds size features of one turn's content.
type Text struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountFeatures measures s. Words split on Unicode whitespace; an empty string
// has zero lines, otherwise lines are one plus the number of '\n'.
func CountFeatures(s string) Text {
	t := Text{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
	}
	if s != "" {
		t.Lines = 1 + strings.Count(s, "\n")
	}
	return t
}

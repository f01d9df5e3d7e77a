package app

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldName lowercases and strips combining marks, so "Cabaña" folds to
// "cabana". Transform chains carry per-run buffers, so each call builds its
// own; a shared chain is not safe across concurrent searches.
func foldName(s string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripper, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// containsFolded substring-tests candidate against an already-folded needle.
func containsFolded(candidate, foldedNeedle string) bool {
	return strings.Contains(foldName(candidate), foldedNeedle)
}

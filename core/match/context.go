package match

import (
	"strings"
	"unicode/utf8"
)

// extractContext returns the text surrounding a match, contextChars on
// each side clamped to the document bounds, with all whitespace runs
// collapsed to single spaces. The window widens to rune boundaries so
// the snippet stays valid UTF-8.
func extractContext(doc string, start, end, contextChars int) string {
	ctxStart := start - contextChars
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + contextChars
	if ctxEnd > len(doc) {
		ctxEnd = len(doc)
	}

	for ctxStart > 0 && !utf8.RuneStart(doc[ctxStart]) {
		ctxStart--
	}
	for ctxEnd < len(doc) && !utf8.RuneStart(doc[ctxEnd]) {
		ctxEnd++
	}

	return strings.Join(strings.Fields(doc[ctxStart:ctxEnd]), " ")
}

package match

import "strings"

// scoreConfidence rates how well a matched text supports the canonical
// entity name. inCode marks matches inside inline code spans, where a
// case-insensitive hit counts as exact because code is quoted verbatim.
func scoreConfidence(entityName, matched string, inCode bool) float64 {
	if matched == entityName {
		return 1.0
	}

	if strings.EqualFold(matched, entityName) {
		if inCode {
			return 1.0
		}
		return 0.9
	}

	// Fragments of the canonical name only arise for pattern kinds that
	// match partial text. Whole-name patterns never land here.
	lowerName := strings.ToLower(entityName)
	lowerMatched := strings.ToLower(matched)
	if strings.HasPrefix(lowerName, lowerMatched) || strings.HasSuffix(lowerName, lowerMatched) {
		return 0.7
	}

	return 0.8
}

// inCodeSpan reports whether pos sits inside an inline code span, an odd
// number of unescaped backticks before it and a closing backtick after.
func inCodeSpan(doc string, pos int) bool {
	if pos > len(doc) {
		pos = len(doc)
	}

	count := 0
	for i := 0; i < pos; i++ {
		if doc[i] == '`' && (i == 0 || doc[i-1] != '\\') {
			count++
		}
	}
	if count%2 == 0 {
		return false
	}

	for i := pos; i < len(doc); i++ {
		if doc[i] == '`' && (i == 0 || doc[i-1] != '\\') {
			return true
		}
	}

	return false
}

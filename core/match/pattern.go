package match

import (
	"regexp"
	"unicode"
)

type patternKind int

const (
	// patternContextual matches "<module> <context word>" for entities
	// whose category has a contextual role noun.
	patternContextual patternKind = iota
	// patternAlias matches an alias case-insensitively.
	patternAlias
	// patternExactName matches the canonical name case-sensitively.
	patternExactName
	// patternNameFold matches the canonical name case-insensitively.
	patternNameFold
)

// minNameLength is the length below which a name or alias is too
// ambiguous to match safely.
const minNameLength = 4

// pattern is one compiled matcher for a single entity. Entity text is
// always escaped, so names and aliases match as literals with word
// boundaries on both ends.
type pattern struct {
	entity *Entity
	kind   patternKind
	re     *regexp.Regexp
	base   float64
}

// compilePatterns derives all patterns for the catalog, grouped into the
// three matching phases. Catalog order is preserved within each phase.
func compilePatterns(entities []Entity) (phase1, phase2, phase3 []pattern) {
	for i := range entities {
		entity := &entities[i]

		if word := entity.contextWord(); word != "" && entity.Module != "" {
			phase1 = append(phase1, pattern{
				entity: entity,
				kind:   patternContextual,
				re:     contextualRegexp(entity.Module, word),
				base:   0.8,
			})
		}

		for _, alias := range entity.Aliases {
			if len(alias) < minNameLength {
				continue
			}
			phase1 = append(phase1, pattern{
				entity: entity,
				kind:   patternAlias,
				re:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(alias) + `\b`),
				base:   0.8,
			})
		}

		if len(entity.Name) < minNameLength {
			continue
		}

		phase2 = append(phase2, pattern{
			entity: entity,
			kind:   patternExactName,
			re:     regexp.MustCompile(`\b` + regexp.QuoteMeta(entity.Name) + `\b`),
			base:   1.0,
		})
		phase3 = append(phase3, pattern{
			entity: entity,
			kind:   patternNameFold,
			re:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(entity.Name) + `\b`),
			base:   0.9,
		})
	}

	return phase1, phase2, phase3
}

// contextualRegexp builds the "<module> <word>" pattern. The module is
// matched exactly while the context word accepts an upper or lower first
// letter, so "basket keeper" and "basket Keeper" both match.
func contextualRegexp(module, word string) *regexp.Regexp {
	first := []rune(word)[0]
	rest := string([]rune(word)[1:])

	var head string
	if unicode.IsLetter(first) {
		head = "[" + string(unicode.ToUpper(first)) + string(unicode.ToLower(first)) + "]"
	} else {
		head = regexp.QuoteMeta(string(first))
	}

	expr := `\b` + regexp.QuoteMeta(module) + `\s+` + head + regexp.QuoteMeta(rest) + `\b`
	return regexp.MustCompile(expr)
}

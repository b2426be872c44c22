package match

import (
	"fmt"
	"sort"
)

// Matcher finds catalog entity mentions in document text. It is
// immutable after construction and safe for concurrent use, all mutable
// state lives on the stack of a single ExtractMentions call.
type Matcher struct {
	entities []Entity
	config   Config

	// Patterns grouped by matching phase, each in catalog order.
	phase1 []pattern
	phase2 []pattern
	phase3 []pattern
}

// NewMatcher compiles the patterns for the given entity catalog. The
// catalog is treated as read-only, catalog order decides which entity
// wins when two patterns compete for the same text. A nil config selects
// the defaults, an invalid config is rejected here rather than clamped.
func NewMatcher(entities []Entity, config *Config) (*Matcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher config: %w", err)
	}

	catalog := make([]Entity, len(entities))
	copy(catalog, entities)

	matcher := &Matcher{
		entities: catalog,
		config:   *config,
	}
	matcher.phase1, matcher.phase2, matcher.phase3 = compilePatterns(matcher.entities)

	return matcher, nil
}

// ExtractMentions scans the document in three phases: contextual and
// alias patterns first, the exact canonical name second, a
// case-insensitive name fallback last. Every candidate span passes the
// overlap arbiter before acceptance, so specific patterns claim their
// text before generic ones and no two mentions overlap. The result is
// sorted by start offset and filtered by the minimum confidence.
func (m *Matcher) ExtractMentions(doc string) []Mention {
	if len(doc) == 0 || len(m.entities) == 0 {
		return nil
	}

	arbiter := &overlapArbiter{}
	var accepted []Mention

	for _, phase := range [][]pattern{m.phase1, m.phase2, m.phase3} {
		for _, p := range phase {
			for _, loc := range p.re.FindAllStringIndex(doc, -1) {
				start, end := loc[0], loc[1]
				surface := doc[start:end]

				// An exact surface form was already covered by the
				// case-sensitive phase, counting it again would turn an
				// exact match into a lower-confidence one.
				if p.kind == patternNameFold && surface == p.entity.Name {
					continue
				}

				if arbiter.overlaps(start, end) {
					continue
				}

				confidence := p.base
				if p.kind == patternExactName || p.kind == patternNameFold {
					confidence = scoreConfidence(p.entity.Name, surface, inCodeSpan(doc, start))
				}

				arbiter.claim(start, end)
				accepted = append(accepted, Mention{
					EntityID:    p.entity.ID,
					EntityName:  p.entity.Name,
					EntityType:  p.entity.Type,
					SurfaceForm: surface,
					StartOffset: start,
					EndOffset:   end,
					Confidence:  confidence,
					Context:     extractContext(doc, start, end, m.config.ContextChars),
				})
			}
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].StartOffset < accepted[j].StartOffset
	})

	if m.config.MinConfidence <= 0 {
		return accepted
	}

	mentions := make([]Mention, 0, len(accepted))
	for _, mention := range accepted {
		if mention.Confidence >= m.config.MinConfidence {
			mentions = append(mentions, mention)
		}
	}

	return mentions
}

// ExtractMentions is the one-shot form for callers without a reusable
// catalog, compiling the patterns and scanning in a single call.
func ExtractMentions(doc string, entities []Entity, config *Config) ([]Mention, error) {
	matcher, err := NewMatcher(entities, config)
	if err != nil {
		return nil, err
	}
	return matcher.ExtractMentions(doc), nil
}

// overlapArbiter tracks the accepted [start, end) spans of one
// extraction call. A span may only be claimed once, the first pattern to
// reach a stretch of text keeps it.
type overlapArbiter struct {
	spans [][2]int
}

func (a *overlapArbiter) overlaps(start, end int) bool {
	for _, span := range a.spans {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}

func (a *overlapArbiter) claim(start, end int) {
	a.spans = append(a.spans, [2]int{start, end})
}

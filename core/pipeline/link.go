package pipeline

import (
	"github.com/siherrmann/linker/catalog"
	"github.com/siherrmann/linker/core/match"
	"github.com/siherrmann/linker/model"
)

// CatalogLinker creates a LinkFunc over a compiled matcher. The matcher
// is compiled once and reused for every document, so the per document
// cost is matching only.
func CatalogLinker(entities []match.Entity, config *match.Config) (LinkFunc, error) {
	matcher, err := match.NewMatcher(entities, config)
	if err != nil {
		return nil, err
	}

	return func(text string) ([]match.Mention, error) {
		return matcher.ExtractMentions(text), nil
	}, nil
}

// MatchEntities converts stored entities into matcher records, filling
// the context word from the category table so categorized types keep
// their contextual pattern.
func MatchEntities(entities []*model.Entity) []match.Entity {
	converted := model.EntitiesToMatch(entities)
	for i := range converted {
		converted[i].ContextWord = catalog.ContextWord(converted[i].Type)
	}
	return converted
}

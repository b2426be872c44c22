package retrieval

import (
	"context"

	"github.com/siherrmann/linker/model"
)

// Vector performs vector-only retrieval
func (e *Engine) Vector(ctx context.Context, embedding []float32, config model.SearchConfig) ([]*model.SearchResult, error) {
	return e.Search(ctx, NewVectorOnlyStrategy(), &Query{
		Embedding: embedding,
		Config:    config,
	})
}

// Hybrid performs hybrid retrieval over vector and keyword signals
func (e *Engine) Hybrid(ctx context.Context, text string, embedding []float32, config model.SearchConfig) ([]*model.SearchResult, error) {
	return e.Search(ctx, NewHybridStrategy(), &Query{
		Text:      text,
		Embedding: embedding,
		Config:    config,
	})
}

// EntityCentric performs entity-centric retrieval around a catalog key
func (e *Engine) EntityCentric(ctx context.Context, entityKey string, embedding []float32, config model.SearchConfig) ([]*model.SearchResult, error) {
	return e.Search(ctx, NewEntityCentricStrategy(entityKey), &Query{
		Embedding: embedding,
		Config:    config,
	})
}

package retrieval

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/model"
)

// DocumentsDB defines the document operations the engine needs
type DocumentsDB interface {
	SelectDocumentsBySimilarity(embedding []float32, limit int, minSimilarity float64) ([]*model.Document, error)
	SelectDocumentsBySearch(searchTerm string, limit int) ([]*model.Document, error)
}

// EntitiesDB defines the entity operations the engine needs
type EntitiesDB interface {
	SelectEntityByKey(key string) (*model.Entity, error)
}

// EdgesDB defines the mention graph operations the engine needs
type EdgesDB interface {
	SelectDocumentsMentioningEntity(entityRID uuid.UUID, limit int) ([]*model.Document, error)
	SelectEntitiesMentionedInDocument(documentRID uuid.UUID) ([]*model.Entity, error)
}

// Engine provides document retrieval over vector similarity, keyword
// search and the mention graph
type Engine struct {
	documents DocumentsDB
	entities  EntitiesDB
	edges     EdgesDB
}

// NewEngine creates a new retrieval engine
func NewEngine(documents DocumentsDB, entities EntitiesDB, edges EdgesDB) *Engine {
	return &Engine{
		documents: documents,
		entities:  entities,
		edges:     edges,
	}
}

// VectorRetrieve performs pure vector similarity search
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, limit int, minSimilarity float64) ([]*model.SearchResult, error) {
	documents, err := e.documents.SelectDocumentsBySimilarity(embedding, limit, minSimilarity)
	if err != nil {
		return nil, err
	}

	results := make([]*model.SearchResult, len(documents))
	for i, document := range documents {
		results[i] = &model.SearchResult{
			Document:    document,
			Score:       document.Similarity,
			VectorScore: document.Similarity,
			MatchType:   model.MatchTypeVector,
		}
	}

	return results, nil
}

// KeywordRetrieve performs keyword search over titles and content. The
// keyword score is positional, the first match scores 1.0 falling
// linearly over the result page.
func (e *Engine) KeywordRetrieve(ctx context.Context, searchTerm string, limit int) ([]*model.SearchResult, error) {
	documents, err := e.documents.SelectDocumentsBySearch(searchTerm, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*model.SearchResult, len(documents))
	for i, document := range documents {
		score := keywordScore(i, limit)
		results[i] = &model.SearchResult{
			Document:     document,
			Score:        score,
			KeywordScore: score,
			MatchType:    model.MatchTypeKeyword,
		}
	}

	return results, nil
}

// EntityDocuments retrieves the documents mentioning an entity, scored
// by their strongest mention weight
func (e *Engine) EntityDocuments(ctx context.Context, entityRID uuid.UUID, limit int) ([]*model.SearchResult, error) {
	documents, err := e.edges.SelectDocumentsMentioningEntity(entityRID, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*model.SearchResult, len(documents))
	for i, document := range documents {
		results[i] = &model.SearchResult{
			Document:  document,
			Score:     document.Similarity,
			MatchType: model.MatchTypeEntity,
		}
	}

	return results, nil
}

// Search runs a strategy against the engine
func (e *Engine) Search(ctx context.Context, strategy SearchStrategy, query *Query) ([]*model.SearchResult, error) {
	return strategy.Retrieve(ctx, e, query)
}

func keywordScore(rank int, limit int) float64 {
	if limit <= 0 {
		return 1.0
	}
	score := 1.0 - float64(rank)/float64(limit)
	if score < 0 {
		return 0.0
	}
	return score
}

package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/model"
)

// Query is one search request against the engine
type Query struct {
	Text      string
	Embedding []float32
	Config    model.SearchConfig
}

// SearchStrategy defines a retrieval strategy
type SearchStrategy interface {
	Name() string
	Retrieve(ctx context.Context, engine *Engine, query *Query) ([]*model.SearchResult, error)
}

// VectorOnlyStrategy performs pure vector similarity search
type VectorOnlyStrategy struct{}

// NewVectorOnlyStrategy creates a new vector-only strategy
func NewVectorOnlyStrategy() *VectorOnlyStrategy {
	return &VectorOnlyStrategy{}
}

func (s *VectorOnlyStrategy) Name() string {
	return "vector_only"
}

// Retrieve performs vector-only retrieval
func (s *VectorOnlyStrategy) Retrieve(ctx context.Context, engine *Engine, query *Query) ([]*model.SearchResult, error) {
	if len(query.Embedding) == 0 {
		return nil, fmt.Errorf("vector search requires an embedding")
	}
	return engine.VectorRetrieve(ctx, query.Embedding, query.Config.Limit, query.Config.MinSimilarity)
}

// HybridStrategy merges vector and keyword results with configurable
// weights, falling back to pure keyword search when vector search
// returns nothing
type HybridStrategy struct{}

// NewHybridStrategy creates a new hybrid strategy
func NewHybridStrategy() *HybridStrategy {
	return &HybridStrategy{}
}

func (s *HybridStrategy) Name() string {
	return "hybrid"
}

// Retrieve performs hybrid retrieval with weighted combination
func (s *HybridStrategy) Retrieve(ctx context.Context, engine *Engine, query *Query) ([]*model.SearchResult, error) {
	var vectorResults []*model.SearchResult
	if len(query.Embedding) > 0 {
		results, err := engine.VectorRetrieve(ctx, query.Embedding, query.Config.Limit, query.Config.MinSimilarity)
		if err != nil {
			return nil, err
		}
		vectorResults = results
	}

	keywordResults, err := engine.KeywordRetrieve(ctx, query.Text, query.Config.Limit)
	if err != nil {
		return nil, err
	}

	// Keyword fallback when vector search finds nothing
	if len(vectorResults) == 0 {
		return limitResults(keywordResults, query.Config.Limit), nil
	}

	resultMap := make(map[string]*model.SearchResult)

	for _, result := range vectorResults {
		resultMap[result.Document.RID.String()] = &model.SearchResult{
			Document:    result.Document,
			Score:       result.VectorScore * query.Config.VectorWeight,
			VectorScore: result.VectorScore,
			MatchType:   model.MatchTypeVector,
		}
	}

	for _, result := range keywordResults {
		rid := result.Document.RID.String()
		if existing, exists := resultMap[rid]; exists {
			existing.Score += result.KeywordScore * query.Config.KeywordWeight
			existing.KeywordScore = result.KeywordScore
			existing.MatchType = model.MatchTypeHybrid
		} else {
			resultMap[rid] = &model.SearchResult{
				Document:     result.Document,
				Score:        result.KeywordScore * query.Config.KeywordWeight,
				KeywordScore: result.KeywordScore,
				MatchType:    model.MatchTypeKeyword,
			}
		}
	}

	return sortResults(resultMap, query.Config.Limit), nil
}

// neighborDiscount scales the score of documents reached through a
// co-mentioned entity instead of the target entity itself.
const neighborDiscount = 0.5

// EntityCentricStrategy retrieves documents mentioning a specific
// entity, merged with vector results when an embedding is present.
// With MaxHops of three or more the mention graph is expanded one
// entity further, pulling in documents that mention entities
// co-mentioned with the target at a discounted score.
type EntityCentricStrategy struct {
	// EntityKey is the catalog key of the entity to search around.
	EntityKey string
}

// NewEntityCentricStrategy creates a new entity-centric strategy
func NewEntityCentricStrategy(entityKey string) *EntityCentricStrategy {
	return &EntityCentricStrategy{EntityKey: entityKey}
}

func (s *EntityCentricStrategy) Name() string {
	return "entity_centric"
}

// Retrieve performs entity-centric retrieval
func (s *EntityCentricStrategy) Retrieve(ctx context.Context, engine *Engine, query *Query) ([]*model.SearchResult, error) {
	entity, err := engine.entities.SelectEntityByKey(s.EntityKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entity %v: %w", s.EntityKey, err)
	}

	entityResults, err := engine.EntityDocuments(ctx, entity.RID, query.Config.Limit)
	if err != nil {
		return nil, err
	}

	resultMap := make(map[string]*model.SearchResult)
	for _, result := range entityResults {
		// Documents mentioning the entity rank ahead of vector matches.
		resultMap[result.Document.RID.String()] = &model.SearchResult{
			Document:  result.Document,
			Score:     1.0 + result.Score,
			MatchType: model.MatchTypeEntity,
		}
	}

	if query.Config.MaxHops >= 3 {
		if err := s.expandNeighbors(ctx, engine, query, entity.RID, entityResults, resultMap); err != nil {
			return nil, err
		}
	}

	if len(query.Embedding) > 0 {
		vectorResults, err := engine.VectorRetrieve(ctx, query.Embedding, query.Config.Limit, query.Config.MinSimilarity)
		if err == nil {
			for _, result := range vectorResults {
				rid := result.Document.RID.String()
				if existing, exists := resultMap[rid]; exists {
					existing.Score += result.VectorScore * query.Config.VectorWeight
					existing.VectorScore = result.VectorScore
				} else {
					resultMap[rid] = &model.SearchResult{
						Document:    result.Document,
						Score:       result.VectorScore * query.Config.VectorWeight,
						VectorScore: result.VectorScore,
						MatchType:   model.MatchTypeVector,
					}
				}
			}
		}
	}

	return sortResults(resultMap, query.Config.Limit), nil
}

// expandNeighbors walks one mention graph hop beyond the direct
// results: entities co-mentioned in the direct documents contribute
// their own documents. Direct results are never overwritten.
func (s *EntityCentricStrategy) expandNeighbors(ctx context.Context, engine *Engine, query *Query, entityRID uuid.UUID, entityResults []*model.SearchResult, resultMap map[string]*model.SearchResult) error {
	seen := map[uuid.UUID]bool{entityRID: true}

	for _, result := range entityResults {
		neighbors, err := engine.edges.SelectEntitiesMentionedInDocument(result.Document.RID)
		if err != nil {
			return err
		}

		for _, neighbor := range neighbors {
			if seen[neighbor.RID] {
				continue
			}
			seen[neighbor.RID] = true

			neighborResults, err := engine.EntityDocuments(ctx, neighbor.RID, query.Config.Limit)
			if err != nil {
				return err
			}

			for _, neighborResult := range neighborResults {
				rid := neighborResult.Document.RID.String()
				if _, exists := resultMap[rid]; exists {
					continue
				}
				resultMap[rid] = &model.SearchResult{
					Document:  neighborResult.Document,
					Score:     (1.0 + neighborResult.Score) * neighborDiscount,
					MatchType: model.MatchTypeEntity,
				}
			}
		}
	}

	return nil
}

func sortResults(resultMap map[string]*model.SearchResult, limit int) []*model.SearchResult {
	results := make([]*model.SearchResult, 0, len(resultMap))
	for _, result := range resultMap {
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.RID.String() < results[j].Document.RID.String()
	})

	return limitResults(results, limit)
}

func limitResults(results []*model.SearchResult, limit int) []*model.SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

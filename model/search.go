package model

// MatchType describes how a search result was retrieved
type MatchType string

const (
	MatchTypeVector  MatchType = "vector"
	MatchTypeKeyword MatchType = "keyword"
	MatchTypeHybrid  MatchType = "hybrid"
	MatchTypeEntity  MatchType = "entity"
)

// SearchConfig represents configuration for a search query
type SearchConfig struct {
	// Maximum number of results to return
	Limit int `json:"limit"`
	// Minimum cosine similarity for vector results
	MinSimilarity float64 `json:"min_similarity,omitempty"`
	// Weights for combining vector and keyword scores
	VectorWeight  float64 `json:"vector_weight"`
	KeywordWeight float64 `json:"keyword_weight"`
	// Mention graph reach for entity-centric search. Three or more
	// hops include documents mentioning co-mentioned entities.
	MaxHops int `json:"max_hops,omitempty"`
}

// DefaultSearchConfig returns a sensible default configuration
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Limit:         10,
		MinSimilarity: 0.25,
		VectorWeight:  0.7,
		KeywordWeight: 0.3,
		MaxHops:       2,
	}
}

// SearchResult represents a document retrieved by a query
type SearchResult struct {
	Document     *Document `json:"document"`
	Score        float64   `json:"score"`
	VectorScore  float64   `json:"vector_score,omitempty"`
	KeywordScore float64   `json:"keyword_score,omitempty"`
	MatchType    MatchType `json:"match_type"`
}

// Stats summarizes the stored graph
type Stats struct {
	TotalDocuments  int            `json:"total_documents"`
	TotalEntities   int            `json:"total_entities"`
	TotalMentions   int            `json:"total_mentions"`
	RecentDocuments int            `json:"recent_documents"`
	BySource        map[string]int `json:"by_source,omitempty"`
	ByEntityType    map[string]int `json:"by_entity_type,omitempty"`
}

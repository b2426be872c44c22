package linker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/catalog"
	"github.com/siherrmann/linker/core/digest"
	"github.com/siherrmann/linker/core/graph"
	"github.com/siherrmann/linker/core/match"
	"github.com/siherrmann/linker/core/pipeline"
	"github.com/siherrmann/linker/core/retrieval"
	"github.com/siherrmann/linker/database"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
	"github.com/siherrmann/linker/summarize"
	loadSql "github.com/siherrmann/linker/sql"
)

// maxCatalogEntities bounds how many stored entities one matcher holds.
const maxCatalogEntities = 100000

// maxTraversalDocuments bounds the mentioning documents fetched per
// entity during graph traversal.
const maxTraversalDocuments = 1000

// snippetLength is how much leading content survives as the stored
// document snippet for digests.
const snippetLength = 300

// recentWindow is the lookback for the recent documents stat.
const recentWindow = 7 * 24 * time.Hour

// Linker provides a unified interface to the document store, the
// linking pipeline and the mention graph
type Linker struct {
	DB        *helper.Database
	Documents database.DocumentsDBHandlerFunctions
	Edges     database.EdgesDBHandlerFunctions
	Entities  database.EntitiesDBHandlerFunctions
	Pipeline  *pipeline.Pipeline // Optional linking pipeline
	Engine    *retrieval.Engine  // Retrieval engine for hybrid search
	Digest    *digest.Engine     // Digest engine over stored documents
	// Logging
	log *slog.Logger

	summarizer summarize.Summarizer
}

// NewLinker creates a new Linker instance with all handlers initialized
func NewLinker(config *helper.DatabaseConfiguration, embeddingDim int) (*Linker, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db, err := helper.NewDatabase(config, logger)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}
	err = loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents and entities
	// first, edges reference both). force=false to not reload if
	// functions already exist.
	documents, err := database.NewDocumentsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}

	linker := &Linker{
		DB:        db,
		Documents: documents,
		Edges:     edges,
		Entities:  entities,
		Engine:    retrieval.NewEngine(documents, entities, edges),
		log:       logger,
	}
	linker.Digest = digest.NewEngine(documents, nil, nil)

	return linker, nil
}

// Close closes the database connection
func (l *Linker) Close() error {
	if l.DB != nil && l.DB.Instance != nil {
		return l.DB.Instance.Close()
	}
	return nil
}

// Ping reports whether the database connection is alive.
func (l *Linker) Ping() error {
	if l.DB == nil || l.DB.Instance == nil {
		return fmt.Errorf("database not initialized")
	}
	return l.DB.Instance.Ping()
}

// LoadCatalog loads an entity catalog export from a file and upserts
// every entity. Returns the number of stored entities.
func (l *Linker) LoadCatalog(filePath string) (int, error) {
	entities, err := catalog.LoadFile(filePath)
	if err != nil {
		return 0, helper.NewError("load catalog", err)
	}

	for i, entity := range entities {
		if err := l.Entities.InsertEntity(entity); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert entity %s", entity.Key), err)
		}
	}

	l.log.Info("Loaded catalog", slog.Int("num_entities", len(entities)), slog.String("path", filePath))
	return len(entities), nil
}

// SetPipeline sets the linking pipeline for document processing
func (l *Linker) SetPipeline(pipeline *pipeline.Pipeline) {
	l.Pipeline = pipeline
	l.refreshDigest()
}

// SetSummarizer sets the optional digest summarizer.
func (l *Linker) SetSummarizer(summarizer summarize.Summarizer) {
	l.summarizer = summarizer
	l.refreshDigest()
}

func (l *Linker) refreshDigest() {
	var embed pipeline.EmbedFunc
	if l.Pipeline != nil {
		embed = l.Pipeline.Embedder
	}
	l.Digest = digest.NewEngine(l.Documents, embed, l.summarizer)
}

// UseCatalogPipeline sets up the default pipeline from the stored
// entity catalog: a compiled matcher over all stored entities and the
// all-MiniLM-L6-v2 embedder (384 dimensions).
func (l *Linker) UseCatalogPipeline(matchConfig *match.Config) error {
	embedder, err := pipeline.NewHugotEmbedder("")
	if err != nil {
		return helper.NewError("create default embedder", err)
	}
	return l.UseCatalogPipelineWithEmbedder(embedder, matchConfig)
}

// UseCatalogPipelineWithEmbedder sets up the catalog pipeline with an
// injected embedder, used by tests and callers with their own models.
func (l *Linker) UseCatalogPipelineWithEmbedder(embedder pipeline.EmbedFunc, matchConfig *match.Config) error {
	entities, err := l.Entities.SelectAllEntities(maxCatalogEntities)
	if err != nil {
		return helper.NewError("select catalog entities", err)
	}
	if len(entities) == 0 {
		return helper.NewError("build matcher", fmt.Errorf("no stored entities, load a catalog first"))
	}

	linkFunc, err := pipeline.CatalogLinker(pipeline.MatchEntities(entities), matchConfig)
	if err != nil {
		return helper.NewError("build matcher", err)
	}

	l.SetPipeline(pipeline.NewPipeline(embedder, linkFunc))
	return nil
}

// ExtractMentions runs the pipeline's matcher over a text without
// storing anything.
func (l *Linker) ExtractMentions(text string) ([]match.Mention, error) {
	if l.Pipeline == nil || l.Pipeline.Linker == nil {
		return nil, helper.NewError("extract mentions", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return l.Pipeline.Linker(text)
}

// ProcessAndInsertDocument processes a document by:
// 1. Running the pipeline over the content (embedding + mention linking)
// 2. Inserting the document with its embedding (content is not stored)
// 3. Inserting one mention edge per located mention
// 4. Inserting co-mention edges between entities mentioned close together
// Returns the number of mentions linked and any error encountered.
func (l *Linker) ProcessAndInsertDocument(doc *model.Document) (int, error) {
	if l.Pipeline == nil {
		return 0, helper.NewError("process document", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	if strings.TrimSpace(doc.Content) == "" {
		return 0, helper.NewError("process document", fmt.Errorf("document content is empty"))
	}

	result, err := l.Pipeline.Process(doc)
	if err != nil {
		return 0, helper.NewError("process document", err)
	}

	// Keep a leading snippet for digests, then clear the content so
	// only the embedding is stored.
	if doc.Metadata == nil {
		doc.Metadata = model.Metadata{}
	}
	doc.Metadata["snippet"] = snippet(doc.Content, snippetLength)
	doc.Content = ""
	doc.Embedding = result.Embedding

	if err := l.Documents.InsertDocument(doc); err != nil {
		return 0, helper.NewError("insert document", err)
	}

	l.log.Info("Inserted document", slog.String("document_id", doc.RID.String()), slog.String("title", doc.Title))

	entityRIDs := mentionEntityRIDs(result.Mentions)

	for i, mention := range result.Mentions {
		entityRID, ok := entityRIDs[mention.EntityID]
		if !ok {
			continue
		}
		edge := model.NewMentionEdge(doc.RID, entityRID, mention)
		if err := l.Edges.InsertEdge(edge); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert mention edge %d", i), err)
		}
	}

	coMentions := pipeline.CoMentionEdges(result.Mentions, entityRIDs, pipeline.DefaultCoMentionWindow)
	for i, edge := range coMentions {
		if err := l.Edges.InsertEdge(edge); err != nil {
			return len(result.Mentions), helper.NewError(fmt.Sprintf("insert co-mention edge %d", i), err)
		}
	}

	l.storeDiscovered(result.Discovered)

	l.log.Info("Linked document mentions",
		slog.Int("num_mentions", len(result.Mentions)),
		slog.Int("num_co_mentions", len(coMentions)),
		slog.String("document_id", doc.RID.String()))

	return len(result.Mentions), nil
}

// storeDiscovered upserts candidate entities found by the optional
// discoverer. Failures only warn, discovery never fails an insert.
func (l *Linker) storeDiscovered(discovered []*model.Entity) {
	for _, entity := range discovered {
		if err := l.Entities.InsertEntity(entity); err != nil {
			l.log.Warn("Failed to store discovered entity", slog.String("key", entity.Key), slog.Any("error", err))
		}
	}
}

// Search performs hybrid retrieval (vector + keyword) for a query text
func (l *Linker) Search(query string, config model.SearchConfig) ([]*model.SearchResult, error) {
	embedding, err := l.queryEmbedding(query)
	if err != nil {
		return nil, err
	}
	return l.Engine.Hybrid(context.Background(), query, embedding, config)
}

// VectorSearch performs pure vector similarity search for a query text
func (l *Linker) VectorSearch(query string, config model.SearchConfig) ([]*model.SearchResult, error) {
	embedding, err := l.queryEmbedding(query)
	if err != nil {
		return nil, err
	}
	if embedding == nil {
		return nil, helper.NewError("vector search", fmt.Errorf("pipeline with embedder not set, use SetPipeline() first"))
	}
	return l.Engine.Vector(context.Background(), embedding, config)
}

// EntitySearch retrieves documents around a catalog entity, optionally
// blended with vector similarity for the query text.
func (l *Linker) EntitySearch(entityKey string, query string, config model.SearchConfig) ([]*model.SearchResult, error) {
	var embedding []float32
	if query != "" {
		var err error
		embedding, err = l.queryEmbedding(query)
		if err != nil {
			return nil, err
		}
	}
	return l.Engine.EntityCentric(context.Background(), entityKey, embedding, config)
}

// queryEmbedding embeds a query when an embedder is available. Hybrid
// retrieval falls back to keyword search without one.
func (l *Linker) queryEmbedding(query string) ([]float32, error) {
	if l.Pipeline == nil || l.Pipeline.Embedder == nil {
		return nil, nil
	}
	embedding, err := l.Pipeline.Embedder(query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}
	return embedding, nil
}

// RelatedEntities returns the entities reachable from the keyed entity
// through the mention graph within maxHops.
func (l *Linker) RelatedEntities(ctx context.Context, entityKey string, maxHops int) ([]*graph.RelatedEntity, error) {
	entity, err := l.Entities.SelectEntityByKey(entityKey)
	if err != nil {
		return nil, helper.NewError("select entity", err)
	}

	return graph.RelatedEntities(ctx, l.graphDB(), entity.RID, maxHops)
}

// EntityMentions lists the mention edges pointing at the entity with the
// given key, one entry per mentioning document carrying the surface
// form, span and context attributes stored on the edge.
func (l *Linker) EntityMentions(entityKey string) ([]*model.DocumentMention, error) {
	entity, err := l.Entities.SelectEntityByKey(entityKey)
	if err != nil {
		return nil, helper.NewError("select entity", err)
	}

	mentionType := model.EdgeTypeMention
	edges, err := l.Edges.SelectEdgesToEntity(entity.RID, &mentionType)
	if err != nil {
		return nil, helper.NewError("select mention edges", err)
	}

	mentions := make([]*model.DocumentMention, 0, len(edges))
	for _, edge := range edges {
		if mention := model.NewDocumentMention(edge); mention != nil {
			mentions = append(mentions, mention)
		}
	}
	return mentions, nil
}

// BFSTraversal walks the mention graph breadth-first from an entity
func (l *Linker) BFSTraversal(ctx context.Context, sourceRID uuid.UUID, maxHops int) ([]*graph.TraversalResult, error) {
	return graph.BFS(ctx, l.graphDB(), sourceRID, maxHops)
}

// DFSTraversal walks the mention graph depth-first from an entity
func (l *Linker) DFSTraversal(ctx context.Context, sourceRID uuid.UUID, maxHops int) ([]*graph.TraversalResult, error) {
	return graph.DFS(ctx, l.graphDB(), sourceRID, maxHops)
}

// Stats summarizes the stored graph. With detailed set the per-source
// and per-type breakdowns are included.
func (l *Linker) Stats(detailed bool) (*model.Stats, error) {
	totalDocuments, err := l.Documents.CountDocuments(nil)
	if err != nil {
		return nil, helper.NewError("count documents", err)
	}

	totalEntities, err := l.Entities.CountEntities()
	if err != nil {
		return nil, helper.NewError("count entities", err)
	}

	edgeCounts, err := l.Edges.CountEdgesByType()
	if err != nil {
		return nil, helper.NewError("count edges", err)
	}

	since := time.Now().Add(-recentWindow)
	recentDocuments, err := l.Documents.CountDocuments(&since)
	if err != nil {
		return nil, helper.NewError("count recent documents", err)
	}

	stats := &model.Stats{
		TotalDocuments:  totalDocuments,
		TotalEntities:   totalEntities,
		TotalMentions:   edgeCounts[model.EdgeTypeMention],
		RecentDocuments: recentDocuments,
	}

	if detailed {
		stats.BySource, err = l.Documents.CountDocumentsBySource()
		if err != nil {
			return nil, helper.NewError("count documents by source", err)
		}
		stats.ByEntityType, err = l.Entities.CountEntitiesByType()
		if err != nil {
			return nil, helper.NewError("count entities by type", err)
		}
	}

	return stats, nil
}

// GenerateDigest builds a topic digest over recently stored documents
func (l *Linker) GenerateDigest(ctx context.Context, opts digest.Options) (*digest.Digest, error) {
	return l.Digest.Generate(ctx, opts)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (l *Linker) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return l.Documents.ChangeIndexType(ctx, indexType, params)
}

// graphDB adapts the database handlers to the traversal interface.
func (l *Linker) graphDB() graph.GraphDB {
	return &graphAdapter{entities: l.Entities, edges: l.Edges}
}

type graphAdapter struct {
	entities database.EntitiesDBHandlerFunctions
	edges    database.EdgesDBHandlerFunctions
}

func (a *graphAdapter) GetEntity(ctx context.Context, rid uuid.UUID) (*model.Entity, error) {
	return a.entities.SelectEntity(rid)
}

func (a *graphAdapter) DocumentsMentioningEntity(ctx context.Context, entityRID uuid.UUID) ([]*model.Document, error) {
	return a.edges.SelectDocumentsMentioningEntity(entityRID, maxTraversalDocuments)
}

func (a *graphAdapter) EntitiesMentionedInDocument(ctx context.Context, documentRID uuid.UUID) ([]*model.Entity, error) {
	return a.edges.SelectEntitiesMentionedInDocument(documentRID)
}

// mentionEntityRIDs parses the entity RIDs carried by the mentions.
func mentionEntityRIDs(mentions []match.Mention) map[string]uuid.UUID {
	rids := map[string]uuid.UUID{}
	for _, mention := range mentions {
		if _, ok := rids[mention.EntityID]; ok {
			continue
		}
		rid, err := uuid.Parse(mention.EntityID)
		if err != nil {
			continue
		}
		rids[mention.EntityID] = rid
	}
	return rids
}

// snippet cuts the leading maxLength bytes of text at a rune boundary
// with whitespace runs collapsed.
func snippet(text string, maxLength int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxLength {
		return text
	}
	cut := maxLength
	for cut > 0 && !utf8RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

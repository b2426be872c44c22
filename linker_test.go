package linker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/linker/core/digest"
	"github.com/siherrmann/linker/core/pipeline"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
)

// testEmbedder creates a simple deterministic embedder for testing
func testEmbedder(dimension int) pipeline.EmbedFunc {
	return func(text string) ([]float32, error) {
		embedding := make([]float32, dimension)
		for i := 0; i < dimension; i++ {
			embedding[i] = float32((len(text)+i)%100) / 100.0
		}
		return embedding, nil
	}
}

func initLinker(t *testing.T) *Linker {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	l, err := NewLinker(dbConfig, 384)
	require.NoError(t, err, "failed to create linker")
	require.NotNil(t, l, "expected linker to be non-nil")

	// Tests share one container, start each test from empty tables.
	for _, table := range []string{"edges", "documents", "entities"} {
		_, err := l.DB.Instance.Exec("DELETE FROM " + table)
		require.NoError(t, err, "failed to clear table "+table)
	}

	t.Cleanup(func() {
		l.Close()
	})

	return l
}

// writeTestCatalog writes a small catalog export and returns its path.
func writeTestCatalog(t *testing.T) string {
	t.Helper()

	catalogJSON := `[
		{"name": "BasketKeeper", "type": "Keeper", "file_path": "x/basket/keeper/keeper.go"},
		{"name": "MsgCreateBasket", "type": "Message", "module": "basket"},
		{"name": "QueryBasketBalance", "type": "Query", "module": "basket"}
	]`

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644), "failed to write catalog file")
	return path
}

// initLinkedLinker sets up a linker with a loaded catalog and a
// deterministic test pipeline.
func initLinkedLinker(t *testing.T) *Linker {
	l := initLinker(t)

	count, err := l.LoadCatalog(writeTestCatalog(t))
	require.NoError(t, err, "failed to load catalog")
	require.Equal(t, 3, count, "expected three catalog entities")

	err = l.UseCatalogPipelineWithEmbedder(testEmbedder(384), nil)
	require.NoError(t, err, "failed to build catalog pipeline")

	return l
}

func TestNewLinker(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewLinker", func(t *testing.T) {
		l, err := NewLinker(dbConfig, 384)
		require.NoError(t, err, "Expected NewLinker to not return an error")
		require.NotNil(t, l, "Expected NewLinker to return a non-nil instance")
		assert.NotNil(t, l.DB, "Expected linker to have a database instance")
		assert.NotNil(t, l.Documents, "Expected linker to have documents handler")
		assert.NotNil(t, l.Edges, "Expected linker to have edges handler")
		assert.NotNil(t, l.Entities, "Expected linker to have entities handler")
		assert.NotNil(t, l.Engine, "Expected linker to have retrieval engine")
		assert.NotNil(t, l.Digest, "Expected linker to have digest engine")
		assert.Nil(t, l.Pipeline, "Expected pipeline to be nil initially")

		assert.NoError(t, l.Ping(), "Expected Ping to succeed")

		err = l.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("Linker with nil database handles Close gracefully", func(t *testing.T) {
		l := &Linker{}

		err := l.Close()
		assert.NoError(t, err, "Expected Close to handle nil DB gracefully")
		assert.Error(t, l.Ping(), "Expected Ping to fail without a database")
	})
}

func TestLoadCatalog(t *testing.T) {
	l := initLinker(t)

	t.Run("Loads and upserts entities", func(t *testing.T) {
		count, err := l.LoadCatalog(writeTestCatalog(t))
		require.NoError(t, err, "Expected LoadCatalog to not return an error")
		assert.Equal(t, 3, count, "Expected three loaded entities")

		keeper, err := l.Entities.SelectEntityByKey("keeper:BasketKeeper")
		require.NoError(t, err, "Expected stored keeper entity")
		assert.Equal(t, "basket", keeper.Module, "Expected module derived from file path")
		assert.Contains(t, keeper.Aliases, "basket keeper", "Expected synthesized contextual alias")

		// Loading again refreshes in place.
		count, err = l.LoadCatalog(writeTestCatalog(t))
		require.NoError(t, err, "Expected reload to not return an error")
		assert.Equal(t, 3, count, "Expected same count on reload")

		total, err := l.Entities.CountEntities()
		require.NoError(t, err)
		assert.Equal(t, 3, total, "Expected no duplicates after reload")
	})

	t.Run("Missing file returns error", func(t *testing.T) {
		_, err := l.LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err, "Expected error for missing catalog file")
	})
}

func TestUseCatalogPipeline(t *testing.T) {
	t.Run("Builds pipeline from stored entities", func(t *testing.T) {
		l := initLinkedLinker(t)

		assert.NotNil(t, l.Pipeline, "Expected pipeline to be set")
		assert.NotNil(t, l.Pipeline.Embedder, "Expected embedder to be set")
		assert.NotNil(t, l.Pipeline.Linker, "Expected linker func to be set")
	})

	t.Run("Errors without stored entities", func(t *testing.T) {
		l := initLinker(t)

		err := l.UseCatalogPipelineWithEmbedder(testEmbedder(384), nil)
		assert.Error(t, err, "Expected error without stored entities")
		assert.Contains(t, err.Error(), "no stored entities", "Expected descriptive error")
	})
}

func TestExtractMentions(t *testing.T) {
	t.Run("Finds catalog mentions without storing", func(t *testing.T) {
		l := initLinkedLinker(t)

		mentions, err := l.ExtractMentions("The basket keeper forwards MsgCreateBasket.")
		require.NoError(t, err, "Expected ExtractMentions to not return an error")
		require.Len(t, mentions, 2, "Expected contextual and exact mention")
		assert.Equal(t, "basket keeper", mentions[0].SurfaceForm, "Expected contextual mention first")
		assert.Equal(t, "MsgCreateBasket", mentions[1].SurfaceForm, "Expected exact mention second")

		count, err := l.Documents.CountDocuments(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "Expected no stored documents")
	})

	t.Run("Errors without pipeline", func(t *testing.T) {
		l := initLinker(t)

		_, err := l.ExtractMentions("anything")
		assert.Error(t, err, "Expected error without pipeline")
	})
}

func TestProcessAndInsertDocument(t *testing.T) {
	t.Run("Stores document with mention and co-mention edges", func(t *testing.T) {
		l := initLinkedLinker(t)

		doc := &model.Document{
			Title:   "Basket release notes",
			Source:  "release-notes",
			Content: "The BasketKeeper now validates MsgCreateBasket before deposits are booked.",
		}

		numMentions, err := l.ProcessAndInsertDocument(doc)
		require.NoError(t, err, "Expected ProcessAndInsertDocument to not return an error")
		assert.Equal(t, 2, numMentions, "Expected two linked mentions")
		assert.Empty(t, doc.Content, "Expected content cleared after storing")

		stored, err := l.Documents.SelectDocument(doc.RID)
		require.NoError(t, err, "Expected stored document")
		assert.Len(t, stored.Embedding, 384, "Expected stored embedding")
		snippet, _ := stored.Metadata["snippet"].(string)
		assert.Contains(t, snippet, "BasketKeeper now validates", "Expected snippet metadata")

		mentionType := model.EdgeTypeMention
		mentions, err := l.Edges.SelectEdgesFromDocument(doc.RID, &mentionType)
		require.NoError(t, err, "Expected mention edges query to succeed")
		assert.Len(t, mentions, 2, "Expected one mention edge per mention")

		keeper, err := l.Entities.SelectEntityByKey("keeper:BasketKeeper")
		require.NoError(t, err)
		coMentionType := model.EdgeTypeCoMention
		coMentions, err := l.Edges.SelectEdgesConnectedToEntity(keeper.RID, &coMentionType)
		require.NoError(t, err, "Expected co-mention edges query to succeed")
		assert.Len(t, coMentions, 1, "Expected one co-mention edge for the pair")
	})

	t.Run("Errors without pipeline", func(t *testing.T) {
		l := initLinker(t)

		_, err := l.ProcessAndInsertDocument(&model.Document{Title: "t", Content: "text"})
		assert.Error(t, err, "Expected error without pipeline")
		assert.Contains(t, err.Error(), "pipeline not set", "Expected descriptive error")
	})

	t.Run("Errors on empty content", func(t *testing.T) {
		l := initLinkedLinker(t)

		_, err := l.ProcessAndInsertDocument(&model.Document{Title: "empty", Content: "   "})
		assert.Error(t, err, "Expected error for empty content")
		assert.Contains(t, err.Error(), "content is empty", "Expected descriptive error")
	})
}

func TestStats(t *testing.T) {
	l := initLinkedLinker(t)

	doc := &model.Document{
		Title:   "Keeper overview",
		Source:  "docs",
		Content: "BasketKeeper handles deposits and QueryBasketBalance reads them.",
	}
	_, err := l.ProcessAndInsertDocument(doc)
	require.NoError(t, err, "Expected document to process")

	t.Run("Basic stats", func(t *testing.T) {
		stats, err := l.Stats(false)
		require.NoError(t, err, "Expected Stats to not return an error")
		assert.Equal(t, 1, stats.TotalDocuments, "Expected one document")
		assert.Equal(t, 3, stats.TotalEntities, "Expected three entities")
		assert.Equal(t, 2, stats.TotalMentions, "Expected two mention edges")
		assert.Equal(t, 1, stats.RecentDocuments, "Expected document within recent window")
		assert.Nil(t, stats.BySource, "Expected no breakdowns without detailed")
	})

	t.Run("Detailed stats", func(t *testing.T) {
		stats, err := l.Stats(true)
		require.NoError(t, err, "Expected Stats to not return an error")
		assert.Equal(t, 1, stats.BySource["docs"], "Expected source breakdown")
		assert.Equal(t, 1, stats.ByEntityType["Keeper"], "Expected entity type breakdown")
	})
}

func TestRelatedEntitiesFacade(t *testing.T) {
	l := initLinkedLinker(t)

	doc := &model.Document{
		Title:   "Basket flow",
		Source:  "docs",
		Content: "BasketKeeper accepts MsgCreateBasket from users.",
	}
	_, err := l.ProcessAndInsertDocument(doc)
	require.NoError(t, err, "Expected document to process")

	t.Run("Finds entities sharing documents", func(t *testing.T) {
		related, err := l.RelatedEntities(context.Background(), "keeper:BasketKeeper", 2)
		require.NoError(t, err, "Expected RelatedEntities to not return an error")
		require.Len(t, related, 1, "Expected one related entity")
		assert.Equal(t, "message:MsgCreateBasket", related[0].Entity.Key, "Expected co-mentioned entity")
		assert.Equal(t, 2, related[0].Distance, "Expected two hop distance via shared document")
		assert.Equal(t, 1, related[0].MentionCount, "Expected one shared document")
	})

	t.Run("Unknown entity returns error", func(t *testing.T) {
		_, err := l.RelatedEntities(context.Background(), "keeper:Unknown", 2)
		assert.Error(t, err, "Expected error for unknown entity")
	})
}

func TestEntityMentions(t *testing.T) {
	l := initLinkedLinker(t)

	doc := &model.Document{
		Title:   "Basket flow",
		Source:  "docs",
		Content: "BasketKeeper accepts MsgCreateBasket from users.",
	}
	_, err := l.ProcessAndInsertDocument(doc)
	require.NoError(t, err, "Expected document to process")

	t.Run("Lists mentioning documents with edge attributes", func(t *testing.T) {
		mentions, err := l.EntityMentions("message:MsgCreateBasket")
		require.NoError(t, err, "Expected EntityMentions to not return an error")
		require.Len(t, mentions, 1, "Expected one mentioning document")

		assert.Equal(t, doc.RID, mentions[0].DocumentRID, "Expected the processed document")
		assert.NotEqual(t, uuid.Nil, mentions[0].EdgeRID, "Expected the mention edge identifier")
		assert.Equal(t, "MsgCreateBasket", mentions[0].EdgeMetadata.String("surface_form"),
			"Expected the surface form stored on the edge")
		assert.Greater(t, mentions[0].EdgeMetadata.Float("confidence"), 0.0,
			"Expected the mention confidence stored on the edge")
	})

	t.Run("Unknown entity returns error", func(t *testing.T) {
		_, err := l.EntityMentions("keeper:Unknown")
		assert.Error(t, err, "Expected error for unknown entity")
	})
}

func TestGenerateDigest(t *testing.T) {
	l := initLinkedLinker(t)

	for _, title := range []string{"Basket deposits", "Basket withdrawals"} {
		doc := &model.Document{
			Title:   title,
			Source:  "docs",
			Content: "The BasketKeeper books " + title + " for users every day.",
		}
		_, err := l.ProcessAndInsertDocument(doc)
		require.NoError(t, err, "Expected document to process")
	}

	digestResult, err := l.GenerateDigest(context.Background(), digest.Options{WindowDays: 7})
	require.NoError(t, err, "Expected GenerateDigest to not return an error")
	assert.Equal(t, 2, digestResult.DocumentCount, "Expected both documents in the window")
	assert.NotEmpty(t, digestResult.Topics, "Expected at least one topic")

	markdown := digestResult.RenderMarkdown()
	assert.Contains(t, markdown, "# Digest", "Expected markdown header")
}

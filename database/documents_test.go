package database

import (
	"testing"
	"time"

	"github.com/siherrmann/linker/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentsNewDocumentsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewDocumentsDBHandler", func(t *testing.T) {
		documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
		assert.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")
		require.NotNil(t, documentsDbHandler, "Expected NewDocumentsDBHandler to return a non-nil instance")
		require.NotNil(t, documentsDbHandler.db, "Expected NewDocumentsDBHandler to have a non-nil database instance")
		require.NotNil(t, documentsDbHandler.db.Instance, "Expected NewDocumentsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewDocumentsDBHandler with nil database", func(t *testing.T) {
		_, err := NewDocumentsDBHandler(nil, 4, false)
		assert.Error(t, err, "Expected error when creating DocumentsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestDocumentsInsert(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
	require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

	t.Run("Insert document", func(t *testing.T) {
		doc := &model.Document{
			Title:    "Test Document",
			Source:   "test_source.txt",
			URL:      "https://example.com/doc",
			Content:  "Content about MsgCreateBatch.",
			Metadata: map[string]interface{}{"author": "Test Author", "year": 2024},
		}

		err := documentsDbHandler.InsertDocument(doc)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEmpty(t, doc.RID, "Expected inserted document to have a RID")
		assert.WithinDuration(t, doc.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
		assert.WithinDuration(t, doc.UpdatedAt, time.Now(), 2*time.Second, "Expected UpdatedAt to be set")
		assert.Equal(t, "Test Document", doc.Title, "Expected title to match")

		// Cleanup
		documentsDbHandler.DeleteDocument(doc.RID)
	})

	t.Run("Insert document with embedding", func(t *testing.T) {
		doc := &model.Document{
			Title:     "Embedded Document",
			Source:    "test_source.txt",
			Embedding: []float32{0.1, 0.2, 0.3, 0.4},
		}

		err := documentsDbHandler.InsertDocument(doc)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.Len(t, doc.Embedding, 4, "Expected embedding to round-trip")

		// Cleanup
		documentsDbHandler.DeleteDocument(doc.RID)
	})
}

func TestDocumentsGet(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
	require.NoError(t, err)

	// Create a document
	doc := &model.Document{
		Title:    "Test Document",
		Source:   "test.txt",
		Content:  "Some content",
		Metadata: map[string]interface{}{"key": "value"},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	// Test Get
	retrievedDoc, err := documentsDbHandler.SelectDocument(doc.RID)
	assert.NoError(t, err, "Expected Get to not return an error")
	assert.NotNil(t, retrievedDoc, "Expected Get to return a non-nil document")
	assert.Equal(t, doc.RID, retrievedDoc.RID, "Expected document RIDs to match")
	assert.Equal(t, doc.Title, retrievedDoc.Title, "Expected titles to match")
	assert.Equal(t, doc.Source, retrievedDoc.Source, "Expected sources to match")
	assert.Equal(t, "Some content", retrievedDoc.Content, "Expected content to be stored")

	// Cleanup
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestDocumentsGetAll(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
	require.NoError(t, err)

	// Create multiple documents
	docCount := 5
	docs := make([]*model.Document, docCount)
	for i := 0; i < docCount; i++ {
		docs[i] = &model.Document{
			Title:    "Test Document " + string(rune('A'+i)),
			Source:   "test.txt",
			Metadata: map[string]interface{}{},
		}
		err = documentsDbHandler.InsertDocument(docs[i])
		require.NoError(t, err)
	}

	// Test SelectAllDocuments
	retrievedDocs, err := documentsDbHandler.SelectAllDocuments(nil, 10)
	assert.NoError(t, err, "Expected SelectAllDocuments to not return an error")
	assert.GreaterOrEqual(t, len(retrievedDocs), docCount, "Expected to retrieve at least the inserted documents")

	// Test pagination
	pageLength := 3
	paginatedDocs, err := documentsDbHandler.SelectAllDocuments(nil, pageLength)
	assert.NoError(t, err, "Expected SelectAllDocuments to not return an error")
	assert.LessOrEqual(t, len(paginatedDocs), pageLength, "Expected at most pageLength documents")

	// Cleanup
	for _, doc := range docs {
		documentsDbHandler.DeleteDocument(doc.RID)
	}
}

func TestDocumentsSearch(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
	require.NoError(t, err)

	doc := &model.Document{
		Title:   "Credit Basket Design",
		Source:  "design.md",
		Content: "The basket keeper manages state for credit baskets.",
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	t.Run("Search by title term", func(t *testing.T) {
		results, err := documentsDbHandler.SelectDocumentsBySearch("Basket", 10)
		assert.NoError(t, err, "Expected search to not return an error")
		require.NotEmpty(t, results, "Expected at least one search result")
		assert.Equal(t, doc.RID, results[0].RID)
	})

	t.Run("Search by content term", func(t *testing.T) {
		results, err := documentsDbHandler.SelectDocumentsBySearch("keeper manages", 10)
		assert.NoError(t, err)
		require.NotEmpty(t, results, "Expected content search to match")
		assert.Equal(t, doc.RID, results[0].RID)
	})

	t.Run("Search without match", func(t *testing.T) {
		results, err := documentsDbHandler.SelectDocumentsBySearch("nonexistentterm", 10)
		assert.NoError(t, err)
		assert.Empty(t, results, "Expected no results for unknown term")
	})

	// Cleanup
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestDocumentsSimilarity(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
	require.NoError(t, err)

	near := &model.Document{
		Title:     "Near Document",
		Source:    "test.txt",
		Embedding: []float32{1, 0, 0, 0},
	}
	far := &model.Document{
		Title:     "Far Document",
		Source:    "test.txt",
		Embedding: []float32{0, 1, 0, 0},
	}
	require.NoError(t, documentsDbHandler.InsertDocument(near))
	require.NoError(t, documentsDbHandler.InsertDocument(far))

	t.Run("Orders by cosine similarity", func(t *testing.T) {
		results, err := documentsDbHandler.SelectDocumentsBySimilarity([]float32{1, 0, 0, 0}, 10, 0.0)
		assert.NoError(t, err, "Expected similarity search to not return an error")
		require.GreaterOrEqual(t, len(results), 2, "Expected both documents in results")
		assert.Equal(t, near.RID, results[0].RID, "Expected the nearest document first")
		assert.InDelta(t, 1.0, results[0].Similarity, 0.001, "Expected identical embedding to score 1.0")
	})

	t.Run("Applies minimum similarity threshold", func(t *testing.T) {
		results, err := documentsDbHandler.SelectDocumentsBySimilarity([]float32{1, 0, 0, 0}, 10, 0.9)
		assert.NoError(t, err)
		require.Len(t, results, 1, "Expected only near document above threshold")
		assert.Equal(t, near.RID, results[0].RID)
	})

	// Cleanup
	documentsDbHandler.DeleteDocument(near.RID)
	documentsDbHandler.DeleteDocument(far.RID)
}

func TestDocumentsRecent(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
	require.NoError(t, err)

	old := time.Now().AddDate(0, 0, -30)
	oldDoc := &model.Document{
		Title:       "Old Document",
		Source:      "test.txt",
		PublishedAt: &old,
	}
	newDoc := &model.Document{
		Title:  "New Document",
		Source: "test.txt",
	}
	require.NoError(t, documentsDbHandler.InsertDocument(oldDoc))
	require.NoError(t, documentsDbHandler.InsertDocument(newDoc))

	t.Run("Returns only documents inside the window", func(t *testing.T) {
		since := time.Now().AddDate(0, 0, -7)
		results, err := documentsDbHandler.SelectRecentDocuments(since, 10)
		assert.NoError(t, err, "Expected recent query to not return an error")
		require.NotEmpty(t, results)
		for _, doc := range results {
			assert.NotEqual(t, oldDoc.RID, doc.RID, "Expected the old document to be excluded")
		}
	})

	// Cleanup
	documentsDbHandler.DeleteDocument(oldDoc.RID)
	documentsDbHandler.DeleteDocument(newDoc.RID)
}

func TestDocumentsUpdateEmbedding(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
	require.NoError(t, err)

	doc := &model.Document{
		Title:  "Test Document",
		Source: "test.txt",
	}
	require.NoError(t, documentsDbHandler.InsertDocument(doc))

	err = documentsDbHandler.UpdateDocumentEmbedding(doc.RID, []float32{0.5, 0.5, 0, 0})
	assert.NoError(t, err, "Expected UpdateDocumentEmbedding to not return an error")

	results, err := documentsDbHandler.SelectDocumentsBySimilarity([]float32{0.5, 0.5, 0, 0}, 1, 0.9)
	assert.NoError(t, err)
	require.Len(t, results, 1, "Expected the updated document to be findable by similarity")
	assert.Equal(t, doc.RID, results[0].RID)

	// Cleanup
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestDocumentsCounts(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
	require.NoError(t, err)

	docA := &model.Document{Title: "A", Source: "source_a"}
	docB := &model.Document{Title: "B", Source: "source_b"}
	require.NoError(t, documentsDbHandler.InsertDocument(docA))
	require.NoError(t, documentsDbHandler.InsertDocument(docB))

	t.Run("Count all documents", func(t *testing.T) {
		count, err := documentsDbHandler.CountDocuments(nil)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, count, 2)
	})

	t.Run("Count documents since timestamp", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		count, err := documentsDbHandler.CountDocuments(&future)
		assert.NoError(t, err)
		assert.Equal(t, 0, count, "Expected no documents created in the future")
	})

	t.Run("Count documents by source", func(t *testing.T) {
		counts, err := documentsDbHandler.CountDocumentsBySource()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, counts["source_a"], 1)
		assert.GreaterOrEqual(t, counts["source_b"], 1)
	})

	// Cleanup
	documentsDbHandler.DeleteDocument(docA.RID)
	documentsDbHandler.DeleteDocument(docB.RID)
}

func TestDocumentsDelete(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, 4, true)
	require.NoError(t, err)

	doc := &model.Document{Title: "To Delete", Source: "test.txt"}
	require.NoError(t, documentsDbHandler.InsertDocument(doc))

	err = documentsDbHandler.DeleteDocument(doc.RID)
	assert.NoError(t, err, "Expected Delete to not return an error")

	_, err = documentsDbHandler.SelectDocument(doc.RID)
	assert.Error(t, err, "Expected Get after delete to return an error")
}

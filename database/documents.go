package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
	loadSql "github.com/siherrmann/linker/sql"
)

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(doc *model.Document) error
	SelectDocument(rid uuid.UUID) (*model.Document, error)
	SelectAllDocuments(lastCreatedAt *time.Time, limit int) ([]*model.Document, error)
	SelectDocumentsBySearch(searchTerm string, limit int) ([]*model.Document, error)
	SelectDocumentsBySimilarity(embedding []float32, limit int, minSimilarity float64) ([]*model.Document, error)
	SelectRecentDocuments(since time.Time, limit int) ([]*model.Document, error)
	UpdateDocumentEmbedding(rid uuid.UUID, embedding []float32) error
	CountDocuments(since *time.Time) (int, error)
	CountDocumentsBySource() (map[string]int, error)
	DeleteDocument(rid uuid.UUID) error
	ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, embeddingDim int, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes including the vector index.
func (h *DocumentsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// InsertDocument inserts a new document. The content column backs the
// keyword search, the in-memory Content field stays untouched here.
func (h *DocumentsDBHandler) InsertDocument(doc *model.Document) error {
	var embeddingParam interface{}
	if len(doc.Embedding) > 0 {
		embeddingParam = pq.Array(doc.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_document($1, $2, $3, $4, $5, $6, $7)`,
		doc.Title,
		doc.Source,
		doc.URL,
		doc.Content,
		embeddingParam,
		doc.PublishedAt,
		doc.Metadata,
	)

	err := row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.Title,
		&doc.Source,
		&doc.URL,
		pq.Array(&doc.Embedding),
		&doc.PublishedAt,
		&doc.Metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDocument retrieves a document by RID
func (h *DocumentsDBHandler) SelectDocument(rid uuid.UUID) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1)`,
		rid,
	)

	err := row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.Title,
		&doc.Source,
		&doc.URL,
		&doc.Content,
		&doc.PublishedAt,
		&doc.Metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return doc, nil
}

// SelectAllDocuments retrieves all documents with pagination
func (h *DocumentsDBHandler) SelectAllDocuments(lastCreatedAt *time.Time, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_documents($1, $2)`,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.RID,
			&doc.Title,
			&doc.Source,
			&doc.URL,
			&doc.PublishedAt,
			&doc.Metadata,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// SelectDocumentsBySearch searches documents by title or content
func (h *DocumentsDBHandler) SelectDocumentsBySearch(searchTerm string, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM search_documents($1, $2)`,
		searchTerm,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanDocumentRows(rows, false)
}

// SelectDocumentsBySimilarity performs vector similarity search over
// document embeddings with a minimum cosine similarity.
func (h *DocumentsDBHandler) SelectDocumentsBySimilarity(embedding []float32, limit int, minSimilarity float64) ([]*model.Document, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_documents_by_similarity($1, $2, $3)`,
		embeddingVector,
		limit,
		minSimilarity,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanDocumentRows(rows, true)
}

// SelectRecentDocuments retrieves documents published or created since
// the given timestamp, newest first.
func (h *DocumentsDBHandler) SelectRecentDocuments(since time.Time, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_recent_documents($1, $2)`,
		since,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanDocumentRows(rows, false)
}

// UpdateDocumentEmbedding updates the embedding of a document
func (h *DocumentsDBHandler) UpdateDocumentEmbedding(rid uuid.UUID, embedding []float32) error {
	_, err := h.db.Instance.Exec(
		`SELECT update_document_embedding($1, $2)`,
		rid,
		pq.Array(embedding),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// CountDocuments counts documents, optionally only those created since
// the given timestamp.
func (h *DocumentsDBHandler) CountDocuments(since *time.Time) (int, error) {
	var count int
	err := h.db.Instance.QueryRow(
		`SELECT count_documents($1)`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// CountDocumentsBySource counts documents grouped by source
func (h *DocumentsDBHandler) CountDocumentsBySource() (map[string]int, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM count_documents_by_source()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var source string
		var count int
		err := rows.Scan(&source, &count)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		counts[source] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return counts, nil
}

// DeleteDocument deletes a document by RID
func (h *DocumentsDBHandler) DeleteDocument(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_document($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scanDocumentRows scans full document rows, optionally with a trailing
// similarity column.
func scanDocumentRows(rows *sql.Rows, withSimilarity bool) ([]*model.Document, error) {
	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		dest := []interface{}{
			&doc.ID,
			&doc.RID,
			&doc.Title,
			&doc.Source,
			&doc.URL,
			&doc.Content,
			&doc.PublishedAt,
			&doc.Metadata,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		}
		if withSimilarity {
			dest = append(dest, &doc.Similarity)
		}

		err := rows.Scan(dest...)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

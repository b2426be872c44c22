package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
	loadSql "github.com/siherrmann/linker/sql"
)

// EdgesDBHandlerFunctions defines the interface for Edges database operations.
type EdgesDBHandlerFunctions interface {
	InsertEdge(edge *model.Edge) error
	SelectEdge(rid uuid.UUID) (*model.Edge, error)
	SelectEdgesFromDocument(documentRID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error)
	SelectEdgesToEntity(entityRID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error)
	SelectEdgesConnectedToEntity(entityRID uuid.UUID, edgeType *model.EdgeType) ([]*model.EdgeConnection, error)
	SelectDocumentsMentioningEntity(entityRID uuid.UUID, limit int) ([]*model.Document, error)
	SelectEntitiesMentionedInDocument(documentRID uuid.UUID) ([]*model.Entity, error)
	CountEdgesByType() (map[model.EdgeType]int, error)
	DeleteEdge(rid uuid.UUID) error
	DeleteEdgesForDocument(documentRID uuid.UUID) error
}

// EdgesDBHandler handles edge-related database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new edges database handler.
// It initializes the database connection and loads edge-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := loadSql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'edges' table in the database.
// If the table already exists, it does not create it again.
// It also creates the edge_type enum and all necessary indexes.
// Requires the documents and entities tables to exist.
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables, enums, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		log.Panicf("error initializing edges table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table edges")

	return nil
}

// InsertEdge inserts a new edge
func (h *EdgesDBHandler) InsertEdge(edge *model.Edge) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_edge($1, $2, $3, $4, $5, $6, $7, $8)`,
		edge.SourceDocumentID,
		edge.TargetDocumentID,
		edge.SourceEntityID,
		edge.TargetEntityID,
		edge.EdgeType,
		edge.Weight,
		edge.Bidirectional,
		edge.Metadata,
	)

	err := row.Scan(
		&edge.ID,
		&edge.RID,
		&edge.SourceDocumentID,
		&edge.TargetDocumentID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.EdgeType,
		&edge.Weight,
		&edge.Bidirectional,
		&edge.Metadata,
		&edge.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEdge retrieves an edge by RID
func (h *EdgesDBHandler) SelectEdge(rid uuid.UUID) (*model.Edge, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_edge($1)`,
		rid,
	)

	edge := &model.Edge{}

	err := row.Scan(
		&edge.ID,
		&edge.RID,
		&edge.SourceDocumentID,
		&edge.TargetDocumentID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.EdgeType,
		&edge.Weight,
		&edge.Bidirectional,
		&edge.Metadata,
		&edge.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return edge, nil
}

// SelectEdgesFromDocument retrieves edges originating from a document
func (h *EdgesDBHandler) SelectEdgesFromDocument(documentRID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.queryEdges(`SELECT * FROM select_edges_from_document($1, $2)`, documentRID, edgeType)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdgeRows(rows)
}

// SelectEdgesToEntity retrieves edges targeting an entity
func (h *EdgesDBHandler) SelectEdgesToEntity(entityRID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.queryEdges(`SELECT * FROM select_edges_to_entity($1, $2)`, entityRID, edgeType)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdgeRows(rows)
}

// SelectEdgesConnectedToEntity retrieves all edges connected to an entity (both directions)
func (h *EdgesDBHandler) SelectEdgesConnectedToEntity(entityRID uuid.UUID, edgeType *model.EdgeType) ([]*model.EdgeConnection, error) {
	rows, err := h.queryEdges(`SELECT * FROM select_edges_connected_to_entity($1, $2)`, entityRID, edgeType)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var connections []*model.EdgeConnection
	for rows.Next() {
		edge := &model.Edge{}
		var isOutgoing bool
		err := rows.Scan(
			&edge.ID,
			&edge.RID,
			&edge.SourceDocumentID,
			&edge.TargetDocumentID,
			&edge.SourceEntityID,
			&edge.TargetEntityID,
			&edge.EdgeType,
			&edge.Weight,
			&edge.Bidirectional,
			&edge.Metadata,
			&edge.CreatedAt,
			&isOutgoing,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		connections = append(connections, &model.EdgeConnection{
			Edge:       edge,
			IsOutgoing: isOutgoing,
		})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return connections, nil
}

// SelectDocumentsMentioningEntity retrieves documents with a mention edge
// to the entity, strongest mention first. The mention weight of each
// document is set on the Similarity result field.
func (h *EdgesDBHandler) SelectDocumentsMentioningEntity(entityRID uuid.UUID, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_documents_mentioning_entity($1, $2)`,
		entityRID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanDocumentRows(rows, true)
}

// SelectEntitiesMentionedInDocument retrieves entities with a mention
// edge from the document, most mentioned first.
func (h *EdgesDBHandler) SelectEntitiesMentionedInDocument(documentRID uuid.UUID) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_mentioned_in_document($1)`,
		documentRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		var mentionCount int
		err := rows.Scan(
			&entity.ID,
			&entity.RID,
			&entity.Key,
			&entity.Name,
			&entity.Type,
			&entity.Module,
			pq.Array(&entity.Aliases),
			&entity.Metadata,
			&entity.CreatedAt,
			&entity.UpdatedAt,
			&mentionCount,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// CountEdgesByType counts edges grouped by type
func (h *EdgesDBHandler) CountEdgesByType() (map[model.EdgeType]int, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM count_edges_by_type()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	counts := map[model.EdgeType]int{}
	for rows.Next() {
		var edgeType model.EdgeType
		var count int
		err := rows.Scan(&edgeType, &count)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		counts[edgeType] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return counts, nil
}

// DeleteEdge deletes an edge by RID
func (h *EdgesDBHandler) DeleteEdge(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_edge($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteEdgesForDocument deletes all edges connected to a document
func (h *EdgesDBHandler) DeleteEdgesForDocument(documentRID uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_edges_for_document($1)`,
		documentRID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// queryEdges runs an edge query with an optional edge type filter.
func (h *EdgesDBHandler) queryEdges(query string, rid uuid.UUID, edgeType *model.EdgeType) (*sql.Rows, error) {
	if edgeType != nil {
		return h.db.Instance.Query(query, rid, *edgeType)
	}
	return h.db.Instance.Query(query, rid, nil)
}

func scanEdgeRows(rows *sql.Rows) ([]*model.Edge, error) {
	var edges []*model.Edge
	for rows.Next() {
		edge := &model.Edge{}
		err := rows.Scan(
			&edge.ID,
			&edge.RID,
			&edge.SourceDocumentID,
			&edge.TargetDocumentID,
			&edge.SourceEntityID,
			&edge.TargetEntityID,
			&edge.EdgeType,
			&edge.Weight,
			&edge.Bidirectional,
			&edge.Metadata,
			&edge.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		edges = append(edges, edge)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}

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

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(entity *model.Entity) error
	SelectEntity(rid uuid.UUID) (*model.Entity, error)
	SelectEntityByKey(key string) (*model.Entity, error)
	SelectAllEntities(limit int) ([]*model.Entity, error)
	SelectEntitiesByModule(module string, limit int) ([]*model.Entity, error)
	SelectEntitiesByType(entityType string, limit int) ([]*model.Entity, error)
	CountEntities() (int, error)
	CountEntitiesByType() (map[string]int, error)
	DeleteEntity(rid uuid.UUID) error
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// InsertEntity inserts a new entity, upserting by catalog key so a
// reloaded catalog refreshes aliases and metadata in place.
func (h *EntitiesDBHandler) InsertEntity(entity *model.Entity) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_entity($1, $2, $3, $4, $5, $6)`,
		entity.Key,
		entity.Name,
		entity.Type,
		entity.Module,
		pq.Array(entity.Aliases),
		entity.Metadata,
	)

	err := scanEntityRow(row, entity)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEntity retrieves an entity by RID
func (h *EntitiesDBHandler) SelectEntity(rid uuid.UUID) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity($1)`,
		rid,
	)

	err := scanEntityRow(row, entity)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntityByKey retrieves an entity by its catalog key
func (h *EntitiesDBHandler) SelectEntityByKey(key string) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity_by_key($1)`,
		key,
	)

	err := scanEntityRow(row, entity)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectAllEntities retrieves the full catalog in insertion order.
// Insertion order is the documented match tie-break between entities.
func (h *EntitiesDBHandler) SelectAllEntities(limit int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_entities($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntityRows(rows)
}

// SelectEntitiesByModule retrieves entities grouped under a module
func (h *EntitiesDBHandler) SelectEntitiesByModule(module string, limit int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_module($1, $2)`,
		module,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntityRows(rows)
}

// SelectEntitiesByType retrieves entities by type
func (h *EntitiesDBHandler) SelectEntitiesByType(entityType string, limit int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_type($1, $2)`,
		entityType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntityRows(rows)
}

// CountEntities counts all entities
func (h *EntitiesDBHandler) CountEntities() (int, error) {
	var count int
	err := h.db.Instance.QueryRow(`SELECT count_entities()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// CountEntitiesByType counts entities grouped by type
func (h *EntitiesDBHandler) CountEntitiesByType() (map[string]int, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM count_entities_by_type()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var entityType string
		var count int
		err := rows.Scan(&entityType, &count)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		counts[entityType] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return counts, nil
}

// DeleteEntity deletes an entity by RID
func (h *EntitiesDBHandler) DeleteEntity(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_entity($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scanEntityRow scans one full entity row into entity.
func scanEntityRow(row *sql.Row, entity *model.Entity) error {
	return row.Scan(
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
	)
}

func scanEntityRows(rows *sql.Rows) ([]*model.Entity, error) {
	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
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
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

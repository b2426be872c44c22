package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/core/match"
)

// Entity represents a catalog entity documents may mention, for example
// a code symbol or a domain concept. Key is the unique catalog key
// "type:name" used for upserts, Module groups entities of one component.
type Entity struct {
	ID        int64     `json:"id"`
	RID       uuid.UUID `json:"rid"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Type      string    `json:"entity_type"`
	Module    string    `json:"module,omitempty"`
	Aliases   []string  `json:"aliases,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityKey builds the canonical catalog key for a type and name.
func EntityKey(entityType string, name string) string {
	return strings.ToLower(entityType) + ":" + name
}

// NewEntity creates an entity with its key derived from type and name.
func NewEntity(name string, entityType string, module string, aliases []string) *Entity {
	return &Entity{
		Key:     EntityKey(entityType, name),
		Name:    name,
		Type:    entityType,
		Module:  module,
		Aliases: aliases,
	}
}

// ToMatchEntity converts the stored entity into the matcher's catalog
// record. The RID is carried as the match entity ID so mentions can be
// joined back to the stored row.
func (e *Entity) ToMatchEntity() match.Entity {
	return match.Entity{
		ID:      e.RID.String(),
		Type:    e.Type,
		Name:    e.Name,
		Module:  e.Module,
		Aliases: e.Aliases,
	}
}

// EntitiesToMatch converts stored entities into a matcher catalog,
// preserving order because catalog order decides match tie-breaks.
func EntitiesToMatch(entities []*Entity) []match.Entity {
	catalog := make([]match.Entity, 0, len(entities))
	for _, entity := range entities {
		catalog = append(catalog, entity.ToMatchEntity())
	}
	return catalog
}

// DocumentMention represents a document that mentions an entity
type DocumentMention struct {
	DocumentRID  uuid.UUID `json:"document_rid"`
	EdgeRID      uuid.UUID `json:"edge_rid"`
	EdgeMetadata Metadata  `json:"edge_metadata,omitempty"`
}

// NewDocumentMention extracts the document side of a mention edge.
// Edges without a source document yield nil.
func NewDocumentMention(edge *Edge) *DocumentMention {
	if edge == nil || edge.SourceDocumentID == nil {
		return nil
	}
	return &DocumentMention{
		DocumentRID:  *edge.SourceDocumentID,
		EdgeRID:      edge.RID,
		EdgeMetadata: edge.Metadata,
	}
}

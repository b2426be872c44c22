package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/core/match"
)

// EdgeType represents the type of relationship between nodes
type EdgeType string

const (
	// EdgeTypeMention links a document to an entity it mentions.
	EdgeTypeMention EdgeType = "mention"
	// EdgeTypeCoMention links two entities mentioned close together.
	EdgeTypeCoMention EdgeType = "co_mention"
	EdgeTypeReference EdgeType = "reference"
	EdgeTypeContains  EdgeType = "contains"
	EdgeTypeCustom    EdgeType = "custom"
)

// Edge represents a relationship between documents and/or entities
type Edge struct {
	ID               int64      `json:"id"`
	RID              uuid.UUID  `json:"rid"`
	SourceDocumentID *uuid.UUID `json:"source_document_id,omitempty"`
	TargetDocumentID *uuid.UUID `json:"target_document_id,omitempty"`
	SourceEntityID   *uuid.UUID `json:"source_entity_id,omitempty"`
	TargetEntityID   *uuid.UUID `json:"target_entity_id,omitempty"`
	EdgeType         EdgeType   `json:"edge_type"`
	Weight           float64    `json:"weight"`
	Bidirectional    bool       `json:"bidirectional"`
	Metadata         Metadata   `json:"metadata,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewMentionEdge builds the document to entity edge for one mention.
// The surface form, confidence, span and context travel as edge
// attributes, the confidence doubles as the edge weight.
func NewMentionEdge(documentRID uuid.UUID, entityRID uuid.UUID, mention match.Mention) *Edge {
	return &Edge{
		SourceDocumentID: &documentRID,
		TargetEntityID:   &entityRID,
		EdgeType:         EdgeTypeMention,
		Weight:           mention.Confidence,
		Bidirectional:    false,
		Metadata: Metadata{
			"surface_form": mention.SurfaceForm,
			"confidence":   mention.Confidence,
			"start_offset": mention.StartOffset,
			"end_offset":   mention.EndOffset,
			"context":      mention.Context,
		},
	}
}

// EdgeConnection represents an edge with directional information
type EdgeConnection struct {
	Edge       *Edge `json:"edge"`
	IsOutgoing bool  `json:"is_outgoing"`
}

package graph

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/model"
)

// GraphDB defines the graph operations over the mention graph. The
// graph is bipartite, documents on one side, entities on the other,
// connected by mention edges.
type GraphDB interface {
	GetEntity(ctx context.Context, rid uuid.UUID) (*model.Entity, error)
	DocumentsMentioningEntity(ctx context.Context, entityRID uuid.UUID) ([]*model.Document, error)
	EntitiesMentionedInDocument(ctx context.Context, documentRID uuid.UUID) ([]*model.Entity, error)
}

// NodeKind tells which side of the bipartite graph a result is on
type NodeKind string

const (
	NodeKindEntity   NodeKind = "entity"
	NodeKindDocument NodeKind = "document"
)

// TraversalResult contains a visited node and its distance from the source
type TraversalResult struct {
	Kind     NodeKind
	Entity   *model.Entity   // Set when Kind is entity
	Document *model.Document // Set when Kind is document
	Distance int
	Path     []uuid.UUID // Path from source to this node
}

// RelatedEntity is an entity reachable from the source entity through
// shared documents
type RelatedEntity struct {
	Entity *model.Entity `json:"entity"`
	// Distance is the number of hops from the source, 2 for entities
	// sharing a document with it.
	Distance int `json:"distance"`
	// MentionCount is the number of visited documents mentioning the
	// entity.
	MentionCount int `json:"mention_count"`
}

// BFS performs breadth-first search from a source entity, alternating
// entity to documents (documents mentioning it) and document to
// entities (entities it mentions). The source is the first result.
func BFS(ctx context.Context, db GraphDB, sourceRID uuid.UUID, maxHops int) ([]*TraversalResult, error) {
	sourceEntity, err := db.GetEntity(ctx, sourceRID)
	if err != nil {
		return nil, err
	}

	visited := map[uuid.UUID]bool{sourceRID: true}
	queue := []TraversalResult{{
		Kind:     NodeKindEntity,
		Entity:   sourceEntity,
		Distance: 0,
		Path:     []uuid.UUID{sourceRID},
	}}

	var results []*TraversalResult

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, &current)

		// Stop if we've reached max hops
		if current.Distance >= maxHops {
			continue
		}

		neighbors, err := expand(ctx, db, &current)
		if err != nil {
			return nil, err
		}

		for _, neighbor := range neighbors {
			rid := neighbor.rid
			if visited[rid] {
				continue
			}
			visited[rid] = true

			newPath := make([]uuid.UUID, len(current.Path))
			copy(newPath, current.Path)
			newPath = append(newPath, rid)

			queue = append(queue, TraversalResult{
				Kind:     neighbor.kind,
				Entity:   neighbor.entity,
				Document: neighbor.document,
				Distance: current.Distance + 1,
				Path:     newPath,
			})
		}
	}

	return results, nil
}

// DFS performs depth-first search from a source entity
func DFS(ctx context.Context, db GraphDB, sourceRID uuid.UUID, maxHops int) ([]*TraversalResult, error) {
	sourceEntity, err := db.GetEntity(ctx, sourceRID)
	if err != nil {
		return nil, err
	}

	visited := map[uuid.UUID]bool{}
	var results []*TraversalResult

	source := &TraversalResult{
		Kind:     NodeKindEntity,
		Entity:   sourceEntity,
		Distance: 0,
		Path:     []uuid.UUID{sourceRID},
	}
	dfsRecursive(ctx, db, source, maxHops, visited, &results)

	return results, nil
}

// dfsRecursive is the recursive helper for DFS
func dfsRecursive(
	ctx context.Context,
	db GraphDB,
	current *TraversalResult,
	maxHops int,
	visited map[uuid.UUID]bool,
	results *[]*TraversalResult,
) {
	visited[nodeRID(current)] = true
	*results = append(*results, current)

	// Stop if we've reached max hops
	if current.Distance >= maxHops {
		return
	}

	neighbors, err := expand(ctx, db, current)
	if err != nil {
		return
	}

	for _, neighbor := range neighbors {
		if visited[neighbor.rid] {
			continue
		}

		newPath := make([]uuid.UUID, len(current.Path))
		copy(newPath, current.Path)
		newPath = append(newPath, neighbor.rid)

		dfsRecursive(ctx, db, &TraversalResult{
			Kind:     neighbor.kind,
			Entity:   neighbor.entity,
			Document: neighbor.document,
			Distance: current.Distance + 1,
			Path:     newPath,
		}, maxHops, visited, results)
	}
}

// RelatedEntities returns the entities reachable from the source within
// maxHops, ranked by distance first and by the number of shared
// documents second. The source itself is excluded.
func RelatedEntities(ctx context.Context, db GraphDB, sourceRID uuid.UUID, maxHops int) ([]*RelatedEntity, error) {
	results, err := BFS(ctx, db, sourceRID, maxHops)
	if err != nil {
		return nil, err
	}

	mentionCounts := map[uuid.UUID]int{}
	for _, result := range results {
		if result.Kind != NodeKindDocument {
			continue
		}
		entities, err := db.EntitiesMentionedInDocument(ctx, result.Document.RID)
		if err != nil {
			continue
		}
		for _, entity := range entities {
			mentionCounts[entity.RID]++
		}
	}

	var related []*RelatedEntity
	for _, result := range results {
		if result.Kind != NodeKindEntity || result.Entity.RID == sourceRID {
			continue
		}
		related = append(related, &RelatedEntity{
			Entity:       result.Entity,
			Distance:     result.Distance,
			MentionCount: mentionCounts[result.Entity.RID],
		})
	}

	sort.SliceStable(related, func(i, j int) bool {
		if related[i].Distance != related[j].Distance {
			return related[i].Distance < related[j].Distance
		}
		return related[i].MentionCount > related[j].MentionCount
	})

	return related, nil
}

// neighborNode is one expansion step across the bipartite graph
type neighborNode struct {
	rid      uuid.UUID
	kind     NodeKind
	entity   *model.Entity
	document *model.Document
}

func expand(ctx context.Context, db GraphDB, current *TraversalResult) ([]neighborNode, error) {
	if current.Kind == NodeKindEntity {
		documents, err := db.DocumentsMentioningEntity(ctx, current.Entity.RID)
		if err != nil {
			return nil, err
		}
		neighbors := make([]neighborNode, 0, len(documents))
		for _, document := range documents {
			neighbors = append(neighbors, neighborNode{
				rid:      document.RID,
				kind:     NodeKindDocument,
				document: document,
			})
		}
		return neighbors, nil
	}

	entities, err := db.EntitiesMentionedInDocument(ctx, current.Document.RID)
	if err != nil {
		return nil, err
	}
	neighbors := make([]neighborNode, 0, len(entities))
	for _, entity := range entities {
		neighbors = append(neighbors, neighborNode{
			rid:    entity.RID,
			kind:   NodeKindEntity,
			entity: entity,
		})
	}
	return neighbors, nil
}

func nodeRID(result *TraversalResult) uuid.UUID {
	if result.Kind == NodeKindEntity {
		return result.Entity.RID
	}
	return result.Document.RID
}

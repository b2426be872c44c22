package graph

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockGraphDB is a mock implementation of GraphDB for testing
type MockGraphDB struct {
	entities  map[uuid.UUID]*model.Entity
	documents map[uuid.UUID]*model.Document
	// mentions maps a document to the entities it mentions
	mentions map[uuid.UUID][]uuid.UUID
}

func NewMockGraphDB() *MockGraphDB {
	return &MockGraphDB{
		entities:  make(map[uuid.UUID]*model.Entity),
		documents: make(map[uuid.UUID]*model.Document),
		mentions:  make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *MockGraphDB) addEntity(name string) *model.Entity {
	entity := model.NewEntity(name, "Keeper", "test", nil)
	entity.RID = uuid.New()
	m.entities[entity.RID] = entity
	return entity
}

func (m *MockGraphDB) addDocument(title string, mentioned ...*model.Entity) *model.Document {
	document := &model.Document{RID: uuid.New(), Title: title}
	m.documents[document.RID] = document
	for _, entity := range mentioned {
		m.mentions[document.RID] = append(m.mentions[document.RID], entity.RID)
	}
	return document
}

func (m *MockGraphDB) GetEntity(ctx context.Context, rid uuid.UUID) (*model.Entity, error) {
	entity, ok := m.entities[rid]
	if !ok {
		return nil, assert.AnError
	}
	return entity, nil
}

func (m *MockGraphDB) DocumentsMentioningEntity(ctx context.Context, entityRID uuid.UUID) ([]*model.Document, error) {
	var documents []*model.Document
	for documentRID, entityRIDs := range m.mentions {
		for _, rid := range entityRIDs {
			if rid == entityRID {
				documents = append(documents, m.documents[documentRID])
				break
			}
		}
	}
	return documents, nil
}

func (m *MockGraphDB) EntitiesMentionedInDocument(ctx context.Context, documentRID uuid.UUID) ([]*model.Entity, error) {
	var entities []*model.Entity
	for _, rid := range m.mentions[documentRID] {
		entities = append(entities, m.entities[rid])
	}
	return entities, nil
}

func TestBFS(t *testing.T) {
	mockDB := NewMockGraphDB()

	// Graph: keeper is mentioned in docA and docB, docA also mentions
	// message, docB also mentions query, docC mentions query only.
	keeper := mockDB.addEntity("BasketKeeper")
	message := mockDB.addEntity("MsgCreate")
	query := mockDB.addEntity("QueryBalance")
	mockDB.addDocument("Doc A", keeper, message)
	mockDB.addDocument("Doc B", keeper, query)
	mockDB.addDocument("Doc C", query)

	t.Run("BFS from source with max hops 0", func(t *testing.T) {
		results, err := BFS(context.Background(), mockDB, keeper.RID, 0)

		assert.NoError(t, err, "Expected BFS to not return an error")
		require.Len(t, results, 1, "Expected only the source")
		assert.Equal(t, NodeKindEntity, results[0].Kind)
		assert.Equal(t, keeper.RID, results[0].Entity.RID, "Expected first result to be source")
		assert.Equal(t, 0, results[0].Distance, "Expected source distance to be 0")
	})

	t.Run("BFS with max hops 1 reaches documents", func(t *testing.T) {
		results, err := BFS(context.Background(), mockDB, keeper.RID, 1)

		assert.NoError(t, err)
		require.Len(t, results, 3, "Expected source plus its two documents")
		for _, result := range results[1:] {
			assert.Equal(t, NodeKindDocument, result.Kind)
			assert.Equal(t, 1, result.Distance)
		}
	})

	t.Run("BFS with max hops 2 reaches co-mentioned entities", func(t *testing.T) {
		results, err := BFS(context.Background(), mockDB, keeper.RID, 2)

		assert.NoError(t, err)
		require.Len(t, results, 5, "Expected source, two documents and two entities")

		entityNames := []string{}
		for _, result := range results {
			if result.Kind == NodeKindEntity && result.Distance == 2 {
				entityNames = append(entityNames, result.Entity.Name)
			}
		}
		assert.ElementsMatch(t, []string{"MsgCreate", "QueryBalance"}, entityNames)
	})

	t.Run("BFS tracks the path to each node", func(t *testing.T) {
		results, err := BFS(context.Background(), mockDB, keeper.RID, 2)

		assert.NoError(t, err)
		for _, result := range results {
			require.NotEmpty(t, result.Path)
			assert.Equal(t, keeper.RID, result.Path[0], "Expected every path to start at the source")
			assert.Len(t, result.Path, result.Distance+1)
		}
	})

	t.Run("BFS never revisits a node", func(t *testing.T) {
		results, err := BFS(context.Background(), mockDB, keeper.RID, 10)

		assert.NoError(t, err)
		seen := map[uuid.UUID]bool{}
		for _, result := range results {
			rid := nodeRID(result)
			assert.False(t, seen[rid], "Expected each node to appear once")
			seen[rid] = true
		}
	})

	t.Run("BFS with unknown source returns an error", func(t *testing.T) {
		_, err := BFS(context.Background(), mockDB, uuid.New(), 2)
		assert.Error(t, err, "Expected error for unknown source entity")
	})
}

func TestDFS(t *testing.T) {
	mockDB := NewMockGraphDB()

	keeper := mockDB.addEntity("BasketKeeper")
	message := mockDB.addEntity("MsgCreate")
	mockDB.addDocument("Doc A", keeper, message)

	t.Run("DFS visits all reachable nodes", func(t *testing.T) {
		results, err := DFS(context.Background(), mockDB, keeper.RID, 3)

		assert.NoError(t, err, "Expected DFS to not return an error")
		require.Len(t, results, 3, "Expected entity, document and co-mentioned entity")
		assert.Equal(t, keeper.RID, results[0].Entity.RID)
	})

	t.Run("DFS respects max hops", func(t *testing.T) {
		results, err := DFS(context.Background(), mockDB, keeper.RID, 1)

		assert.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, NodeKindDocument, results[1].Kind)
	})

	t.Run("DFS with unknown source returns an error", func(t *testing.T) {
		_, err := DFS(context.Background(), mockDB, uuid.New(), 2)
		assert.Error(t, err)
	})
}

func TestRelatedEntities(t *testing.T) {
	mockDB := NewMockGraphDB()

	// message shares two documents with keeper, query shares one.
	keeper := mockDB.addEntity("BasketKeeper")
	message := mockDB.addEntity("MsgCreate")
	query := mockDB.addEntity("QueryBalance")
	mockDB.addDocument("Doc A", keeper, message)
	mockDB.addDocument("Doc B", keeper, message, query)

	t.Run("Related entities ranked by shared documents", func(t *testing.T) {
		related, err := RelatedEntities(context.Background(), mockDB, keeper.RID, 2)

		assert.NoError(t, err, "Expected RelatedEntities to not return an error")
		require.Len(t, related, 2, "Expected two related entities")
		assert.Equal(t, message.RID, related[0].Entity.RID, "Expected the entity with more shared documents first")
		assert.Equal(t, 2, related[0].MentionCount)
		assert.Equal(t, query.RID, related[1].Entity.RID)
		assert.Equal(t, 1, related[1].MentionCount)
	})

	t.Run("Source entity is excluded", func(t *testing.T) {
		related, err := RelatedEntities(context.Background(), mockDB, keeper.RID, 2)

		assert.NoError(t, err)
		for _, entry := range related {
			assert.NotEqual(t, keeper.RID, entry.Entity.RID)
		}
	})

	t.Run("Closer entities rank before better connected ones", func(t *testing.T) {
		// distant is reachable only through a document mentioning query.
		distant := mockDB.addEntity("DistantKeeper")
		mockDB.addDocument("Doc C", query, distant)
		mockDB.addDocument("Doc D", query, distant)
		mockDB.addDocument("Doc E", query, distant)

		related, err := RelatedEntities(context.Background(), mockDB, keeper.RID, 4)

		assert.NoError(t, err)
		require.Len(t, related, 3)
		assert.Equal(t, 2, related[0].Distance)
		assert.Equal(t, 2, related[1].Distance)
		assert.Equal(t, distant.RID, related[2].Entity.RID, "Expected the distance 4 entity last")
		assert.Equal(t, 4, related[2].Distance)
	})

	t.Run("No related entities for isolated entity", func(t *testing.T) {
		isolated := mockDB.addEntity("IsolatedKeeper")

		related, err := RelatedEntities(context.Background(), mockDB, isolated.RID, 2)
		assert.NoError(t, err)
		assert.Empty(t, related)
	})
}

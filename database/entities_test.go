package database

import (
	"testing"

	"github.com/siherrmann/linker/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitiesNewEntitiesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewEntitiesDBHandler", func(t *testing.T) {
		entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewEntitiesDBHandler to not return an error")
		require.NotNil(t, entitiesDbHandler, "Expected NewEntitiesDBHandler to return a non-nil instance")
		require.NotNil(t, entitiesDbHandler.db, "Expected NewEntitiesDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewEntitiesDBHandler with nil database", func(t *testing.T) {
		_, err := NewEntitiesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating EntitiesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestEntitiesInsert(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Insert entity", func(t *testing.T) {
		entity := model.NewEntity("BasketKeeper", "Keeper", "basket", []string{"basket keeper"})

		err := entitiesDbHandler.InsertEntity(entity)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEmpty(t, entity.RID, "Expected inserted entity to have a RID")
		assert.Equal(t, "keeper:BasketKeeper", entity.Key, "Expected key to be synthesized from type and name")
		assert.Equal(t, []string{"basket keeper"}, entity.Aliases, "Expected aliases to round-trip")

		// Cleanup
		entitiesDbHandler.DeleteEntity(entity.RID)
	})

	t.Run("Insert entity with same key updates in place", func(t *testing.T) {
		first := model.NewEntity("MsgCreateBatch", "Message", "basket", nil)
		err := entitiesDbHandler.InsertEntity(first)
		require.NoError(t, err)

		second := model.NewEntity("MsgCreateBatch", "Message", "ecocredit", []string{"create batch"})
		err = entitiesDbHandler.InsertEntity(second)
		assert.NoError(t, err, "Expected upsert to not return an error")
		assert.Equal(t, first.RID, second.RID, "Expected upsert to keep the original RID")

		refreshed, err := entitiesDbHandler.SelectEntityByKey(first.Key)
		assert.NoError(t, err)
		assert.Equal(t, "ecocredit", refreshed.Module, "Expected upsert to refresh the module")
		assert.Equal(t, []string{"create batch"}, refreshed.Aliases, "Expected upsert to refresh the aliases")

		count, err := entitiesDbHandler.CountEntities()
		assert.NoError(t, err)
		assert.Equal(t, 1, count, "Expected no duplicate entity for the same key")

		// Cleanup
		entitiesDbHandler.DeleteEntity(first.RID)
	})
}

func TestEntitiesGet(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)

	entity := model.NewEntity("EcocreditKeeper", "Keeper", "ecocredit", nil)
	require.NoError(t, entitiesDbHandler.InsertEntity(entity))

	t.Run("Get by RID", func(t *testing.T) {
		retrieved, err := entitiesDbHandler.SelectEntity(entity.RID)
		assert.NoError(t, err, "Expected Get to not return an error")
		assert.Equal(t, entity.RID, retrieved.RID)
		assert.Equal(t, "EcocreditKeeper", retrieved.Name)
		assert.Equal(t, "Keeper", retrieved.Type)
	})

	t.Run("Get by key", func(t *testing.T) {
		retrieved, err := entitiesDbHandler.SelectEntityByKey("keeper:EcocreditKeeper")
		assert.NoError(t, err, "Expected SelectEntityByKey to not return an error")
		assert.Equal(t, entity.RID, retrieved.RID)
	})

	t.Run("Get unknown key", func(t *testing.T) {
		_, err := entitiesDbHandler.SelectEntityByKey("keeper:Unknown")
		assert.Error(t, err, "Expected error for unknown key")
	})

	// Cleanup
	entitiesDbHandler.DeleteEntity(entity.RID)
}

func TestEntitiesSelectFiltered(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)

	entities := []*model.Entity{
		model.NewEntity("BasketKeeper", "Keeper", "basket", nil),
		model.NewEntity("MsgCreate", "Message", "basket", nil),
		model.NewEntity("MarketKeeper", "Keeper", "marketplace", nil),
	}
	for _, entity := range entities {
		require.NoError(t, entitiesDbHandler.InsertEntity(entity))
	}

	t.Run("Select all preserves insertion order", func(t *testing.T) {
		all, err := entitiesDbHandler.SelectAllEntities(10)
		assert.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "BasketKeeper", all[0].Name)
		assert.Equal(t, "MsgCreate", all[1].Name)
		assert.Equal(t, "MarketKeeper", all[2].Name)
	})

	t.Run("Select by module", func(t *testing.T) {
		byModule, err := entitiesDbHandler.SelectEntitiesByModule("basket", 10)
		assert.NoError(t, err)
		require.Len(t, byModule, 2)
		for _, entity := range byModule {
			assert.Equal(t, "basket", entity.Module)
		}
	})

	t.Run("Select by type", func(t *testing.T) {
		byType, err := entitiesDbHandler.SelectEntitiesByType("Keeper", 10)
		assert.NoError(t, err)
		require.Len(t, byType, 2)
		for _, entity := range byType {
			assert.Equal(t, "Keeper", entity.Type)
		}
	})

	t.Run("Count by type", func(t *testing.T) {
		counts, err := entitiesDbHandler.CountEntitiesByType()
		assert.NoError(t, err)
		assert.Equal(t, 2, counts["Keeper"])
		assert.Equal(t, 1, counts["Message"])
	})

	// Cleanup
	for _, entity := range entities {
		entitiesDbHandler.DeleteEntity(entity.RID)
	}
}

func TestEntitiesDelete(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)

	entity := model.NewEntity("QueryBalance", "Query", "ecocredit", nil)
	require.NoError(t, entitiesDbHandler.InsertEntity(entity))

	err = entitiesDbHandler.DeleteEntity(entity.RID)
	assert.NoError(t, err, "Expected Delete to not return an error")

	_, err = entitiesDbHandler.SelectEntity(entity.RID)
	assert.Error(t, err, "Expected Get after delete to return an error")
}

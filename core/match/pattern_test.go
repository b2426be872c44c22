package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePatterns(t *testing.T) {
	t.Run("Name shorter than minimum is skipped", func(t *testing.T) {
		entities := []Entity{{ID: "type:Msg", Type: "Message", Name: "Msg"}}

		phase1, phase2, phase3 := compilePatterns(entities)

		assert.Empty(t, phase1, "Expected no phase 1 patterns for a short name")
		assert.Empty(t, phase2, "Expected no phase 2 patterns for a short name")
		assert.Empty(t, phase3, "Expected no phase 3 patterns for a short name")
	})

	t.Run("Short aliases are skipped but long ones compile", func(t *testing.T) {
		entities := []Entity{{
			ID:      "message:MsgCreateBatch",
			Type:    "Message",
			Name:    "MsgCreateBatch",
			Aliases: []string{"cb", "create batch"},
		}}

		phase1, _, _ := compilePatterns(entities)

		require.Len(t, phase1, 1, "Expected only the long alias to compile")
		assert.Equal(t, patternAlias, phase1[0].kind, "Expected an alias pattern")
		assert.True(t, phase1[0].re.MatchString("run Create Batch now"),
			"Expected alias patterns to match case-insensitively")
	})

	t.Run("Contextual pattern requires module and context word", func(t *testing.T) {
		withModule := Entity{ID: "keeper:BasketKeeper", Type: "Keeper", Name: "BasketKeeper", Module: "basket"}
		withoutModule := Entity{ID: "keeper:LooseKeeper", Type: "Keeper", Name: "LooseKeeper"}

		phase1, _, _ := compilePatterns([]Entity{withModule, withoutModule})

		require.Len(t, phase1, 1, "Expected a contextual pattern only for the entity with a module")
		assert.Equal(t, patternContextual, phase1[0].kind, "Expected a contextual pattern")
	})

	t.Run("Regex metacharacters in names are escaped", func(t *testing.T) {
		entities := []Entity{{ID: "query:Query.Balance", Type: "Query", Name: "Query.Balance"}}

		_, phase2, _ := compilePatterns(entities)

		require.Len(t, phase2, 1, "Expected an exact name pattern")
		assert.True(t, phase2[0].re.MatchString("call Query.Balance here"),
			"Expected the literal name to match")
		assert.False(t, phase2[0].re.MatchString("call QueryXBalance here"),
			"Expected the dot to match only a literal dot")
	})

	t.Run("Word boundaries reject embedded occurrences", func(t *testing.T) {
		_, phase2, phase3 := compilePatterns([]Entity{msgCreateBatch()})

		require.Len(t, phase2, 1, "Expected an exact name pattern")
		require.Len(t, phase3, 1, "Expected a folded name pattern")
		assert.False(t, phase2[0].re.MatchString("XMsgCreateBatchY"),
			"Expected no match inside a larger word")
		assert.True(t, phase3[0].re.MatchString("(msgcreatebatch)"),
			"Expected punctuation to count as a word boundary")
	})
}

func TestContextualRegexp(t *testing.T) {
	re := contextualRegexp("basket", "keeper")

	assert.True(t, re.MatchString("the basket keeper validates"),
		"Expected lowercase context word to match")
	assert.True(t, re.MatchString("the basket Keeper validates"),
		"Expected capitalized context word to match")
	assert.False(t, re.MatchString("the Basket keeper validates"),
		"Expected the module to match exactly")
	assert.True(t, re.MatchString("basket\n\tkeeper"),
		"Expected any whitespace run between module and context word to match")
}

package catalog

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

var (
	categories     map[string]string
	categoriesOnce sync.Once
	categoriesErr  error
)

// Categories returns the embedded entity category table, mapping a
// category name to its contextual role noun ("Keeper" to "keeper").
// The table is parsed once and cached.
func Categories() (map[string]string, error) {
	categoriesOnce.Do(func() {
		categoriesErr = yaml.Unmarshal(categoriesYAML, &categories)
	})
	return categories, categoriesErr
}

// ContextWord returns the contextual role noun for an entity type, or
// an empty string if the type has no category entry.
func ContextWord(entityType string) string {
	table, err := Categories()
	if err != nil {
		return ""
	}
	return table[entityType]
}

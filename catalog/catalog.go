// Package catalog loads entity catalogs from JSON exports and prepares
// them for matching: key synthesis, module extraction from file paths
// and contextual alias synthesis for categorized entity types.
package catalog

import (
	"encoding/json"
	"io"
	"os"
	"path"
	"strings"

	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
)

// entry is one record of a catalog JSON export. Older exports use the
// entity_type field name, newer ones use type.
type entry struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	EntityType string   `json:"entity_type"`
	FilePath   string   `json:"file_path"`
	Module     string   `json:"module"`
	Aliases    []string `json:"aliases"`
}

// moduleRoots are path segments whose following segment names the
// module an entity belongs to, like x/ecocredit or python/content.
var moduleRoots = map[string]bool{
	"x":          true,
	"src":        true,
	"go":         true,
	"python":     true,
	"typescript": true,
}

// Load parses a catalog JSON export into entities ready for matching
// and storage. Entries are deduplicated by key, keeping the first
// occurrence so the catalog order stays authoritative.
func Load(r io.Reader) ([]*model.Entity, error) {
	var entries []entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, helper.NewError("decode catalog", err)
	}

	seen := map[string]bool{}
	entities := []*model.Entity{}
	for _, e := range entries {
		entityType := e.Type
		if entityType == "" {
			entityType = e.EntityType
		}
		if e.Name == "" || entityType == "" {
			continue
		}

		module := e.Module
		if module == "" {
			module = ModuleFromPath(e.FilePath)
		}

		entity := model.NewEntity(e.Name, entityType, module, synthesizeAliases(entityType, module, e.Aliases))
		if seen[entity.Key] {
			continue
		}
		seen[entity.Key] = true
		entities = append(entities, entity)
	}

	return entities, nil
}

// LoadFile loads a catalog JSON export from disk.
func LoadFile(filePath string) ([]*model.Entity, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, helper.NewError("open catalog", err)
	}
	defer file.Close()
	return Load(file)
}

// ModuleFromPath extracts the module name from a source file path. The
// segment after a known root (x/<module>, python/<module>) wins, the
// first directory is the fallback.
func ModuleFromPath(filePath string) string {
	cleaned := path.Clean(strings.ReplaceAll(filePath, "\\", "/"))
	parts := []string{}
	for _, part := range strings.Split(cleaned, "/") {
		if part != "" && part != "." {
			parts = append(parts, part)
		}
	}
	if len(parts) < 2 {
		return ""
	}

	// The last segment is the file itself.
	dirs := parts[:len(parts)-1]
	for i, dir := range dirs {
		if moduleRoots[dir] && i+1 < len(dirs) {
			return dirs[i+1]
		}
	}
	return dirs[0]
}

// synthesizeAliases adds the "<module> <word>" alias for entity types
// with a contextual role noun, so prose like "the basket keeper" links
// to the basket module's Keeper.
func synthesizeAliases(entityType string, module string, aliases []string) []string {
	word := ContextWord(entityType)
	if word == "" || module == "" || module == "unknown" {
		return aliases
	}

	contextual := module + " " + word
	for _, alias := range aliases {
		if strings.EqualFold(alias, contextual) {
			return aliases
		}
	}
	return append(append([]string{}, aliases...), contextual)
}

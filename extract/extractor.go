// Package extract parses source files with tree-sitter and turns their
// declarations into catalog entities, the way the original entity
// export was built from a codebase.
package extract

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/siherrmann/linker/catalog"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
)

// language bundles a tree-sitter grammar with the node types that
// declare named entities in it.
type language struct {
	name     string
	grammar  *sitter.Language
	declares map[string]string // node type → entity kind fallback
}

var languages = map[string]*language{
	".go": {
		name:    "go",
		grammar: golang.GetLanguage(),
		declares: map[string]string{
			"type_spec":            "Type",
			"function_declaration": "Function",
			"method_declaration":   "Function",
		},
	},
	".py": {
		name:    "python",
		grammar: python.GetLanguage(),
		declares: map[string]string{
			"class_definition":    "Type",
			"function_definition": "Function",
		},
	},
}

// Extractor extracts catalog entities from source trees. Each Extract
// call creates its own tree-sitter parser, so an Extractor is safe for
// concurrent use.
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedFile reports whether the file extension maps to a grammar.
func SupportedFile(filePath string) bool {
	_, ok := languages[strings.ToLower(filepath.Ext(filePath))]
	return ok
}

// ExtractSource extracts entities from one source buffer. filePath
// selects the grammar and provides the module per the catalog rule.
func (e *Extractor) ExtractSource(ctx context.Context, content []byte, filePath string) ([]*model.Entity, error) {
	lang, ok := languages[strings.ToLower(filepath.Ext(filePath))]
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %v", filePath)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang.grammar)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, helper.NewError("parse", err)
	}
	defer tree.Close()

	module := catalog.ModuleFromPath(filePath)

	var entities []*model.Entity
	collectDeclarations(tree.RootNode(), content, lang, func(name string, kind string, line uint32) {
		entity := model.NewEntity(name, categorize(name, kind), module, nil)
		entity.Metadata = map[string]interface{}{
			"file_path": filePath,
			"line":      int(line),
			"language":  lang.name,
		}
		entities = append(entities, entity)
	})

	return entities, nil
}

// ExtractFile extracts entities from one source file on disk.
func (e *Extractor) ExtractFile(ctx context.Context, filePath string) ([]*model.Entity, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, helper.NewError("read file", err)
	}
	return e.ExtractSource(ctx, content, filePath)
}

// ExtractDir walks a source tree and extracts entities from every
// supported file. Hidden directories and common dependency directories
// are skipped. Unparseable files are skipped, not fatal.
func (e *Extractor) ExtractDir(ctx context.Context, root string) ([]*model.Entity, error) {
	var entities []*model.Entity

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			name := entry.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if !SupportedFile(path) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		extracted, extractErr := e.ExtractSource(ctx, content, filepath.ToSlash(relPath))
		if extractErr != nil {
			return nil
		}
		entities = append(entities, extracted...)
		return nil
	})
	if err != nil {
		return nil, helper.NewError("walk", err)
	}

	return entities, nil
}

// collectDeclarations walks the syntax tree and reports every named
// declaration node of the language.
func collectDeclarations(node *sitter.Node, content []byte, lang *language, report func(name string, kind string, line uint32)) {
	if node == nil {
		return
	}

	if kind, ok := lang.declares[node.Type()]; ok {
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			name := nameNode.Content(content)
			if name != "" {
				report(name, kind, node.StartPoint().Row+1)
			}
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		collectDeclarations(node.NamedChild(i), content, lang, report)
	}
}

// categorize derives the entity type from the declaration name shape,
// falling back to the syntactic kind. The shapes follow the naming
// conventions of the codebases the catalog was built from.
func categorize(name string, kind string) string {
	switch {
	case strings.HasSuffix(name, "Keeper"):
		return "Keeper"
	case strings.HasPrefix(name, "Msg"):
		return "Message"
	case strings.HasPrefix(name, "Query"):
		return "Query"
	case strings.HasSuffix(name, "Handler"):
		return "Handler"
	case strings.HasSuffix(name, "Server"):
		return "Server"
	default:
		return kind
	}
}

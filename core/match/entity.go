package match

// Entity is one catalog record the matcher looks for in documents.
// Name is the primary match target, Aliases are alternate surface forms
// and Module groups entities that belong to the same component.
type Entity struct {
	ID      string
	Type    string
	Name    string
	Module  string
	Aliases []string

	// ContextWord enables the contextual "<module> <word>" pattern for
	// categories whose references pair the module name with a role noun
	// ("basket keeper"). Left empty it falls back to the type default.
	ContextWord string
}

// defaultContextWords maps entity types to their contextual role noun.
// Callers can override per entity via ContextWord without touching the
// matching phases.
var defaultContextWords = map[string]string{
	"Keeper": "keeper",
}

func (e *Entity) contextWord() string {
	if e.ContextWord != "" {
		return e.ContextWord
	}
	return defaultContextWords[e.Type]
}

// Mention is one located, scored occurrence of an entity inside a
// document. StartOffset and EndOffset are byte offsets into the document
// with EndOffset exclusive, so SurfaceForm equals document[StartOffset:EndOffset].
type Mention struct {
	EntityID    string  `json:"entity_id"`
	EntityName  string  `json:"entity_name"`
	EntityType  string  `json:"entity_type"`
	SurfaceForm string  `json:"surface_form"`
	StartOffset int     `json:"start_offset"`
	EndOffset   int     `json:"end_offset"`
	Confidence  float64 `json:"confidence"`
	Context     string  `json:"context"`
}

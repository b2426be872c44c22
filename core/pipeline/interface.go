package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/linker/core/match"
	"github.com/siherrmann/linker/model"
)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// LinkFunc locates catalog entity mentions in text
type LinkFunc func(text string) ([]match.Mention, error)

// DiscoverFunc proposes candidate entities found in text that are not
// part of the catalog yet, typically backed by a NER model
type DiscoverFunc func(text string) ([]*model.Entity, error)

// maxEmbedContentLength caps how much document content goes into the
// embedding input. Content is cut at a sentence boundary before the cap
// so the embedding never sees a half sentence.
const maxEmbedContentLength = 2000

// Pipeline combines embedding and entity linking for documents
type Pipeline struct {
	Embedder   EmbedFunc
	Linker     LinkFunc
	Discoverer DiscoverFunc // Optional
}

// NewPipeline creates a new processing pipeline
func NewPipeline(embedder EmbedFunc, linker LinkFunc) *Pipeline {
	return &Pipeline{
		Embedder: embedder,
		Linker:   linker,
	}
}

// SetDiscoverer sets the optional entity discovery function
func (p *Pipeline) SetDiscoverer(discoverer DiscoverFunc) {
	p.Discoverer = discoverer
}

// ProcessingResult contains the embedding and the located mentions for
// one document, plus any discovered candidate entities
type ProcessingResult struct {
	Embedding  []float32
	Mentions   []match.Mention
	Discovered []*model.Entity
}

// Process runs a document through the pipeline. The embedding covers the
// title and the leading content, the linker sees the full content.
func (p *Pipeline) Process(doc *model.Document) (*ProcessingResult, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("content is empty")
	}

	result := &ProcessingResult{}

	if p.Embedder != nil {
		embedding, err := p.Embedder(embedText(doc))
		if err != nil {
			return nil, fmt.Errorf("failed to embed document: %w", err)
		}
		result.Embedding = embedding
	}

	if p.Linker != nil {
		mentions, err := p.Linker(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to link document: %w", err)
		}
		result.Mentions = mentions
	}

	if p.Discoverer != nil {
		discovered, err := p.Discoverer(doc.Content)
		if err == nil && discovered != nil {
			result.Discovered = discovered
		}
	}

	return result, nil
}

func embedText(doc *model.Document) string {
	content := truncateAtSentence(doc.Content, maxEmbedContentLength)
	if doc.Title == "" {
		return content
	}
	return doc.Title + "\n\n" + content
}

// truncateAtSentence cuts text to at most maxLength bytes, preferring
// the last sentence end before the cap. Without a sentence end it falls
// back to the last space, then to a hard rune-boundary cut.
func truncateAtSentence(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}

	cut := text[:maxLength]
	if index := strings.LastIndexAny(cut, ".!?"); index > 0 {
		return strings.TrimSpace(cut[:index+1])
	}
	if index := strings.LastIndex(cut, " "); index > 0 {
		return strings.TrimSpace(cut[:index])
	}

	for maxLength > 0 && !isRuneStart(text[maxLength]) {
		maxLength--
	}
	return text[:maxLength]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Package digest builds periodic topic digests from recently stored
// documents by clustering their embeddings.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/siherrmann/linker/core/pipeline"
	"github.com/siherrmann/linker/model"
	"github.com/siherrmann/linker/summarize"
)

const (
	// DefaultWindowDays is the lookback window for digest documents.
	DefaultWindowDays = 7
	// DefaultEps is the maximum cosine distance between cluster neighbors.
	DefaultEps = 0.35
	// DefaultMinPoints is the minimum neighborhood size for a core point.
	DefaultMinPoints = 2
	// DefaultMaxDocuments caps how many documents one digest considers.
	DefaultMaxDocuments = 500

	defaultBriefWords = 80
	maxTopicSentences = 3
)

// Store provides the documents a digest is built from.
type Store interface {
	SelectRecentDocuments(since time.Time, limit int) ([]*model.Document, error)
}

// Options control a single digest generation run. Zero values select
// the package defaults.
type Options struct {
	WindowDays   int     `json:"window_days"`
	Eps          float64 `json:"eps"`
	MinPoints    int     `json:"min_points"`
	MaxDocuments int     `json:"max_documents"`
	BriefWords   int     `json:"brief_words"`
}

func (o Options) withDefaults() Options {
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.Eps <= 0 {
		o.Eps = DefaultEps
	}
	if o.MinPoints <= 0 {
		o.MinPoints = DefaultMinPoints
	}
	if o.MaxDocuments <= 0 {
		o.MaxDocuments = DefaultMaxDocuments
	}
	if o.BriefWords <= 0 {
		o.BriefWords = defaultBriefWords
	}
	return o
}

// Topic is one cluster of related documents in a digest.
type Topic struct {
	Title        string            `json:"title"`
	Brief        string            `json:"brief,omitempty"`
	KeySentences []string          `json:"key_sentences,omitempty"`
	Sources      []string          `json:"sources,omitempty"`
	Documents    []*model.Document `json:"documents"`
}

// Digest is the result of one generation run.
type Digest struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DocumentCount int       `json:"document_count"`
	Topics        []Topic   `json:"topics"`
}

// Engine generates digests from a document store.
type Engine struct {
	store      Store
	embed      pipeline.EmbedFunc
	summarizer summarize.Summarizer
}

// NewEngine creates a digest engine. The embedder is used for documents
// stored without an embedding, the summarizer is optional. With a nil
// summarizer topic briefs fall back to extracted key sentences.
func NewEngine(store Store, embed pipeline.EmbedFunc, summarizer summarize.Summarizer) *Engine {
	return &Engine{
		store:      store,
		embed:      embed,
		summarizer: summarizer,
	}
}

// Generate builds a digest over the documents in the options' window.
func (e *Engine) Generate(ctx context.Context, opts Options) (*Digest, error) {
	opts = opts.withDefaults()

	end := time.Now()
	start := end.AddDate(0, 0, -opts.WindowDays)

	documents, err := e.store.SelectRecentDocuments(start, opts.MaxDocuments)
	if err != nil {
		return nil, fmt.Errorf("failed to select recent documents: %w", err)
	}

	digest := &Digest{
		Start:         start,
		End:           end,
		DocumentCount: len(documents),
	}
	if len(documents) == 0 {
		return digest, nil
	}

	embedded, vectors := e.embedDocuments(documents)
	if len(embedded) == 0 {
		return digest, nil
	}

	labels := dbscan(vectors, opts.Eps, opts.MinPoints)
	digest.Topics = e.buildTopics(ctx, embedded, vectors, labels, opts.BriefWords)

	return digest, nil
}

// embedDocuments resolves a vector per document, preferring the stored
// embedding. Documents that can neither provide nor compute one are
// skipped.
func (e *Engine) embedDocuments(documents []*model.Document) ([]*model.Document, [][]float32) {
	embedded := make([]*model.Document, 0, len(documents))
	vectors := make([][]float32, 0, len(documents))

	for _, doc := range documents {
		vector := doc.Embedding
		if len(vector) == 0 {
			if e.embed == nil {
				continue
			}
			computed, err := e.embed(digestText(doc))
			if err != nil {
				continue
			}
			vector = computed
		}
		embedded = append(embedded, doc)
		vectors = append(vectors, vector)
	}

	return embedded, vectors
}

func (e *Engine) buildTopics(ctx context.Context, documents []*model.Document, vectors [][]float32, labels []int, briefWords int) []Topic {
	clusters := map[int][]int{}
	for i, label := range labels {
		clusters[label] = append(clusters[label], i)
	}

	// Labels are walked in sorted order, noise last, so fully tied
	// topics keep a stable order across runs.
	labelOrder := make([]int, 0, len(clusters))
	for label := range clusters {
		if label != labelNoise {
			labelOrder = append(labelOrder, label)
		}
	}
	sort.Ints(labelOrder)
	if _, ok := clusters[labelNoise]; ok {
		labelOrder = append(labelOrder, labelNoise)
	}

	var topics []Topic
	for _, label := range labelOrder {
		indices := clusters[label]
		if label == labelNoise {
			// Noise points become singleton topics.
			for _, i := range indices {
				topics = append(topics, e.buildTopic(ctx, documents, vectors, []int{i}, briefWords))
			}
			continue
		}
		topics = append(topics, e.buildTopic(ctx, documents, vectors, indices, briefWords))
	}

	// Rank by cluster size, more recent topics first within a size.
	sort.SliceStable(topics, func(i, j int) bool {
		if len(topics[i].Documents) != len(topics[j].Documents) {
			return len(topics[i].Documents) > len(topics[j].Documents)
		}
		return latestTime(topics[i].Documents).After(latestTime(topics[j].Documents))
	})

	return topics
}

func (e *Engine) buildTopic(ctx context.Context, documents []*model.Document, vectors [][]float32, indices []int, briefWords int) Topic {
	members := make([]*model.Document, 0, len(indices))
	memberVectors := make([][]float32, 0, len(indices))
	for _, i := range indices {
		members = append(members, documents[i])
		memberVectors = append(memberVectors, vectors[i])
	}

	topic := Topic{
		Title:     representativeTitle(members, memberVectors),
		Documents: members,
		Sources:   topicSources(members),
	}

	for _, doc := range members {
		if len(topic.KeySentences) >= maxTopicSentences {
			break
		}
		sentence := firstSentence(docSnippet(doc))
		if sentence != "" {
			topic.KeySentences = append(topic.KeySentences, sentence)
		}
	}

	topic.Brief = e.briefFor(ctx, topic, briefWords)
	return topic
}

// briefFor asks the summarizer for a topic brief and falls back to the
// extracted key sentences when no summarizer is set or the call fails.
func (e *Engine) briefFor(ctx context.Context, topic Topic, briefWords int) string {
	fallback := strings.Join(topic.KeySentences, " ")
	if e.summarizer == nil || len(topic.Documents) < 2 {
		return fallback
	}

	snippets := make([]string, 0, len(topic.Documents))
	for _, doc := range topic.Documents {
		snippets = append(snippets, digestText(doc))
	}

	brief, err := e.summarizer.Summarize(ctx, summarize.Request{
		Topic:    topic.Title,
		Snippets: snippets,
		MaxWords: briefWords,
	})
	if err != nil || brief == "" {
		return fallback
	}
	return brief
}

// representativeTitle is the title of the document closest to the
// cluster centroid.
func representativeTitle(documents []*model.Document, vectors [][]float32) string {
	if len(documents) == 0 {
		return ""
	}

	center := centroid(vectors)
	bestIndex := 0
	bestDistance := cosineDistance(center, vectors[0])
	for i := 1; i < len(vectors); i++ {
		if distance := cosineDistance(center, vectors[i]); distance < bestDistance {
			bestDistance = distance
			bestIndex = i
		}
	}

	return documents[bestIndex].Title
}

func topicSources(documents []*model.Document) []string {
	seen := map[string]bool{}
	var sources []string
	for _, doc := range documents {
		if doc.Source == "" || seen[doc.Source] {
			continue
		}
		seen[doc.Source] = true
		sources = append(sources, doc.Source)
	}
	return sources
}

// digestText is the text a document contributes to embedding and
// summarization. Stored documents carry no content, so the snippet
// kept in metadata stands in for it.
func digestText(doc *model.Document) string {
	snippet := docSnippet(doc)
	if snippet == "" {
		return doc.Title
	}
	return doc.Title + "\n\n" + snippet
}

func docSnippet(doc *model.Document) string {
	return doc.Metadata.String("snippet")
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if end := strings.IndexAny(text, ".!?"); end >= 0 {
		return strings.TrimSpace(text[:end+1])
	}
	return text
}

func latestTime(documents []*model.Document) time.Time {
	var latest time.Time
	for _, doc := range documents {
		t := doc.CreatedAt
		if doc.PublishedAt != nil {
			t = *doc.PublishedAt
		}
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}

// RenderMarkdown produces the digest as a markdown brief.
func (d *Digest) RenderMarkdown() string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "# Digest %s to %s\n\n", d.Start.Format("2006-01-02"), d.End.Format("2006-01-02"))
	fmt.Fprintf(&builder, "%d documents, %d topics.\n", d.DocumentCount, len(d.Topics))

	for _, topic := range d.Topics {
		fmt.Fprintf(&builder, "\n## %s\n\n", topic.Title)
		if topic.Brief != "" {
			fmt.Fprintf(&builder, "%s\n", topic.Brief)
		}
		if len(topic.Documents) > 0 {
			builder.WriteString("\n")
			for _, doc := range topic.Documents {
				if doc.Source != "" {
					fmt.Fprintf(&builder, "- %s (%s)\n", doc.Title, doc.Source)
				} else {
					fmt.Fprintf(&builder, "- %s\n", doc.Title)
				}
			}
		}
	}

	return builder.String()
}

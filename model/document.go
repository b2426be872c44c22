package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Document represents a source document whose entity mentions are linked
// into the graph. Content is carried for processing and cleared before
// the document row is stored, only the embedding survives persistence.
type Document struct {
	ID          int64      `json:"id"`
	RID         uuid.UUID  `json:"rid"`
	Title       string     `json:"title"`
	Source      string     `json:"source,omitempty"`
	URL         string     `json:"url,omitempty"`
	Content     string     `json:"content,omitempty" db:"-"`
	Embedding   []float32  `json:"embedding,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Metadata    Metadata   `json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	// Result fields set by search
	Similarity float64 `json:"similarity,omitempty"`
}

// NewDocumentFromFile reads a file and creates a Document with the file content
// The title defaults to the filename, and source to the file path
func NewDocumentFromFile(filePath string, metadata Metadata) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	// Get filename without extension for default title
	filename := filepath.Base(filePath)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}

	return &Document{
		Title:    title,
		Source:   filePath,
		Content:  string(content),
		Metadata: metadata,
	}, nil
}

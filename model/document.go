package model

import (
	"os"
	"time"
)

// Document is the metadata record of a source document observations were
// extracted from. Content is never stored by this core; only the path and the
// content hash travel with observations for provenance.
type Document struct {
	ID          int64      `json:"id,omitempty"`
	Path        string     `json:"path"`
	ContentHash string     `json:"content_hash"`
	Metadata    Properties `json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
}

// NewDocumentFromFile reads a file and creates a Document with the content
// hash derived from the file bytes. The content itself is discarded.
func NewDocumentFromFile(filePath string, metadata Properties) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return &Document{
		Path:        filePath,
		ContentHash: NewCID(content),
		Metadata:    metadata,
	}, nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Document represents a source document within one subject.
// Deleting a document cascades to its chunks.
type Document struct {
	ID        int64     `json:"id"`
	RID       uuid.UUID `json:"rid"`
	SubjectID int64     `json:"subject_id"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocument creates a document for the given subject
func NewDocument(subjectID int64, title, source string, metadata Metadata) *Document {
	return &Document{
		SubjectID: subjectID,
		Title:     title,
		Source:    source,
		Metadata:  metadata,
	}
}

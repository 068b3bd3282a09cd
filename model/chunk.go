package model

import (
	"time"

	"github.com/google/uuid"
)

// ChunkType distinguishes plain text chunks from table-derived chunks
type ChunkType string

const (
	ChunkTypeText        ChunkType = "text"
	ChunkTypeTableRow    ChunkType = "table_row"
	ChunkTypeTableSchema ChunkType = "table_schema"
)

// Chunk represents a retrieval-sized passage persisted for question generation.
// Chunks are created at ingest time and deleted only when their parent
// document is deleted (cascade).
type Chunk struct {
	ID             int       `json:"id"`
	DocumentID     int64     `json:"document_id"`
	DocumentRID    uuid.UUID `json:"document_rid"`
	SubjectID      int64     `json:"subject_id"`
	UnitID         int64     `json:"unit_id"`
	Text           string    `json:"text"`
	SectionPath    string    `json:"section_path"`
	PageStart      *int      `json:"page_start,omitempty"`
	PageEnd        *int      `json:"page_end,omitempty"`
	SourceOrders   []int64   `json:"source_orders"`
	ChunkType      ChunkType `json:"chunk_type"`
	TableID        *int64    `json:"table_id,omitempty"`
	RowID          *int64    `json:"row_id,omitempty"`
	CognitiveLevel int       `json:"cognitive_level"`
	Difficulty     int       `json:"difficulty"`
	UsageCount     int       `json:"usage_count"`
	Embedding      []float32 `json:"embedding,omitempty"`
	Metadata       Metadata  `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	// Results
	LexicalScore float64 `json:"lexical_score,omitempty"`
	VectorScore  float64 `json:"vector_score,omitempty"`
	Similarity   float64 `json:"similarity,omitempty"`
}

package retrieval

import (
	"context"

	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

// SearchFilters scope candidate lookup to the requesting spec. A zero
// value on any field means the field does not constrain the search.
type SearchFilters struct {
	SubjectID      int64
	UnitIDs        []int64
	CognitiveLevel model.LevelRange
	Difficulty     int
	ExcludeIDs     []int
}

// VectorHit is one result of a vector similarity search. Payload
// optionally carries the filter fields stored alongside the vector so
// hits can be re-checked without a chunk fetch; a nil payload means the
// index has already applied the filters.
type VectorHit struct {
	ChunkID int
	Score   float64
	Payload *model.Chunk
}

// ChunkStore provides chunk lookup and usage bookkeeping
type ChunkStore interface {
	SelectChunksByIDs(ctx context.Context, ids []int) ([]*model.Chunk, error)
	// SelectChunkIDsByFilters returns up to limit chunk IDs matching the
	// filters in random order. It backs the fallback path when both
	// search sides come up empty.
	SelectChunkIDsByFilters(ctx context.Context, filters SearchFilters, limit int) ([]int, error)
	IncrementChunkUsage(ctx context.Context, ids []int) error
}

// LexicalIndex ranks chunks by full-text relevance to a query
type LexicalIndex interface {
	SearchLexical(ctx context.Context, query string, filters SearchFilters, limit int) ([]int, error)
}

// VectorIndex ranks chunks by embedding similarity to a query vector
type VectorIndex interface {
	SearchVector(ctx context.Context, embedding []float32, filters SearchFilters, limit int) ([]VectorHit, error)
}

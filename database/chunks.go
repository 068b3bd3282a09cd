package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/vaishnavipawardottech/anticheating-sub000/core/retrieval"
	"github.com/vaishnavipawardottech/anticheating-sub000/helper"
	"github.com/vaishnavipawardottech/anticheating-sub000/model"
	loadSql "github.com/vaishnavipawardottech/anticheating-sub000/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunk(chunk *model.Chunk) error
	DeleteChunk(id int) error
	SelectChunksByDocument(documentRID uuid.UUID) ([]*model.Chunk, error)
	SelectChunksByIDs(ctx context.Context, ids []int) ([]*model.Chunk, error)
	SelectChunkIDsByFilters(ctx context.Context, filters retrieval.SearchFilters, limit int) ([]int, error)
	SearchLexical(ctx context.Context, query string, filters retrieval.SearchFilters, limit int) ([]int, error)
	SearchVector(ctx context.Context, embedding []float32, filters retrieval.SearchFilters, limit int) ([]retrieval.VectorHit, error)
	IncrementChunkUsage(ctx context.Context, ids []int) error
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// InsertChunk inserts a new chunk
func (h *ChunksDBHandler) InsertChunk(chunk *model.Chunk) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		chunk.DocumentID,
		chunk.DocumentRID,
		chunk.SubjectID,
		chunk.UnitID,
		chunk.Text,
		chunk.SectionPath,
		chunk.PageStart,
		chunk.PageEnd,
		pq.Array(chunk.SourceOrders),
		chunk.ChunkType,
		chunk.TableID,
		chunk.RowID,
		chunk.CognitiveLevel,
		chunk.Difficulty,
		pq.Array(chunk.Embedding),
		chunk.Metadata,
	)

	err := scanChunk(row, chunk)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteChunk deletes a chunk by ID
func (h *ChunksDBHandler) DeleteChunk(id int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_chunk($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectChunksByDocument retrieves all chunks for a document
func (h *ChunksDBHandler) SelectChunksByDocument(documentRID uuid.UUID) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_document($1)`,
		documentRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		if err := scanChunk(rows, chunk); err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksByIDs retrieves the chunks with the given IDs. Missing IDs
// are silently absent from the result.
func (h *ChunksDBHandler) SelectChunksByIDs(ctx context.Context, ids []int) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunks_by_ids($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		if err := scanChunk(rows, chunk); err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunkIDsByFilters returns up to limit chunk IDs matching the
// filters in random order
func (h *ChunksDBHandler) SelectChunkIDsByFilters(ctx context.Context, filters retrieval.SearchFilters, limit int) ([]int, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunk_ids_by_filters($1, $2, $3, $4, $5, $6, $7)`,
		filters.SubjectID,
		pq.Array(filters.UnitIDs),
		filters.CognitiveLevel.Min,
		filters.CognitiveLevel.Max,
		filters.Difficulty,
		pq.Array(filters.ExcludeIDs),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

// SearchLexical performs full-text search and returns chunk IDs ranked by
// relevance
func (h *ChunksDBHandler) SearchLexical(ctx context.Context, query string, filters retrieval.SearchFilters, limit int) ([]int, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM search_chunks_lexical($1, $2, $3, $4, $5, $6, $7, $8)`,
		query,
		filters.SubjectID,
		pq.Array(filters.UnitIDs),
		filters.CognitiveLevel.Min,
		filters.CognitiveLevel.Max,
		filters.Difficulty,
		pq.Array(filters.ExcludeIDs),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

// SearchVector performs vector similarity search and returns hits ranked
// by cosine similarity, payload fields included
func (h *ChunksDBHandler) SearchVector(ctx context.Context, embedding []float32, filters retrieval.SearchFilters, limit int) ([]retrieval.VectorHit, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM search_chunks_vector($1, $2, $3, $4, $5, $6, $7, $8)`,
		embeddingVector,
		filters.SubjectID,
		pq.Array(filters.UnitIDs),
		filters.CognitiveLevel.Min,
		filters.CognitiveLevel.Max,
		filters.Difficulty,
		pq.Array(filters.ExcludeIDs),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var hits []retrieval.VectorHit
	for rows.Next() {
		payload := &model.Chunk{}
		hit := retrieval.VectorHit{Payload: payload}
		err := rows.Scan(
			&hit.ChunkID,
			&hit.Score,
			&payload.SubjectID,
			&payload.UnitID,
			&payload.CognitiveLevel,
			&payload.Difficulty,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		payload.ID = hit.ChunkID
		hits = append(hits, hit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return hits, nil
}

// IncrementChunkUsage bumps the usage counter of the given chunks
func (h *ChunksDBHandler) IncrementChunkUsage(ctx context.Context, ids []int) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT increment_chunk_usage($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanChunk(row scanner, chunk *model.Chunk) error {
	return row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.DocumentRID,
		&chunk.SubjectID,
		&chunk.UnitID,
		&chunk.Text,
		&chunk.SectionPath,
		&chunk.PageStart,
		&chunk.PageEnd,
		pq.Array(&chunk.SourceOrders),
		&chunk.ChunkType,
		&chunk.TableID,
		&chunk.RowID,
		&chunk.CognitiveLevel,
		&chunk.Difficulty,
		&chunk.UsageCount,
		pq.Array(&chunk.Embedding),
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
}

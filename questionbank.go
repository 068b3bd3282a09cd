package questionbank

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/vaishnavipawardottech/anticheating-sub000/core/pipeline"
	"github.com/vaishnavipawardottech/anticheating-sub000/core/retrieval"
	"github.com/vaishnavipawardottech/anticheating-sub000/database"
	"github.com/vaishnavipawardottech/anticheating-sub000/helper"
	"github.com/vaishnavipawardottech/anticheating-sub000/model"
	loadSql "github.com/vaishnavipawardottech/anticheating-sub000/sql"
)

// QuestionBank provides a unified interface to document ingest and
// chunk retrieval for question generation
type QuestionBank struct {
	DB        *helper.Database
	Chunks    *database.ChunksDBHandler
	Documents *database.DocumentsDBHandler
	Pipeline  *pipeline.Pipeline // Segmentation and embedding pipeline
	Engine    *retrieval.Engine  // Hybrid retrieval engine
	// Tuning
	cfg *model.Config
	// Logging
	log *slog.Logger
}

// NewQuestionBank creates a new QuestionBank with all handlers
// initialized. A nil cfg falls back to the default tuning configuration.
func NewQuestionBank(dbConfig *helper.DatabaseConfiguration, embeddingDim int, cfg *model.Config) (*QuestionBank, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	if cfg == nil {
		cfg = &model.Config{
			Segmenter: model.DefaultSegmenterConfig(),
			Retrieval: model.DefaultRetrievalConfig(),
		}
	}

	// Initialize database
	db := helper.NewDatabase("questionbank", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create handlers in the correct order (documents first, chunks
	// reference them). force=false to not reload existing SQL functions.
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	q := &QuestionBank{
		DB:        db,
		Chunks:    chunks,
		Documents: documents,
		cfg:       cfg,
		log:       logger,
	}
	q.Engine = retrieval.NewEngine(chunks, chunks, chunks, nil, cfg.Retrieval, logger)

	return q, nil
}

// Close closes the database connection
func (q *QuestionBank) Close() error {
	if q.DB != nil {
		return q.DB.Close()
	}
	return nil
}

// SetPipeline sets the segmentation pipeline for document processing.
// The pipeline's embedder also powers the query side of retrieval.
func (q *QuestionBank) SetPipeline(p *pipeline.Pipeline) {
	q.Pipeline = p

	var embed pipeline.EmbedFunc
	if p != nil {
		embed = p.Embedder
	}
	q.Engine = retrieval.NewEngine(q.Chunks, q.Chunks, q.Chunks, embed, q.cfg.Retrieval, q.log)
}

// UseDefaultPipeline sets up the default segmentation and embedding
// pipeline using the all-MiniLM-L6-v2 model (384 dimensions)
func (q *QuestionBank) UseDefaultPipeline() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	segmenter := pipeline.NewSegmenter(q.cfg.Segmenter, pipeline.BatchEmbedder(embedder, 0), q.log)
	q.SetPipeline(pipeline.NewPipeline(segmenter, embedder))
	return nil
}

// IngestElements processes a document's parsed elements by:
// 1. Inserting the document metadata
// 2. Segmenting and embedding the elements into chunks
// 3. Inserting all chunks scoped to the document, subject and unit
// Returns the number of chunks inserted and any error encountered.
func (q *QuestionBank) IngestElements(doc *model.Document, unitID int64, elements []model.Element) (int, error) {
	if q.Pipeline == nil {
		return 0, helper.NewError("ingest elements", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	if len(elements) == 0 {
		return 0, helper.NewError("ingest elements", fmt.Errorf("no elements to ingest"))
	}

	if err := q.Documents.InsertDocument(doc); err != nil {
		return 0, helper.NewError("insert document", err)
	}

	q.log.Info("Inserted document", slog.String("document_id", doc.RID.String()), slog.String("title", doc.Title))

	chunks, err := q.Pipeline.Process(elements)
	if err != nil {
		return 0, helper.NewError("process elements", err)
	}

	q.log.Info("Segmented document into chunks", slog.Int("num_chunks", len(chunks)), slog.String("document_id", doc.RID.String()))

	for i, chunk := range chunks {
		chunk.DocumentID = doc.ID
		chunk.DocumentRID = doc.RID
		chunk.SubjectID = doc.SubjectID
		chunk.UnitID = unitID
		if err := q.Chunks.InsertChunk(chunk); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert chunk %d", i), err)
		}
	}

	return len(chunks), nil
}

// Retrieve returns the top chunks serving the question spec
func (q *QuestionBank) Retrieve(ctx context.Context, spec *model.QuestionSpec) ([]*model.Chunk, error) {
	if q.Engine == nil {
		return nil, helper.NewError("retrieve", fmt.Errorf("retrieval engine not initialized"))
	}
	return q.Engine.Retrieve(ctx, spec)
}

// MarkUsed records that the given chunks appeared in generated output
func (q *QuestionBank) MarkUsed(ctx context.Context, chunkIDs []int) error {
	if q.Engine == nil {
		return helper.NewError("mark used", fmt.Errorf("retrieval engine not initialized"))
	}
	return q.Engine.MarkUsed(ctx, chunkIDs)
}

// GetDocumentChunks returns all chunks of a document in insertion order
func (q *QuestionBank) GetDocumentChunks(documentRID uuid.UUID) ([]*model.Chunk, error) {
	return q.Chunks.SelectChunksByDocument(documentRID)
}

// DeleteDocument deletes a document and, via cascade, all its chunks
func (q *QuestionBank) DeleteDocument(documentRID uuid.UUID) error {
	return q.Documents.DeleteDocument(documentRID)
}

package questionbank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavipawardottech/anticheating-sub000/core/pipeline"
	"github.com/vaishnavipawardottech/anticheating-sub000/core/retrieval"
	"github.com/vaishnavipawardottech/anticheating-sub000/helper"
	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

const testEmbeddingDim = 4

// testEmbedder creates a simple deterministic embedder for testing
func testEmbedder(dimension int) pipeline.EmbedFunc {
	return func(text string) ([]float32, error) {
		embedding := make([]float32, dimension)
		for i := 0; i < dimension; i++ {
			embedding[i] = float32((len(text)+i)%100) / 100.0
		}
		return embedding, nil
	}
}

func initQuestionBank(t *testing.T) *QuestionBank {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	q, err := NewQuestionBank(dbConfig, testEmbeddingDim, nil)
	require.NoError(t, err, "failed to create question bank")
	require.NotNil(t, q, "expected question bank to be non-nil")

	t.Cleanup(func() {
		q.Close()
	})

	return q
}

func useTestPipeline(q *QuestionBank) {
	embedder := testEmbedder(testEmbeddingDim)
	segmenter := pipeline.NewSegmenter(model.DefaultSegmenterConfig(), pipeline.BatchEmbedder(embedder, 0), nil)
	q.SetPipeline(pipeline.NewPipeline(segmenter, embedder))
}

func heading(order int, text string) model.Element {
	return model.Element{Order: order, Text: text, Type: model.ElementTypeTitle, Category: model.CategoryText}
}

func narrative(order int, text string) model.Element {
	return model.Element{Order: order, Text: text, Type: model.ElementTypeNarrativeText, Category: model.CategoryText}
}

func setsElements() []model.Element {
	return []model.Element{
		heading(0, "Unit 1: Sets"),
		narrative(1, "A set is a well defined collection of distinct objects called elements or members of the set."),
		narrative(2, "The union of two sets contains every element that appears in at least one of the two sets."),
		narrative(3, "The intersection of two sets contains exactly the elements that appear in both sets at once."),
		heading(4, "Unit 2: Relations"),
		narrative(5, "A relation between two sets is a subset of their cartesian product pairing related elements."),
		narrative(6, "An equivalence relation is reflexive, symmetric and transitive on the set it is defined over."),
	}
}

func TestNewQuestionBank(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewQuestionBank", func(t *testing.T) {
		q, err := NewQuestionBank(dbConfig, testEmbeddingDim, nil)
		require.NoError(t, err, "Expected NewQuestionBank to not return an error")
		require.NotNil(t, q, "Expected NewQuestionBank to return a non-nil instance")
		assert.NotNil(t, q.DB, "Expected question bank to have a database instance")
		assert.NotNil(t, q.Chunks, "Expected question bank to have chunks handler")
		assert.NotNil(t, q.Documents, "Expected question bank to have documents handler")
		assert.NotNil(t, q.Engine, "Expected question bank to have retrieval engine")
		assert.Nil(t, q.Pipeline, "Expected pipeline to be nil initially")

		// Cleanup
		err = q.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("QuestionBank with nil database handles Close gracefully", func(t *testing.T) {
		q := &QuestionBank{}

		err := q.Close()
		assert.NoError(t, err, "Expected Close to handle nil DB gracefully")
	})
}

func TestSetPipeline(t *testing.T) {
	q := initQuestionBank(t)

	t.Run("Set pipeline successfully", func(t *testing.T) {
		embedder := testEmbedder(testEmbeddingDim)
		segmenter := pipeline.NewSegmenter(model.DefaultSegmenterConfig(), pipeline.BatchEmbedder(embedder, 0), nil)
		p := pipeline.NewPipeline(segmenter, embedder)

		q.SetPipeline(p)

		assert.NotNil(t, q.Pipeline, "Expected pipeline to be set")
		assert.Equal(t, p, q.Pipeline, "Expected pipeline to match")
		assert.NotNil(t, q.Engine, "Expected engine to be rebuilt with the pipeline embedder")
	})

	t.Run("Set pipeline to nil", func(t *testing.T) {
		q.SetPipeline(nil)

		assert.Nil(t, q.Pipeline, "Expected pipeline to be nil")
		assert.NotNil(t, q.Engine, "Expected engine to survive without a pipeline")
	})
}

func TestIngestElements(t *testing.T) {
	q := initQuestionBank(t)
	useTestPipeline(q)

	t.Run("Ingest elements successfully", func(t *testing.T) {
		doc := model.NewDocument(201, "Discrete Mathematics", "dm.pdf", model.Metadata{"semester": "3"})

		numChunks, err := q.IngestElements(doc, 1, setsElements())

		assert.NoError(t, err, "Expected IngestElements to not return an error")
		assert.Greater(t, numChunks, 0, "Expected at least one chunk to be inserted")
		assert.NotEqual(t, "", doc.RID.String(), "Expected document RID to be set")
		assert.Greater(t, doc.ID, int64(0), "Expected document ID to be set")

		chunks, err := q.GetDocumentChunks(doc.RID)
		require.NoError(t, err, "Expected to retrieve document chunks")
		require.Len(t, chunks, numChunks, "Expected stored chunk count to match")
		for _, chunk := range chunks {
			assert.Equal(t, doc.RID, chunk.DocumentRID, "Expected chunk to be scoped to the document")
			assert.Equal(t, int64(201), chunk.SubjectID, "Expected chunk to inherit the document subject")
			assert.Equal(t, int64(1), chunk.UnitID, "Expected chunk to carry the unit scope")
			assert.NotEmpty(t, chunk.Embedding, "Expected chunk to be embedded")
		}

		// Cleanup
		q.DeleteDocument(doc.RID)
	})

	t.Run("Error when pipeline not set", func(t *testing.T) {
		qNoPipeline := initQuestionBank(t)

		doc := model.NewDocument(202, "No Pipeline", "np.pdf", nil)
		numChunks, err := qNoPipeline.IngestElements(doc, 1, setsElements())

		assert.Error(t, err, "Expected error when pipeline not set")
		assert.Equal(t, 0, numChunks, "Expected 0 chunks when error occurs")
		assert.Contains(t, err.Error(), "pipeline not set", "Expected specific error message")
	})

	t.Run("Error when elements are empty", func(t *testing.T) {
		doc := model.NewDocument(203, "Empty", "e.pdf", nil)
		numChunks, err := q.IngestElements(doc, 1, nil)

		assert.Error(t, err, "Expected error when elements are empty")
		assert.Equal(t, 0, numChunks, "Expected 0 chunks when error occurs")
		assert.Contains(t, err.Error(), "no elements", "Expected specific error message")
	})

	t.Run("Ingest preserves document metadata", func(t *testing.T) {
		doc := model.NewDocument(204, "With Metadata", "meta.pdf", model.Metadata{
			"author": "Test Author",
			"topic":  "sets",
		})

		numChunks, err := q.IngestElements(doc, 1, setsElements())
		require.NoError(t, err, "Expected IngestElements to not return an error")
		require.Greater(t, numChunks, 0, "Expected at least one chunk")

		retrieved, err := q.Documents.SelectDocument(doc.RID)
		require.NoError(t, err, "Expected to retrieve document")
		assert.Equal(t, "Test Author", retrieved.Metadata["author"], "Expected metadata to be preserved")
		assert.Equal(t, "sets", retrieved.Metadata["topic"], "Expected metadata to be preserved")

		// Cleanup
		q.DeleteDocument(doc.RID)
	})
}

func TestRetrieve(t *testing.T) {
	q := initQuestionBank(t)
	useTestPipeline(q)

	doc := model.NewDocument(301, "Discrete Mathematics", "dm.pdf", nil)
	numChunks, err := q.IngestElements(doc, 1, setsElements())
	require.NoError(t, err)
	require.Greater(t, numChunks, 0)

	ctx := context.Background()

	t.Run("Retrieve finds chunks for a matching topic", func(t *testing.T) {
		spec := &model.QuestionSpec{
			SubjectID:   301,
			Topic:       "union and intersection of sets",
			Descriptors: []string{"elements"},
		}

		results, err := q.Retrieve(ctx, spec)

		require.NoError(t, err, "Expected Retrieve to not return an error")
		require.NotEmpty(t, results, "Expected at least one chunk for a matching topic")
		assert.LessOrEqual(t, len(results), model.DefaultRetrievalConfig().TopK, "Expected at most TopK chunks")
		for _, chunk := range results {
			assert.Equal(t, int64(301), chunk.SubjectID, "Expected every chunk to belong to the requested subject")
		}
	})

	t.Run("Retrieve respects unit scope", func(t *testing.T) {
		spec := &model.QuestionSpec{
			SubjectID: 301,
			UnitIDs:   []int64{1},
			Topic:     "equivalence relation",
		}

		results, err := q.Retrieve(ctx, spec)

		require.NoError(t, err)
		for _, chunk := range results {
			assert.Equal(t, int64(1), chunk.UnitID, "Expected every chunk to belong to the requested unit")
		}
	})

	t.Run("Retrieve still returns chunks for an off-topic query", func(t *testing.T) {
		spec := &model.QuestionSpec{
			SubjectID: 301,
			Topic:     "quantum chromodynamics lattice gauge",
		}

		results, err := q.Retrieve(ctx, spec)

		require.NoError(t, err, "Expected degraded retrieval instead of an error")
		assert.NotEmpty(t, results, "Expected chunks from the subject")
	})

	t.Run("Retrieve allows reuse once the pool is exhausted", func(t *testing.T) {
		all, err := q.GetDocumentChunks(doc.RID)
		require.NoError(t, err)
		excluded := make([]int, 0, len(all))
		for _, chunk := range all {
			excluded = append(excluded, chunk.ID)
		}

		spec := &model.QuestionSpec{
			SubjectID:       301,
			Topic:           "union and intersection of sets",
			ExcludeChunkIDs: excluded,
		}

		results, err := q.Retrieve(ctx, spec)

		require.NoError(t, err, "Expected reuse instead of a dead end")
		assert.NotEmpty(t, results, "Expected previously used chunks to be served again")
	})

	t.Run("Retrieve returns ErrNoCandidates for an unknown subject", func(t *testing.T) {
		spec := &model.QuestionSpec{
			SubjectID: 99999,
			Topic:     "sets",
		}

		results, err := q.Retrieve(ctx, spec)

		assert.ErrorIs(t, err, retrieval.ErrNoCandidates, "Expected ErrNoCandidates for an empty subject")
		assert.Nil(t, results, "Expected no results for an empty subject")
	})

	// Cleanup
	q.DeleteDocument(doc.RID)
}

func TestMarkUsed(t *testing.T) {
	q := initQuestionBank(t)
	useTestPipeline(q)

	doc := model.NewDocument(401, "Usage Tracking", "ut.pdf", nil)
	numChunks, err := q.IngestElements(doc, 1, setsElements())
	require.NoError(t, err)
	require.Greater(t, numChunks, 0)

	chunks, err := q.GetDocumentChunks(doc.RID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	ctx := context.Background()

	t.Run("MarkUsed increments usage counts", func(t *testing.T) {
		ids := []int{chunks[0].ID}

		err := q.MarkUsed(ctx, ids)
		require.NoError(t, err, "Expected MarkUsed to not return an error")

		updated, err := q.Chunks.SelectChunksByIDs(ctx, ids)
		require.NoError(t, err)
		require.Len(t, updated, 1)
		assert.Equal(t, 1, updated[0].UsageCount, "Expected usage count to be incremented")
	})

	t.Run("MarkUsed with no ids is a no-op", func(t *testing.T) {
		err := q.MarkUsed(ctx, nil)
		assert.NoError(t, err, "Expected empty MarkUsed to not return an error")
	})

	// Cleanup
	q.DeleteDocument(doc.RID)
}

func TestDeleteDocument(t *testing.T) {
	q := initQuestionBank(t)
	useTestPipeline(q)

	doc := model.NewDocument(501, "To Delete", "td.pdf", nil)
	numChunks, err := q.IngestElements(doc, 1, setsElements())
	require.NoError(t, err)
	require.Greater(t, numChunks, 0)

	err = q.DeleteDocument(doc.RID)
	require.NoError(t, err, "Expected DeleteDocument to not return an error")

	chunks, err := q.GetDocumentChunks(doc.RID)
	assert.NoError(t, err, "Expected chunk lookup after delete to not return an error")
	assert.Empty(t, chunks, "Expected chunks to be removed by cascade")
}

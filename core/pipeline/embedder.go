package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"golang.org/x/sync/errgroup"

	"github.com/vaishnavipawardottech/anticheating-sub000/helper"
)

// maxEmbedInFlight bounds concurrent embedding calls to respect provider quotas
const maxEmbedInFlight = 5

// DefaultEmbedder creates an embedder using a local sentence transformer
// model. Uses the all-MiniLM-L6-v2 model which produces 384-dimensional
// embeddings.
func DefaultEmbedder() (EmbedFunc, error) {
	// Prepare model (download if needed)
	modelName := "sentence-transformers/all-MiniLM-L6-v2"
	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		return result.Embeddings[0], nil
	}, nil
}

// BatchEmbedder lifts a single-text embedder into a batch embedder with a
// bounded pool of in-flight calls. Output order matches input order.
func BatchEmbedder(embed EmbedFunc, maxInFlight int) EmbedBatchFunc {
	if maxInFlight <= 0 {
		maxInFlight = maxEmbedInFlight
	}
	return func(texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))

		var group errgroup.Group
		group.SetLimit(maxInFlight)
		for i, text := range texts {
			group.Go(func() error {
				vector, err := embed(text)
				if err != nil {
					return fmt.Errorf("embed text %d: %w", i, err)
				}
				vectors[i] = vector
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return nil, err
		}
		return vectors, nil
	}
}

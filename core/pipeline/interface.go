package pipeline

import (
	"fmt"

	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

// EmbedFunc is a function that generates an embedding for one text
type EmbedFunc func(text string) ([]float32, error)

// EmbedBatchFunc is a function that generates embeddings for a batch of
// texts, one vector per input in the same order
type EmbedBatchFunc func(texts []string) ([][]float32, error)

// Pipeline combines segmentation and embedding for document ingest
type Pipeline struct {
	Segmenter *Segmenter
	Embedder  EmbedFunc
}

// NewPipeline creates a new ingest pipeline
func NewPipeline(segmenter *Segmenter, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Segmenter: segmenter,
		Embedder:  embedder,
	}
}

// Process segments parsed elements into chunks and attaches an embedding
// to each. Segmentation itself never fails; an embedding failure aborts
// the ingest because chunks without vectors cannot serve retrieval.
func (p *Pipeline) Process(elements []model.Element) ([]*model.Chunk, error) {
	segmented := p.Segmenter.Segment(elements)

	chunks := make([]*model.Chunk, 0, len(segmented))
	for i := range segmented {
		chunk := segmented[i]
		if p.Embedder != nil {
			embedding, err := p.Embedder(chunk.Text)
			if err != nil {
				return nil, fmt.Errorf("embed chunk %d: %w", i, err)
			}
			chunk.Embedding = embedding
		}
		chunks = append(chunks, &chunk)
	}

	return chunks, nil
}

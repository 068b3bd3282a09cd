package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/vaishnavipawardottech/anticheating-sub000/core/pipeline"
	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

// ErrNoCandidates is returned when no chunk in the store can serve the
// requested spec, even after the fallback paths.
var ErrNoCandidates = errors.New("no candidate chunks available for spec")

// Engine performs hybrid retrieval: lexical and vector candidates are
// fetched concurrently, fused with reciprocal rank fusion, discounted by
// prior usage and diversified with maximal marginal relevance. Either
// search side may fail or time out; the engine degrades to the surviving
// side and falls back to a filtered random sample when both are empty.
type Engine struct {
	chunks  ChunkStore
	lexical LexicalIndex
	vector  VectorIndex
	embed   pipeline.EmbedFunc
	cfg     model.RetrievalConfig
	log     *slog.Logger
}

// NewEngine creates a retrieval engine. The embedding function is used to
// embed query text for the vector side; without it (or without a vector
// index) retrieval runs lexical-only.
func NewEngine(chunks ChunkStore, lexical LexicalIndex, vector VectorIndex, embed pipeline.EmbedFunc, cfg model.RetrievalConfig, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		chunks:  chunks,
		lexical: lexical,
		vector:  vector,
		embed:   embed,
		cfg:     cfg,
		log:     log,
	}
}

// Retrieve returns up to TopK chunks serving the question spec, most
// relevant first.
func (e *Engine) Retrieve(ctx context.Context, spec *model.QuestionSpec) ([]*model.Chunk, error) {
	filters := filtersFromSpec(spec)
	query := spec.QueryText()

	lexicalIDs, vectorIDs := e.fetchCandidates(ctx, query, filters)

	fused := fuseRanks(lexicalIDs, vectorIDs, e.cfg.RRFK, e.cfg.MaxCandidates)
	if len(fused) == 0 {
		fallbackIDs, err := e.fallbackSample(ctx, filters)
		if err != nil {
			return nil, err
		}
		fused = fuseRanks(fallbackIDs, nil, e.cfg.RRFK, e.cfg.MaxCandidates)
	}

	pool, relevance, err := e.loadPool(ctx, spec, fused)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrNoCandidates
	}

	return mmrSelect(pool, relevance, e.cfg.MMRLambda, e.cfg.TopK), nil
}

// MarkUsed records that the given chunks appeared in generated output,
// increasing their usage penalty for subsequent retrievals.
func (e *Engine) MarkUsed(ctx context.Context, chunkIDs []int) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	return e.chunks.IncrementChunkUsage(ctx, chunkIDs)
}

// fetchCandidates runs the lexical and vector searches concurrently, each
// under its own timeout. A failed or timed-out side contributes nothing.
func (e *Engine) fetchCandidates(ctx context.Context, query string, filters SearchFilters) ([]int, []int) {
	var lexicalIDs, vectorIDs []int
	var wg sync.WaitGroup

	if e.lexical != nil && query != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sideCtx, cancel := context.WithTimeout(ctx, e.cfg.SideTimeout)
			defer cancel()

			ids, err := e.lexical.SearchLexical(sideCtx, query, filters, e.cfg.MaxCandidates)
			if err != nil {
				e.log.Warn("lexical search degraded", slog.Any("error", err))
				return
			}
			lexicalIDs = ids
		}()
	}

	if e.vector != nil && e.embed != nil && query != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sideCtx, cancel := context.WithTimeout(ctx, e.cfg.SideTimeout)
			defer cancel()

			embedding, err := e.embed(query)
			if err != nil {
				e.log.Warn("query embedding degraded", slog.Any("error", err))
				return
			}
			hits, err := e.vector.SearchVector(sideCtx, embedding, filters, e.cfg.MaxCandidates)
			if err != nil {
				e.log.Warn("vector search degraded", slog.Any("error", err))
				return
			}
			for _, hit := range hits {
				if hit.Payload != nil && !payloadMatches(hit.Payload, filters) {
					continue
				}
				vectorIDs = append(vectorIDs, hit.ChunkID)
			}
		}()
	}

	wg.Wait()
	return lexicalIDs, vectorIDs
}

// fallbackSample draws a random candidate set when both search sides came
// up empty: first within the full filters, then with the exclusions lifted
// (allowing chunk reuse) before giving up. A valid subject/unit therefore
// never dead-ends just because its pool was exhausted.
func (e *Engine) fallbackSample(ctx context.Context, filters SearchFilters) ([]int, error) {
	ids, err := e.chunks.SelectChunkIDsByFilters(ctx, filters, e.cfg.MaxCandidates)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		e.log.Info("search empty, serving filtered random sample", slog.Int("candidates", len(ids)))
		return ids, nil
	}

	if len(filters.ExcludeIDs) > 0 {
		reusable := filters
		reusable.ExcludeIDs = nil
		ids, err = e.chunks.SelectChunkIDsByFilters(ctx, reusable, e.cfg.MaxCandidates)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			e.log.Info("pool exhausted, allowing chunk reuse", slog.Int("candidates", len(ids)))
			return ids, nil
		}
	}

	return nil, ErrNoCandidates
}

// loadPool fetches the fused candidates, re-checks them against the spec
// and computes usage-discounted relevance. The returned pool is sorted by
// relevance, ties keeping fused order.
func (e *Engine) loadPool(ctx context.Context, spec *model.QuestionSpec, fused []fusedCandidate) ([]*model.Chunk, map[int]float64, error) {
	if len(fused) == 0 {
		return nil, nil, nil
	}

	ids := make([]int, len(fused))
	fusedScores := make(map[int]float64, len(fused))
	for i, c := range fused {
		ids[i] = c.id
		fusedScores[c.id] = c.score
	}

	chunks, err := e.chunks.SelectChunksByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[int]*model.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.ID] = chunk
	}

	pool := make([]*model.Chunk, 0, len(fused))
	relevance := make(map[int]float64, len(fused))
	for _, c := range fused {
		chunk, ok := byID[c.id]
		if !ok || !specAllows(spec, chunk) {
			continue
		}
		score := usageAdjusted(c.score, chunk.UsageCount, e.cfg.UsagePenalty)
		chunk.Similarity = score
		relevance[chunk.ID] = score
		pool = append(pool, chunk)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return relevance[pool[i].ID] > relevance[pool[j].ID]
	})
	return pool, relevance, nil
}

func filtersFromSpec(spec *model.QuestionSpec) SearchFilters {
	return SearchFilters{
		SubjectID:      spec.SubjectID,
		UnitIDs:        spec.UnitIDs,
		CognitiveLevel: spec.CognitiveLevel,
		Difficulty:     spec.Difficulty,
		ExcludeIDs:     spec.ExcludeChunkIDs,
	}
}

// specAllows re-checks a fetched chunk against the spec. Store-side
// filtering is trusted but not assumed.
func specAllows(spec *model.QuestionSpec, chunk *model.Chunk) bool {
	if spec.SubjectID != 0 && chunk.SubjectID != spec.SubjectID {
		return false
	}
	if !spec.AllowsUnit(chunk.UnitID) {
		return false
	}
	if chunk.CognitiveLevel != 0 && !spec.CognitiveLevel.Contains(chunk.CognitiveLevel) {
		return false
	}
	if spec.Difficulty != 0 && chunk.Difficulty != 0 && chunk.Difficulty != spec.Difficulty {
		return false
	}
	return true
}

// payloadMatches applies the same re-check to a vector hit payload
func payloadMatches(payload *model.Chunk, filters SearchFilters) bool {
	if filters.SubjectID != 0 && payload.SubjectID != filters.SubjectID {
		return false
	}
	if len(filters.UnitIDs) > 0 {
		found := false
		for _, id := range filters.UnitIDs {
			if id == payload.UnitID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if payload.CognitiveLevel != 0 && !filters.CognitiveLevel.Contains(payload.CognitiveLevel) {
		return false
	}
	return true
}

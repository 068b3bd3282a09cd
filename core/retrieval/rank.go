package retrieval

import (
	"math"
	"sort"

	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

// fusedCandidate is one chunk after reciprocal rank fusion
type fusedCandidate struct {
	id    int
	score float64
}

// fuseRanks merges ranked ID lists with reciprocal rank fusion: each
// appearance at 1-based rank r contributes 1/(k+r) to the chunk's fused
// score. Ties keep first-seen order across the lists, lexical side first.
func fuseRanks(lexical, vector []int, k float64, limit int) []fusedCandidate {
	scores := make(map[int]float64)
	var order []int

	accumulate := func(ids []int) {
		for rank, id := range ids {
			if _, seen := scores[id]; !seen {
				order = append(order, id)
			}
			scores[id] += 1.0 / (k + float64(rank+1))
		}
	}
	accumulate(lexical)
	accumulate(vector)

	fused := make([]fusedCandidate, 0, len(order))
	for _, id := range order {
		fused = append(fused, fusedCandidate{id: id, score: scores[id]})
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].score > fused[j].score
	})

	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}

// usageAdjusted discounts a fused score for every prior exposure of the
// chunk, steering selection toward fresh material
func usageAdjusted(score float64, usageCount int, penalty float64) float64 {
	if usageCount <= 0 {
		return score
	}
	return score * math.Pow(penalty, float64(usageCount))
}

// mmrSelect picks up to topK chunks by maximal marginal relevance:
// lambda weights query relevance against the highest similarity to an
// already selected chunk. The pool must arrive sorted by relevance; a
// pool no larger than topK is returned unchanged.
func mmrSelect(pool []*model.Chunk, relevance map[int]float64, lambda float64, topK int) []*model.Chunk {
	if len(pool) <= topK {
		return pool
	}

	remaining := make([]*model.Chunk, len(pool))
	copy(remaining, pool)
	selected := make([]*model.Chunk, 0, topK)

	for len(selected) < topK && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, candidate := range remaining {
			redundancy := 0.0
			for _, s := range selected {
				if sim := float64(cosineSimilarity(candidate.Embedding, s.Embedding)); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance[candidate.ID] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// cosineSimilarity calculates the cosine similarity between two embedding
// vectors. Mismatched dimensions or a zero-norm vector yield 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

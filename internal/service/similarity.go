package service

import (
	"math"
	"sort"

	"github.com/ragvault/ragvault/internal/model"
)

const similarityEpsilon = 1e-6

// cosineSimilarity scores vector closeness in roughly [-1, 1]. Mismatched or
// empty vectors score 0 instead of erroring, a bad embedding should lose the
// ranking, not kill the request.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	return float32(dot / (math.Sqrt(normA)*math.Sqrt(normB) + similarityEpsilon))
}

// rankTopK returns the k best-scoring chunks in descending score order. The
// sort is stable: equal scores keep their original relative order.
func rankTopK(query []float32, chunks []model.DocumentChunk, k int) []model.DocumentChunk {
	type scored struct {
		chunk model.DocumentChunk
		score float32
	}
	items := make([]scored, 0, len(chunks))
	for _, chunk := range chunks {
		items = append(items, scored{chunk: chunk, score: cosineSimilarity(query, chunk.Embedding)})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})
	if k > len(items) {
		k = len(items)
	}
	result := make([]model.DocumentChunk, 0, k)
	for i := 0; i < k; i++ {
		result = append(result, items[i].chunk)
	}
	return result
}

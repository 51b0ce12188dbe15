package service

import (
	"math"
	"sort"

	"bimquery/internal/model"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// It is 0 when either vector has zero magnitude or dimensions differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopKByCosine ranks the partition's stored vectors against the query
// embedding and returns the element IDs of the top k, sorted by
// non-increasing similarity. Partitions are bounded (low thousands of
// rows), so a full linear scan per request is acceptable. Ties keep the
// original row order.
func TopKByCosine(query []float32, vectors []model.ElementVector, k int) []int64 {
	if len(query) == 0 || len(vectors) == 0 || k <= 0 {
		return nil
	}

	type scored struct {
		id    int64
		score float64
	}
	ranked := make([]scored, 0, len(vectors))
	for _, v := range vectors {
		ranked = append(ranked, scored{
			id:    v.ElementID,
			score: CosineSimilarity(query, v.Embedding.Slice()),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	ids := make([]int64, k)
	for i := 0; i < k; i++ {
		ids[i] = ranked[i].id
	}
	return ids
}

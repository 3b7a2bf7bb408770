package services

import (
	"math"
	"sort"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/pkg/utils"
)

// RRFConstant damps the contribution of top ranks in reciprocal rank fusion
const RRFConstant = 60

// ReciprocalRankFusion merges ranked lists. Each occurrence of a document at
// 0-based rank r adds 1/(r+k) to its score. Documents are identified by
// Document.Key and returned by descending score; ties keep first-seen order.
func ReciprocalRankFusion(lists [][]entities.Document, k int) []entities.FusedDocument {
	scores := make(map[string]float64)
	docs := make(map[string]entities.Document)
	var order []string

	for _, list := range lists {
		for rank, doc := range list {
			key := doc.Key()
			if _, seen := docs[key]; !seen {
				docs[key] = doc
				order = append(order, key)
			}
			scores[key] += 1.0 / float64(rank+k)
		}
	}

	fused := make([]entities.FusedDocument, len(order))
	for i, key := range order {
		fused[i] = entities.FusedDocument{Document: docs[key], Score: scores[key]}
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}

// MaxMarginalRelevance picks k candidates that balance similarity to the query
// against similarity to the documents already picked. lambda 1 is pure
// relevance, 0 pure diversity.
func MaxMarginalRelevance(query []float32, candidates []entities.ScoredDocument, k int, lambda float64) []entities.Document {
	if k <= 0 || len(candidates) == 0 {
		return []entities.Document{}
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = utils.CosineSimilarity(query, c.Embedding)
	}

	selected := make([]int, 0, k)
	used := make([]bool, len(candidates))
	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			if len(selected) > 0 {
				redundancy = math.Inf(-1)
			}
			for _, j := range selected {
				if sim := utils.CosineSimilarity(candidates[i].Embedding, candidates[j].Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		selected = append(selected, best)
	}

	out := make([]entities.Document, len(selected))
	for i, idx := range selected {
		out[i] = candidates[idx].Document
	}
	return out
}

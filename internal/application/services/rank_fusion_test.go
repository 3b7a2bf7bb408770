package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/application/services"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

var (
	docA = entities.Document{Content: "A", Metadata: map[string]any{"source": "a.md"}}
	docB = entities.Document{Content: "B"}
	docC = entities.Document{Content: "C"}
)

func TestReciprocalRankFusion_SwappedListsTie(t *testing.T) {
	fused := services.ReciprocalRankFusion([][]entities.Document{{docA, docB}, {docB, docA}}, services.RRFConstant)

	require.Len(t, fused, 2)
	want := 1.0/60 + 1.0/61
	assert.InDelta(t, want, fused[0].Score, 1e-9)
	assert.InDelta(t, want, fused[1].Score, 1e-9)
	assert.Equal(t, "A", fused[0].Document.Content)
}

func TestReciprocalRankFusion_SingleListDocumentsRankLower(t *testing.T) {
	fused := services.ReciprocalRankFusion([][]entities.Document{{docA, docB, docC}, {docB, docA}}, services.RRFConstant)

	require.Len(t, fused, 3)
	assert.Equal(t, "C", fused[2].Document.Content)
	assert.InDelta(t, 1.0/62, fused[2].Score, 1e-9)
	assert.Less(t, fused[2].Score, fused[1].Score)
}

func TestReciprocalRankFusion_DedupesByStructure(t *testing.T) {
	copyOfA := entities.Document{Content: "A", Metadata: map[string]any{"source": "a.md"}}
	otherA := entities.Document{Content: "A", Metadata: map[string]any{"source": "b.md"}}

	fused := services.ReciprocalRankFusion([][]entities.Document{{docA}, {copyOfA}, {otherA}}, services.RRFConstant)

	require.Len(t, fused, 2)
	assert.InDelta(t, 2.0/60, fused[0].Score, 1e-9)
}

func TestReciprocalRankFusion_Empty(t *testing.T) {
	assert.Empty(t, services.ReciprocalRankFusion(nil, services.RRFConstant))
}

func TestMaxMarginalRelevance_PrefersDiverseSecondPick(t *testing.T) {
	candidates := []entities.ScoredDocument{
		{Document: entities.Document{ID: "a"}, Embedding: []float32{1, 0}},
		{Document: entities.Document{ID: "a-dup"}, Embedding: []float32{1, 0}},
		{Document: entities.Document{ID: "b"}, Embedding: []float32{0.7, 0.7}},
	}

	picked := services.MaxMarginalRelevance([]float32{1, 0.1}, candidates, 2, 0.5)

	require.Len(t, picked, 2)
	assert.Equal(t, "a", picked[0].ID)
	assert.Equal(t, "b", picked[1].ID)
}

func TestMaxMarginalRelevance_LambdaOneIsRelevanceOrder(t *testing.T) {
	candidates := []entities.ScoredDocument{
		{Document: entities.Document{ID: "far"}, Embedding: []float32{0, 1}},
		{Document: entities.Document{ID: "near"}, Embedding: []float32{1, 0}},
		{Document: entities.Document{ID: "mid"}, Embedding: []float32{1, 1}},
	}

	picked := services.MaxMarginalRelevance([]float32{1, 0}, candidates, 5, 1)

	require.Len(t, picked, 3)
	assert.Equal(t, []string{"near", "mid", "far"}, []string{picked[0].ID, picked[1].ID, picked[2].ID})
}

func TestMaxMarginalRelevance_NoCandidates(t *testing.T) {
	assert.Empty(t, services.MaxMarginalRelevance([]float32{1}, nil, 10, 0.5))
}

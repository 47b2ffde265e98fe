package recommend

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_OrderAndAverage(t *testing.T) {
	t.Parallel()

	recs := []Recommendation{
		{CarrierID: "sentinel", CarrierName: "Sentinel", FitScore: 45},
		{CarrierID: "acme", CarrierName: "Acme", FitScore: 88},
	}
	resp := Rank(recs, 10, 2)

	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "acme", resp.Recommendations[0].CarrierID)
	assert.Equal(t, "sentinel", resp.Recommendations[1].CarrierID)
	assert.Equal(t, 67, resp.Summary.AverageFit)
	assert.Equal(t, "acme", resp.Summary.TopCarrierID)
	assert.Equal(t, 2, resp.Summary.TotalCarriersEvaluated)
	assert.Equal(t, EstimatePremium(67).Monthly, resp.Summary.SuggestedPremium.Monthly)
	assert.Contains(t, resp.Summary.SuggestedPremium.Narrative, "$1,530")

	assert.Equal(t, "sentinel", recs[0].CarrierID, "input must not be reordered")
}

func TestRank_TruncatesAndKeepsTiesStable(t *testing.T) {
	t.Parallel()

	var recs []Recommendation
	for i := range 14 {
		recs = append(recs, Recommendation{CarrierID: "c" + strconv.Itoa(i), FitScore: 70})
	}
	recs = append(recs, Recommendation{CarrierID: "best", FitScore: 99})

	resp := Rank(recs, 10, len(recs))
	require.Len(t, resp.Recommendations, 10)
	assert.Equal(t, "best", resp.Recommendations[0].CarrierID)
	assert.Equal(t, "c0", resp.Recommendations[1].CarrierID)
	assert.Equal(t, "c8", resp.Recommendations[9].CarrierID)
	assert.Equal(t, 15, resp.Summary.TotalCarriersEvaluated)
}

func TestRank_Empty(t *testing.T) {
	t.Parallel()

	resp := Rank(nil, 10, 0)
	assert.NotNil(t, resp.Recommendations)
	assert.Empty(t, resp.Recommendations)
	assert.Equal(t, NoCarrier, resp.Summary.TopCarrierID)
	assert.Zero(t, resp.Summary.AverageFit)
	assert.Zero(t, resp.Summary.TotalCarriersEvaluated)
	assert.NotEmpty(t, resp.Summary.SuggestedPremium.Narrative)
}

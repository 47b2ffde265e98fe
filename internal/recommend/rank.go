package recommend

import (
	"math"
	"sort"
)

// NoCarrier is the topCarrierId of an empty response.
const NoCarrier = "none"

// Rank sorts recs by fit score, best first, keeps at most maxResults and
// computes the summary. evaluated is the number of carrier groups that
// were assessed.
func Rank(recs []Recommendation, maxResults, evaluated int) *Response {
	sorted := make([]Recommendation, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FitScore > sorted[j].FitScore
	})
	if maxResults > 0 && len(sorted) > maxResults {
		sorted = sorted[:maxResults]
	}

	resp := &Response{
		Recommendations: sorted,
		Summary: Summary{
			TopCarrierID:           NoCarrier,
			TotalCarriersEvaluated: evaluated,
			SuggestedPremium: SuggestedPremium{
				Narrative: "No carrier guidelines matched this client profile, so no premium can be suggested.",
			},
		},
	}
	if len(sorted) == 0 {
		return resp
	}

	total := 0
	for _, r := range sorted {
		total += r.FitScore
	}
	avg := int(math.Round(float64(total) / float64(len(sorted))))
	p := EstimatePremium(avg)
	resp.Summary.AverageFit = avg
	resp.Summary.TopCarrierID = sorted[0].CarrierID
	resp.Summary.SuggestedPremium = SuggestedPremium{
		Monthly: p.Monthly,
		Annual:  p.Annual,
		Narrative: money("With an average carrier fit of %d%%, budget roughly $%d per month ($%d per year). %s is the strongest match.",
			avg, p.Monthly, p.Annual, sorted[0].CarrierName),
	}
	return resp
}

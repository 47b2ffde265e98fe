package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/54b3r/carrierfit/internal/budget"
	"github.com/54b3r/carrierfit/internal/carrier"
)

const (
	defaultConfidence = 70
	snippetChars      = 200
)

// ClampScore rounds f and clamps it to [0,100]. NaN maps to 0.
func ClampScore(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(f))))
}

// ConfidenceLabel maps a numeric confidence to its label.
func ConfidenceLabel(score int) Confidence {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// EstimatePremium applies the affine fit-to-premium heuristic.
func EstimatePremium(fit int) Premium {
	monthly := int(math.Round(1200 + float64(100-fit)*10))
	return Premium{Monthly: monthly, Annual: monthly * 12}
}

// Normalize turns a parsed analysis of group g into a Recommendation.
func Normalize(g Group, a Analysis) Recommendation {
	fit := ClampScore(a.FitPct)
	conf := defaultConfidence
	if a.HasConfidence {
		conf = ClampScore(a.Confidence)
	}

	reasons := nonNil(a.Reasons)
	summary := a.Summary
	if summary == "" {
		if len(reasons) > 0 {
			summary = reasons[0]
		} else {
			summary = fmt.Sprintf("%s scored %d/100 against the retrieved guidelines.", carrier.Name(g.CarrierID), fit)
		}
	}

	return Recommendation{
		CarrierID:   g.CarrierID,
		CarrierName: carrier.Name(g.CarrierID),
		FitScore:    fit,
		Reasoning: Reasoning{
			Pros:    reasons,
			Cons:    nonNil(a.Advisories),
			Summary: summary,
		},
		EstimatedPremium: EstimatePremium(fit),
		Confidence:       ConfidenceLabel(conf),
		Citations:        citations(g, a.Citations),
		Product:          a.Product,
		UnderwritingPath: a.UnderwritingPath,
		AnalysisSource:   a.Source,
	}
}

// citations keeps the parsed citations when present and falls back to the
// group's top chunk otherwise. The result is never empty.
func citations(g Group, parsed []Citation) []Citation {
	top := g.Top
	var out []Citation
	for _, c := range parsed {
		if strings.TrimSpace(c.Snippet) == "" {
			continue
		}
		if c.DocumentTitle == "" {
			c.DocumentTitle = top.Metadata.SourceKey
		}
		out = append(out, c)
	}
	if len(out) > 0 {
		return out
	}
	return []Citation{{
		Snippet:       budget.Truncate(top.Metadata.Text, snippetChars),
		DocumentTitle: top.Metadata.SourceKey,
		Score:         float64(top.Score),
	}}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

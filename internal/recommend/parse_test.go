package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Parallel()

	raw := "Here is my assessment:\n```json\n" + `{
  "fitPct": 88,
  "reasons": ["Preferred build", "No nicotine in 5 years", "Coverage within jumbo limits"],
  "advisories": ["APS required over age 50"],
  "confidence": 84,
  "product": "Acme IUL Plus",
  "underwritingPath": "accelerated",
  "citations": [{"snippet": "Preferred Plus: no nicotine 5 years", "documentTitle": "acme-iul.pdf", "score": 0.91}]
}` + "\n```\nLet me know if you need more."

	a, err := ParseJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, SourceModel, a.Source)
	assert.Equal(t, 88.0, a.FitPct)
	assert.Len(t, a.Reasons, 3)
	assert.Equal(t, []string{"APS required over age 50"}, a.Advisories)
	assert.True(t, a.HasConfidence)
	assert.Equal(t, 84.0, a.Confidence)
	assert.Equal(t, "Acme IUL Plus", a.Product)
	assert.Equal(t, "accelerated", a.UnderwritingPath)
	require.Len(t, a.Citations, 1)
	assert.Equal(t, "acme-iul.pdf", a.Citations[0].DocumentTitle)
	assert.InDelta(t, 0.91, a.Citations[0].Score, 1e-9)
}

func TestParseJSON_Repairs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantFit float64
		wantLen int
	}{
		{
			name:    "trailing commas and bare keys",
			raw:     `{fitPct: 80, reasons: ["a", "b",], confidence: 85,}`,
			wantFit: 80,
			wantLen: 2,
		},
		{
			name:    "percent string",
			raw:     `{"fitPct": "85%", "reasons": ["ok"]}`,
			wantFit: 85,
			wantLen: 1,
		},
		{
			name:    "snake case alias",
			raw:     `{"fit_pct": 61, "reasons": []}`,
			wantFit: 61,
			wantLen: 0,
		},
		{
			name:    "braces inside strings",
			raw:     `prefix {"fitPct": 70, "reasons": ["uses {brackets} and \"quotes\""]} trailing }`,
			wantFit: 70,
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := ParseJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFit, a.FitPct)
			assert.Len(t, a.Reasons, tt.wantLen)
		})
	}
}

func TestParseJSON_CommaInsideStringSurvives(t *testing.T) {
	t.Parallel()
	a, err := ParseJSON(`{"fitPct": 66, "reasons": ["build, then tobacco",],}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"build, then tobacco"}, a.Reasons)
}

func TestParseJSON_Failures(t *testing.T) {
	t.Parallel()

	_, err := ParseJSON("I cannot assess this carrier.")
	assert.ErrorIs(t, err, ErrNoObject)

	_, err = ParseJSON(`{"fitPct": 70`)
	assert.ErrorIs(t, err, ErrNoObject)

	_, err = ParseJSON(`{"reasons": ["no score given"]}`)
	assert.ErrorIs(t, err, ErrNoFit)

	_, err = ParseJSON(`{"fitPct": "high"}`)
	assert.ErrorIs(t, err, ErrNoFit)

	_, err = ParseJSON(`{"fitPct": 72, "reasons": ["a" "b"]}`)
	assert.Error(t, err)
}

func TestParseFields(t *testing.T) {
	t.Parallel()

	raw := `{"fitPct": 72, "reasons": ["Stable build" "Non-smoker"], "advisories": ["Needs APS"], confidence: 65, "product": "Term 20", "underwriting_path": "full"}`
	a, err := ParseFields(raw)
	require.NoError(t, err)
	assert.Equal(t, SourceExtracted, a.Source)
	assert.Equal(t, 72.0, a.FitPct)
	assert.Equal(t, []string{"Stable build", "Non-smoker"}, a.Reasons)
	assert.Equal(t, []string{"Needs APS"}, a.Advisories)
	assert.True(t, a.HasConfidence)
	assert.Equal(t, 65.0, a.Confidence)
	assert.Equal(t, "Term 20", a.Product)
	assert.Equal(t, "full", a.UnderwritingPath)

	_, err = ParseFields("The client looks like a decent fit overall.")
	assert.ErrorIs(t, err, ErrNoFit)
}

func TestHeuristic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float32
		want  float64
	}{
		{0.91, 91},
		{0.42, 60},
		{0.6, 60},
		{-0.5, 60},
		{1.7, 100},
	}
	for _, tt := range tests {
		a := Heuristic(tt.score)
		assert.Equal(t, tt.want, a.FitPct, "score %v", tt.score)
		assert.Equal(t, SourceHeuristic, a.Source)
		assert.Equal(t, 70.0, a.Confidence)
		assert.NotEmpty(t, a.Reasons)
		assert.Empty(t, a.Advisories)
	}
}

func TestAnalyze_TierOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SourceModel, Analyze(`{"fitPct": 50}`, 0.9).Source)
	assert.Equal(t, SourceExtracted, Analyze(`fitPct = 55; reasons: ["x"]`, 0.9).Source)

	a := Analyze("<<garbage>>", 0.77)
	assert.Equal(t, SourceHeuristic, a.Source)
	assert.Equal(t, 77.0, a.FitPct)

	assert.Equal(t, SourceHeuristic, Analyze("", 0.5).Source)
}

func TestStrategies_Order(t *testing.T) {
	t.Parallel()
	s := Strategies(0.5)
	require.Len(t, s, 3)
	assert.Equal(t, []AnalysisSource{SourceModel, SourceExtracted, SourceHeuristic},
		[]AnalysisSource{s[0].Source, s[1].Source, s[2].Source})

	_, err := s[2].Parse("anything")
	assert.NoError(t, err)
}

func TestScoreClampedAcrossTiers(t *testing.T) {
	t.Parallel()

	g := Group{CarrierID: "acme", Top: match("acme", "acme.pdf", "text", 0.9)}
	g.Matches = append(g.Matches, g.Top)

	raws := []string{
		`{"fitPct": 150}`,
		`{"fitPct": -20}`,
		`{"fitPct": "250%"}`,
		`fit_pct = 140`,
		`fitPct: -3`,
		`not parseable at all`,
	}
	for _, raw := range raws {
		rec := Normalize(g, Analyze(raw, g.Top.Score))
		assert.GreaterOrEqual(t, rec.FitScore, 0, raw)
		assert.LessOrEqual(t, rec.FitScore, 100, raw)
	}
	assert.Equal(t, 100, Normalize(g, Analyze(`{"fitPct": 150}`, 0.9)).FitScore)
	assert.Equal(t, 0, Normalize(g, Analyze(`{"fitPct": -20}`, 0.9)).FitScore)
}

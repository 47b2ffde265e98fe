package recommend

// ClientProfile is the structured intake answers for one recommendation
// request. Every field is optional; missing values are rendered with
// conservative defaults.
type ClientProfile struct {
	Age            int      `json:"age,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	State          string   `json:"state,omitempty"`
	Height         string   `json:"height,omitempty"`
	WeightLbs      int      `json:"weight,omitempty"`
	HealthStatus   string   `json:"healthStatus,omitempty"`
	Occupation     string   `json:"occupation,omitempty"`
	AnnualIncome   int      `json:"income,omitempty"`
	Nicotine       string   `json:"nicotine,omitempty"`
	Marijuana      string   `json:"marijuana,omitempty"`
	Cardiac        string   `json:"cardiac,omitempty"`
	Diabetes       string   `json:"diabetes,omitempty"`
	Cancer         string   `json:"cancer,omitempty"`
	DUI            string   `json:"dui,omitempty"`
	RiskActivities []string `json:"riskActivities,omitempty"`
	CoverageAmount int      `json:"coverageAmount,omitempty"`
	CoverageType   string   `json:"coverageType,omitempty"`
	TermYears      int      `json:"termYears,omitempty"`
}

// AnalysisSource records which parse tier produced a recommendation.
type AnalysisSource string

const (
	// SourceModel is a well-formed (possibly repaired) JSON object.
	SourceModel AnalysisSource = "model"
	// SourceExtracted is field-by-field extraction from malformed output.
	SourceExtracted AnalysisSource = "extracted"
	// SourceHeuristic is the evidence-only fallback.
	SourceHeuristic AnalysisSource = "heuristic"
)

// Confidence is the three-level confidence label.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Reasoning explains a fit score.
type Reasoning struct {
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
	Summary string   `json:"summary"`
}

// Premium is an estimated premium in whole dollars.
type Premium struct {
	Monthly int `json:"monthly"`
	Annual  int `json:"annual"`
}

// Citation points at the guideline evidence behind a recommendation.
type Citation struct {
	Snippet       string  `json:"snippet"`
	DocumentTitle string  `json:"documentTitle"`
	Score         float64 `json:"score"`
}

// Recommendation is the per-carrier result.
type Recommendation struct {
	CarrierID        string         `json:"carrierId"`
	CarrierName      string         `json:"carrierName"`
	FitScore         int            `json:"fitScore"`
	Reasoning        Reasoning      `json:"reasoning"`
	EstimatedPremium Premium        `json:"estimatedPremium"`
	Confidence       Confidence     `json:"confidence"`
	Citations        []Citation     `json:"citations"`
	Product          string         `json:"product,omitempty"`
	UnderwritingPath string         `json:"underwritingPath,omitempty"`
	AnalysisSource   AnalysisSource `json:"analysisSource"`
}

// SuggestedPremium is the aggregate premium guidance of a response.
type SuggestedPremium struct {
	Monthly   int    `json:"monthly"`
	Annual    int    `json:"annual"`
	Narrative string `json:"narrative"`
}

// Summary aggregates the ranked recommendations.
type Summary struct {
	AverageFit             int              `json:"averageFit"`
	TopCarrierID           string           `json:"topCarrierId"`
	TotalCarriersEvaluated int              `json:"totalCarriersEvaluated"`
	SuggestedPremium       SuggestedPremium `json:"suggestedPremium"`
}

// Response is the result of one recommendation request.
type Response struct {
	Recommendations []Recommendation `json:"recommendations"`
	Summary         Summary          `json:"summary"`
}

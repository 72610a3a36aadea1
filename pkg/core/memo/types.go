// Package memo implements the Analyst (C7): a single-persona LLM call
// that turns an SVI + ValuationResult into a structured InvestmentMemo,
// never re-deriving numbers the numeric engine already computed.
package memo

import "time"

// MoatType tags one durable-competitive-advantage claim.
type MoatType string

const (
	MoatNetworkEffect    MoatType = "network_effect"
	MoatSwitchingCosts   MoatType = "switching_costs"
	MoatCostAdvantage    MoatType = "cost_advantage"
	MoatIntangibleAssets MoatType = "intangible_assets"
	MoatEfficientScale   MoatType = "efficient_scale"
	MoatNone             MoatType = "none"
)

// Moat is one claimed competitive advantage with supporting evidence.
type Moat struct {
	Type       MoatType `json:"type"`
	Evidence   string   `json:"evidence"`
	Confidence float64  `json:"confidence"` // in [0,1]
}

// ManagementAssessment scores the quality of the management team.
type ManagementAssessment struct {
	IntegrityScore int    `json:"integrity_score"` // 1-10
	OwnerOriented  bool   `json:"owner_oriented"`
	Notes          string `json:"notes"`
}

// RiskSeverity and RiskLevel are bounded enums the model must pick from.
type RiskSeverity string

const (
	RiskSeverityLow      RiskSeverity = "low"
	RiskSeverityModerate RiskSeverity = "moderate"
	RiskSeverityHigh     RiskSeverity = "high"
)

// RiskFactor is one identified investment risk.
type RiskFactor struct {
	Category    string       `json:"category"`
	Severity    RiskSeverity `json:"severity"`
	Probability float64      `json:"probability"` // in [0,1]
	Mitigation  string       `json:"mitigation,omitempty"`
}

// Rating is the analyst's final qualitative call.
type Rating string

const (
	RatingStrongBuy Rating = "strong_buy"
	RatingBuy       Rating = "buy"
	RatingHold      Rating = "hold"
	RatingSell      Rating = "sell"
	RatingStrongSell Rating = "strong_sell"
)

// RiskLevel is the overall position risk level.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelModerate RiskLevel = "moderate"
	RiskLevelHigh     RiskLevel = "high"
)

// InvestmentMemo is the structured qualitative output of the Analyst.
type InvestmentMemo struct {
	Ticker         string   `json:"ticker"`
	ThesisSentence string   `json:"thesis_sentence"`
	ThesisProse    string   `json:"thesis_prose"`
	Moats          []Moat   `json:"moats"`
	Management     ManagementAssessment `json:"management"`
	RiskFactors    []RiskFactor `json:"risk_factors"`
	Positives      []string `json:"positives"`
	Concerns       []string `json:"concerns"`
	Catalysts      []string `json:"catalysts"`
	FinalRating    Rating   `json:"final_rating"`
	Conviction     float64  `json:"conviction"` // in [0,1]
	RiskLevel      RiskLevel `json:"risk_level"`
	HoldingPeriod  string   `json:"holding_period"`
	ClosingQuote   string   `json:"closing_quote"`
	Remarks        string   `json:"remarks"`

	GeneratedAt  time.Time `json:"generated_at"`
	ModelVersion string    `json:"model_version"`
}

package valuation

import (
	"time"

	"github.com/google/uuid"
)

// ScenarioName identifies one of the three fixed DCF scenarios.
type ScenarioName string

const (
	ScenarioConservative ScenarioName = "conservative"
	ScenarioBase         ScenarioName = "base"
	ScenarioOptimistic   ScenarioName = "optimistic"
)

// ScenarioWeights are the fixed probability weights assigned to each
// scenario when computing the weighted intrinsic value.
var ScenarioWeights = map[ScenarioName]float64{
	ScenarioConservative: 0.25,
	ScenarioBase:         0.50,
	ScenarioOptimistic:   0.25,
}

// ScenarioResult is one scenario's DCF outcome. It is nil-able at the
// ValuationResult level: a scenario that aborts on NumericOverflow is
// dropped, not zero-filled, so the composite can renormalize the
// remaining weights instead of silently treating a failure as a $0
// intrinsic value.
type ScenarioResult struct {
	Name                ScenarioName
	InitialGrowthRate   float64
	TerminalGrowthRate  float64 // reflects the safety clamp if applied
	Margin              float64
	ProjectedRevenue    [5]float64
	ProjectedFCF        [5]float64
	PVExplicit          float64
	PVTerminal          float64
	EnterpriseValue     float64
	EquityValue         float64
	IntrinsicValuePerShare float64
	UpsidePct           float64
}

// DCFSensitivity holds the base-scenario re-runs at WACC +/- 1pp.
// Growth sensitivity is reserved: Growth is always an empty map.
type DCFSensitivity struct {
	WACCMinus1pp float64
	WACCPlus1pp  float64
	Growth       map[string]float64
}

// DCFBlock is the full DCF section of a ValuationResult.
type DCFBlock struct {
	WACC       WACCResult
	Scenarios  []ScenarioResult // only the scenarios that survived NumericOverflow
	WeightedIV float64
	Sensitivity DCFSensitivity
}

// GrahamScreenCriterion is one of the seven defensive-screen checks.
type GrahamScreenCriterion struct {
	Name    string
	Value   string // human-readable actual value, e.g. "pe=12.40"
	Passed  bool
	Estimated bool // true when a fallback heuristic produced Value (e.g. dividend record)
}

// GrahamBlock is the full Graham section of a ValuationResult.
type GrahamBlock struct {
	BVPS           float64
	GrahamNumber   float64
	UpsidePct      float64
	Criteria       []GrahamScreenCriterion
	CriteriaPassed int
	PassesScreen   bool
}

// Verdict is the final qualitative banding of upside.
type Verdict string

const (
	VerdictSignificantlyUndervalued Verdict = "significantly_undervalued"
	VerdictUndervalued              Verdict = "undervalued"
	VerdictFairlyValued             Verdict = "fairly_valued"
	VerdictOvervalued               Verdict = "overvalued"
	VerdictSignificantlyOvervalued  Verdict = "significantly_overvalued"
)

// ValuationResult is the immutable, timestamped output of one
// valuation(ticker) run: the DCF block, the Graham block, and their
// composite blend.
type ValuationResult struct {
	Ticker    string
	RequestID uuid.UUID
	TickerFingerprint string
	CalculatedAt time.Time

	DCF    DCFBlock
	Graham GrahamBlock

	CompositeIV     float64
	UpsidePct       float64
	MarginOfSafety  float64
	Verdict         Verdict

	ConfidenceScore float64
	DataQualityScore float64

	DataAnomalies []string
}

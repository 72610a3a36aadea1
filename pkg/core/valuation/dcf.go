package valuation

import (
	"fmt"
	"math"

	"hybridvalcore/pkg/core/coreerrors"
	"hybridvalcore/pkg/core/svi"
)

// explicitYears is the length of the explicit projection window before
// the Gordon Growth terminal value takes over.
const explicitYears = 5

// scenarioParams are the three fixed-formula scenario definitions,
// derived from the SVI's historical growth and operating margin.
type scenarioParams struct {
	name           ScenarioName
	initialGrowth  float64
	terminalGrowth float64
	margin         float64
}

func buildScenarioParams(s *svi.SVI) [3]scenarioParams {
	gHist := 0.05
	if s.RevenueGrowth5yCAGR != nil {
		gHist = *s.RevenueGrowth5yCAGR
	}
	m := s.OperatingMargin

	return [3]scenarioParams{
		{
			name:           ScenarioConservative,
			initialGrowth:  math.Max(0.02, 0.5*gHist),
			terminalGrowth: 0.020,
			margin:         0.85 * m,
		},
		{
			name:           ScenarioBase,
			initialGrowth:  gHist,
			terminalGrowth: 0.025,
			margin:         m,
		},
		{
			name:           ScenarioOptimistic,
			initialGrowth:  math.Min(0.25, 1.5*gHist),
			terminalGrowth: 0.030,
			margin:         math.Min(1.15*m, 0.35),
		},
	}
}

// RunDCF computes the three-scenario DCF for s, dropping any scenario
// that aborts with ErrNumericOverflow. If all three abort, it returns
// ErrValuationFailed.
func RunDCF(s *svi.SVI, wacc WACCResult, taxRate float64) (DCFBlock, []string, error) {
	if s.SharesOutstanding <= 0 {
		return DCFBlock{}, nil, fmt.Errorf("dcf: %w: shares_outstanding <= 0", coreerrors.ErrInvalidInputs)
	}
	if taxRate <= 0 {
		taxRate = defaultTaxRate
	}

	var anomalies []string
	roic := s.ROIC
	if roic < 0.10 {
		anomalies = append(anomalies, fmt.Sprintf("roic %.4f below 10%% floor, floored for reinvestment calc", roic))
		roic = 0.10
	}

	params := buildScenarioParams(s)
	var results []ScenarioResult

	for _, p := range params {
		result, err := runScenario(s, wacc.WACC, p, roic, taxRate)
		if err != nil {
			anomalies = append(anomalies, fmt.Sprintf("%s scenario dropped: %v", p.name, err))
			continue
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		return DCFBlock{}, anomalies, fmt.Errorf("dcf: %w: all scenarios aborted", coreerrors.ErrValuationFailed)
	}

	weightedIV := weightedIntrinsicValue(results)

	sensitivity, err := runSensitivity(s, wacc.WACC, roic, taxRate)
	if err != nil {
		anomalies = append(anomalies, fmt.Sprintf("sensitivity re-run degraded: %v", err))
	}

	return DCFBlock{
		WACC:        wacc,
		Scenarios:   results,
		WeightedIV:  weightedIV,
		Sensitivity: sensitivity,
	}, anomalies, nil
}

// runScenario projects revenue/EBIT/NOPAT/FCF for explicitYears years,
// discounts them at wacc, applies the Gordon terminal value with its
// safety clamp, and derives the per-share intrinsic value.
func runScenario(s *svi.SVI, wacc float64, p scenarioParams, roic float64, taxRate float64) (ScenarioResult, error) {
	var revenue [explicitYears]float64
	var fcf [explicitYears]float64

	prevRevenue := s.TTMRevenue
	var pvExplicit float64

	for t := 1; t <= explicitYears; t++ {
		gT := p.initialGrowth - (p.initialGrowth-p.terminalGrowth)*float64(t)/(2*float64(explicitYears))

		rev := prevRevenue * (1 + gT)
		ebit := rev * p.margin
		nopat := ebit * (1 - taxRate)
		reinv := gT / roic
		if reinv > 0.8 {
			reinv = 0.8
		}
		yearFCF := nopat * (1 - reinv)

		if !finite(rev) || !finite(yearFCF) || rev <= 0 {
			return ScenarioResult{}, fmt.Errorf("%w: non-finite projection at year %d", coreerrors.ErrNumericOverflow, t)
		}

		revenue[t-1] = rev
		fcf[t-1] = yearFCF
		pvExplicit += yearFCF / math.Pow(1+wacc, float64(t))

		prevRevenue = rev
	}

	terminalGrowth := p.terminalGrowth
	if wacc <= terminalGrowth {
		terminalGrowth = wacc - 0.01
	}

	terminalFCF := fcf[explicitYears-1] * (1 + terminalGrowth)
	denom := wacc - terminalGrowth
	if denom <= 0 || !finite(terminalFCF) {
		return ScenarioResult{}, fmt.Errorf("%w: non-positive terminal denominator", coreerrors.ErrNumericOverflow)
	}
	tv := terminalFCF / denom
	pvTerminal := tv / math.Pow(1+wacc, float64(explicitYears))

	if !finite(pvExplicit) || !finite(pvTerminal) {
		return ScenarioResult{}, fmt.Errorf("%w: non-finite discounted value", coreerrors.ErrNumericOverflow)
	}

	ev := pvExplicit + pvTerminal
	equity := ev - s.NetDebt
	ivPerShare := equity / s.SharesOutstanding
	upside := (ivPerShare - s.CurrentPrice) / s.CurrentPrice

	if !finite(ev) || !finite(equity) || !finite(ivPerShare) {
		return ScenarioResult{}, fmt.Errorf("%w: non-finite aggregation", coreerrors.ErrNumericOverflow)
	}

	return ScenarioResult{
		Name:                   p.name,
		InitialGrowthRate:      p.initialGrowth,
		TerminalGrowthRate:     terminalGrowth,
		Margin:                 p.margin,
		ProjectedRevenue:       revenue,
		ProjectedFCF:           fcf,
		PVExplicit:             pvExplicit,
		PVTerminal:             pvTerminal,
		EnterpriseValue:        ev,
		EquityValue:            equity,
		IntrinsicValuePerShare: ivPerShare,
		UpsidePct:              upside,
	}, nil
}

// weightedIntrinsicValue applies the fixed 0.25/0.50/0.25 weights,
// renormalized over whichever scenarios survived.
func weightedIntrinsicValue(results []ScenarioResult) float64 {
	var weighted, totalWeight float64
	for _, r := range results {
		w := ScenarioWeights[r.Name]
		weighted += w * r.IntrinsicValuePerShare
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// runSensitivity re-runs the base scenario at wacc +/- 1pp, holding
// every other parameter (including the terminal-growth clamp rule)
// constant.
func runSensitivity(s *svi.SVI, wacc float64, roic float64, taxRate float64) (DCFSensitivity, error) {
	params := buildScenarioParams(s)
	base := params[1] // ScenarioBase

	minus, errMinus := runScenario(s, wacc-0.01, base, roic, taxRate)
	plus, errPlus := runScenario(s, wacc+0.01, base, roic, taxRate)

	if errMinus != nil && errPlus != nil {
		return DCFSensitivity{Growth: map[string]float64{}}, fmt.Errorf("both sensitivity re-runs failed: %v / %v", errMinus, errPlus)
	}

	return DCFSensitivity{
		WACCMinus1pp: minus.IntrinsicValuePerShare,
		WACCPlus1pp:  plus.IntrinsicValuePerShare,
		Growth:       map[string]float64{},
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

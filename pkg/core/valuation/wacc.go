package valuation

// WACCInput parameters for the Weighted Average Cost of Capital, sourced
// directly from an svi.SVI. Beta here is the equity beta the Extractor
// already validated — no Hamada re-levering is applied.
type WACCInput struct {
	RiskFreeRate      float64
	Beta              float64
	EquityRiskPremium float64
	MarketCap         float64 // E
	TotalDebt         float64 // D
	InterestCoverage  *float64
	TaxRate           float64 // from TAX_RATE, default 0.21
}

// WACCResult holds the calculated rates.
type WACCResult struct {
	CostOfEquity    float64
	CostOfDebtPreTax  float64
	CostOfDebtAfterTax float64
	WACC            float64
	WeightDebt      float64
	WeightEquity    float64
}

// costOfDebtSpread returns the pre-tax spread over the risk-free rate for
// an interest-coverage band.
func costOfDebtSpread(ic *float64) float64 {
	switch {
	case ic == nil || *ic <= 0:
		return 0.050
	case *ic < 1.5:
		return 0.040
	case *ic < 3:
		return 0.030
	case *ic < 5:
		return 0.020
	case *ic < 8:
		return 0.015
	case *ic < 12:
		return 0.010
	default:
		return 0.007
	}
}

// CalculateWACC computes the Weighted Average Cost of Capital: CAPM cost
// of equity, an interest-coverage-banded cost of debt, and capital
// weights over total capital V = E + D. An all-equity firm (V == 0) is
// weighted we=1, wd=0.
func CalculateWACC(input WACCInput) WACCResult {
	ke := input.RiskFreeRate + input.Beta*input.EquityRiskPremium

	spread := costOfDebtSpread(input.InterestCoverage)
	kdPreTax := input.RiskFreeRate + spread
	kdAfterTax := kdPreTax * (1 - input.TaxRate)

	v := input.MarketCap + input.TotalDebt
	var we, wd float64
	if v == 0 {
		we, wd = 1, 0
	} else {
		we = input.MarketCap / v
		wd = input.TotalDebt / v
	}

	wacc := we*ke + wd*kdAfterTax

	return WACCResult{
		CostOfEquity:       ke,
		CostOfDebtPreTax:   kdPreTax,
		CostOfDebtAfterTax: kdAfterTax,
		WACC:               wacc,
		WeightDebt:         wd,
		WeightEquity:       we,
	}
}

package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateWACC_AllEquity(t *testing.T) {
	result := CalculateWACC(WACCInput{
		RiskFreeRate:      0.04,
		Beta:              1.0,
		EquityRiskPremium: 0.05,
		MarketCap:         1000,
		TotalDebt:         0,
		TaxRate:           0.21,
	})

	assert.Equal(t, 1.0, result.WeightEquity)
	assert.Equal(t, 0.0, result.WeightDebt)

	wantKe := 0.04 + 1.0*0.05
	assert.InDelta(t, wantKe, result.CostOfEquity, 1e-9)
	assert.InDelta(t, wantKe, result.WACC, 1e-9, "all-equity WACC should collapse to cost of equity")
}

func TestCostOfDebtSpread_Bands(t *testing.T) {
	cases := []struct {
		name string
		ic   *float64
		want float64
	}{
		{"nil coverage", nil, 0.050},
		{"zero coverage", ptr(0), 0.050},
		{"negative coverage", ptr(-2), 0.050},
		{"below 1.5", ptr(1.0), 0.040},
		{"below 3", ptr(2.0), 0.030},
		{"below 5", ptr(4.0), 0.020},
		{"below 8", ptr(6.0), 0.015},
		{"below 12", ptr(10.0), 0.010},
		{"at 12", ptr(12.0), 0.007},
		{"well above 12", ptr(50.0), 0.007},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, costOfDebtSpread(c.ic))
		})
	}
}

func TestCalculateWACC_LeveredFirm(t *testing.T) {
	ic := 10.0
	result := CalculateWACC(WACCInput{
		RiskFreeRate:      0.04,
		Beta:              1.2,
		EquityRiskPremium: 0.05,
		MarketCap:         600,
		TotalDebt:         400,
		InterestCoverage:  &ic,
		TaxRate:           0.21,
	})

	assert.InDelta(t, 0.6, result.WeightEquity, 1e-9)
	assert.InDelta(t, 0.4, result.WeightDebt, 1e-9)

	wantKdPreTax := 0.04 + 0.010
	assert.InDelta(t, wantKdPreTax, result.CostOfDebtPreTax, 1e-9)

	wantKdAfterTax := wantKdPreTax * (1 - 0.21)
	assert.InDelta(t, wantKdAfterTax, result.CostOfDebtAfterTax, 1e-9)

	wantKe := 0.04 + 1.2*0.05
	wantWACC := 0.6*wantKe + 0.4*wantKdAfterTax
	assert.InDelta(t, wantWACC, result.WACC, 1e-9)
}

func ptr(f float64) *float64 { return &f }

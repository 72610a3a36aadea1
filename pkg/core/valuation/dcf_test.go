package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hybridvalcore/pkg/core/svi"
)

func baseDCFInput() *svi.SVI {
	growth5y := 0.08
	return &svi.SVI{
		Ticker:              "ACME",
		CurrentPrice:        50,
		SharesOutstanding:   100,
		TTMRevenue:          1_000_000_000,
		NetDebt:             200,
		OperatingMargin:     0.20,
		ROIC:                0.15,
		RevenueGrowth5yCAGR: &growth5y,
	}
}

func baseWACC() WACCResult {
	return WACCResult{WACC: 0.09}
}

// A ROIC strictly between 0 and the 10% floor must still be floored to
// 10% for the reinvestment-rate calc, not passed through unfloored.
func TestRunDCF_LowPositiveROICIsFlooredForReinvestment(t *testing.T) {
	low := baseDCFInput()
	low.ROIC = 0.05

	floored := baseDCFInput()
	floored.ROIC = 0.10

	wacc := baseWACC()

	lowResult, lowAnomalies, err := RunDCF(low, wacc, 0.21)
	assert.NoError(t, err)
	flooredResult, _, err := RunDCF(floored, wacc, 0.21)
	assert.NoError(t, err)

	assert.Equal(t, flooredResult.WeightedIV, lowResult.WeightedIV)
	assert.Contains(t, lowAnomalies, "roic 0.0500 below 10% floor, floored for reinvestment calc")
}

func TestRunDCF_NegativeROICIsFloored(t *testing.T) {
	s := baseDCFInput()
	s.ROIC = -0.02

	result, anomalies, err := RunDCF(s, baseWACC(), 0.21)
	assert.NoError(t, err)
	assert.Greater(t, result.WeightedIV, 0.0)
	assert.Contains(t, anomalies, "roic -0.0200 below 10% floor, floored for reinvestment calc")
}

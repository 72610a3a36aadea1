package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"hybridvalcore/pkg/core/svi"
)

func sampleSVI() *svi.SVI {
	pe := 12.0
	pb := 1.4
	divYield := 0.02
	return &svi.SVI{
		Ticker:              "TEST",
		CurrentPrice:        50,
		SharesOutstanding:   100,
		MarketCap:           5000,
		TTMRevenue:          800_000_000,
		TTMEPS:              5,
		ShareholdersEquity:  2000,
		CurrentRatio:        2.5,
		PERatio:             &pe,
		PriceToBook:         &pb,
		DividendYield:       &divYield,
		DataConfidenceScore: 0.9,
		HistoricalFinancials: []svi.HistoricalYear{
			{FiscalYear: 2025, NetIncome: f64p(10)},
			{FiscalYear: 2024, NetIncome: f64p(9)},
		},
	}
}

func f64p(f float64) *float64 { return &f }

func TestRunGraham_NumberFormula(t *testing.T) {
	s := sampleSVI()
	block, _ := RunGraham(s)

	wantBVPS := 2000.0 / 100.0
	assert.InDelta(t, wantBVPS, block.BVPS, 1e-9)

	wantGN := math.Sqrt(22.5 * 5 * wantBVPS)
	assert.InDelta(t, wantGN, block.GrahamNumber, 1e-9)
}

func TestRunGraham_ZeroEPSOrBVPSYieldsNegativeUpside(t *testing.T) {
	s := sampleSVI()
	s.TTMEPS = 0
	block, _ := RunGraham(s)
	assert.Equal(t, 0.0, block.GrahamNumber)
	assert.Equal(t, -1.0, block.UpsidePct)
}

func TestRunGraham_ProductExceptionCoversBothCriteria(t *testing.T) {
	s := sampleSVI()
	pe := 16.0 // fails moderate_pe on its own
	pb := 1.3  // pe*pb = 20.8 < 22.5
	s.PERatio = &pe
	s.PriceToBook = &pb

	_, passed := screenCriteria(s)
	// adequate_size, strong_finances, dividend_record all pass given sampleSVI; pe/pb both pass via exception.
	assert.Equal(t, 5, passed)
}

func TestRunGraham_PassesScreenThreshold(t *testing.T) {
	s := sampleSVI()
	for i := 3; i < 12; i++ {
		s.HistoricalFinancials = append(s.HistoricalFinancials, svi.HistoricalYear{FiscalYear: 2025 - i, NetIncome: f64p(1)})
	}
	block, _ := RunGraham(s)
	assert.Equal(t, block.CriteriaPassed >= 5, block.PassesScreen)
}

package valuation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"hybridvalcore/pkg/core/svi"
)

// defaultTaxRate is used when a caller passes taxRate <= 0.
const defaultTaxRate = 0.21

// Value runs the ordered WACC -> DCF -> Graham -> Composite pipeline for
// one SVI and returns an immutable, timestamped ValuationResult. Graham
// depends only on the SVI and could run concurrently with DCF; this
// implementation runs them sequentially since neither is expensive enough
// to justify the synchronization overhead. taxRate feeds the after-tax
// cost of debt and NOPAT; pass <= 0 to use defaultTaxRate.
func Value(s *svi.SVI, tickerFingerprint string, taxRate float64) (*ValuationResult, error) {
	if taxRate <= 0 {
		taxRate = defaultTaxRate
	}
	var ic *float64
	if s.InterestCoverage != nil {
		ic = s.InterestCoverage
	}

	waccResult := CalculateWACC(WACCInput{
		RiskFreeRate:      s.RiskFreeRate,
		Beta:              s.BetaOrDefault(),
		EquityRiskPremium: s.EquityRiskPremium,
		MarketCap:         s.MarketCap,
		TotalDebt:         s.TotalDebt,
		InterestCoverage:  ic,
		TaxRate:           taxRate,
	})

	dcfBlock, dcfAnomalies, err := RunDCF(s, waccResult, taxRate)
	if err != nil {
		return nil, fmt.Errorf("valuation: %w", err)
	}

	grahamBlock, grahamAnomalies := RunGraham(s)

	compositeIV, upside, mos, verdict := RunComposite(dcfBlock, grahamBlock, s.CurrentPrice, s.DataConfidenceScore)

	anomalies := append([]string{}, s.DataAnomalies...)
	anomalies = append(anomalies, dcfAnomalies...)
	anomalies = append(anomalies, grahamAnomalies...)

	return &ValuationResult{
		Ticker:            s.Ticker,
		RequestID:         uuid.New(),
		TickerFingerprint: tickerFingerprint,
		CalculatedAt:      time.Now(),
		DCF:               dcfBlock,
		Graham:            grahamBlock,
		CompositeIV:       compositeIV,
		UpsidePct:         upside,
		MarginOfSafety:    mos,
		Verdict:           verdict,
		ConfidenceScore:   s.DataConfidenceScore,
		DataQualityScore:  s.DataConfidenceScore,
		DataAnomalies:     anomalies,
	}, nil
}

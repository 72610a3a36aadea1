package valuation

import (
	"fmt"
	"math"

	"hybridvalcore/pkg/core/svi"
)

// RunGraham computes the Graham Number and the seven-criterion defensive
// screen for s as a plain, pure function: zero inputs produce a zero
// Graham Number rather than panicking, and each criterion is tallied
// independently before the pass/fail threshold is applied. The returned
// anomalies list one entry per criterion whose Value was estimated
// rather than read from the SVI, mirroring RunDCF's anomaly reporting.
func RunGraham(s *svi.SVI) (GrahamBlock, []string) {
	bvps := 0.0
	if s.SharesOutstanding > 0 {
		bvps = s.ShareholdersEquity / s.SharesOutstanding
	}

	var gn, upside float64
	if s.TTMEPS > 0 && bvps > 0 {
		gn = math.Sqrt(22.5 * s.TTMEPS * bvps)
		if s.CurrentPrice > 0 {
			upside = (gn - s.CurrentPrice) / s.CurrentPrice
		}
	} else {
		gn = 0
		upside = -1
	}

	criteria, passed := screenCriteria(s)

	var anomalies []string
	for _, c := range criteria {
		if c.Estimated {
			anomalies = append(anomalies, fmt.Sprintf("graham %s estimated: %s", c.Name, c.Value))
		}
	}

	return GrahamBlock{
		BVPS:           bvps,
		GrahamNumber:   gn,
		UpsidePct:      upside,
		Criteria:       criteria,
		CriteriaPassed: passed,
		PassesScreen:   passed >= 5,
	}, anomalies
}

// screenCriteria evaluates the seven defensive-screen criteria in order
// and returns the tally, counting the Graham product exception (#6/#7)
// as a single pass of both when it holds.
func screenCriteria(s *svi.SVI) ([]GrahamScreenCriterion, int) {
	criteria := make([]GrahamScreenCriterion, 0, 7)
	passed := 0

	addResult := func(name, value string, pass bool, estimated bool) {
		criteria = append(criteria, GrahamScreenCriterion{Name: name, Value: value, Passed: pass, Estimated: estimated})
		if pass {
			passed++
		}
	}

	addResult("adequate_size", fmt.Sprintf("ttm_revenue=%.0f", s.TTMRevenue), s.TTMRevenue >= 700_000_000, false)

	addResult("strong_finances", fmt.Sprintf("current_ratio=%.2f", s.CurrentRatio), s.CurrentRatio >= 2.0, false)

	yearsPositive := s.YearsPositiveEarnings()
	addResult("earnings_stability", fmt.Sprintf("years_positive_earnings=%d", yearsPositive), yearsPositive >= 10, false)

	yearsDividends, estimatedDividendRecord := dividendRecordYears(s)
	addResult("dividend_record", fmt.Sprintf("years_dividends_paid=%d", yearsDividends), yearsDividends >= 20, estimatedDividendRecord)

	epsGrowth, epsGrowthEstimated := tenYearEPSGrowth(s)
	addResult("earnings_growth", fmt.Sprintf("10y_eps_growth=%.2f", epsGrowth), epsGrowth >= 0.33, epsGrowthEstimated)

	pe := 0.0
	if s.PERatio != nil {
		pe = *s.PERatio
	}
	pb := 0.0
	if s.PriceToBook != nil {
		pb = *s.PriceToBook
	}
	productException := pe*pb < 22.5 && pe > 0 && pb > 0

	peOK := pe > 0 && pe <= 15
	pbOK := pb > 0 && pb <= 1.5

	// Criterion 6 (P/E) and criterion 7 (P/B) each also pass via the
	// Graham product exception.
	criteria = append(criteria,
		GrahamScreenCriterion{Name: "moderate_pe", Value: fmt.Sprintf("pe=%.2f", pe), Passed: peOK || productException},
		GrahamScreenCriterion{Name: "moderate_pb", Value: fmt.Sprintf("pb=%.2f", pb), Passed: pbOK || productException},
	)
	if peOK || productException {
		passed++
	}
	if pbOK || productException {
		passed++
	}

	return criteria, passed
}

// dividendRecordYears reports a dividend-record year count and whether it
// was estimated. Full dividend history is not part of the SVI schema, so
// the fallback defaults to 20 iff dividend_yield > 0, else 0, always
// flagged as estimated.
func dividendRecordYears(s *svi.SVI) (int, bool) {
	if s.DividendYield != nil && *s.DividendYield > 0 {
		return 20, true
	}
	return 0, true
}

// tenYearEPSGrowth prefers the endpoint ratio from historical_financials
// when at least 10 entries are available, else falls back to the
// extractor-supplied 10-year CAGR.
func tenYearEPSGrowth(s *svi.SVI) (float64, bool) {
	if len(s.HistoricalFinancials) >= 10 {
		oldest := s.HistoricalFinancials[len(s.HistoricalFinancials)-1]
		newest := s.HistoricalFinancials[0]
		if oldest.EPS != nil && newest.EPS != nil && *oldest.EPS > 0 {
			return (*newest.EPS - *oldest.EPS) / *oldest.EPS, false
		}
	}
	if s.EarningsGrowth10yCAGR != nil {
		return *s.EarningsGrowth10yCAGR, true
	}
	return 0, true
}

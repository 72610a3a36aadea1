package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"hybridvalcore/pkg/core/cache"
	"hybridvalcore/pkg/core/extract"
	"hybridvalcore/pkg/core/memo"
	"hybridvalcore/pkg/core/source"
)

// countingProvider wraps a fixed response and counts how many times
// Generate was invoked, regardless of which Extractor/Analyst called it.
type countingProvider struct {
	response string
	calls    int32
}

func (p *countingProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	atomic.AddInt32(&p.calls, 1)
	return p.response, nil
}

func validSVIJSON() string {
	return `{
		"ticker": "TEST",
		"current_price": 100,
		"shares_outstanding": 10,
		"market_cap": 1000,
		"ttm_revenue": 500,
		"ttm_operating_income": 100,
		"ttm_net_income": 80,
		"ttm_eps": 8,
		"ttm_ebitda": 120,
		"ttm_free_cash_flow": 70,
		"cash_and_equivalents": 50,
		"total_debt": 200,
		"net_debt": 150,
		"shareholders_equity": 400,
		"current_ratio": 1.5,
		"gross_margin": 0.5,
		"operating_margin": 0.2,
		"net_margin": 0.16,
		"roe": 0.2,
		"roic": 0.15,
		"risk_free_rate": 0.04,
		"equity_risk_premium": 0.05,
		"beta": 1.1,
		"revenue_growth_5y_cagr": 0.08,
		"historical_financials": [],
		"data_confidence_score": 0.9,
		"missing_fields": [],
		"estimated_fields": [],
		"data_anomalies": []
	}`
}

func validMemoJSON() string {
	return `{
		"ticker": "TEST",
		"thesis_sentence": "A durable compounder trading below intrinsic value.",
		"thesis_prose": "Long prose here.",
		"moats": [{"type": "network_effect", "evidence": "marketplace liquidity", "confidence": 0.7}],
		"management": {"integrity_score": 8, "owner_oriented": true, "notes": "founder-led"},
		"risk_factors": [{"category": "regulatory", "severity": "moderate", "probability": 0.3}],
		"positives": ["strong balance sheet"],
		"concerns": ["customer concentration"],
		"catalysts": ["new product launch"],
		"final_rating": "buy",
		"conviction": 0.75,
		"risk_level": "moderate",
		"holding_period": "3-5 years",
		"closing_quote": "Price is what you pay, value is what you get.",
		"remarks": ""
	}`
}

func writeTestDocument(t *testing.T, dataDir, ticker string) {
	t.Helper()
	price := 100.0
	shares := 10.0
	doc := source.Document{
		Ticker:            ticker,
		CompanyMetadata:   &source.CompanyMetadata{Name: "Test Co", Ticker: ticker, SharesOutstanding: &shares},
		CurrentMarketData: &source.MarketData{CurrentPrice: &price},
		AnnualFinancials: []source.AnnualFinancial{
			{FiscalYear: 2025, Revenue: &price},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture document: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, ticker+".json"), raw, 0o644); err != nil {
		t.Fatalf("write fixture document: %v", err)
	}
}

func newTestOrchestrator(t *testing.T, extractionProvider, analysisProvider *countingProvider) *Orchestrator {
	t.Helper()
	dataDir := t.TempDir()
	writeTestDocument(t, dataDir, "TEST")

	cacheMgr, err := cache.Open(t.TempDir(), cache.TTLs{})
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { _ = cacheMgr.Close() })

	return New(dataDir, cacheMgr, extract.New(extractionProvider, 0.05), memo.New(analysisProvider), 0.21)
}

func TestOrchestrator_GetValuation_CachesAcrossCalls(t *testing.T) {
	extractor := &countingProvider{response: validSVIJSON()}
	o := newTestOrchestrator(t, extractor, &countingProvider{response: validMemoJSON()})

	ctx := context.Background()

	first, err := o.GetValuation(ctx, "TEST")
	if err != nil {
		t.Fatalf("first GetValuation: %v", err)
	}
	second, err := o.GetValuation(ctx, "TEST")
	if err != nil {
		t.Fatalf("second GetValuation: %v", err)
	}

	if atomic.LoadInt32(&extractor.calls) != 1 {
		t.Errorf("extractor called %d times, want 1 (second GetValuation should hit the cache)", extractor.calls)
	}
	if first.CompositeIV != second.CompositeIV || first.Verdict != second.Verdict {
		t.Error("expected identical cached valuation on the second call")
	}
}

func TestOrchestrator_GetValuation_SingleFlightUnderConcurrency(t *testing.T) {
	extractor := &countingProvider{response: validSVIJSON()}
	o := newTestOrchestrator(t, extractor, &countingProvider{response: validMemoJSON()})

	ctx := context.Background()
	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = o.GetValuation(ctx, "TEST")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: unexpected error: %v", i, err)
		}
	}
	if calls := atomic.LoadInt32(&extractor.calls); calls != 1 {
		t.Errorf("extractor called %d times, want exactly 1 across %d concurrent getValuation calls", calls, n)
	}
}

func TestOrchestrator_RefreshValuation_ForcesNewExtraction(t *testing.T) {
	extractor := &countingProvider{response: validSVIJSON()}
	o := newTestOrchestrator(t, extractor, &countingProvider{response: validMemoJSON()})

	ctx := context.Background()

	if _, err := o.GetValuation(ctx, "TEST"); err != nil {
		t.Fatalf("GetValuation: %v", err)
	}
	if _, err := o.RefreshValuation(ctx, "TEST"); err != nil {
		t.Fatalf("RefreshValuation: %v", err)
	}

	if calls := atomic.LoadInt32(&extractor.calls); calls != 2 {
		t.Errorf("extractor called %d times, want 2 (refresh must bypass the extraction cache)", calls)
	}
}

func TestOrchestrator_GetAnalysis_ReusesCachedValuation(t *testing.T) {
	extractor := &countingProvider{response: validSVIJSON()}
	analyst := &countingProvider{response: validMemoJSON()}
	o := newTestOrchestrator(t, extractor, analyst)

	ctx := context.Background()

	if _, err := o.GetValuation(ctx, "TEST"); err != nil {
		t.Fatalf("GetValuation: %v", err)
	}
	m, err := o.GetAnalysis(ctx, "TEST", "")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}

	if atomic.LoadInt32(&extractor.calls) != 1 {
		t.Errorf("extractor called %d times, want 1 (GetAnalysis should reuse the cached valuation chain)", extractor.calls)
	}
	if atomic.LoadInt32(&analyst.calls) != 1 {
		t.Errorf("analyst called %d times, want 1", analyst.calls)
	}
	if string(m.FinalRating) != "buy" {
		t.Errorf("got rating %q, want buy", m.FinalRating)
	}
}

func TestOrchestrator_RefreshAnalysis_ForcesNewMemoWithoutRevaluing(t *testing.T) {
	extractor := &countingProvider{response: validSVIJSON()}
	analyst := &countingProvider{response: validMemoJSON()}
	o := newTestOrchestrator(t, extractor, analyst)

	ctx := context.Background()

	if _, err := o.GetAnalysis(ctx, "TEST", ""); err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if _, err := o.RefreshAnalysis(ctx, "TEST", ""); err != nil {
		t.Fatalf("RefreshAnalysis: %v", err)
	}

	if calls := atomic.LoadInt32(&extractor.calls); calls != 1 {
		t.Errorf("extractor called %d times, want 1 (RefreshAnalysis must not force re-extraction)", calls)
	}
	if calls := atomic.LoadInt32(&analyst.calls); calls != 2 {
		t.Errorf("analyst called %d times, want 2 (refresh must bypass the analysis cache)", calls)
	}
}

func TestOrchestrator_RefreshValuation_InvalidatesAnalysisCache(t *testing.T) {
	extractor := &countingProvider{response: validSVIJSON()}
	analyst := &countingProvider{response: validMemoJSON()}
	o := newTestOrchestrator(t, extractor, analyst)

	ctx := context.Background()

	if _, err := o.GetAnalysis(ctx, "TEST", ""); err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if _, err := o.RefreshValuation(ctx, "TEST"); err != nil {
		t.Fatalf("RefreshValuation: %v", err)
	}
	if _, err := o.GetAnalysis(ctx, "TEST", ""); err != nil {
		t.Fatalf("GetAnalysis after RefreshValuation: %v", err)
	}

	if calls := atomic.LoadInt32(&analyst.calls); calls != 2 {
		t.Errorf("analyst called %d times, want 2 (RefreshValuation must invalidate the analysis cache even when the reproduced SVI is byte-identical)", calls)
	}
}

func TestOrchestrator_UnknownTicker(t *testing.T) {
	extractor := &countingProvider{response: validSVIJSON()}
	o := newTestOrchestrator(t, extractor, &countingProvider{response: validMemoJSON()})

	if _, err := o.GetValuation(context.Background(), "NOPE"); err == nil {
		t.Error("expected an error for a ticker with no SourceDocument on disk")
	}
}

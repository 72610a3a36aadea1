package memo

import (
	"context"
	"testing"

	"hybridvalcore/pkg/core/svi"
	"hybridvalcore/pkg/core/valuation"
)

type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	return p.responses[idx], nil
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

func sampleResult() *valuation.ValuationResult {
	return &valuation.ValuationResult{
		Ticker:      "TEST",
		CompositeIV: 120,
		UpsidePct:   0.2,
		Verdict:     valuation.VerdictUndervalued,
		DCF:         valuation.DCFBlock{WeightedIV: 130},
		Graham:      valuation.GrahamBlock{GrahamNumber: 100},
	}
}

func sampleSVI() *svi.SVI {
	return &svi.SVI{Ticker: "TEST", CurrentPrice: 100, TTMRevenue: 1000, TTMNetIncome: 100, TTMEPS: 2}
}

func TestAnalyst_SucceedsFirstAttempt(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validMemoJSON()}}
	a := New(provider)

	memo, err := a.Analyze(context.Background(), sampleSVI(), sampleResult(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memo.FinalRating != RatingBuy {
		t.Errorf("FinalRating = %q, want buy", memo.FinalRating)
	}
	if memo.Ticker != "TEST" {
		t.Errorf("Ticker = %q, want TEST", memo.Ticker)
	}
}

func TestAnalyst_RetriesOnSchemaViolation(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"ticker": "TEST", "final_rating": "not_a_rating"}`,
		validMemoJSON(),
	}}
	a := New(provider)

	memo, err := a.Analyze(context.Background(), sampleSVI(), sampleResult(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memo == nil {
		t.Fatal("expected non-nil memo after retry")
	}
	if provider.calls != 2 {
		t.Errorf("calls = %d, want 2", provider.calls)
	}
}

func TestAnalyst_FailsAfterExhaustingRetries(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"not json {{{"}}
	a := New(provider)

	_, err := a.Analyze(context.Background(), sampleSVI(), sampleResult(), "")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if provider.calls != maxRetries+1 {
		t.Errorf("calls = %d, want %d", provider.calls, maxRetries+1)
	}
}

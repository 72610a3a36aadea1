// Package extract implements the Extractor (C2): turning a truncated
// source.Truncated record into a validated svi.SVI via a constrained LLM
// call, bounded retries, and core-side post-validation fixups.
package extract

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hybridvalcore/pkg/core/coreerrors"
	"hybridvalcore/pkg/core/llm"
	"hybridvalcore/pkg/core/source"
	"hybridvalcore/pkg/core/svi"
	"hybridvalcore/pkg/core/utils"
)

// maxRetries is the number of additional attempts after the first.
const maxRetries = 2

// wallClockBudget bounds the whole retry loop, not any single attempt.
const wallClockBudget = 60 * time.Second

// defaultEquityRiskPremium is used when EquityRiskPremiumDefault is <= 0.
const defaultEquityRiskPremium = 0.05

// Extractor drives the prompt/parse/retry loop against a configured
// llm.Provider.
type Extractor struct {
	Provider                 llm.Provider
	EquityRiskPremiumDefault float64
}

// New returns an Extractor backed by provider, falling back to
// defaultEquityRiskPremium when erpDefault is <= 0.
func New(provider llm.Provider, erpDefault float64) *Extractor {
	if erpDefault <= 0 {
		erpDefault = defaultEquityRiskPremium
	}
	return &Extractor{Provider: provider, EquityRiskPremiumDefault: erpDefault}
}

// Extract produces a validated SVI for ticker from its truncated record.
// It retries up to maxRetries times, feeding the prior schema-validation
// error back into the prompt, inside a single wallClockBudget deadline.
func (e *Extractor) Extract(ctx context.Context, ticker string, truncated *source.Truncated) (*svi.SVI, error) {
	if e.Provider == nil {
		return nil, fmt.Errorf("extract: %w: no provider configured", coreerrors.ErrExtractionFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, wallClockBudget)
	defer cancel()

	var lastErr error
	var priorError string

	for attempt := 0; attempt <= maxRetries; attempt++ {
		userPrompt, err := buildUserPrompt(ticker, truncated, priorError)
		if err != nil {
			return nil, fmt.Errorf("extract: %w: %v", coreerrors.ErrExtractionFailed, err)
		}

		outcome := llm.CallWithRetry(ctx, e.Provider, systemPrompt, userPrompt)
		if outcome.Kind != llm.KindOK {
			lastErr = outcome.Err
			log.Warn().Str("ticker", ticker).Int("attempt", attempt).Err(lastErr).Msg("extractor: provider call did not return usable text")
			priorError = fmt.Sprintf("provider call failed: %v", lastErr)
			continue
		}

		cleaned, err := smartParse(outcome.Payload)
		if err != nil {
			lastErr = err
			priorError = err.Error()
			log.Warn().Str("ticker", ticker).Int("attempt", attempt).Err(err).Msg("extractor: response was not parseable JSON")
			continue
		}

		parsed, err := svi.Parse(cleaned)
		if err != nil {
			lastErr = err
			priorError = err.Error()
			log.Warn().Str("ticker", ticker).Int("attempt", attempt).Err(err).Msg("extractor: response failed schema validation")
			continue
		}

		parsed.Ticker = ticker
		e.applyFixups(parsed)
		return parsed, nil
	}

	return nil, fmt.Errorf("extract: %w: ticker=%s last_error=%v", coreerrors.ErrExtractionFailed, ticker, lastErr)
}

// smartParse strips markdown code fences the model sometimes wraps JSON
// in, then runs a three-tier strict/repair/hjson parse chain, returning
// canonical JSON bytes ready for svi.Parse.
func smartParse(raw string) ([]byte, error) {
	cleaned := stripFences(raw)

	var probe map[string]interface{}
	if parsedJSON, err := utils.SmartParse(cleaned, &probe); err == nil {
		return []byte(parsedJSON), nil
	}

	return nil, fmt.Errorf("%w: response was not valid JSON after repair and hjson fallback", coreerrors.ErrExtractionFailed)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// applyFixups performs the core-side (not model-side) corrections:
// recomputed derived totals, beta clamping, and the equity risk premium
// default.
func (e *Extractor) applyFixups(s *svi.SVI) {
	recomputedNetDebt := s.TotalDebt - s.CashAndEquivalents
	if !closeEnough(s.NetDebt, recomputedNetDebt) {
		s.DataAnomalies = append(s.DataAnomalies, fmt.Sprintf("net_debt recomputed %.2f vs reported %.2f", recomputedNetDebt, s.NetDebt))
	}
	s.NetDebt = recomputedNetDebt

	recomputedMarketCap := s.CurrentPrice * s.SharesOutstanding
	if !closeEnough(s.MarketCap, recomputedMarketCap) {
		s.DataAnomalies = append(s.DataAnomalies, fmt.Sprintf("market_cap recomputed %.2f vs reported %.2f", recomputedMarketCap, s.MarketCap))
	}
	s.MarketCap = recomputedMarketCap

	recomputedEnterpriseValue := s.MarketCap + s.TotalDebt - s.CashAndEquivalents
	if !closeEnough(s.EnterpriseValue, recomputedEnterpriseValue) {
		s.DataAnomalies = append(s.DataAnomalies, fmt.Sprintf("enterprise_value recomputed %.2f vs reported %.2f", recomputedEnterpriseValue, s.EnterpriseValue))
	}
	s.EnterpriseValue = recomputedEnterpriseValue

	if s.Beta == nil || *s.Beta < 0.1 || *s.Beta > 3.0 {
		defaultBeta := 1.0
		s.Beta = &defaultBeta
		s.EstimatedFields = append(s.EstimatedFields, "beta")
	}

	if s.EquityRiskPremium == 0 {
		s.EquityRiskPremium = e.EquityRiskPremiumDefault
	}
}

// closeEnough reports whether b is within 1% of a; discrepancies beyond
// that are logged to DataAnomalies by the caller. a == 0 is treated as a
// match only when b is also (near) zero.
func closeEnough(a, b float64) bool {
	if a == 0 {
		return math.Abs(b) < 0.01
	}
	return math.Abs((b-a)/a) <= 0.01
}

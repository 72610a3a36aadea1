package memo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hybridvalcore/pkg/core/coreerrors"
	"hybridvalcore/pkg/core/llm"
	"hybridvalcore/pkg/core/svi"
	"hybridvalcore/pkg/core/utils"
	"hybridvalcore/pkg/core/valuation"
)

const maxRetries = 2
const wallClockBudget = 120 * time.Second

// Analyst drives the prompt/parse/retry loop for memo generation.
type Analyst struct {
	Provider llm.Provider
	Model    string
}

// New returns an Analyst backed by provider.
func New(provider llm.Provider) *Analyst {
	return &Analyst{Provider: provider}
}

// Analyze produces a validated InvestmentMemo for s and its already
// computed ValuationResult. Retries up to maxRetries times, feeding the
// prior schema error back into the prompt, inside one wallClockBudget
// deadline.
func (a *Analyst) Analyze(ctx context.Context, s *svi.SVI, result *valuation.ValuationResult, narrative string) (*InvestmentMemo, error) {
	if a.Provider == nil {
		return nil, fmt.Errorf("memo: %w: no provider configured", coreerrors.ErrAnalysisFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, wallClockBudget)
	defer cancel()

	var lastErr error
	var priorError string

	for attempt := 0; attempt <= maxRetries; attempt++ {
		userPrompt := buildUserPrompt(s, result, narrative, priorError)

		outcome := llm.CallWithRetry(ctx, a.Provider, systemPrompt, userPrompt)
		if outcome.Kind != llm.KindOK {
			lastErr = outcome.Err
			log.Warn().Str("ticker", s.Ticker).Int("attempt", attempt).Err(lastErr).Msg("analyst: provider call did not return usable text")
			priorError = fmt.Sprintf("provider call failed: %v", lastErr)
			continue
		}

		cleaned, err := smartParse(outcome.Payload)
		if err != nil {
			lastErr = err
			priorError = err.Error()
			log.Warn().Str("ticker", s.Ticker).Int("attempt", attempt).Err(err).Msg("analyst: response was not parseable JSON")
			continue
		}

		parsed, err := Parse(cleaned)
		if err != nil {
			lastErr = err
			priorError = err.Error()
			log.Warn().Str("ticker", s.Ticker).Int("attempt", attempt).Err(err).Msg("analyst: response failed schema validation")
			continue
		}

		parsed.Ticker = s.Ticker
		parsed.GeneratedAt = time.Now()
		parsed.ModelVersion = a.Model
		return parsed, nil
	}

	return nil, fmt.Errorf("memo: %w: ticker=%s last_error=%v", coreerrors.ErrAnalysisFailed, s.Ticker, lastErr)
}

func smartParse(raw string) ([]byte, error) {
	cleaned := stripFences(raw)

	var probe map[string]interface{}
	if parsedJSON, err := utils.SmartParse(cleaned, &probe); err == nil {
		return []byte(parsedJSON), nil
	}

	return nil, fmt.Errorf("%w: response was not valid JSON after repair and hjson fallback", coreerrors.ErrAnalysisFailed)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

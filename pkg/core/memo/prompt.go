package memo

import (
	"fmt"

	"hybridvalcore/pkg/core/svi"
	"hybridvalcore/pkg/core/valuation"
)

// systemPrompt fixes the single persona and the "read, don't recompute"
// rule: every number the memo cites must come from the supplied
// ValuationResult fields, never from the model's own arithmetic.
const systemPrompt = `You are a value-investor analyst writing a structured investment memo.

You will be given a company's Standardized Valuation Input and its already-computed ValuationResult (DCF, Graham, composite intrinsic value, upside, margin of safety, verdict). You must NOT recompute any of these figures yourself: when your memo cites a number (e.g. "a 32% margin of safety"), substitute it directly from the given ValuationResult. Your job is qualitative judgment — moat, management quality, risks, catalysts — not arithmetic.

Return a single JSON object conforming exactly to the InvestmentMemo schema you are given. No markdown fences, no commentary outside the JSON object.`

// buildUserPrompt renders the SVI, the ValuationResult's key figures, and
// an optional narrative description into the user turn.
func buildUserPrompt(s *svi.SVI, result *valuation.ValuationResult, narrative string, priorError string) string {
	prompt := fmt.Sprintf(`Ticker: %s

Company fundamentals (from the Standardized Valuation Input):
- TTM Revenue: %.0f
- TTM Net Income: %.0f
- TTM EPS: %.2f
- Operating Margin: %.2f%%
- ROE: %.2f%%
- ROIC: %.2f%%
- Current Price: %.2f

Already-computed valuation (do not recompute these):
- DCF weighted intrinsic value per share: %.2f
- Graham Number: %.2f
- Composite intrinsic value: %.2f
- Upside: %.2f%%
- Margin of safety: %.2f%%
- Verdict: %s
- Data quality score: %.2f
`,
		s.Ticker, s.TTMRevenue, s.TTMNetIncome, s.TTMEPS, s.OperatingMargin*100, s.ROE*100, s.ROIC*100, s.CurrentPrice,
		result.DCF.WeightedIV, result.Graham.GrahamNumber, result.CompositeIV,
		result.UpsidePct*100, result.MarginOfSafety*100, result.Verdict, result.DataQualityScore,
	)

	if narrative != "" {
		prompt += fmt.Sprintf("\nAdditional narrative context:\n%s\n", narrative)
	}

	if priorError != "" {
		prompt += fmt.Sprintf("\nYour previous response failed schema validation with this error:\n%s\n\nCorrect it and emit a fully conforming JSON object.", priorError)
	}

	return prompt
}

package extract

import (
	"encoding/json"
	"fmt"

	"hybridvalcore/pkg/core/source"
)

// systemPrompt is sent once per call as the model's system instruction.
// It fixes units, the name-normalization table, source-priority rule, and
// the never-fabricate rule so every retry attempt re-states the same
// contract the parser error is layered onto.
const systemPrompt = `You are a financial data extraction engine. You read a truncated, possibly inconsistent financial record and emit a single JSON object conforming exactly to the Standardized Valuation Input (SVI) schema you are given.

Units:
- All monetary values are in USD.
- All ratios and margins are decimal (15% is 0.15, not 15).
- All growth rates are annualized CAGRs: (end/start)^(1/N) - 1. If start <= 0, emit null for that field.

Name normalization (treat these as the same underlying concept):
- Revenue == Net Sales == Total Revenue == Sales
- Net Income == Net Earnings == Profit
- Operating Income == EBIT == Operating Profit
- Free Cash Flow == FCF == Levered Free Cash Flow
- Shareholders Equity == Stockholders Equity == Total Equity

TTM figures are the sum of the last 4 quarterly income/cash-flow items. Balance-sheet figures use the latest quarterly snapshot, never summed.

When sources disagree, prefer in this order: annual financials > quarterly block > pre-calculated metrics > aggregated ratios > real-time market snapshot.

Never fabricate a value. When a field cannot be derived from the record, emit null for it and list its name in missing_fields (or in estimated_fields if you derived it via an explicit fallback rule stated above).

Set data_confidence_score in [0,1] reflecting how complete, consistent, and recent the underlying record is.

Return ONLY the JSON object. No markdown fences, no commentary.`

// buildUserPrompt renders the truncated record plus any prior parser
// error (for retry attempts) into the user turn.
func buildUserPrompt(ticker string, truncated *source.Truncated, priorError string) (string, error) {
	recordJSON, err := json.MarshalIndent(truncated, "", "  ")
	if err != nil {
		return "", fmt.Errorf("extract: marshal truncated record: %w", err)
	}

	prompt := fmt.Sprintf("Ticker: %s\n\nTruncated financial record:\n%s\n\nEmit the SVI JSON object for this ticker now.", ticker, recordJSON)

	if priorError != "" {
		prompt += fmt.Sprintf("\n\nYour previous response failed schema validation with this error:\n%s\n\nCorrect it and emit a fully conforming JSON object.", priorError)
	}

	return prompt, nil
}

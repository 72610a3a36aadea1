package svi

import (
	"encoding/json"
	"fmt"
	"math"
)

// SchemaError reports why a raw extraction payload failed validation.
// The Extractor feeds Error() back into the next retry prompt verbatim.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("JSON_SCHEMA_VIOLATION: %s", e.Reason)
}

// requiredFields are the SVI JSON keys that must be present (though
// legitimately zero-valued, e.g. total_debt: 0 for an all-equity firm).
// Parse checks for presence, not non-zero-ness, so a real zero is never
// mistaken for an omission.
var requiredFields = []string{
	"current_price", "shares_outstanding", "market_cap",
	"ttm_revenue", "ttm_operating_income", "ttm_net_income",
	"ttm_eps", "ttm_ebitda", "ttm_free_cash_flow",
	"cash_and_equivalents", "total_debt", "shareholders_equity",
	"current_ratio", "gross_margin", "operating_margin", "net_margin",
	"roe", "roic", "risk_free_rate",
}

// Parse is the single boundary function through which raw extraction
// JSON becomes an SVI. No code past this boundary handles raw maps.
func Parse(raw []byte) (*SVI, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("JSON_STRUCTURAL_ERROR: %v", err)}
	}

	for _, key := range requiredFields {
		val, ok := probe[key]
		if !ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("required field %q is missing", key)}
		}
		var f float64
		if err := json.Unmarshal(val, &f); err != nil {
			return nil, &SchemaError{Reason: fmt.Sprintf("required field %q is not a number", key)}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &SchemaError{Reason: fmt.Sprintf("required field %q is not finite", key)}
		}
	}

	var out SVI
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("JSON_STRUCTURAL_ERROR: %v", err)}
	}

	if len(out.HistoricalFinancials) > 10 {
		out.HistoricalFinancials = out.HistoricalFinancials[:10]
	}

	if out.DataConfidenceScore < 0 || out.DataConfidenceScore > 1 {
		return nil, &SchemaError{Reason: fmt.Sprintf("data_confidence_score %v out of range [0,1]", out.DataConfidenceScore)}
	}

	for _, ptr := range []*float64{
		out.Beta, out.InterestCoverage, out.PERatio, out.PriceToBook, out.DividendYield,
	} {
		if ptr != nil && (math.IsNaN(*ptr) || math.IsInf(*ptr, 0)) {
			return nil, &SchemaError{Reason: "optional field contains a non-finite value"}
		}
	}

	return &out, nil
}

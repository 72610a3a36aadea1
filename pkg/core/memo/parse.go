package memo

import (
	"encoding/json"
	"fmt"
	"math"
)

// SchemaError reports why a raw memo payload failed validation. The
// Analyst feeds Error() back into the next retry prompt verbatim, the
// same discipline svi.Parse uses for extraction.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("MEMO_SCHEMA_VIOLATION: %s", e.Reason)
}

var validRatings = map[Rating]bool{
	RatingStrongBuy: true, RatingBuy: true, RatingHold: true, RatingSell: true, RatingStrongSell: true,
}

var validRiskLevels = map[RiskLevel]bool{
	RiskLevelLow: true, RiskLevelModerate: true, RiskLevelHigh: true,
}

// Parse is the single boundary function through which raw memo JSON
// becomes an InvestmentMemo. No code past this boundary handles raw maps.
func Parse(raw []byte) (*InvestmentMemo, error) {
	var out InvestmentMemo
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("JSON_STRUCTURAL_ERROR: %v", err)}
	}

	if out.ThesisSentence == "" {
		return nil, &SchemaError{Reason: "thesis_sentence is required"}
	}
	if !validRatings[out.FinalRating] {
		return nil, &SchemaError{Reason: fmt.Sprintf("final_rating %q is not a recognized rating", out.FinalRating)}
	}
	if !validRiskLevels[out.RiskLevel] {
		return nil, &SchemaError{Reason: fmt.Sprintf("risk_level %q is not a recognized level", out.RiskLevel)}
	}
	if out.Conviction < 0 || out.Conviction > 1 || math.IsNaN(out.Conviction) {
		return nil, &SchemaError{Reason: fmt.Sprintf("conviction %v out of range [0,1]", out.Conviction)}
	}
	for _, m := range out.Moats {
		if m.Confidence < 0 || m.Confidence > 1 {
			return nil, &SchemaError{Reason: fmt.Sprintf("moat confidence %v out of range [0,1]", m.Confidence)}
		}
	}
	for _, r := range out.RiskFactors {
		if r.Probability < 0 || r.Probability > 1 {
			return nil, &SchemaError{Reason: fmt.Sprintf("risk factor probability %v out of range [0,1]", r.Probability)}
		}
	}
	if out.Management.IntegrityScore < 1 || out.Management.IntegrityScore > 10 {
		return nil, &SchemaError{Reason: fmt.Sprintf("management integrity_score %d out of range [1,10]", out.Management.IntegrityScore)}
	}

	return &out, nil
}

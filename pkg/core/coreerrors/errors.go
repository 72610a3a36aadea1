// Package coreerrors defines the error taxonomy shared by every stage of
// the valuation core. Every terminal error returned across a component
// boundary wraps one of these sentinels so callers can discriminate with
// errors.Is, regardless of how deep the wrapping chain runs.
package coreerrors

import "errors"

var (
	// ErrUnknownTicker means the SourceDocument for a ticker was not found.
	ErrUnknownTicker = errors.New("unknown ticker")

	// ErrInsufficientSourceData means a required sub-record was entirely
	// absent from the SourceDocument (company metadata, market data, or
	// annual financials).
	ErrInsufficientSourceData = errors.New("insufficient source data")

	// ErrExtractionFailed means the extraction LLM produced no
	// schema-conformant SVI after retries, or the extraction call timed
	// out.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrNumericOverflow means a non-finite intermediate (NaN or ±Inf)
	// appeared inside a single DCF scenario. Per-scenario: callers should
	// check whether this promoted to ErrValuationFailed (all scenarios
	// lost) or whether surviving scenarios remain usable.
	ErrNumericOverflow = errors.New("numeric overflow")

	// ErrValuationFailed means all three DCF scenarios failed with
	// ErrNumericOverflow, promoting what would otherwise be a partial
	// failure into a terminal one.
	ErrValuationFailed = errors.New("valuation failed")

	// ErrInvalidInputs means a post-extraction invariant was violated
	// (e.g. shares_outstanding <= 0) at the numeric engine boundary.
	ErrInvalidInputs = errors.New("invalid inputs")

	// ErrAnalysisFailed means the analyst LLM produced no valid memo
	// after retries, or the call timed out. Terminal for the analysis
	// path only — the ValuationResult remains available.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrTransientUpstream means the model service returned a 5xx or a
	// network failure occurred. Retried internally; promoted to
	// ErrExtractionFailed or ErrAnalysisFailed if retries are exhausted.
	ErrTransientUpstream = errors.New("transient upstream error")
)

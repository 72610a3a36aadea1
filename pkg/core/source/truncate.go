package source

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"hybridvalcore/pkg/core/coreerrors"
)

// truncatedSizeTarget is the soft ceiling on the marshaled Truncated
// payload. Exceeding it is logged, not fatal.
const truncatedSizeTarget = 25 * 1024

// Truncated is the bounded, whitelisted subset of a Document handed to
// the Extractor. Every field is copied verbatim from the Document; no
// field outside this whitelist survives.
type Truncated struct {
	Ticker string

	CompanyMetadata   CompanyMetadata
	CurrentMarketData MarketData
	ValuationRatios    ValuationRatios
	CalculatedMetrics  CalculatedMetrics

	AnnualFinancials []AnnualFinancial

	QuarterlyIncome   []QuarterlyStatement
	QuarterlyBalance  *QuarterlyStatement // latest only
	QuarterlyCashFlow []QuarterlyStatement

	// DegradedQuality is set when quarterlies are missing. Missing
	// quarterlies are not fatal but must be reflected by the Extractor
	// in data_confidence_score.
	DegradedQuality bool
}

const maxAnnualYears = 10
const maxQuarters = 4

// Truncate reduces a Document to the whitelisted sub-records required
// for extraction. It fails with coreerrors.ErrInsufficientSourceData if
// company metadata, current market data, or annual financials are
// entirely absent.
func Truncate(doc *Document) (*Truncated, error) {
	if doc == nil {
		return nil, fmt.Errorf("truncate: %w: nil document", coreerrors.ErrInsufficientSourceData)
	}
	if doc.CompanyMetadata == nil {
		return nil, fmt.Errorf("truncate: %w: missing company metadata", coreerrors.ErrInsufficientSourceData)
	}
	if doc.CurrentMarketData == nil {
		return nil, fmt.Errorf("truncate: %w: missing current market data", coreerrors.ErrInsufficientSourceData)
	}
	if len(doc.AnnualFinancials) == 0 {
		return nil, fmt.Errorf("truncate: %w: missing annual financials", coreerrors.ErrInsufficientSourceData)
	}

	out := &Truncated{
		Ticker:            doc.Ticker,
		CompanyMetadata:   *doc.CompanyMetadata,
		CurrentMarketData: *doc.CurrentMarketData,
	}

	if doc.ValuationRatios != nil {
		out.ValuationRatios = *doc.ValuationRatios
	}
	if doc.CalculatedMetrics != nil {
		out.CalculatedMetrics = *doc.CalculatedMetrics
	}

	years := doc.AnnualFinancials
	if len(years) > maxAnnualYears {
		years = years[:maxAnnualYears]
	}
	out.AnnualFinancials = append([]AnnualFinancial(nil), years...)

	income := doc.QuarterlyIncome
	if len(income) > maxQuarters {
		income = income[:maxQuarters]
	}
	out.QuarterlyIncome = append([]QuarterlyStatement(nil), income...)

	cashFlow := doc.QuarterlyCashFlow
	if len(cashFlow) > maxQuarters {
		cashFlow = cashFlow[:maxQuarters]
	}
	out.QuarterlyCashFlow = append([]QuarterlyStatement(nil), cashFlow...)

	if len(doc.QuarterlyBalance) > 0 {
		latest := doc.QuarterlyBalance[0]
		out.QuarterlyBalance = &latest
	}

	if len(out.QuarterlyIncome) < maxQuarters || out.QuarterlyBalance == nil || len(out.QuarterlyCashFlow) < maxQuarters {
		out.DegradedQuality = true
	}

	if size, err := marshaledSize(out); err == nil && size > truncatedSizeTarget {
		log.Warn().
			Str("ticker", doc.Ticker).
			Int("bytes", size).
			Int("target_bytes", truncatedSizeTarget).
			Msg("truncated source document exceeds target size")
	}

	return out, nil
}

func marshaledSize(v interface{}) (int, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Package orchestrator owns the per-request pipeline: load the
// SourceDocument, truncate, extract, value, and analyze, reading from and
// writing to the cache Manager at each stage boundary.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"hybridvalcore/pkg/core/cache"
	"hybridvalcore/pkg/core/coreerrors"
	"hybridvalcore/pkg/core/extract"
	"hybridvalcore/pkg/core/memo"
	"hybridvalcore/pkg/core/source"
	"hybridvalcore/pkg/core/svi"
	"hybridvalcore/pkg/core/valuation"
)

// Version strings feed the fingerprint formulas in cache/fingerprint.go.
// Bumping one forces every cache entry keyed on it to miss and
// recompute, without needing to touch the store directly.
const (
	schemaVersion = "svi-v1"
	engineVersion = "valuation-engine-v1"
	memoVersion   = "memo-v1"
)

// Orchestrator drives the four external operations: getValuation,
// refreshValuation, getAnalysis, refreshAnalysis.
type Orchestrator struct {
	DataDir   string
	Cache     *cache.Manager
	Extractor *extract.Extractor
	Analyst   *memo.Analyst
	TaxRate   float64
}

// New returns an Orchestrator wired to its dependencies. taxRate is
// threaded straight through to valuation.Value for every valuation run.
func New(dataDir string, cacheMgr *cache.Manager, extractor *extract.Extractor, analyst *memo.Analyst, taxRate float64) *Orchestrator {
	return &Orchestrator{DataDir: dataDir, Cache: cacheMgr, Extractor: extractor, Analyst: analyst, TaxRate: taxRate}
}

// refreshScope controls which cache keys are evicted before running the
// pipeline, invalidating keys for the requested scope in dependency
// order. Because every key is derived from its stage's content (the
// truncated record's hash, the SVI's
// canonical JSON, ...), evicting a stage's key and recomputing naturally
// cascades: a changed SVI yields a different valuation key on its own.
// Analysis is the one stage that is NOT purely a function of its inputs
// (the LLM's prose varies run to run), so refreshing it always requires
// an explicit eviction even when the upstream SVI/ValuationResult are
// unchanged.
type refreshScope struct {
	extraction bool
	valuation  bool
	analysis   bool
}

// GetValuation returns the cached ValuationResult for ticker, computing
// it on a cache miss.
func (o *Orchestrator) GetValuation(ctx context.Context, ticker string) (*valuation.ValuationResult, error) {
	_, result, err := o.runValuation(ctx, ticker, refreshScope{})
	return result, err
}

// RefreshValuation forces a fresh extraction and recomputation. The
// fresh extraction/valuation cascades through content-addressed keys on
// its own, but the analysis cache entry does not: it is invalidated
// explicitly so a subsequent GetAnalysis never returns a memo built from
// the stale valuation.
func (o *Orchestrator) RefreshValuation(ctx context.Context, ticker string) (*valuation.ValuationResult, error) {
	_, result, err := o.runValuation(ctx, ticker, refreshScope{extraction: true, valuation: true, analysis: true})
	return result, err
}

// GetAnalysis returns the cached InvestmentMemo for ticker, computing the
// valuation chain and the memo on a cache miss.
func (o *Orchestrator) GetAnalysis(ctx context.Context, ticker string, narrative string) (*memo.InvestmentMemo, error) {
	return o.runAnalysis(ctx, ticker, narrative, refreshScope{})
}

// RefreshAnalysis forces a fresh memo even when the underlying SVI and
// ValuationResult are unchanged, since the Analyst's output is not a
// pure function of its inputs.
func (o *Orchestrator) RefreshAnalysis(ctx context.Context, ticker string, narrative string) (*memo.InvestmentMemo, error) {
	return o.runAnalysis(ctx, ticker, narrative, refreshScope{analysis: true})
}

// runValuation loads, truncates, and runs the cache-lookup/extract and
// cache-lookup/value stages. It returns the SVI alongside
// the ValuationResult so runAnalysis can reuse both without repeating the
// extraction and valuation stages.
func (o *Orchestrator) runValuation(ctx context.Context, ticker string, scope refreshScope) (*svi.SVI, *valuation.ValuationResult, error) {
	doc, err := source.Load(o.DataDir, ticker)
	if err != nil {
		return nil, nil, err
	}

	truncated, err := source.Truncate(doc)
	if err != nil {
		return nil, nil, err
	}

	extractionKey, err := cache.ExtractionKey(ticker, truncated, schemaVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: %w: %v", coreerrors.ErrExtractionFailed, err)
	}
	if scope.extraction {
		if err := o.Cache.Invalidate(extractionKey); err != nil {
			log.Warn().Str("ticker", ticker).Err(err).Msg("orchestrator: failed to invalidate extraction cache entry")
		}
	}

	s, err := o.extractCached(ctx, ticker, truncated, extractionKey)
	if err != nil {
		return nil, nil, err
	}

	valuationKey, err := cache.ValuationKey(s, engineVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: %w: %v", coreerrors.ErrValuationFailed, err)
	}
	if scope.valuation {
		if err := o.Cache.Invalidate(valuationKey); err != nil {
			log.Warn().Str("ticker", ticker).Err(err).Msg("orchestrator: failed to invalidate valuation cache entry")
		}
	}

	result, err := o.valueCached(s, valuationKey)
	if err != nil {
		return nil, nil, err
	}

	if scope.analysis {
		analysisKey, err := cache.AnalysisKey(s, result.TickerFingerprint, memoVersion)
		if err != nil {
			return nil, nil, fmt.Errorf("orchestrator: %w: %v", coreerrors.ErrAnalysisFailed, err)
		}
		if err := o.Cache.Invalidate(analysisKey); err != nil {
			log.Warn().Str("ticker", ticker).Err(err).Msg("orchestrator: failed to invalidate analysis cache entry")
		}
	}

	log.Info().Str("ticker", ticker).Str("verdict", string(result.Verdict)).Msg("orchestrator: valuation complete")
	return s, result, nil
}

// runAnalysis executes steps 1-4 of runValuation, then cache-lookup/run
// the Analyst.
func (o *Orchestrator) runAnalysis(ctx context.Context, ticker string, narrative string, scope refreshScope) (*memo.InvestmentMemo, error) {
	s, result, err := o.runValuation(ctx, ticker, scope)
	if err != nil {
		return nil, err
	}

	analysisKey, err := cache.AnalysisKey(s, result.TickerFingerprint, memoVersion)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w: %v", coreerrors.ErrAnalysisFailed, err)
	}

	payload, err := o.Cache.GetOrCompute(cache.StageAnalysis, analysisKey, func() ([]byte, error) {
		m, err := o.Analyst.Analyze(ctx, s, result, narrative)
		if err != nil {
			return nil, err
		}
		return json.Marshal(m)
	})
	if err != nil {
		return nil, err
	}

	var m memo.InvestmentMemo
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("orchestrator: %w: corrupt cached memo: %v", coreerrors.ErrAnalysisFailed, err)
	}

	log.Info().Str("ticker", ticker).Str("rating", string(m.FinalRating)).Msg("orchestrator: analysis complete")
	return &m, nil
}

func (o *Orchestrator) extractCached(ctx context.Context, ticker string, truncated *source.Truncated, key string) (*svi.SVI, error) {
	payload, err := o.Cache.GetOrCompute(cache.StageExtraction, key, func() ([]byte, error) {
		s, err := o.Extractor.Extract(ctx, ticker, truncated)
		if err != nil {
			return nil, err
		}
		return json.Marshal(s)
	})
	if err != nil {
		return nil, err
	}

	var s svi.SVI
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("orchestrator: %w: corrupt cached SVI: %v", coreerrors.ErrExtractionFailed, err)
	}
	return &s, nil
}

func (o *Orchestrator) valueCached(s *svi.SVI, key string) (*valuation.ValuationResult, error) {
	payload, err := o.Cache.GetOrCompute(cache.StageValuation, key, func() ([]byte, error) {
		result, err := valuation.Value(s, key, o.TaxRate)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, err
	}

	var result valuation.ValuationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("orchestrator: %w: corrupt cached valuation: %v", coreerrors.ErrValuationFailed, err)
	}
	return &result, nil
}

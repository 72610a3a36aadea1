package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hybridvalcore/pkg/core/cache"
	"hybridvalcore/pkg/core/config"
	"hybridvalcore/pkg/core/extract"
	"hybridvalcore/pkg/core/llm"
	"hybridvalcore/pkg/core/memo"
	"hybridvalcore/pkg/core/orchestrator"
)

var rootCmd = &cobra.Command{
	Use:   "hybridval",
	Short: "hybridval values a ticker with a DCF/Graham composite and an LLM-written memo",
	Long: `hybridval loads a company's SourceDocument, extracts a structured
StandardizedValuationInput via an LLM, runs the DCF and Graham Number
models against it, blends them into a composite verdict, and — on
request — asks an LLM analyst to write a qualitative investment memo
grounded in that verdict.

Every stage is cached on disk; a second call for the same ticker
returns instantly unless refreshed explicitly.`,
}

// Execute runs the root command. Called once from main.main.
func Execute() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildOrchestrator loads configuration, selects an LLM provider, opens
// the cache, and wires the Extractor and Analyst. Every subcommand calls
// this once; none of the four operations share process state beyond the
// cache itself.
func buildOrchestrator() (*orchestrator.Orchestrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	provider := selectProvider(cfg)

	cacheMgr, err := cache.Open(cfg.CacheDir, cache.TTLs{
		Extraction: cfg.ExtractionCacheTTL,
		Valuation:  cfg.ValuationCacheTTL,
		Analysis:   cfg.AnalysisCacheTTL,
	})
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := cacheMgr.Close(); err != nil {
			log.Warn().Err(err).Msg("hybridval: error closing cache")
		}
	}

	o := orchestrator.New(cfg.DataDir, cacheMgr, extract.New(provider, cfg.EquityRiskPremiumDefault), memo.New(provider), cfg.TaxRate)
	return o, closer, nil
}

// selectProvider picks the backend by LLM_PROVIDER ("deepseek" or
// "gemini"), defaulting to DeepSeek.
func selectProvider(cfg *config.Config) llm.Provider {
	switch os.Getenv("LLM_PROVIDER") {
	case "gemini":
		return &llm.GeminiProvider{APIKey: cfg.LLMAPIKey, Model: cfg.LLMModel}
	default:
		return &llm.DeepSeekProvider{APIKey: cfg.LLMAPIKey, Model: cfg.LLMModel}
	}
}

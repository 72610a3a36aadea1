// Package config loads the process-wide configuration snapshot. It is
// the only global state besides the cache handle, and both are
// initialized once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the immutable configuration snapshot for one process.
type Config struct {
	LLMAPIKey   string
	LLMModel    string
	DataDir     string
	CacheDir    string

	ExtractionCacheTTL time.Duration
	ValuationCacheTTL  time.Duration
	AnalysisCacheTTL   time.Duration

	EquityRiskPremiumDefault float64
	TaxRate                  float64
}

// Load reads configuration from the environment, loading a .env file
// first if one is present — a missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LLMAPIKey: os.Getenv("LLM_API_KEY"),
		LLMModel:  os.Getenv("LLM_MODEL_NAME"),
		DataDir:   os.Getenv("DATA_DIR"),
		CacheDir:  os.Getenv("CACHE_DIR"),

		ExtractionCacheTTL: durationSecondsOr("EXTRACTION_CACHE_TTL", 7*24*time.Hour),
		ValuationCacheTTL:  durationSecondsOr("VALUATION_CACHE_TTL", 24*time.Hour),
		AnalysisCacheTTL:   durationSecondsOr("ANALYSIS_CACHE_TTL", 7*24*time.Hour),

		EquityRiskPremiumDefault: floatOr("EQUITY_RISK_PREMIUM_DEFAULT", 0.05),
		TaxRate:                  floatOr("TAX_RATE", 0.21),
	}

	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("config: LLM_API_KEY is required")
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("config: DATA_DIR is required")
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("config: CACHE_DIR is required")
	}

	return cfg, nil
}

func durationSecondsOr(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return time.Duration(secs * float64(time.Second))
}

func floatOr(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

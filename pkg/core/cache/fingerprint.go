package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"hybridvalcore/pkg/core/canonjson"
)

// Stage is the CacheEntry stage enum, kept as a typed string so the
// per-stage TTL table in manager.go is compile-time checked rather than
// keyed by bare strings.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageValuation  Stage = "valuation"
	StageAnalysis   Stage = "analysis"
	StagePrice      Stage = "price"
)

// digest returns the lowercase hex sha256 of s. The inner per-field
// digest and the outer key digest both reduce to this same primitive;
// there is no reason to distinguish them as different functions.
func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// fingerprint hashes a composed key string down to the fixed-width form
// actually stored as a cache key.
func fingerprint(s string) string {
	return digest(s)
}

// canonicalDigest canonicalizes v to its deterministic JSON form (sorted
// keys, minimal number formatting) and returns its sha256 digest, used
// wherever a fingerprint formula calls for sha256 of a JSON payload.
func canonicalDigest(v interface{}) (string, error) {
	b, err := canonjson.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cache: canonicalize for fingerprint: %w", err)
	}
	return digest(string(b)), nil
}

// ExtractionKey is `h("extract:" + ticker + ":" + sha256(truncated_source) + ":" + schema_version)`.
func ExtractionKey(ticker string, truncated interface{}, schemaVersion string) (string, error) {
	truncatedDigest, err := canonicalDigest(truncated)
	if err != nil {
		return "", err
	}
	return fingerprint(fmt.Sprintf("extract:%s:%s:%s", ticker, truncatedDigest, schemaVersion)), nil
}

// ValuationKey is `h("valuation:" + sha256(SVI_canonical_json) + ":" + engine_version)`.
func ValuationKey(svi interface{}, engineVersion string) (string, error) {
	sviDigest, err := canonicalDigest(svi)
	if err != nil {
		return "", err
	}
	return fingerprint(fmt.Sprintf("valuation:%s:%s", sviDigest, engineVersion)), nil
}

// AnalysisKey is `h("analysis:" + sha256(SVI_canonical_json) + ":" + valuation_fingerprint + ":" + memo_version)`.
func AnalysisKey(svi interface{}, valuationFingerprint string, memoVersion string) (string, error) {
	sviDigest, err := canonicalDigest(svi)
	if err != nil {
		return "", err
	}
	return fingerprint(fmt.Sprintf("analysis:%s:%s:%s", sviDigest, valuationFingerprint, memoVersion)), nil
}

// PriceKey is `h("price:" + ticker)`. Listed for completeness; the
// price stage itself is not implemented by this module.
func PriceKey(ticker string) string {
	return fingerprint("price:" + ticker)
}

package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"hybridvalcore/pkg/core/coreerrors"
)

// validTicker matches the ticker formats this core accepts: 1-10
// uppercase letters, digits, dots, or hyphens. Anything else (path
// separators, "..", whitespace) is rejected before it ever reaches a
// filesystem call.
var validTicker = regexp.MustCompile(`^[A-Z0-9.-]{1,10}$`)

// Load reads ticker's SourceDocument from dataDir, stored as
// "<ticker>.json". A missing file, or a ticker that fails the ticker
// format check, is reported as coreerrors.ErrUnknownTicker.
func Load(dataDir, ticker string) (*Document, error) {
	if !validTicker.MatchString(ticker) {
		return nil, fmt.Errorf("source: %w: %s", coreerrors.ErrUnknownTicker, ticker)
	}

	path := filepath.Join(dataDir, ticker+".json")

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("source: %w: %s", coreerrors.ErrUnknownTicker, ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", path, err)
	}
	doc.Ticker = ticker

	return &doc, nil
}

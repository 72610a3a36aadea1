package source

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hybridvalcore/pkg/core/coreerrors"
)

func writeFixture(t *testing.T, dataDir, ticker string) {
	t.Helper()
	doc := Document{CompanyMetadata: &CompanyMetadata{Name: "Acme Corp"}}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, ticker+".json"), raw, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestLoad_ReadsAndStampsTicker(t *testing.T) {
	dataDir := t.TempDir()
	writeFixture(t, dataDir, "ACME")

	doc, err := Load(dataDir, "ACME")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Ticker != "ACME" {
		t.Errorf("Ticker = %q, want ACME", doc.Ticker)
	}
	if doc.CompanyMetadata == nil || doc.CompanyMetadata.Name != "Acme Corp" {
		t.Errorf("CompanyMetadata not loaded correctly: %+v", doc.CompanyMetadata)
	}
}

func TestLoad_MissingFileIsUnknownTicker(t *testing.T) {
	dataDir := t.TempDir()

	_, err := Load(dataDir, "NOPE")
	if !errors.Is(err, coreerrors.ErrUnknownTicker) {
		t.Fatalf("err = %v, want ErrUnknownTicker", err)
	}
}

func TestLoad_RejectsPathTraversalTicker(t *testing.T) {
	dataDir := t.TempDir()
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write outside fixture: %v", err)
	}

	for _, ticker := range []string{
		"../secret",
		"../" + filepath.Base(outside) + "/secret",
		"a/../../secret",
		"ACME/..",
		"",
		"TOOLONGTICKER1",
		"lower",
	} {
		_, err := Load(dataDir, ticker)
		if !errors.Is(err, coreerrors.ErrUnknownTicker) {
			t.Errorf("ticker %q: err = %v, want ErrUnknownTicker", ticker, err)
		}
	}
}

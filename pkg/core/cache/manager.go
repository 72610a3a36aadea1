// Package cache implements a shared, persistent, on-disk KV store keyed
// by the fingerprints in fingerprint.go, with single-flight
// deduplication and per-stage TTLs.
package cache

import (
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/sync/singleflight"
)

// TTLs holds the per-stage cache lifetimes. A zero field falls back to
// this package's default for that stage; the price stage has no
// configurable TTL since nothing in this core writes StagePrice yet.
type TTLs struct {
	Extraction time.Duration
	Valuation  time.Duration
	Analysis   time.Duration
}

const (
	defaultExtractionTTL = 7 * 24 * time.Hour
	defaultValuationTTL  = 24 * time.Hour
	defaultAnalysisTTL   = 7 * 24 * time.Hour
	stagePriceTTL        = 30 * time.Second
)

func (t TTLs) stageTable() map[Stage]time.Duration {
	return map[Stage]time.Duration{
		StageExtraction: durationOr(t.Extraction, defaultExtractionTTL),
		StageValuation:  durationOr(t.Valuation, defaultValuationTTL),
		StageAnalysis:   durationOr(t.Analysis, defaultAnalysisTTL),
		StagePrice:      stagePriceTTL,
	}
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Manager is the shared on-disk cache. Badger gives native per-key TTL,
// atomic puts, and a disk-backed store that survives a process restart
// without a separate database dependency; configuration only exposes a
// CACHE_DIR path, not a connection string.
type Manager struct {
	db       *badger.DB
	group    singleflight.Group
	stageTTL map[Stage]time.Duration
}

// Open opens (or creates) a Badger store rooted at dir, applying ttls
// (falling back to this package's defaults for any zero field).
func Open(dir string, ttls TTLs) (*Manager, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger store at %s: %w", dir, err)
	}
	return &Manager{db: db, stageTTL: ttls.stageTable()}, nil
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Get returns the cached payload for key, or ok=false on a cache miss or
// TTL expiry (Badger itself drops expired keys from reads).
func (m *Manager) Get(key string) (payload []byte, ok bool, err error) {
	err = m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return item.Value(func(val []byte) error {
			payload = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return payload, ok, nil
}

// set writes payload under key with the TTL for stage. This and
// Invalidate are the only mutation paths on a cache entry.
func (m *Manager) set(stage Stage, key string, payload []byte) error {
	return m.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), payload).WithTTL(m.stageTTL[stage])
		return txn.SetEntry(entry)
	})
}

// Invalidate deletes key, forcing the next GetOrCompute to recompute.
// A refresh call in dependency order evicts extraction, then valuation,
// then analysis; callers are responsible for invalidating the dependent
// keys themselves.
func (m *Manager) Invalidate(key string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", key, err)
	}
	return nil
}

// GetOrCompute returns the cached payload for key if present; otherwise
// it runs compute under a per-key single-flight lock, stores the result
// with stage's TTL, and returns it. Concurrent callers for the same key
// observe one in-flight compute and share its result — the lock is held
// for the duration of compute and released only after the cache write is
// durable, so a cancelled waiter never leaves the cache unpopulated.
func (m *Manager) GetOrCompute(stage Stage, key string, compute func() ([]byte, error)) ([]byte, error) {
	if payload, ok, err := m.Get(key); err != nil {
		return nil, err
	} else if ok {
		return payload, nil
	}

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		// A leader that finished between our Get and Do has already
		// written the entry; reuse it instead of computing again.
		if payload, ok, err := m.Get(key); err != nil {
			return nil, err
		} else if ok {
			return payload, nil
		}
		payload, err := compute()
		if err != nil {
			return nil, err
		}
		if err := m.set(stage, key, payload); err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

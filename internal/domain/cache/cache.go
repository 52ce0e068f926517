// Package cache keeps the enriched catalog keyed by the SHA-256 of the source
// bytes it was built from.
//
// Two keys hold the state: the hash, and an envelope with the catalog plus the
// hash it belongs to. Readers verify the envelope hash, so a torn write on a
// non-transactional store reads as a miss instead of a mismatched pair.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/corey/zeal/internal/apperrors"
	"github.com/corey/zeal/internal/ports"
	"go.uber.org/zap"
)

// Fixed logical keys.
const (
	HashKey = "zeal:catalog:hash"
	DataKey = "zeal:catalog:data"
)

// Outcome labels a lookup result.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeMiss    Outcome = "miss"
	OutcomeStale   Outcome = "stale"
	OutcomeCorrupt Outcome = "corrupt"
)

// Lookup is the result of CheckOrLoad. Catalog is set only on a hit.
type Lookup struct {
	Catalog []ports.Restaurant
	Hit     bool
	Hash    string
	Outcome Outcome
}

type envelope struct {
	Hash        string             `json:"hash"`
	Restaurants []ports.Restaurant `json:"restaurants"`
}

// Manager reads and writes the cached catalog through a KVStore.
type Manager struct {
	store ports.KVStore
	log   *zap.Logger
}

// NewManager returns a Manager over store.
func NewManager(store ports.KVStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, log: log.Named("cache")}
}

// Hash returns the lowercase hex SHA-256 of raw.
func Hash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// CheckOrLoad returns the cached catalog when it was built from exactly raw.
// Read failures and unusable entries are misses; the only error is a
// cancelled context.
func (m *Manager) CheckOrLoad(ctx context.Context, raw []byte) (Lookup, error) {
	current := Hash(raw)
	res := Lookup{Hash: current, Outcome: OutcomeMiss}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	stored, ok, err := m.store.Get(ctx, HashKey)
	if err != nil {
		m.corrupt(&res, "read hash", err)
		return res, nil
	}
	if !ok || len(stored) == 0 {
		return res, nil
	}
	if string(stored) != current {
		res.Outcome = OutcomeStale
		m.log.Debug("source changed", zap.String("stored", string(stored)), zap.String("current", current))
		return res, nil
	}

	data, ok, err := m.store.Get(ctx, DataKey)
	if err != nil {
		m.corrupt(&res, "read catalog", err)
		return res, nil
	}
	if !ok {
		m.corrupt(&res, "catalog missing", nil)
		return res, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		m.corrupt(&res, "decode catalog", err)
		return res, nil
	}
	if env.Hash != current {
		m.corrupt(&res, "catalog hash mismatch", nil)
		return res, nil
	}
	if len(env.Restaurants) == 0 {
		m.corrupt(&res, "catalog empty", nil)
		return res, nil
	}

	res.Catalog = env.Restaurants
	res.Hit = true
	res.Outcome = OutcomeHit
	return res, nil
}

func (m *Manager) corrupt(res *Lookup, details string, err error) {
	res.Outcome = OutcomeCorrupt
	m.log.Warn("cache entry unusable, recomputing",
		zap.Error(apperrors.NewCacheCorruptError(details, err)))
}

// Store persists hash and catalog. Atomic stores write both keys in one
// transaction; otherwise the catalog goes first and the hash last.
func (m *Manager) Store(ctx context.Context, hash string, catalog []ports.Restaurant) error {
	if catalog == nil {
		catalog = []ports.Restaurant{}
	}
	data, err := json.Marshal(envelope{Hash: hash, Restaurants: catalog})
	if err != nil {
		return apperrors.NewCacheStoreFailedError(fmt.Errorf("encode catalog: %w", err))
	}

	if atomic, ok := m.store.(ports.AtomicKVStore); ok {
		if err := atomic.SetAll(ctx, map[string][]byte{
			DataKey: data,
			HashKey: []byte(hash),
		}); err != nil {
			return apperrors.NewCacheStoreFailedError(err)
		}
		return nil
	}

	if err := m.store.Set(ctx, DataKey, data); err != nil {
		return apperrors.NewCacheStoreFailedError(err)
	}
	if err := m.store.Set(ctx, HashKey, []byte(hash)); err != nil {
		return apperrors.NewCacheStoreFailedError(err)
	}
	return nil
}

// Invalidate clears the stored hash so the next load recomputes.
func (m *Manager) Invalidate(ctx context.Context) error {
	if err := m.store.Set(ctx, HashKey, []byte{}); err != nil {
		return apperrors.NewCacheStoreFailedError(err)
	}
	return nil
}

// StoredHash returns the hash currently persisted, if any.
func (m *Manager) StoredHash(ctx context.Context) (string, bool, error) {
	v, ok, err := m.store.Get(ctx, HashKey)
	if err != nil {
		return "", false, fmt.Errorf("read hash: %w", err)
	}
	if !ok || len(v) == 0 {
		return "", false, nil
	}
	return string(v), true, nil
}

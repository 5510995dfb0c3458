package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// storedEntry is the serialized form held in the cache. Addresses are kept
// as base58 strings so the stored state is portable and survives without
// referencing live key material.
type storedEntry struct {
	id    string
	mintA string
	mintB string
	tvl   float64
	price float64
}

// Cache holds one catalogue snapshot with a write timestamp. It is built by
// its owner and passed where needed; there is no package-level instance.
type Cache struct {
	mu        sync.RWMutex
	writtenAt time.Time
	amm       []storedEntry
	clmm      []storedEntry
	cpmm      []storedEntry
	logger    *zap.Logger
}

func NewCache(logger *zap.Logger) *Cache {
	return &Cache{logger: logger.Named("catalog-cache")}
}

// Write replaces the cached catalogue and stamps the current time. The swap
// is all-or-nothing: serialization runs before the lock is taken, and a
// failure leaves the previous snapshot in place and is logged, not returned.
func (c *Cache) Write(snap Snapshot) {
	amm, err := serializeEntries(snap.AmmPools)
	clmm, err2 := serializeEntries(snap.ClmmPools)
	cpmm, err3 := serializeEntries(snap.CpmmPools)
	if err != nil || err2 != nil || err3 != nil {
		c.logger.Error("catalogue snapshot rejected, previous cache kept",
			zap.NamedError("amm", err),
			zap.NamedError("clmm", err2),
			zap.NamedError("cpmm", err3))
		return
	}

	c.mu.Lock()
	c.amm, c.clmm, c.cpmm = amm, clmm, cpmm
	c.writtenAt = time.Now()
	c.mu.Unlock()

	c.logger.Debug("catalogue cached",
		zap.Int("amm", len(amm)),
		zap.Int("clmm", len(clmm)),
		zap.Int("cpmm", len(cpmm)))
}

// Read returns the cached snapshot if it is younger than maxAge, otherwise
// an empty snapshot. A stale read is a cold cache, not an error, and never
// mutates the stored state.
func (c *Cache) Read(maxAge time.Duration) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.writtenAt.IsZero() || time.Since(c.writtenAt) > maxAge {
		return Snapshot{}
	}
	return Snapshot{
		AmmPools:  c.deserializeEntries(c.amm),
		ClmmPools: c.deserializeEntries(c.clmm),
		CpmmPools: c.deserializeEntries(c.cpmm),
	}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.amm, c.clmm, c.cpmm = nil, nil, nil
	c.writtenAt = time.Time{}
	c.mu.Unlock()
}

func serializeEntries(pools []PoolEntry) ([]storedEntry, error) {
	out := make([]storedEntry, 0, len(pools))
	for _, p := range pools {
		if p.ID.IsZero() {
			return nil, fmt.Errorf("pool entry with zero id")
		}
		out = append(out, storedEntry{
			id:    base58.Encode(p.ID[:]),
			mintA: base58.Encode(p.MintA[:]),
			mintB: base58.Encode(p.MintB[:]),
			tvl:   p.TVL,
			price: p.Price,
		})
	}
	return out, nil
}

func (c *Cache) deserializeEntries(stored []storedEntry) []PoolEntry {
	if len(stored) == 0 {
		return nil
	}
	out := make([]PoolEntry, 0, len(stored))
	for _, s := range stored {
		id, err := decodeKey(s.id)
		if err != nil {
			c.logger.Warn("dropping corrupt cache entry", zap.String("id", s.id), zap.Error(err))
			continue
		}
		mintA, errA := decodeKey(s.mintA)
		mintB, errB := decodeKey(s.mintB)
		if errA != nil || errB != nil {
			c.logger.Warn("dropping corrupt cache entry", zap.String("id", s.id))
			continue
		}
		out = append(out, PoolEntry{ID: id, MintA: mintA, MintB: mintB, TVL: s.tvl, Price: s.price})
	}
	return out
}

func decodeKey(s string) (solana.PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("key %q decodes to %d bytes", s, len(raw))
	}
	return solana.PublicKeyFromBytes(raw), nil
}

package monitor

import (
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-pool-monitor/internal/layout"
)

// VaultSide says which reserve of a pool a vault account backs.
type VaultSide uint8

const (
	SideBase VaultSide = iota
	SideQuote
)

func (s VaultSide) String() string {
	if s == SideBase {
		return "base"
	}
	return "quote"
}

type correlation struct {
	pool solana.PublicKey
	side VaultSide
}

// poolRecord is a pool's partially-filled live state. Vault slots fill in
// as their accounts are observed; metrics are derivable only with both.
type poolRecord struct {
	info  *layout.AmmPoolState
	base  *layout.TokenAccount
	quote *layout.TokenAccount
}

// Tracker merges the two notification streams into a consistent derived
// view: a vault-address correlation index plus a per-pool state cache.
// Pool and vault updates arrive interleaved and in any order; a vault seen
// before its owning pool is dropped and picked up again on its next change.
//
// All mutation goes through one mutex so the upsert-then-derive sequence
// stays single-writer even when both subscription loops run concurrently.
type Tracker struct {
	mu     sync.Mutex
	vaults map[solana.PublicKey]correlation
	pools  map[solana.PublicKey]*poolRecord
	logger *zap.Logger
}

func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{
		vaults: make(map[solana.PublicKey]correlation),
		pools:  make(map[solana.PublicKey]*poolRecord),
		logger: logger.Named("tracker"),
	}
}

// ApplyPool replaces the pool's metadata wholesale — the pool account is
// authoritative in a single update — while keeping any vault balances that
// are still backed by the same vault addresses. When the pool points at new
// vault addresses, the superseded correlation entries are retired and the
// affected balance slots cleared, so stale vaults cannot keep feeding the
// pool's metrics.
func (t *Tracker) ApplyPool(pool solana.PublicKey, info *layout.AmmPoolState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.pools[pool]
	if !ok {
		rec = &poolRecord{}
		t.pools[pool] = rec
	}

	if prev := rec.info; prev != nil {
		if !prev.BaseVault.Equals(info.BaseVault) {
			delete(t.vaults, prev.BaseVault)
			rec.base = nil
		}
		if !prev.QuoteVault.Equals(info.QuoteVault) {
			delete(t.vaults, prev.QuoteVault)
			rec.quote = nil
		}
	}

	rec.info = info
	t.vaults[info.BaseVault] = correlation{pool: pool, side: SideBase}
	t.vaults[info.QuoteVault] = correlation{pool: pool, side: SideQuote}
}

// ApplyVault attributes a vault balance update to its owning pool and
// recomputes the derived metrics. The bool is false when the vault has no
// correlation entry (observed before its pool — an expected race, not an
// error), or when the other vault slot is still empty.
func (t *Tracker) ApplyVault(vault solana.PublicKey, acct *layout.TokenAccount) (Metrics, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	corr, ok := t.vaults[vault]
	if !ok {
		return Metrics{}, false
	}
	rec, ok := t.pools[corr.pool]
	if !ok {
		// Correlation outlived its pool record; nothing to attach to.
		return Metrics{}, false
	}

	switch corr.side {
	case SideBase:
		rec.base = acct
	case SideQuote:
		rec.quote = acct
	}

	return t.computeLocked(corr.pool, rec)
}

// Lookup reports which pool and side a vault address belongs to.
func (t *Tracker) Lookup(vault solana.PublicKey) (solana.PublicKey, VaultSide, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	corr, ok := t.vaults[vault]
	return corr.pool, corr.side, ok
}

// TryCompute derives the current metrics for a pool, or reports false while
// either vault slot is still unobserved.
func (t *Tracker) TryCompute(pool solana.PublicKey) (Metrics, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.pools[pool]
	if !ok {
		return Metrics{}, false
	}
	return t.computeLocked(pool, rec)
}

func (t *Tracker) computeLocked(pool solana.PublicKey, rec *poolRecord) (Metrics, bool) {
	if rec.info == nil || rec.base == nil || rec.quote == nil {
		return Metrics{}, false
	}
	m, err := deriveMetrics(pool, rec.info, rec.base, rec.quote)
	if err != nil {
		t.logger.Warn("metrics not derivable",
			zap.String("pool", pool.String()),
			zap.Error(err))
		return Metrics{}, false
	}
	return m, true
}

// PoolCount reports how many pools the cache currently tracks.
func (t *Tracker) PoolCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pools)
}

// VaultCount reports how many vault correlations are live.
func (t *Tracker) VaultCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.vaults)
}

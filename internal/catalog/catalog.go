// Package catalog fetches the exchange-wide pool listing from the Raydium v3
// HTTP API and keeps it in an owned, TTL-bounded in-memory cache. The cache
// is independent of the live account monitor.
package catalog

import "github.com/gagliardetto/solana-go"

// PoolEntry is one listed pool, reduced to the fields the monitor cares
// about when deciding what to watch.
type PoolEntry struct {
	ID    solana.PublicKey
	MintA solana.PublicKey
	MintB solana.PublicKey
	TVL   float64
	Price float64
}

// Snapshot groups the catalogue by pool kind.
type Snapshot struct {
	AmmPools  []PoolEntry
	ClmmPools []PoolEntry
	CpmmPools []PoolEntry
}

func (s Snapshot) Empty() bool {
	return len(s.AmmPools) == 0 && len(s.ClmmPools) == 0 && len(s.CpmmPools) == 0
}

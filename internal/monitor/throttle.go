package monitor

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// MetricsThrottler rate-limits derived metrics per pool. Busy pools can emit
// on every vault change, many times per slot; downstream consumers usually
// want at most one update per interval, with the newest value winning.
type MetricsThrottler struct {
	mu       sync.Mutex
	interval time.Duration
	next     MetricsHandler
	lastSent map[solana.PublicKey]time.Time
	pending  map[solana.PublicKey]Metrics
	logger   *zap.Logger

	sent    uint64
	dropped uint64
}

func NewMetricsThrottler(interval time.Duration, next MetricsHandler, logger *zap.Logger) *MetricsThrottler {
	return &MetricsThrottler{
		interval: interval,
		next:     next,
		lastSent: make(map[solana.PublicKey]time.Time),
		pending:  make(map[solana.PublicKey]Metrics),
		logger:   logger.Named("metrics-throttler"),
	}
}

// Handle passes metrics through when the pool's interval has elapsed,
// otherwise replaces that pool's pending value. Safe for concurrent use.
func (t *MetricsThrottler) Handle(m Metrics) {
	t.mu.Lock()

	now := time.Now()
	if now.Sub(t.lastSent[m.Pool]) < t.interval {
		t.pending[m.Pool] = m
		t.dropped++
		t.mu.Unlock()
		return
	}

	t.lastSent[m.Pool] = now
	delete(t.pending, m.Pool)
	t.sent++
	t.mu.Unlock()

	t.next(m)
}

// idlePruneFactor scales the interval into the idle horizon after which a
// pool's throttle state is forgotten. Pools churn constantly on mainnet;
// without pruning, lastSent grows with every pool ever seen.
const idlePruneFactor = 10

// Flush emits pending metrics whose interval has elapsed and drops throttle
// state for pools that have been idle for idlePruneFactor intervals. Call
// periodically so the last update of a burst is not lost.
func (t *MetricsThrottler) Flush() {
	t.mu.Lock()
	now := time.Now()
	var due []Metrics
	for pool, m := range t.pending {
		if now.Sub(t.lastSent[pool]) >= t.interval {
			t.lastSent[pool] = now
			delete(t.pending, pool)
			due = append(due, m)
		}
	}
	for pool, last := range t.lastSent {
		if _, waiting := t.pending[pool]; waiting {
			continue
		}
		if now.Sub(last) >= t.interval*idlePruneFactor {
			delete(t.lastSent, pool)
		}
	}
	t.sent += uint64(len(due))
	t.mu.Unlock()

	for _, m := range due {
		t.next(m)
	}
}

// Run flushes on a ticker until done is closed, then drains once more.
func (t *MetricsThrottler) Run(done <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			t.Flush()
			return
		case <-ticker.C:
			t.Flush()
		}
	}
}

// Stats reports how many updates passed through and how many were coalesced.
func (t *MetricsThrottler) Stats() (sent, dropped uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sent, t.dropped
}

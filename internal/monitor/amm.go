// Package monitor tracks live liquidity-pool state off a Solana node's
// account-change feed. The AMM monitor correlates pool accounts with their
// token vaults across two subscription streams; the CLMM monitor derives
// prices from single concentrated-liquidity pool accounts.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-pool-monitor/internal/layout"
)

// MetricsHandler receives derived pool metrics as vault updates land.
type MetricsHandler func(Metrics)

// AmmConfig selects the programs an AmmMonitor watches. Zero values fall
// back to the mainnet Raydium AMM v4 / SPL token programs.
type AmmConfig struct {
	PoolProgram    solana.PublicKey
	VaultProgram   solana.PublicKey
	VaultAuthority solana.PublicKey
	OnMetrics      MetricsHandler
}

// AmmMonitor subscribes to the pool program's accounts and the token
// program's accounts, pipes both streams through the layout decoders into
// the Tracker, and emits derived metrics. The vault stream carries every
// token account the program owns; attribution happens via the Tracker's
// correlation index, not via subscription filters.
type AmmMonitor struct {
	feed    AccountFeed
	tracker *Tracker
	cfg     AmmConfig
	logger  *zap.Logger
}

func NewAmmMonitor(feed AccountFeed, tracker *Tracker, cfg AmmConfig, logger *zap.Logger) *AmmMonitor {
	if cfg.PoolProgram.IsZero() {
		cfg.PoolProgram = RaydiumAmmProgram
	}
	if cfg.VaultProgram.IsZero() {
		cfg.VaultProgram = TokenProgram
	}
	if cfg.VaultAuthority.IsZero() {
		cfg.VaultAuthority = RaydiumAmmAuthority
	}
	return &AmmMonitor{
		feed:    feed,
		tracker: tracker,
		cfg:     cfg,
		logger:  logger.Named("amm-monitor"),
	}
}

// Tracker exposes the live cache for polling.
func (m *AmmMonitor) Tracker() *Tracker {
	return m.tracker
}

// Start opens both subscriptions and returns an idempotent stop function
// that tears them down. Callbacks already in flight when stop is called may
// still fire once; no new notifications are consumed afterwards.
func (m *AmmMonitor) Start(ctx context.Context) (func(), error) {
	poolStream, err := m.feed.SubscribeProgram(ctx, m.cfg.PoolProgram, layout.AmmPoolSpan)
	if err != nil {
		return nil, fmt.Errorf("subscribe pool program: %w", err)
	}
	vaultStream, err := m.feed.SubscribeProgram(ctx, m.cfg.VaultProgram, layout.TokenAccountSpan)
	if err != nil {
		poolStream.Unsubscribe()
		return nil, fmt.Errorf("subscribe vault program: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return consume(gctx, poolStream, m.handlePoolUpdate) })
	g.Go(func() error { return consume(gctx, vaultStream, m.handleVaultUpdate) })

	go func() {
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("subscription loop terminated", zap.Error(err))
		}
	}()

	m.logger.Info("amm monitor started",
		zap.String("pool_program", m.cfg.PoolProgram.String()),
		zap.String("vault_program", m.cfg.VaultProgram.String()))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			poolStream.Unsubscribe()
			vaultStream.Unsubscribe()
			m.logger.Info("amm monitor stopped")
		})
	}
	return stop, nil
}

// Seed reads the pool program's current accounts and applies them so the
// correlation index is warm before the first live notification. Vault
// balances are left to the stream; a vault update for a seeded pool derives
// metrics as soon as both sides have reported.
func (m *AmmMonitor) Seed(ctx context.Context, reader ProgramReader) error {
	accounts, err := reader.ProgramAccounts(ctx, m.cfg.PoolProgram, layout.AmmPoolSpan)
	if err != nil {
		return fmt.Errorf("seed pool accounts: %w", err)
	}

	seeded := 0
	for i := range accounts {
		upd := accounts[i]
		if len(upd.Data) != layout.AmmPoolSpan {
			continue
		}
		info, err := layout.DecodeAmmPool(upd.Data)
		if err != nil {
			m.logger.Warn("skipping undecodable pool account during seed",
				zap.String("account", upd.Address.String()),
				zap.Error(err))
			continue
		}
		m.tracker.ApplyPool(upd.Address, info)
		seeded++
	}

	m.logger.Info("correlation index seeded", zap.Int("pools", seeded))
	return nil
}

// consume drains one stream, handing each update to handler. Context
// cancellation is a clean exit; any other receive error tears the group
// down.
func consume(ctx context.Context, stream AccountStream, handler func(*AccountUpdate)) error {
	for {
		upd, err := stream.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			return err
		}
		if upd == nil {
			continue
		}
		handler(upd)
	}
}

func (m *AmmMonitor) handlePoolUpdate(upd *AccountUpdate) {
	// The AMM program owns other account kinds; wrong span means not a pool.
	if len(upd.Data) != layout.AmmPoolSpan {
		return
	}

	info, err := layout.DecodeAmmPool(upd.Data)
	if err != nil {
		m.logger.Warn("dropping undecodable pool account",
			zap.String("account", upd.Address.String()),
			zap.Error(err))
		return
	}

	m.tracker.ApplyPool(upd.Address, info)
	m.logger.Debug("pool state replaced",
		zap.String("pool", upd.Address.String()),
		zap.String("base_vault", info.BaseVault.String()),
		zap.String("quote_vault", info.QuoteVault.String()),
		zap.Uint64("slot", upd.Slot))
}

func (m *AmmMonitor) handleVaultUpdate(upd *AccountUpdate) {
	if len(upd.Data) != layout.TokenAccountSpan {
		return
	}

	// The token program hosts every SPL account on chain; only addresses
	// with a live correlation entry are ours. A miss is the expected
	// vault-before-pool race, dropped without logging.
	if _, _, ok := m.tracker.Lookup(upd.Address); !ok {
		return
	}

	acct, err := layout.DecodeTokenAccount(upd.Data)
	if err != nil {
		m.logger.Warn("dropping undecodable vault account",
			zap.String("account", upd.Address.String()),
			zap.Error(err))
		return
	}

	if !acct.Owner.Equals(m.cfg.VaultAuthority) {
		m.logger.Debug("vault owner is not the pool authority, ignoring",
			zap.String("account", upd.Address.String()),
			zap.String("owner", acct.Owner.String()))
		return
	}

	metrics, ok := m.tracker.ApplyVault(upd.Address, acct)
	if !ok {
		return
	}

	m.logger.Info("pool metrics updated",
		zap.String("pool", metrics.Pool.String()),
		zap.String("base_reserve", metrics.BaseReserve.String()),
		zap.String("quote_reserve", metrics.QuoteReserve.String()),
		zap.String("price", metrics.Price.String()),
		zap.Uint64("slot", upd.Slot))

	if m.cfg.OnMetrics != nil {
		m.cfg.OnMetrics(metrics)
	}
}

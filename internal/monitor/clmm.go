package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-pool-monitor/internal/layout"
)

// PriceHandler receives one derived price per CLMM pool account change.
type PriceHandler func(pool solana.PublicKey, price decimal.Decimal)

// ClmmMonitor watches the concentrated-liquidity program. One account
// carries everything needed for a price, so there is no cross-stream
// correlation: decode, convert the fixed-point square-root price, call
// back.
type ClmmMonitor struct {
	feed    AccountFeed
	program solana.PublicKey
	onPrice PriceHandler
	logger  *zap.Logger
}

func NewClmmMonitor(feed AccountFeed, program solana.PublicKey, onPrice PriceHandler, logger *zap.Logger) *ClmmMonitor {
	if program.IsZero() {
		program = RaydiumClmmProgram
	}
	return &ClmmMonitor{
		feed:    feed,
		program: program,
		onPrice: onPrice,
		logger:  logger.Named("clmm-monitor"),
	}
}

// Start opens the subscription and returns an idempotent stop function.
func (m *ClmmMonitor) Start(ctx context.Context) (func(), error) {
	stream, err := m.feed.SubscribeProgram(ctx, m.program, layout.ClmmPoolSpan)
	if err != nil {
		return nil, fmt.Errorf("subscribe clmm program: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := consume(runCtx, stream, m.handleUpdate); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("subscription loop terminated", zap.Error(err))
		}
	}()

	m.logger.Info("clmm monitor started", zap.String("program", m.program.String()))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			stream.Unsubscribe()
			m.logger.Info("clmm monitor stopped")
		})
	}
	return stop, nil
}

func (m *ClmmMonitor) handleUpdate(upd *AccountUpdate) {
	if len(upd.Data) != layout.ClmmPoolSpan {
		return
	}

	state, err := layout.DecodeClmmPool(upd.Data)
	if err != nil {
		m.logger.Warn("dropping undecodable clmm pool account",
			zap.String("account", upd.Address.String()),
			zap.Error(err))
		return
	}

	price := ClmmPrice(state)
	m.logger.Debug("clmm price updated",
		zap.String("pool", upd.Address.String()),
		zap.String("price", price.String()),
		zap.Uint64("slot", upd.Slot))

	if m.onPrice != nil {
		m.onPrice(upd.Address, price)
	}
}

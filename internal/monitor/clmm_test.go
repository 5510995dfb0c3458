package monitor

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-pool-monitor/internal/layout"
)

// CLMM PoolState fixture offsets: discriminator, bump, seven keys, decimals,
// tick spacing, liquidity, sqrt price.
const (
	fixClmmMintAOffset     = 8 + 1 + 64
	fixClmmMintBOffset     = fixClmmMintAOffset + 32
	fixClmmVaultAOffset    = fixClmmMintBOffset + 32
	fixClmmVaultBOffset    = fixClmmVaultAOffset + 32
	fixClmmDecimalsAOffset = fixClmmVaultBOffset + 64
	fixClmmDecimalsBOffset = fixClmmDecimalsAOffset + 1
	fixClmmSqrtPriceOffset = fixClmmDecimalsBOffset + 1 + 2 + 16
)

func clmmAccountBytes(t *testing.T, decimalsA, decimalsB uint8, sqrtPriceX64 *big.Int) []byte {
	t.Helper()
	data := make([]byte, layout.ClmmPoolSpan)
	copy(data[fixClmmMintAOffset:], solana.WrappedSol[:])
	copy(data[fixClmmMintBOffset:], solana.NewWallet().PublicKey().Bytes())
	copy(data[fixClmmVaultAOffset:], solana.NewWallet().PublicKey().Bytes())
	copy(data[fixClmmVaultBOffset:], solana.NewWallet().PublicKey().Bytes())
	data[fixClmmDecimalsAOffset] = decimalsA
	data[fixClmmDecimalsBOffset] = decimalsB

	le := sqrtPriceX64.FillBytes(make([]byte, 16))
	for i := 0; i < 16; i++ {
		data[fixClmmSqrtPriceOffset+i] = le[15-i]
	}
	return data
}

type priceUpdate struct {
	pool  solana.PublicKey
	price decimal.Decimal
}

func startClmmMonitor(t *testing.T) (*stubStream, chan priceUpdate, func()) {
	t.Helper()
	feed := newStubFeed()
	updates := make(chan priceUpdate, 16)

	mon := NewClmmMonitor(feed, solana.PublicKey{}, func(pool solana.PublicKey, price decimal.Decimal) {
		updates <- priceUpdate{pool: pool, price: price}
	}, zap.NewNop())

	stop, err := mon.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(stop)
	return feed.streams[RaydiumClmmProgram], updates, stop
}

func TestClmmMonitorEmitsPrice(t *testing.T) {
	stream, updates, _ := startClmmMonitor(t)

	pool := solana.NewWallet().PublicKey()
	sqrt := new(big.Int).Lsh(big.NewInt(3), 64)
	stream.push(pool, clmmAccountBytes(t, 9, 6, sqrt))

	select {
	case upd := <-updates:
		assert.Equal(t, pool, upd.pool)
		assert.True(t, upd.price.Equal(decimal.NewFromInt(9000)), "price %s", upd.price)
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for price")
	}
}

func TestClmmMonitorSurvivesBadUpdates(t *testing.T) {
	stream, updates, _ := startClmmMonitor(t)

	// Wrong span, then correct span with a zero price: both dropped.
	stream.push(solana.NewWallet().PublicKey(), make([]byte, 128))
	stream.push(solana.NewWallet().PublicKey(), make([]byte, layout.ClmmPoolSpan))

	pool := solana.NewWallet().PublicKey()
	stream.push(pool, clmmAccountBytes(t, 6, 6, new(big.Int).Lsh(big.NewInt(1), 64)))

	select {
	case upd := <-updates:
		assert.Equal(t, pool, upd.pool, "bad updates must be skipped, not emitted")
		assert.True(t, upd.price.Equal(decimal.NewFromInt(1)))
	case <-time.After(recvTimeout):
		t.Fatal("subscription did not survive malformed updates")
	}
}

func TestClmmMonitorStopIsIdempotent(t *testing.T) {
	stream, _, stop := startClmmMonitor(t)
	stop()
	stop()
	assert.Equal(t, int32(1), stream.unsubscribes.Load())
}

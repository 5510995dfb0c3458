package monitor

import (
	"context"
	"encoding/binary"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"

	"solana-pool-monitor/internal/layout"
)

// stubStream feeds canned updates to a consumer loop.
type stubStream struct {
	updates      chan *AccountUpdate
	unsubscribes atomic.Int32
}

func newStubStream() *stubStream {
	return &stubStream{updates: make(chan *AccountUpdate, 16)}
}

func (s *stubStream) Recv(ctx context.Context) (*AccountUpdate, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case upd := <-s.updates:
		return upd, nil
	}
}

func (s *stubStream) Unsubscribe() {
	s.unsubscribes.Add(1)
}

func (s *stubStream) push(addr solana.PublicKey, data []byte) {
	s.updates <- &AccountUpdate{Address: addr, Data: data, Slot: 1}
}

// pushEmpty delivers a notification with no payload, as the feed adapter
// may yield for messages it could not interpret.
func (s *stubStream) pushEmpty() {
	s.updates <- nil
}

// stubFeed hands out one stream per program.
type stubFeed struct {
	streams map[solana.PublicKey]*stubStream
	failOn  solana.PublicKey
}

func newStubFeed() *stubFeed {
	return &stubFeed{streams: make(map[solana.PublicKey]*stubStream)}
}

func (f *stubFeed) SubscribeProgram(_ context.Context, program solana.PublicKey, _ uint64) (AccountStream, error) {
	if program.Equals(f.failOn) && !f.failOn.IsZero() {
		return nil, errors.New("subscribe refused")
	}
	stream := newStubStream()
	f.streams[program] = stream
	return stream, nil
}

// Fixture offsets per LIQUIDITY_STATE_LAYOUT_V4 and the SPL token layout.
const (
	fixBaseDecimalOffset  = 32
	fixQuoteDecimalOffset = 40
	fixBaseNeedPnlOffset  = 192
	fixQuoteNeedPnlOffset = 200
	fixBaseVaultOffset    = 336
	fixQuoteVaultOffset   = 368
	fixBaseMintOffset     = 400
	fixQuoteMintOffset    = 432

	fixTokenOwnerOffset  = 32
	fixTokenAmountOffset = 64
	fixTokenStateOffset  = 108
)

type ammFixture struct {
	baseDecimal  uint64
	quoteDecimal uint64
	baseNeedPnl  uint64
	quoteNeedPnl uint64
	baseVault    solana.PublicKey
	quoteVault   solana.PublicKey
}

func (f ammFixture) bytes(t *testing.T) []byte {
	t.Helper()
	data := make([]byte, layout.AmmPoolSpan)
	binary.LittleEndian.PutUint64(data[0:8], 6) // status
	binary.LittleEndian.PutUint64(data[fixBaseDecimalOffset:], f.baseDecimal)
	binary.LittleEndian.PutUint64(data[fixQuoteDecimalOffset:], f.quoteDecimal)
	binary.LittleEndian.PutUint64(data[fixBaseNeedPnlOffset:], f.baseNeedPnl)
	binary.LittleEndian.PutUint64(data[fixQuoteNeedPnlOffset:], f.quoteNeedPnl)
	copy(data[fixBaseVaultOffset:], f.baseVault[:])
	copy(data[fixQuoteVaultOffset:], f.quoteVault[:])
	copy(data[fixBaseMintOffset:], solana.WrappedSol[:])
	copy(data[fixQuoteMintOffset:], solana.NewWallet().PublicKey().Bytes())
	return data
}

func (f ammFixture) decode(t *testing.T) *layout.AmmPoolState {
	t.Helper()
	state, err := layout.DecodeAmmPool(f.bytes(t))
	if err != nil {
		t.Fatalf("fixture does not decode: %v", err)
	}
	return state
}

func tokenAccountBytes(t *testing.T, owner solana.PublicKey, amount uint64) []byte {
	t.Helper()
	data := make([]byte, layout.TokenAccountSpan)
	copy(data[:32], solana.WrappedSol[:])
	copy(data[fixTokenOwnerOffset:], owner[:])
	binary.LittleEndian.PutUint64(data[fixTokenAmountOffset:], amount)
	data[fixTokenStateOffset] = layout.TokenStateInitialized
	return data
}

func tokenAccount(t *testing.T, owner solana.PublicKey, amount uint64) *layout.TokenAccount {
	t.Helper()
	acct, err := layout.DecodeTokenAccount(tokenAccountBytes(t, owner, amount))
	if err != nil {
		t.Fatalf("fixture does not decode: %v", err)
	}
	return acct
}

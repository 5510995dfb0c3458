package monitor

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// AccountUpdate is one account-change notification from the node feed.
type AccountUpdate struct {
	Address solana.PublicKey
	Data    []byte
	Slot    uint64
}

// AccountStream is a single program-accounts subscription. Recv blocks until
// the next notification or ctx is done. Unsubscribe is safe to call more
// than once; updates already in flight may still be delivered to a pending
// Recv.
type AccountStream interface {
	Recv(ctx context.Context) (*AccountUpdate, error)
	Unsubscribe()
}

// AccountFeed hands out account-change subscriptions filtered to a program
// owner and an exact account data size. The websocket-backed implementation
// lives in internal/solclient; tests substitute an in-memory feed.
type AccountFeed interface {
	SubscribeProgram(ctx context.Context, program solana.PublicKey, dataSize uint64) (AccountStream, error)
}

// ProgramReader is the point-read counterpart of AccountFeed, used to warm
// the correlation index before live updates arrive.
type ProgramReader interface {
	ProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64) ([]AccountUpdate, error)
}

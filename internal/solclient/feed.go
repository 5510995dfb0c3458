package solclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"solana-pool-monitor/internal/monitor"
)

var (
	_ monitor.AccountFeed   = (*Client)(nil)
	_ monitor.AccountStream = (*programStream)(nil)
)

// SubscribeProgram opens a programSubscribe stream filtered to accounts of
// the exact data size. The node applies the filter server-side, so the
// stream carries only the account kind the caller asked for.
func (c *Client) SubscribeProgram(ctx context.Context, program solana.PublicKey, dataSize uint64) (monitor.AccountStream, error) {
	sub, err := c.ws.ProgramSubscribeWithOpts(
		program,
		c.commitment,
		solana.EncodingBase64,
		[]rpc.RPCFilter{
			{DataSize: dataSize},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("program subscribe %s (span %d): %w", program, dataSize, err)
	}

	c.logger.Info("subscribed to program accounts",
		zap.Stringer("program", program),
		zap.Uint64("data_size", dataSize))

	return &programStream{sub: sub}, nil
}

type programStream struct {
	sub  *ws.ProgramSubscription
	once sync.Once
}

// Recv blocks on the underlying subscription; Unsubscribe unblocks a
// pending receive. Notifications without account data are skipped, not
// surfaced as errors, so one malformed message cannot take the consumer
// loop down.
func (s *programStream) Recv(_ context.Context) (*monitor.AccountUpdate, error) {
	for {
		result, err := s.sub.Recv()
		if err != nil {
			return nil, err
		}
		if result == nil || result.Value.Account == nil {
			continue
		}
		return &monitor.AccountUpdate{
			Address: result.Value.Pubkey,
			Data:    result.Value.Account.Data.GetBinary(),
			Slot:    result.Context.Slot,
		}, nil
	}
}

func (s *programStream) Unsubscribe() {
	s.once.Do(s.sub.Unsubscribe)
}

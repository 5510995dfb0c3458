// Package solclient is a thin adapter over gagliardetto/solana-go: one RPC
// client for point reads and one websocket client for account-change
// subscriptions, wired together behind the monitor's feed interfaces.
package solclient

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"solana-pool-monitor/internal/monitor"
)

type Client struct {
	rpc        *rpc.Client
	ws         *ws.Client
	commitment rpc.CommitmentType
	logger     *zap.Logger
}

// Connect dials the websocket endpoint and builds the RPC client. The
// websocket connection is the monitor's lifeline; reconnect policy is the
// caller's concern, not this adapter's.
func Connect(ctx context.Context, rpcURL, wsURL string, commitment rpc.CommitmentType, logger *zap.Logger) (*Client, error) {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}

	wsClient, err := ws.Connect(ctx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("connect websocket %s: %w", wsURL, err)
	}

	return &Client{
		rpc:        rpc.New(rpcURL),
		ws:         wsClient,
		commitment: commitment,
		logger:     logger.Named("solclient"),
	}, nil
}

func (c *Client) Close() {
	c.ws.Close()
}

// HealthCheck verifies the RPC endpoint answers at all.
func (c *Client) HealthCheck(ctx context.Context) error {
	version, err := c.rpc.GetVersion(ctx)
	if err != nil {
		return fmt.Errorf("rpc health check: %w", err)
	}
	c.logger.Debug("rpc endpoint healthy", zap.String("solana_core", version.SolanaCore))
	return nil
}

// ProgramAccounts reads all accounts of a program with the given exact data
// size, for warming caches before the live stream takes over.
func (c *Client) ProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64) ([]monitor.AccountUpdate, error) {
	result, err := c.rpc.GetProgramAccountsWithOpts(ctx, program, &rpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{DataSize: dataSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get program accounts %s: %w", program, err)
	}

	updates := make([]monitor.AccountUpdate, 0, len(result))
	for _, keyed := range result {
		if keyed == nil || keyed.Account == nil {
			continue
		}
		updates = append(updates, monitor.AccountUpdate{
			Address: keyed.Pubkey,
			Data:    keyed.Account.Data.GetBinary(),
		})
	}
	return updates, nil
}

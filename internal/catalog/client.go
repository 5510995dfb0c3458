package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	defaultBaseURL        = "https://api-v3.raydium.io"
	defaultRequestTimeout = 10 * time.Second
	defaultPageSize       = 100
	maxFetchTries         = 4

	poolTypeStandard     = "standard"
	poolTypeConcentrated = "concentrated"
)

// CpmmProgram is Raydium's constant-product program; the v3 API lists its
// pools under the same "standard" type as AMM v4, so entries are split by
// program id.
var CpmmProgram = solana.MPK("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")

// Client reads the pool listing from the Raydium v3 API.
type Client struct {
	http     *http.Client
	baseURL  string
	pageSize int
	logger   *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http: &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:  baseURL,
		pageSize: defaultPageSize,
		logger:   logger.Named("catalog-client"),
	}
}

type apiListResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Count int       `json:"count"`
		Data  []apiPool `json:"data"`
	} `json:"data"`
}

type apiPool struct {
	Type      string  `json:"type"`
	ProgramID string  `json:"programId"`
	ID        string  `json:"id"`
	Price     float64 `json:"price"`
	TVL       float64 `json:"tvl"`
	MintA     apiMint `json:"mintA"`
	MintB     apiMint `json:"mintB"`
}

type apiMint struct {
	Address string `json:"address"`
}

// FetchSnapshot pulls the first page of standard and concentrated pools and
// groups them by kind. Each page request retries with exponential backoff.
func (c *Client) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	standard, err := c.fetchPoolsWithRetry(ctx, poolTypeStandard)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch standard pools: %w", err)
	}
	for _, entry := range standard {
		pool, program, err := convertAPIPool(entry)
		if err != nil {
			c.logger.Warn("skipping malformed pool entry", zap.String("id", entry.ID), zap.Error(err))
			continue
		}
		if program.Equals(CpmmProgram) {
			snap.CpmmPools = append(snap.CpmmPools, pool)
		} else {
			snap.AmmPools = append(snap.AmmPools, pool)
		}
	}

	concentrated, err := c.fetchPoolsWithRetry(ctx, poolTypeConcentrated)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch concentrated pools: %w", err)
	}
	for _, entry := range concentrated {
		pool, _, err := convertAPIPool(entry)
		if err != nil {
			c.logger.Warn("skipping malformed pool entry", zap.String("id", entry.ID), zap.Error(err))
			continue
		}
		snap.ClmmPools = append(snap.ClmmPools, pool)
	}

	c.logger.Info("catalogue fetched",
		zap.Int("amm", len(snap.AmmPools)),
		zap.Int("clmm", len(snap.ClmmPools)),
		zap.Int("cpmm", len(snap.CpmmPools)))
	return snap, nil
}

func (c *Client) fetchPoolsWithRetry(ctx context.Context, poolType string) ([]apiPool, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying catalogue fetch",
			zap.String("pool_type", poolType),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	operation := func() ([]apiPool, error) {
		return c.fetchPools(ctx, poolType)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(maxFetchTries),
		backoff.WithNotify(notify))
}

func (c *Client) fetchPools(ctx context.Context, poolType string) ([]apiPool, error) {
	url := fmt.Sprintf("%s/pools/info/list?poolType=%s&poolSortField=default&sortType=desc&pageSize=%d&page=1",
		c.baseURL, poolType, c.pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalogue request completed",
		zap.String("pool_type", poolType),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed apiListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("api reported failure for pool type %s", poolType)
	}
	return parsed.Data.Data, nil
}

func convertAPIPool(entry apiPool) (PoolEntry, solana.PublicKey, error) {
	id, err := solana.PublicKeyFromBase58(entry.ID)
	if err != nil {
		return PoolEntry{}, solana.PublicKey{}, fmt.Errorf("invalid pool id: %w", err)
	}
	mintA, err := solana.PublicKeyFromBase58(entry.MintA.Address)
	if err != nil {
		return PoolEntry{}, solana.PublicKey{}, fmt.Errorf("invalid mint a: %w", err)
	}
	mintB, err := solana.PublicKeyFromBase58(entry.MintB.Address)
	if err != nil {
		return PoolEntry{}, solana.PublicKey{}, fmt.Errorf("invalid mint b: %w", err)
	}
	program, err := solana.PublicKeyFromBase58(entry.ProgramID)
	if err != nil {
		return PoolEntry{}, solana.PublicKey{}, fmt.Errorf("invalid program id: %w", err)
	}

	return PoolEntry{
		ID:    id,
		MintA: mintA,
		MintB: mintB,
		TVL:   entry.TVL,
		Price: entry.Price,
	}, program, nil
}

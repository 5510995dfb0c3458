// Package layout decodes the fixed binary account layouts consumed by the
// monitor: Raydium AMM v4 pool state, SPL token accounts and Raydium CLMM
// pool state. Decoders are pure: exact-span inputs either produce a typed
// record or a *DecodeError, never a panic.
package layout

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AmmPoolSpan is the byte length of LIQUIDITY_STATE_LAYOUT_V4. The Raydium
// AMM program owns other account kinds (open orders, target orders), so the
// span is the cheap first-pass filter.
const AmmPoolSpan = 752

// AmmLayoutVersion is the layout generation this decoder understands.
const AmmLayoutVersion = 4

// AmmPoolState mirrors LIQUIDITY_STATE_LAYOUT_V4 field for field.
// All integers are little-endian on the wire.
type AmmPoolState struct {
	Status             uint64
	Nonce              uint64
	MaxOrder           uint64
	Depth              uint64
	BaseDecimal        uint64
	QuoteDecimal       uint64
	State              uint64
	ResetFlag          uint64
	MinSize            uint64
	VolMaxCutRatio     uint64
	AmountWaveRatio    uint64
	BaseLotSize        uint64
	QuoteLotSize       uint64
	MinPriceMultiplier uint64
	MaxPriceMultiplier uint64
	SystemDecimalValue uint64

	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64

	BaseNeedTakePnl     uint64
	QuoteNeedTakePnl    uint64
	TotalPnlPc          uint64
	TotalPnlCoin        uint64
	PoolOpenTime        uint64
	PunishPcAmount      uint64
	PunishCoinAmount    uint64
	OrderbookToInitTime uint64

	SwapBaseInAmount   bin.Uint128
	SwapQuoteOutAmount bin.Uint128
	SwapBase2QuoteFee  uint64
	SwapQuoteInAmount  bin.Uint128
	SwapBaseOutAmount  bin.Uint128
	SwapQuote2BaseFee  uint64

	BaseVault       solana.PublicKey
	QuoteVault      solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteMint       solana.PublicKey
	LpMint          solana.PublicKey
	OpenOrders      solana.PublicKey
	MarketID        solana.PublicKey
	MarketProgramID solana.PublicKey
	TargetOrders    solana.PublicKey
	WithdrawQueue   solana.PublicKey
	LpVault         solana.PublicKey
	Owner           solana.PublicKey

	LpReserve uint64
	Padding   [3]uint64
}

// DecodeAmmPool interprets data as an AMM v4 pool account. Inputs whose
// length differs from AmmPoolSpan fail with ErrLengthMismatch before any
// field extraction.
func DecodeAmmPool(data []byte) (*AmmPoolState, error) {
	if len(data) != AmmPoolSpan {
		return nil, lengthMismatch("amm pool", len(data), AmmPoolSpan)
	}

	state := new(AmmPoolState)
	if err := bin.NewBinDecoder(data).Decode(state); err != nil {
		return nil, newDecodeError("amm pool", "", err)
	}

	if err := validateAmmPool(state); err != nil {
		return nil, err
	}
	return state, nil
}

func validateAmmPool(state *AmmPoolState) error {
	if state.BaseDecimal > maxTokenDecimals || state.QuoteDecimal > maxTokenDecimals {
		return newDecodeError("amm pool", "decimals",
			fmt.Errorf("out of range: base=%d quote=%d", state.BaseDecimal, state.QuoteDecimal))
	}
	if state.BaseVault.IsZero() || state.QuoteVault.IsZero() {
		return newDecodeError("amm pool", "vaults", fmt.Errorf("zero vault address"))
	}
	if state.BaseMint.IsZero() || state.QuoteMint.IsZero() {
		return newDecodeError("amm pool", "mints", fmt.Errorf("zero mint address"))
	}
	return nil
}

// SPL mints never exceed 9 decimals in practice; 18 leaves headroom without
// letting a corrupted buffer produce absurd exponents downstream.
const maxTokenDecimals = 18

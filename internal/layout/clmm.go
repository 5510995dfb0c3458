package layout

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// ClmmPoolSpan is the byte length of the Raydium CLMM PoolState account.
const ClmmPoolSpan = 1544

// CLMM PoolState field offsets: 8-byte anchor discriminator, bump, then
// seven public keys, the per-mint decimals and the fixed-point price block.
const (
	clmmAmmConfigOffset    = 8 + 1
	clmmOwnerOffset        = clmmAmmConfigOffset + 32
	clmmMintAOffset        = clmmOwnerOffset + 32
	clmmMintBOffset        = clmmMintAOffset + 32
	clmmVaultAOffset       = clmmMintBOffset + 32
	clmmVaultBOffset       = clmmVaultAOffset + 32
	clmmObservationOffset  = clmmVaultBOffset + 32
	clmmMintDecimalsA      = clmmObservationOffset + 32
	clmmMintDecimalsB      = clmmMintDecimalsA + 1
	clmmTickSpacingOffset  = clmmMintDecimalsB + 1
	clmmLiquidityOffset    = clmmTickSpacingOffset + 2
	clmmSqrtPriceX64Offset = clmmLiquidityOffset + 16
	clmmTickCurrentOffset  = clmmSqrtPriceX64Offset + 16
)

// ClmmPoolState carries the concentrated-liquidity fields needed to derive
// a spot price: the Q64.64 square-root price and both mints' decimals.
type ClmmPoolState struct {
	AmmConfig    solana.PublicKey
	Owner        solana.PublicKey
	MintA        solana.PublicKey
	MintB        solana.PublicKey
	VaultA       solana.PublicKey
	VaultB       solana.PublicKey
	DecimalsA    uint8
	DecimalsB    uint8
	TickSpacing  uint16
	Liquidity    *big.Int
	SqrtPriceX64 *big.Int
	TickCurrent  int32
}

// DecodeClmmPool interprets data as a CLMM PoolState account. Any length
// other than ClmmPoolSpan is rejected with ErrLengthMismatch.
func DecodeClmmPool(data []byte) (*ClmmPoolState, error) {
	if len(data) != ClmmPoolSpan {
		return nil, lengthMismatch("clmm pool", len(data), ClmmPoolSpan)
	}

	state := &ClmmPoolState{
		AmmConfig:    readPubKey(data, clmmAmmConfigOffset),
		Owner:        readPubKey(data, clmmOwnerOffset),
		MintA:        readPubKey(data, clmmMintAOffset),
		MintB:        readPubKey(data, clmmMintBOffset),
		VaultA:       readPubKey(data, clmmVaultAOffset),
		VaultB:       readPubKey(data, clmmVaultBOffset),
		DecimalsA:    readUint8(data, clmmMintDecimalsA),
		DecimalsB:    readUint8(data, clmmMintDecimalsB),
		TickSpacing:  readUint16(data, clmmTickSpacingOffset),
		Liquidity:    readUint128(data, clmmLiquidityOffset),
		SqrtPriceX64: readUint128(data, clmmSqrtPriceX64Offset),
		TickCurrent:  readInt32(data, clmmTickCurrentOffset),
	}

	if uint64(state.DecimalsA) > maxTokenDecimals || uint64(state.DecimalsB) > maxTokenDecimals {
		return nil, newDecodeError("clmm pool", "decimals",
			fmt.Errorf("out of range: a=%d b=%d", state.DecimalsA, state.DecimalsB))
	}
	if state.MintA.IsZero() || state.MintB.IsZero() {
		return nil, newDecodeError("clmm pool", "mints", fmt.Errorf("zero mint address"))
	}
	if state.SqrtPriceX64.Sign() == 0 {
		return nil, newDecodeError("clmm pool", "sqrt_price_x64", fmt.Errorf("zero price"))
	}
	return state, nil
}

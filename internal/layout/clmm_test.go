package layout

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putUint128(data []byte, offset int, v *big.Int) {
	be := v.FillBytes(make([]byte, 16))
	for i := 0; i < 16; i++ {
		data[offset+i] = be[15-i]
	}
}

func validClmmAccount(t *testing.T, sqrtPriceX64 *big.Int) []byte {
	t.Helper()
	data := make([]byte, ClmmPoolSpan)
	copy(data[clmmMintAOffset:], solana.WrappedSol[:])
	copy(data[clmmMintBOffset:], solana.NewWallet().PublicKey().Bytes())
	copy(data[clmmVaultAOffset:], solana.NewWallet().PublicKey().Bytes())
	copy(data[clmmVaultBOffset:], solana.NewWallet().PublicKey().Bytes())
	data[clmmMintDecimalsA] = 9
	data[clmmMintDecimalsB] = 6
	binary.LittleEndian.PutUint16(data[clmmTickSpacingOffset:], 60)
	putUint128(data, clmmLiquidityOffset, big.NewInt(1_000_000))
	putUint128(data, clmmSqrtPriceX64Offset, sqrtPriceX64)
	binary.LittleEndian.PutUint32(data[clmmTickCurrentOffset:], uint32(0xFFFFFFF0)) // -16
	return data
}

func TestDecodeClmmPool(t *testing.T) {
	// sqrtPriceX64 = 3 * 2^64, i.e. a raw price ratio of 9.
	sqrt := new(big.Int).Lsh(big.NewInt(3), 64)
	data := validClmmAccount(t, sqrt)

	state, err := DecodeClmmPool(data)
	require.NoError(t, err)

	assert.Equal(t, solana.WrappedSol, state.MintA)
	assert.Equal(t, uint8(9), state.DecimalsA)
	assert.Equal(t, uint8(6), state.DecimalsB)
	assert.Equal(t, uint16(60), state.TickSpacing)
	assert.Equal(t, 0, state.SqrtPriceX64.Cmp(sqrt))
	assert.Equal(t, int32(-16), state.TickCurrent)
}

func TestDecodeClmmPoolLengthMismatch(t *testing.T) {
	for _, size := range []int{0, TokenAccountSpan, AmmPoolSpan, ClmmPoolSpan - 1, ClmmPoolSpan + 32} {
		_, err := DecodeClmmPool(make([]byte, size))
		assert.ErrorIs(t, err, ErrLengthMismatch, "size %d", size)
	}
}

func TestDecodeClmmPoolRejectsZeroPrice(t *testing.T) {
	data := validClmmAccount(t, big.NewInt(1))
	putUint128(data, clmmSqrtPriceX64Offset, big.NewInt(0))

	_, err := DecodeClmmPool(data)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "sqrt_price_x64", decodeErr.Field)
}

package monitor

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"solana-pool-monitor/internal/layout"
)

// Metrics is the derived view of a pool once both vault balances are known.
// Reserves are normalized by the mint decimals with the pending-PnL amounts
// already taken out; Price is quote reserve over base reserve.
type Metrics struct {
	Pool         solana.PublicKey
	BaseReserve  decimal.Decimal
	QuoteReserve decimal.Decimal
	Price        decimal.Decimal
}

// q128 is 2^128, the divisor for a squared Q64.64 fixed-point value.
var q128 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128), 0)

func decimalFromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// tradableReserve subtracts the pending-PnL amount owed out of a vault and
// scales the remainder down by the mint's decimal exponent. Subtraction and
// scaling are exact; nothing here rounds.
func tradableReserve(amount, needTakePnl, decimals uint64) (decimal.Decimal, error) {
	if needTakePnl > amount {
		return decimal.Decimal{}, fmt.Errorf(
			"pending pnl %d exceeds vault balance %d", needTakePnl, amount)
	}
	raw := decimalFromUint64(amount).Sub(decimalFromUint64(needTakePnl))
	return raw.Shift(-int32(decimals)), nil
}

// deriveMetrics computes normalized reserves and the price ratio for a pool
// whose both vault balances have been observed. Only the final division may
// round (decimal.DivisionPrecision digits).
func deriveMetrics(pool solana.PublicKey, info *layout.AmmPoolState, base, quote *layout.TokenAccount) (Metrics, error) {
	baseReserve, err := tradableReserve(base.Amount, info.BaseNeedTakePnl, info.BaseDecimal)
	if err != nil {
		return Metrics{}, fmt.Errorf("base side: %w", err)
	}
	quoteReserve, err := tradableReserve(quote.Amount, info.QuoteNeedTakePnl, info.QuoteDecimal)
	if err != nil {
		return Metrics{}, fmt.Errorf("quote side: %w", err)
	}
	if baseReserve.IsZero() {
		return Metrics{}, fmt.Errorf("base reserve is zero, price undefined")
	}

	return Metrics{
		Pool:         pool,
		BaseReserve:  baseReserve,
		QuoteReserve: quoteReserve,
		Price:        quoteReserve.Div(baseReserve),
	}, nil
}

// ClmmPrice converts a Q64.64 square-root price into a human price of mintA
// denominated in mintB: (sqrtPriceX64 / 2^64)^2 · 10^(decimalsA − decimalsB).
// The square and the decimal shift are exact; the single division by 2^128
// rounds to decimal.DivisionPrecision digits.
func ClmmPrice(state *layout.ClmmPoolState) decimal.Decimal {
	squared := new(big.Int).Mul(state.SqrtPriceX64, state.SqrtPriceX64)
	ratio := decimal.NewFromBigInt(squared, 0).Div(q128)
	return ratio.Shift(int32(state.DecimalsA) - int32(state.DecimalsB))
}

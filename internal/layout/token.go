package layout

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// TokenAccountSpan is the byte length of an SPL token account.
const TokenAccountSpan = 165

// SPL token account field offsets.
const (
	tokenMintOffset   = 0
	tokenOwnerOffset  = 32
	tokenAmountOffset = 64
	tokenStateOffset  = 108
)

// Token account state values.
const (
	TokenStateUninitialized uint8 = 0
	TokenStateInitialized   uint8 = 1
	TokenStateFrozen        uint8 = 2
)

// TokenAccount is the slice of an SPL token account the monitor cares
// about: whose vault it is and how much it holds.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
	State  uint8
}

// DecodeTokenAccount interprets data as an SPL token account. The token
// program owns mints (82 bytes) and multisigs (355 bytes) in the same
// namespace; any length other than TokenAccountSpan is rejected with
// ErrLengthMismatch.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) != TokenAccountSpan {
		return nil, lengthMismatch("token account", len(data), TokenAccountSpan)
	}

	acct := &TokenAccount{
		Mint:   readPubKey(data, tokenMintOffset),
		Owner:  readPubKey(data, tokenOwnerOffset),
		Amount: readUint64(data, tokenAmountOffset),
		State:  readUint8(data, tokenStateOffset),
	}

	if acct.State > TokenStateFrozen {
		return nil, newDecodeError("token account", "state",
			fmt.Errorf("invalid account state %d", acct.State))
	}
	return acct, nil
}

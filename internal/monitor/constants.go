package monitor

import (
	"github.com/gagliardetto/solana-go"
)

// Mainnet program IDs the monitor watches by default.
var (
	RaydiumAmmProgram   = solana.MPK("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	RaydiumAmmAuthority = solana.MPK("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")
	RaydiumClmmProgram  = solana.MPK("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK")
	TokenProgram        = solana.MPK("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
)

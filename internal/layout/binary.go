package layout

import (
	"encoding/binary"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Low-level little-endian readers over raw account data. Offsets are trusted;
// every exported decoder validates the buffer span before using these.

func readUint64(data []byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(data[offset : offset+8])
}

func readUint16(data []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(data[offset : offset+2])
}

func readUint8(data []byte, offset int) uint8 {
	return data[offset]
}

func readInt32(data []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
}

// readUint128 reads a little-endian unsigned 128-bit integer.
func readUint128(data []byte, offset int) *big.Int {
	buf := make([]byte, 16)
	// big.Int wants big-endian bytes.
	for i := 0; i < 16; i++ {
		buf[15-i] = data[offset+i]
	}
	return new(big.Int).SetBytes(buf)
}

func readPubKey(data []byte, offset int) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[offset : offset+32])
}

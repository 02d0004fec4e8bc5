// Package hashing provides the content hashing used by every consensus
// structure in the blockchain. The byte layout fed into these functions is
// part of the wire protocol: two nodes only agree on a hash if they feed the
// exact same bytes in the exact same order.
package hashing

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// Size is the length of a hex encoded hash.
const Size = sha256.Size * 2

// ZeroHash represents a hash code of zeros. It is used as the previous hash
// of the genesis block.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// Hash returns the lowercase hex SHA-256 digest of the data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFields hashes the concatenation of the fields in the order provided.
func HashFields(fields ...[]byte) string {
	h := sha256.New()
	for _, field := range fields {
		h.Write(field)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// =============================================================================

// Uint64 returns the 8 byte little endian encoding of v.
func Uint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Uint128 returns the 16 byte little endian encoding of v widened to 128 bits.
// Millisecond timestamps are hashed at this width so the encoding never has
// to change as the clock grows.
func Uint128(v uint64) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// ErrDifficultyTooHigh is returned for a difficulty no hash can satisfy.
var ErrDifficultyTooHigh = errors.New("difficulty exceeds hash length")

// CheckDifficulty rejects a difficulty that asks for more leading zeros
// than a hash has characters.
func CheckDifficulty(difficulty uint) error {
	if difficulty > Size {
		return fmt.Errorf("%w: %d > %d", ErrDifficultyTooHigh, difficulty, Size)
	}
	return nil
}

// HasPrefixZeros checks the hash starts with difficulty number of 0's.
func HasPrefixZeros(hash string, difficulty uint) bool {
	if int(difficulty) > len(hash) {
		return false
	}

	for i := 0; i < int(difficulty); i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}

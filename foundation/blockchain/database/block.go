package database

import (
	"time"

	"github.com/budlum/blockchain/foundation/blockchain/genesis"
	"github.com/budlum/blockchain/foundation/blockchain/hashing"
)

// Block represents a group of transactions batched together.
type Block struct {
	Index        uint64 `json:"index"`         // Block number in the chain, genesis is 0.
	TimeStamp    uint64 `json:"timestamp"`     // Milliseconds since the epoch when constructed.
	PreviousHash string `json:"previous_hash"` // Hash of the previous block in the chain.
	Hash         string `json:"hash"`          // Hash of this block.
	Transactions []Tx   `json:"transactions"`  // Transactions in the order they were mined.
	Nonce        uint64 `json:"nonce"`         // Value identified to solve the hash solution.
}

// NewBlock constructs an unmined block with a nonce of 0 and the hash of
// that initial state.
func NewBlock(index uint64, previousHash string, trans []Tx) Block {
	return newBlock(index, uint64(time.Now().UnixMilli()), previousHash, trans)
}

// GenesisBlock constructs the genesis block for the specified parameters.
// The result is the same on every call and on every node.
func GenesisBlock(gen genesis.Genesis) Block {
	return newBlock(0, gen.TimeStamp(), hashing.ZeroHash, []Tx{GenesisTx(gen)})
}

// Genesis constructs the genesis block for the default genesis parameters.
func Genesis() Block {
	return GenesisBlock(genesis.Default())
}

func newBlock(index uint64, timeStamp uint64, previousHash string, trans []Tx) Block {

	// The block owns its own copy so the caller's slice can be reused.
	txs := make([]Tx, len(trans))
	copy(txs, trans)

	b := Block{
		Index:        index,
		TimeStamp:    timeStamp,
		PreviousHash: previousHash,
		Transactions: txs,
		Nonce:        0,
	}
	b.Hash = b.CalculateHash()

	return b
}

// CalculateHash recomputes the hash over index, timestamp, previous hash,
// the serialized transactions and the nonce, in that order.
func (b Block) CalculateHash() string {
	var txData []byte
	for _, tx := range b.Transactions {
		txData = append(txData, tx.ToBytes()...)
	}

	return hashing.HashFields(
		hashing.Uint64(b.Index),
		hashing.Uint128(b.TimeStamp),
		[]byte(b.PreviousHash),
		txData,
		hashing.Uint64(b.Nonce),
	)
}

// IsHashValid checks the stored hash matches the content.
func (b Block) IsHashValid() bool {
	return b.Hash == b.CalculateHash()
}

// IsSolved checks the stored hash satisfies the proof of work target.
func (b Block) IsSolved(difficulty uint) bool {
	return hashing.HasPrefixZeros(b.Hash, difficulty)
}

// IsGenesis reports whether the block sits at the start of a chain.
func (b Block) IsGenesis() bool {
	return b.PreviousHash == hashing.ZeroHash
}

// Equal compares every field of the two blocks, including transactions.
func (b Block) Equal(other Block) bool {
	if b.Index != other.Index ||
		b.TimeStamp != other.TimeStamp ||
		b.PreviousHash != other.PreviousHash ||
		b.Hash != other.Hash ||
		b.Nonce != other.Nonce ||
		len(b.Transactions) != len(other.Transactions) {
		return false
	}

	for i := range b.Transactions {
		if !b.Transactions[i].Equal(other.Transactions[i]) {
			return false
		}
	}

	return true
}

// ShortHash returns the leading characters of the hash for log output.
func (b Block) ShortHash() string {
	return shortHash(b.Hash)
}

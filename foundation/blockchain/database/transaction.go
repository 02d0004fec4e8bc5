package database

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/budlum/blockchain/foundation/blockchain/genesis"
	"github.com/budlum/blockchain/foundation/blockchain/hashing"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// GenesisAccount is used as both parties of the genesis transaction.
const GenesisAccount = "genesis"

// =============================================================================

// Tx is the transactional information between two parties.
type Tx struct {
	From      string        `json:"from"`      // Account sending the value.
	To        string        `json:"to"`        // Account receiving the value.
	Amount    uint64        `json:"amount"`    // Monetary value received from this transaction.
	Data      hexutil.Bytes `json:"data"`      // Extra data related to the transaction.
	TimeStamp uint64        `json:"timestamp"` // Milliseconds since the epoch when created.
	Hash      string        `json:"hash"`      // Content hash computed once at creation.
}

// NewTx constructs a new transaction stamped with the current time.
func NewTx(from string, to string, amount uint64, data []byte) Tx {
	return newTx(from, to, amount, data, uint64(time.Now().UnixMilli()))
}

// GenesisTx constructs the fixed transaction carried by the genesis block.
func GenesisTx(gen genesis.Genesis) Tx {
	return newTx(GenesisAccount, GenesisAccount, 0, []byte(gen.Payload), gen.TimeStamp())
}

func newTx(from string, to string, amount uint64, data []byte, timeStamp uint64) Tx {
	tx := Tx{
		From:      from,
		To:        to,
		Amount:    amount,
		Data:      data,
		TimeStamp: timeStamp,
	}
	tx.Hash = tx.CalculateHash()

	return tx
}

// CalculateHash recomputes the content hash from the current fields. The
// stored Hash is never updated by this call.
func (tx Tx) CalculateHash() string {
	s := fmt.Sprintf("%s%s%d%s%d", tx.From, tx.To, tx.Amount, hex.EncodeToString(tx.Data), tx.TimeStamp)
	return hashing.Hash([]byte(s))
}

// IsHashValid checks the stored hash matches the content.
func (tx Tx) IsHashValid() bool {
	return tx.Hash == tx.CalculateHash()
}

// ToBytes returns the canonical serialization used in the block hash.
func (tx Tx) ToBytes() []byte {
	data, err := json.Marshal(tx)
	if err != nil {
		return nil
	}

	return data
}

// Equal compares every field of the two transactions.
func (tx Tx) Equal(other Tx) bool {
	return tx.From == other.From &&
		tx.To == other.To &&
		tx.Amount == other.Amount &&
		bytes.Equal(tx.Data, other.Data) &&
		tx.TimeStamp == other.TimeStamp &&
		tx.Hash == other.Hash
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s->%s:%d", shortHash(tx.Hash), tx.From, tx.To, tx.Amount)
}

// shortHash trims a hash for log output.
func shortHash(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

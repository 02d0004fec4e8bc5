// Package genesis maintains access to the genesis parameters.
package genesis

import (
	"encoding/json"
	"os"
	"time"

	"github.com/budlum/blockchain/foundation/blockchain/hashing"
)

// Genesis represents the genesis file. Every node on a network must use the
// same values since the genesis block is compared bit for bit when a peer
// chain is validated.
type Genesis struct {
	Date       time.Time `json:"date"`       // Timestamp embedded in the genesis block and transaction.
	Payload    string    `json:"payload"`    // Data carried by the genesis transaction.
	Difficulty uint16    `json:"difficulty"` // How difficult it needs to be to solve the work problem.
}

// Default returns the genesis parameters used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Date:       time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Payload:    "Budlum Genesis Block",
		Difficulty: 2,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Any field left out of the file
// keeps its default value.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := hashing.CheckDifficulty(uint(genesis.Difficulty)); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// TimeStamp returns the genesis date in milliseconds since the epoch.
func (g Genesis) TimeStamp() uint64 {
	return uint64(g.Date.UnixMilli())
}

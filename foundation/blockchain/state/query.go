package state

import (
	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/genesis"
)

// Status is a snapshot of the chain for reporting.
type Status struct {
	Length      int        `json:"length"`
	Difficulty  uint       `json:"difficulty"`
	LatestIndex uint64     `json:"latest_index"`
	LatestHash  string     `json:"latest_hash"`
	Pending     int        `json:"pending"`
	LoadStatus  LoadStatus `json:"-"`
	Loaded      string     `json:"loaded"`
}

// =============================================================================

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// GenesisBlock returns the genesis block this node accepts.
func (s *State) GenesisBlock() database.Block {
	return s.genesisBlock
}

// Difficulty returns the number of leading zero characters a block hash
// must carry.
func (s *State) Difficulty() uint {
	return s.difficulty
}

// LoadStatus returns how the chain was obtained at construction.
func (s *State) LoadStatus() LoadStatus {
	return s.loadStatus
}

// Chain returns a copy of the full chain in order.
func (s *State) Chain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := make([]database.Block, len(s.chain))
	copy(chain, s.chain)

	return chain
}

// LatestBlock returns the tip of the chain.
func (s *State) LatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain[len(s.chain)-1]
}

// Length returns the number of blocks in the chain.
func (s *State) Length() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.chain)
}

// Mempool returns a copy of the pending transactions in arrival order.
func (s *State) Mempool() []database.Tx {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mempool.Copy()
}

// MempoolLength returns the current length of the mempool.
func (s *State) MempoolLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.mempool.Count()
}

// QueryBlockByHash returns the block in the chain with the specified hash.
func (s *State) QueryBlockByHash(hash string) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, block := range s.chain {
		if block.Hash == hash {
			return block, nil
		}
	}

	return database.Block{}, database.ErrNotFound
}

// QueryStatus returns a snapshot of the chain.
func (s *State) QueryStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tip := s.chain[len(s.chain)-1]

	return Status{
		Length:      len(s.chain),
		Difficulty:  s.difficulty,
		LatestIndex: tip.Index,
		LatestHash:  tip.Hash,
		Pending:     s.mempool.Count(),
		LoadStatus:  s.loadStatus,
		Loaded:      s.loadStatus.String(),
	}
}

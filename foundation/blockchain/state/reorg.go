package state

import (
	"errors"
	"fmt"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// ErrInvalidChain is returned when a candidate chain fails validation.
var ErrInvalidChain = errors.New("invalid chain")

// ReplaceChain adopts the candidate chain when it is valid and strictly
// longer than the local chain. It reports whether the chain was replaced.
// Equal length chains keep the local chain. Transactions from local blocks
// that the candidate drops go back to the mempool.
func (s *State) ReplaceChain(candidate []database.Block) (bool, error) {
	s.evHandler("state: ReplaceChain: started: candidate blocks[%d]", len(candidate))

	// The genesis block and difficulty never change, so the candidate is
	// validated without holding the lock.
	if err := validateCandidate(candidate, s.genesisBlock, s.difficulty); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidChain, err)
		s.evHandler("state: ReplaceChain: %s", err)
		return false, err
	}

	if !s.replaceChain(candidate) {
		s.evHandler("state: ReplaceChain: keeping local chain")
		return false, nil
	}

	s.evHandler("state: ReplaceChain: local chain replaced: blocks[%d]", len(candidate))

	// Any mining in progress is now working on a stale tip.
	s.Worker().SignalCancelMining()

	s.blockEvent(candidate[len(candidate)-1])

	return true, nil
}

// replaceChain swaps the chain in memory under the lock and then stores the
// blocks past the shared prefix once the lock is released.
func (s *State) replaceChain(candidate []database.Block) bool {
	s.mu.Lock()

	if len(candidate) <= len(s.chain) {
		s.mu.Unlock()
		return false
	}

	prefix := commonPrefix(s.chain, candidate)
	dropped := s.chain[prefix:]

	chain := make([]database.Block, len(candidate))
	copy(chain, candidate)
	s.chain = chain

	for _, block := range chain[prefix:] {
		s.mempool.Delete(block.Transactions)
	}
	restored := s.restoreTransactions(dropped, chain[prefix:])

	// Taking the storage lock before releasing mu keeps writes in chain order.
	s.persistMu.Lock()
	s.mu.Unlock()

	s.persistChain(chain[prefix:])
	s.persistMu.Unlock()

	if restored > 0 {
		s.evHandler("state: ReplaceChain: restored txs[%d] from dropped blocks[%d]", restored, len(dropped))
	}

	return true
}

// restoreTransactions returns to the mempool every transaction of the
// dropped blocks that is not in the adopted blocks or already pending.
func (s *State) restoreTransactions(dropped []database.Block, adopted []database.Block) int {
	known := make(map[string]struct{})
	for _, block := range adopted {
		for _, tx := range block.Transactions {
			known[tx.Hash] = struct{}{}
		}
	}
	for _, tx := range s.mempool.Copy() {
		known[tx.Hash] = struct{}{}
	}

	var restored int
	for _, block := range dropped {
		for _, tx := range block.Transactions {
			if _, exists := known[tx.Hash]; exists {
				continue
			}
			known[tx.Hash] = struct{}{}
			s.mempool.Add(tx)
			restored++
		}
	}

	return restored
}

// commonPrefix returns the number of leading blocks both chains share.
func commonPrefix(local []database.Block, candidate []database.Block) int {
	n := min(len(local), len(candidate))

	for i := 0; i < n; i++ {
		if local[i].Hash != candidate[i].Hash {
			return i
		}
	}

	return n
}

// persistChain writes the blocks and then moves the tip to the last one.
// The tip is left alone when any block fails to store. The caller holds
// persistMu.
func (s *State) persistChain(blocks []database.Block) {
	if s.storage == nil || len(blocks) == 0 {
		return
	}

	for _, block := range blocks {
		if err := s.storage.InsertBlock(block); err != nil {
			s.evHandler("state: persistChain: WARNING: blk[%d]: block not stored: %s", block.Index, err)
			return
		}
	}

	tip := blocks[len(blocks)-1]
	if err := s.storage.SaveLastHash(tip.Hash); err != nil {
		s.evHandler("state: persistChain: WARNING: blk[%d]: tip not stored: %s", tip.Index, err)
	}
}

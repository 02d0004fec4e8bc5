package state

import (
	"errors"
	"fmt"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// Set of errors returned when processing a block proposed by a peer.
var (
	ErrBlockKnown    = errors.New("block already in chain")
	ErrChainBehind   = errors.New("local chain is behind")
	ErrBlockRejected = errors.New("block rejected")
	ErrChainForked   = errors.New("block builds on a different chain")
)

// =============================================================================

// ProcessProposedBlock takes a block received from a peer, validates it
// against the current tip and if that passes, appends it to the chain. A
// rejected block leaves the chain and the pool untouched. ErrChainBehind is
// returned when the block is further ahead than the next index, which means
// the caller should ask its peers for their chain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: blk[%d]: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.Index, shortHash(block.PreviousHash), block.ShortHash(), len(block.Transactions))
	defer s.evHandler("state: ProcessProposedBlock: completed: blk[%d]", block.Index)

	if err := s.acceptBlock(block); err != nil {
		s.evHandler("state: ProcessProposedBlock: blk[%d]: %s", block.Index, err)
		return err
	}

	// Any mining in progress is now working on a stale tip.
	s.Worker().SignalCancelMining()

	s.blockEvent(block)

	return nil
}

// acceptBlock validates and appends the block under the lock.
func (s *State) acceptBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.chain[len(s.chain)-1]

	if block.Index < uint64(len(s.chain)) && s.chain[block.Index].Hash == block.Hash {
		return ErrBlockKnown
	}

	if block.Index > tip.Index+1 {
		return fmt.Errorf("%w: peer blk[%d]: local tip[%d]", ErrChainBehind, block.Index, tip.Index)
	}

	if err := validateNextBlock(tip, block, s.difficulty); err != nil {
		return err
	}

	s.persist(block)
	s.chain = append(s.chain, block)
	s.mempool.Delete(block.Transactions)

	return nil
}

// validateNextBlock checks the block can be appended directly after the tip.
func validateNextBlock(tip database.Block, block database.Block, difficulty uint) error {
	if block.Index != tip.Index+1 {
		return fmt.Errorf("%w: blk[%d] is not the next block after tip[%d]", ErrBlockRejected, block.Index, tip.Index)
	}

	if block.PreviousHash != tip.Hash {
		return fmt.Errorf("%w: %w: previous hash[%s] does not match tip hash[%s]", ErrBlockRejected, ErrChainForked, shortHash(block.PreviousHash), tip.ShortHash())
	}

	if !block.IsHashValid() {
		return fmt.Errorf("%w: hash[%s] does not match block content", ErrBlockRejected, block.ShortHash())
	}

	if !block.IsSolved(difficulty) {
		return fmt.Errorf("%w: hash[%s] does not solve difficulty[%d]", ErrBlockRejected, block.ShortHash(), difficulty)
	}

	for _, tx := range block.Transactions {
		if !tx.IsHashValid() {
			return fmt.Errorf("%w: tx[%s] hash does not match content", ErrBlockRejected, shortHash(tx.Hash))
		}
	}

	return nil
}

// shortHash returns the leading characters of a hash for log output.
func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

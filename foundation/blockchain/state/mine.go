package state

import (
	"context"
	"errors"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// ErrStaleBlock is returned when the chain tip moved while a block was being
// mined. The mined block is discarded.
var ErrStaleBlock = errors.New("chain tip changed while mining")

// =============================================================================

// MinePendingTransactions builds a block holding every pending transaction,
// solves the proof of work and appends the block to the chain. The pool is
// snapshotted under the lock and the search runs without it, so the chain
// stays readable while mining. An empty pool produces an empty block.
func (s *State) MinePendingTransactions(ctx context.Context, minerAddress string) (database.Block, error) {
	s.mu.RLock()
	tip := s.chain[len(s.chain)-1]
	trans := s.mempool.Copy()
	s.mu.RUnlock()

	s.evHandler("state: MinePendingTransactions: MINING: started: blk[%d]: txs[%d]: miner[%s]", tip.Index+1, len(trans), minerAddress)

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		Block:       database.NewBlock(tip.Index+1, tip.Hash, trans),
		Difficulty:  s.difficulty,
		MaxAttempts: s.maxAttempts,
		EvHandler:   s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A peer block or a longer chain may have been accepted in the meantime.
	if s.chain[len(s.chain)-1].Hash != tip.Hash {
		s.evHandler("state: MinePendingTransactions: MINING: WARNING: blk[%d]: tip changed: block discarded", block.Index)
		return database.Block{}, ErrStaleBlock
	}

	s.evHandler("state: MinePendingTransactions: MINING: update local state: blk[%d]: hash[%s]", block.Index, block.Hash)

	s.persist(block)
	s.chain = append(s.chain, block)

	// Transactions that arrived during mining stay in the pool.
	s.mempool.Delete(block.Transactions)

	s.blockEvent(block)

	return block, nil
}

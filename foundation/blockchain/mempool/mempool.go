// Package mempool maintains the pending transactions for the blockchain.
package mempool

import (
	"sync"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// Mempool represents a cache of transactions waiting to be mined. There is
// no validation and no deduplication, transactions are kept in the order
// they were added.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
}

// New constructs a new mempool for use.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the pool and returns the new count.
func (mp *Mempool) Add(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Delete removes every transaction in the pool matching one of the
// specified transactions by hash. It returns the number removed.
func (mp *Mempool) Delete(trans []database.Tx) int {
	if len(trans) == 0 {
		return 0
	}

	hashes := make(map[string]struct{}, len(trans))
	for _, tx := range trans {
		hashes[tx.Hash] = struct{}{}
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	kept := mp.pool[:0]
	for _, tx := range mp.pool {
		if _, exists := hashes[tx.Hash]; !exists {
			kept = append(kept, tx)
		}
	}

	removed := len(mp.pool) - len(kept)

	// Clear the tail so removed transactions can be collected.
	for i := len(kept); i < len(mp.pool); i++ {
		mp.pool[i] = database.Tx{}
	}
	mp.pool = kept

	return removed
}

// Copy returns a copy of the transactions in the order they were added.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.Tx, len(mp.pool))
	copy(trans, mp.pool)

	return trans
}

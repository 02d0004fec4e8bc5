package state

import (
	"errors"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// ErrInvalidTransaction is returned when a transaction's hash does not match
// its content.
var ErrInvalidTransaction = errors.New("transaction hash does not match content")

// AddTransaction appends the transaction to the pending pool. No validation
// is performed.
func (s *State) AddTransaction(tx database.Tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.mempool.Add(tx)
	s.evHandler("state: AddTransaction: tx[%s]: mempool[%d]", tx, n)
}

// SubmitWalletTransaction accepts a transaction created on this node. It is
// added to the pool, shared with the peers and mining is signalled.
func (s *State) SubmitWalletTransaction(tx database.Tx) error {
	if !tx.IsHashValid() {
		return ErrInvalidTransaction
	}

	s.AddTransaction(tx)

	s.Worker().SignalShareTx(tx)
	s.Worker().SignalStartMining()

	return nil
}

// UpsertNodeTransaction accepts a transaction received from a peer. The
// hash is checked before the transaction enters the pool.
func (s *State) UpsertNodeTransaction(tx database.Tx) error {
	if !tx.IsHashValid() {
		return ErrInvalidTransaction
	}

	s.AddTransaction(tx)

	s.Worker().SignalStartMining()

	return nil
}

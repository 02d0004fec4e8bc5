package state

import (
	"errors"
	"fmt"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// ValidationError identifies the first block that failed a chain check.
type ValidationError struct {
	Index uint64
	Check string
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("blk[%d]: %s check failed", ve.Index, ve.Check)
}

// Set of chain checks reported through ValidationError.
const (
	CheckGenesis      = "genesis"
	CheckIndex        = "index"
	CheckPreviousHash = "previous hash"
	CheckHash         = "hash"
	CheckProofOfWork  = "proof of work"
)

// errEmptyChain is returned when a candidate chain has no blocks.
var errEmptyChain = errors.New("chain is empty")

// =============================================================================

// IsValid checks the integrity of the local chain.
func (s *State) IsValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ValidateChain(s.chain, s.difficulty); err != nil {
		s.evHandler("state: IsValid: %s", err)
		return false
	}

	return true
}

// IsValidChain checks a candidate chain starts with this node's genesis
// block and is intact from there.
func (s *State) IsValidChain(candidate []database.Block) bool {
	if err := validateCandidate(candidate, s.genesisBlock, s.difficulty); err != nil {
		s.evHandler("state: IsValidChain: %s", err)
		return false
	}

	return true
}

// ValidateChain checks every block's stored hash matches its content, every
// block links to its predecessor with the next index and every non genesis
// block satisfies the difficulty. The first failure is returned as a
// *ValidationError.
func ValidateChain(chain []database.Block, difficulty uint) error {
	for i, block := range chain {
		if i == 0 {
			if !block.IsHashValid() {
				return &ValidationError{Index: block.Index, Check: CheckGenesis}
			}
			continue
		}

		prev := chain[i-1]

		switch {
		case block.Index != prev.Index+1:
			return &ValidationError{Index: block.Index, Check: CheckIndex}

		case block.PreviousHash != prev.Hash:
			return &ValidationError{Index: block.Index, Check: CheckPreviousHash}

		case !block.IsHashValid():
			return &ValidationError{Index: block.Index, Check: CheckHash}

		case !block.IsSolved(difficulty):
			return &ValidationError{Index: block.Index, Check: CheckProofOfWork}
		}
	}

	return nil
}

// validateCandidate applies the checks used on chains received from peers.
func validateCandidate(candidate []database.Block, genesis database.Block, difficulty uint) error {
	if len(candidate) == 0 {
		return errEmptyChain
	}

	if !candidate[0].Equal(genesis) {
		return &ValidationError{Index: candidate[0].Index, Check: CheckGenesis}
	}

	return ValidateChain(candidate, difficulty)
}

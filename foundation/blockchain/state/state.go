// Package state is the core API for the blockchain and implements all the
// consensus rules: chain construction from storage, mining, validation and
// the acceptance of blocks and chains from peers.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/genesis"
	"github.com/budlum/blockchain/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of the blockchain.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, transaction sharing and peer sync.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tx database.Tx)
	SignalSync()
}

// LoadStatus describes how the chain was obtained at construction.
type LoadStatus int

// Set of load outcomes.
const (
	LoadFresh     LoadStatus = iota // No chain existed, a genesis block was created.
	LoadExisting                    // The chain was reconstructed from storage.
	LoadRecovered                   // Reconstruction failed, local history was discarded.
)

// String implements the fmt.Stringer interface.
func (ls LoadStatus) String() string {
	switch ls {
	case LoadFresh:
		return "fresh"
	case LoadExisting:
		return "existing"
	case LoadRecovered:
		return "recovered"
	}
	return "unknown"
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis           genesis.Genesis
	Difficulty        uint
	Storage           database.Storage
	MaxMiningAttempts uint64
	EvHandler         EventHandler
}

// State manages the blockchain: the ordered chain of blocks and the pool of
// pending transactions. Every read and write of the chain and the pool is
// made under the mutex.
type State struct {
	mu sync.RWMutex

	genesis      genesis.Genesis
	genesisBlock database.Block
	difficulty   uint
	maxAttempts  uint64
	evHandler    EventHandler
	loadStatus   LoadStatus

	chain   []database.Block
	mempool *mempool.Mempool
	storage database.Storage

	// persistMu orders writes to storage. It is taken while mu is held and
	// may outlive it, so the stored tip follows the in memory chain.
	persistMu sync.Mutex

	workerMu sync.RWMutex
	worker   Worker
}

// New constructs the blockchain. If storage holds a chain tip the chain is
// reconstructed by walking back from the tip to genesis. When there is no
// tip, or the walk fails, a fresh genesis block is created and persisted.
func New(cfg Config) *State {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	gen := cfg.Genesis
	if gen.Date.IsZero() {
		gen = genesis.Default()
	}

	s := State{
		genesis:      gen,
		genesisBlock: database.GenesisBlock(gen),
		difficulty:   cfg.Difficulty,
		maxAttempts:  cfg.MaxMiningAttempts,
		evHandler:    ev,
		mempool:      mempool.New(),
		storage:      cfg.Storage,

		// The worker is replaced by the call to worker.Run.
		worker: noopWorker{},
	}

	s.load()

	return &s
}

// RegisterWorker installs the worker that receives the mining, sharing and
// sync signals. It is safe to call while messages are being processed.
func (s *State) RegisterWorker(w Worker) {
	s.workerMu.Lock()
	defer s.workerMu.Unlock()

	s.worker = w
}

// Worker returns the registered worker.
func (s *State) Worker() Worker {
	s.workerMu.RLock()
	defer s.workerMu.RUnlock()

	return s.worker
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Stop all blockchain writing activity.
	s.Worker().Shutdown()

	// Make sure the database file is properly closed.
	if s.storage != nil {
		return s.storage.Close()
	}

	return nil
}

// =============================================================================

// load builds the in memory chain from storage or from the genesis block.
func (s *State) load() {
	if s.storage == nil {
		s.evHandler("state: load: no storage configured: creating genesis block")
		s.createGenesis(LoadFresh)
		return
	}

	lastHash, err := s.storage.GetLastHash()
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.evHandler("state: load: no existing chain found: creating genesis block")
		s.createGenesis(LoadFresh)
		return

	case err != nil:
		s.evHandler("state: load: ERROR: reading chain tip: %s: creating genesis block", err)
		s.createGenesis(LoadRecovered)
		return
	}

	s.evHandler("state: load: found existing chain tip[%s]", lastHash)

	blocks, err := readChain(s.storage, lastHash)
	if err != nil {
		s.evHandler("state: load: ERROR: failed to load chain: %s: discarding local history and creating genesis block", err)
		s.createGenesis(LoadRecovered)
		return
	}

	if !blocks[0].Equal(s.genesisBlock) {
		s.evHandler("state: load: WARNING: stored genesis block does not match the configured genesis: peers will reject this chain")
	}

	s.chain = blocks
	s.loadStatus = LoadExisting
	s.evHandler("state: load: loaded %d blocks from storage", len(blocks))
}

// createGenesis resets the chain to the genesis block and persists it.
func (s *State) createGenesis(status LoadStatus) {
	s.chain = []database.Block{s.genesisBlock}
	s.loadStatus = status
	s.persist(s.genesisBlock)
}

// persist writes the block and then moves the tip to it. Failures are logged
// and swallowed so the in memory chain keeps moving forward.
func (s *State) persist(block database.Block) {
	if s.storage == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if err := s.storage.InsertBlock(block); err != nil {
		s.evHandler("state: persist: WARNING: blk[%d]: block not stored: %s", block.Index, err)
		return
	}

	// The tip is only moved once the block it points to is stored.
	if err := s.storage.SaveLastHash(block.Hash); err != nil {
		s.evHandler("state: persist: WARNING: blk[%d]: tip not stored: %s", block.Index, err)
	}
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: %s`, string(blockJSON))
}

// =============================================================================

// ReadChain reads the full chain held by the storage, starting from its
// recorded tip.
func ReadChain(strg database.Storage) ([]database.Block, error) {
	lastHash, err := strg.GetLastHash()
	if err != nil {
		return nil, fmt.Errorf("reading tip: %w", err)
	}

	return readChain(strg, lastHash)
}

// readChain walks backward from the tip until it reaches the genesis block.
// The blocks are returned in chain order.
func readChain(strg database.Storage, lastHash string) ([]database.Block, error) {
	var blocks []database.Block
	seen := make(map[string]struct{})

	hash := lastHash
	for {
		if _, exists := seen[hash]; exists {
			return nil, fmt.Errorf("chain loops back to block %s", hash)
		}
		seen[hash] = struct{}{}

		block, err := strg.GetBlock(hash)
		if err != nil {
			return nil, fmt.Errorf("chain broken at block %s: %w", hash, err)
		}

		if block.Hash != hash {
			return nil, fmt.Errorf("block stored under %s has hash %s", hash, block.Hash)
		}

		blocks = append(blocks, block)

		if block.IsGenesis() {
			break
		}
		hash = block.PreviousHash
	}

	// Reverse the blocks into chain order.
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}

	for i, block := range blocks {
		if block.Index != uint64(i) {
			return nil, fmt.Errorf("block %s has index %d, exp %d", block.Hash, block.Index, i)
		}
	}

	return blocks, nil
}

// =============================================================================

// noopWorker is used until a worker registers itself with the state.
type noopWorker struct{}

func (noopWorker) Shutdown()                    {}
func (noopWorker) SignalStartMining()           {}
func (noopWorker) SignalCancelMining()          {}
func (noopWorker) SignalShareTx(tx database.Tx) {}
func (noopWorker) SignalSync()                  {}

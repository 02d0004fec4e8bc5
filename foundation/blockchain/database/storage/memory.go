package storage

import (
	"sync"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// Memory represents the storage implementation for keeping blocks in a map.
// Nothing survives the process. This implements the database.Storage
// interface.
type Memory struct {
	mu       sync.RWMutex
	blocks   map[string]database.Block
	lastHash string
}

// NewMemory constructs a Memory value for use.
func NewMemory() *Memory {
	return &Memory{
		blocks: make(map[string]database.Block),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// GetLastHash returns the hash of the chain tip.
func (m *Memory) GetLastHash() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastHash == "" {
		return "", database.ErrNotFound
	}

	return m.lastHash, nil
}

// SaveLastHash overwrites the hash of the chain tip.
func (m *Memory) SaveLastHash(hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastHash = hash
	return nil
}

// InsertBlock stores the block keyed by its hash.
func (m *Memory) InsertBlock(block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[block.Hash] = block
	return nil
}

// GetBlock returns the block stored under the specified hash.
func (m *Memory) GetBlock(hash string) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	block, exists := m.blocks[hash]
	if !exists {
		return database.Block{}, database.ErrNotFound
	}

	return block, nil
}

// Package storage provides the implementations of database.Storage used to
// persist blocks keyed by hash along with the chain tip.
package storage

import (
	"fmt"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// Set of storage implementations that can be selected by name.
const (
	KindBolt   = "bolt"
	KindDisk   = "disk"
	KindMemory = "memory"
)

// Open constructs the storage implementation for the specified kind.
func Open(kind string, dbPath string) (database.Storage, error) {
	switch kind {
	case KindBolt:
		return NewBolt(dbPath)
	case KindDisk:
		return NewDisk(dbPath)
	case KindMemory:
		return NewMemory(), nil
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}

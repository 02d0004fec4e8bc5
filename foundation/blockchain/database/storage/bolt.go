package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/budlum/blockchain/foundation/blockchain/database"
	bolt "go.etcd.io/bbolt"
)

// DBFilename is the name of the bolt database file inside the db path.
const DBFilename = "chain.db"

// Bucket names.
var (
	bucketBlocks = []byte("blocks") // hash -> block json
	bucketMeta   = []byte("meta")   // metadata: tip

	metaKeyLastHash = []byte("last_hash")
)

// Bolt represents the storage implementation for reading and storing blocks
// in a bolt key value database. This implements the database.Storage
// interface.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens or creates the chain database inside the dbPath folder.
func NewBolt(dbPath string) (*Bolt, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// A second process holding the file would block forever without a timeout.
	db, err := bolt.Open(filepath.Join(dbPath, DBFilename), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBlocks, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close closes the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// GetLastHash returns the hash of the chain tip.
func (b *Bolt) GetLastHash() (string, error) {
	var hash string
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(metaKeyLastHash)
		if data == nil {
			return database.ErrNotFound
		}
		hash = string(data)
		return nil
	})

	return hash, err
}

// SaveLastHash overwrites the hash of the chain tip.
func (b *Bolt) SaveLastHash(hash string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(metaKeyLastHash, []byte(hash))
	})
}

// InsertBlock stores the block keyed by its hash.
func (b *Bolt) InsertBlock(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlocks).Put([]byte(block.Hash), data)
	})
}

// GetBlock returns the block stored under the specified hash.
func (b *Bolt) GetBlock(hash string) (database.Block, error) {
	var block database.Block
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketBlocks).Get([]byte(hash))
		if data == nil {
			return database.ErrNotFound
		}

		// The slice is only valid for the life of the transaction and
		// Unmarshal copies everything it keeps.
		if err := json.Unmarshal(data, &block); err != nil {
			return fmt.Errorf("decoding block %s: %w", hash, err)
		}
		return nil
	})
	if err != nil {
		return database.Block{}, err
	}

	return block, nil
}

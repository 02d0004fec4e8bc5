package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// lastHashFile is the name of the file holding the chain tip.
const lastHashFile = "last_hash"

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. This implements the
// database.Storage interface.
type Disk struct {
	dbPath string
}

// NewDisk constructs a Disk value for use.
func NewDisk(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// GetLastHash reads the hash of the chain tip.
func (d *Disk) GetLastHash() (string, error) {
	data, err := os.ReadFile(path.Join(d.dbPath, lastHashFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", database.ErrNotFound
		}
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

// SaveLastHash replaces the file holding the chain tip. The new value is
// written to a temporary file and renamed so a crash never leaves a
// partial hash behind.
func (d *Disk) SaveLastHash(hash string) error {
	tmp := path.Join(d.dbPath, lastHashFile+".tmp")
	if err := os.WriteFile(tmp, []byte(hash), 0600); err != nil {
		return err
	}

	return os.Rename(tmp, path.Join(d.dbPath, lastHashFile))
}

// InsertBlock takes the specified block and stores it on disk in a
// file labeled with the block hash.
func (d *Disk) InsertBlock(block database.Block) error {

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}

	// Create a new file for this block and name it based on the block hash.
	f, err := os.OpenFile(d.getPath(block.Hash), os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	// Write the new block to disk.
	if _, err := f.Write(data); err != nil {
		return err
	}

	return f.Sync()
}

// GetBlock locates and returns the contents of the block stored under
// the specified hash.
func (d *Disk) GetBlock(hash string) (database.Block, error) {

	// A hash is used as a file name so it can't contain path elements.
	if hash == "" || strings.ContainsAny(hash, `/\.`) {
		return database.Block{}, database.ErrNotFound
	}

	// Open the block file for the specified hash.
	f, err := os.OpenFile(d.getPath(hash), os.O_RDONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.Block{}, database.ErrNotFound
		}
		return database.Block{}, err
	}
	defer f.Close()

	// Decode the contents of the block.
	var block database.Block
	if err := json.NewDecoder(f).Decode(&block); err != nil {
		return database.Block{}, fmt.Errorf("decoding block %s: %w", hash, err)
	}

	return block, nil
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(hash string) string {
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", hash))
}

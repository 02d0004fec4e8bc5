// Package database handles all the lower level support for the blockchain
// data model: transactions, blocks, the proof of work search and the contract
// used to persist blocks.
package database

import "errors"

// ErrNotFound is returned by a Storage when a key does not exist. It is a
// normal result and not a failure of the store.
var ErrNotFound = errors.New("not found")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. Blocks
// are keyed by their hash and a single record holds the current chain tip.
type Storage interface {
	GetLastHash() (string, error)
	SaveLastHash(hash string) error
	InsertBlock(block Block) error
	GetBlock(hash string) (Block, error)
	Close() error
}

package public

import (
	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/genesis"
	"github.com/budlum/blockchain/foundation/blockchain/peer"
	"github.com/budlum/blockchain/foundation/blockchain/state"
)

// NewTx is what a client submits to create a transaction. The data is
// carried as text and stored as its bytes.
type NewTx struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount"`
	Data   string `json:"data"`
}

// NodeStatus reports the node identity alongside the chain.
type NodeStatus struct {
	PeerID string       `json:"peer_id"`
	Addrs  []string     `json:"addrs"`
	Peers  int          `json:"peers"`
	Chain  state.Status `json:"chain"`
}

// GenesisInfo pairs the genesis parameters with the resulting block.
type GenesisInfo struct {
	Genesis genesis.Genesis `json:"genesis"`
	Block   database.Block  `json:"block"`
}

// PeerList is the response for the list of connected peers.
type PeerList struct {
	PeerID string      `json:"peer_id"`
	Peers  []peer.Peer `json:"peers"`
}

type signal struct {
	Status string `json:"status"`
}

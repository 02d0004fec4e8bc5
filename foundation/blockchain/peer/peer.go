// Package peer maintains the peer related information such as the set
// of known peers and how they were found.
package peer

import (
	"sort"
	"sync"
)

// Set of sources a peer can be learned from.
const (
	SourceDial    = "dial"
	SourceInbound = "inbound"
	SourceMDNS    = "mdns"
	SourceDHT     = "dht"
)

// Peer represents information about a Node in the network.
type Peer struct {
	ID     string   `json:"id"`
	Addrs  []string `json:"addrs"`
	Source string   `json:"source"`
}

// New constructs a new info value.
func New(id string, source string, addrs ...string) Peer {
	return Peer{
		ID:     id,
		Addrs:  addrs,
		Source: source,
	}
}

// Match validates if the specified id matches this node.
func (p Peer) Match(id string) bool {
	return p.ID == id
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[string]Peer
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[string]Peer),
	}
}

// Add adds a new node to the set. It reports false when the peer was
// already known, in which case its addresses are refreshed.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	existing, exists := ps.set[peer.ID]
	if exists {
		if len(peer.Addrs) > 0 {
			existing.Addrs = peer.Addrs
			ps.set[peer.ID] = existing
		}
		return false
	}

	ps.set[peer.ID] = peer
	return true
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(id string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, id)
}

// Len returns the number of known peers.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers, excluding the specified node,
// sorted by id.
func (ps *PeerSet) Copy(self string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.set))
	for _, peer := range ps.set {
		if !peer.Match(self) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].ID < peers[j].ID
	})

	return peers
}

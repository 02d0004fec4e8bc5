// Package p2p provides the transport between nodes: a libp2p host with a
// stable identity, gossipsub topics, and peer discovery through a Kademlia
// DHT rendezvous or mDNS on the local network.
package p2p

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/budlum/blockchain/foundation/blockchain/peer"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	pb "github.com/libp2p/go-libp2p-pubsub/pb"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	libp2ppeer "github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"github.com/multiformats/go-multiaddr"
)

// Set of defaults applied when the configuration leaves a value unset.
const (
	DefaultRendezvous     = "budlum-blockchain"
	DefaultLowWater       = 16
	DefaultHighWater      = 64
	DefaultMaxMessageSize = 8 << 20
	protocolPrefix        = "/budlum"
	userAgent             = "budlum/1.0"
)

// EventHandler defines a function that is called when events occur in the
// processing of the network.
type EventHandler func(v string, args ...any)

// Validator reports whether data received on a topic may be delivered and
// relayed.
type Validator func(topic string, data []byte) bool

// MessageHandler is called for every message received from a peer.
type MessageHandler func(ctx context.Context, from string, data []byte) error

// Config represents the settings for a node.
type Config struct {
	KeyPath        string
	Topics         []string
	Validator      Validator
	Rendezvous     string
	EnableMDNS     bool
	LowWater       int
	HighWater      int
	MaxMessageSize int
	EvHandler      EventHandler
}

// Node is a libp2p host joined to the gossip topics.
type Node struct {
	host       host.Host
	kdht       *dht.IpfsDHT
	ps         *pubsub.PubSub
	mdns       mdns.Service
	rendezvous string
	peers      *peer.PeerSet
	evHandler  EventHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
	subs   map[string]*pubsub.Subscription
}

// New constructs a node. The host does not listen until Listen is called.
func New(cfg Config) (*Node, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Rendezvous == "" {
		cfg.Rendezvous = DefaultRendezvous
	}
	if cfg.LowWater <= 0 {
		cfg.LowWater = DefaultLowWater
	}
	if cfg.HighWater <= cfg.LowWater {
		cfg.HighWater = max(DefaultHighWater, cfg.LowWater*2)
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}

	key, err := LoadIdentity(cfg.KeyPath)
	if err != nil {
		return nil, err
	}

	connMgr, err := connmgr.NewConnManager(
		cfg.LowWater,
		cfg.HighWater,
		connmgr.WithGracePeriod(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("create connection manager: %w", err)
	}

	h, err := libp2p.New(
		libp2p.Identity(key),
		libp2p.NoListenAddrs,
		libp2p.ConnectionManager(connMgr),
		libp2p.UserAgent(userAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("create libp2p host: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	n := Node{
		host:       h,
		rendezvous: cfg.Rendezvous,
		peers:      peer.NewPeerSet(),
		evHandler:  ev,
		ctx:        ctx,
		cancel:     cancel,
		topics:     make(map[string]*pubsub.Topic),
		subs:       make(map[string]*pubsub.Subscription),
	}

	h.Network().Notify(&network.NotifyBundle{
		ConnectedF:    n.connected,
		DisconnectedF: n.disconnected,
	})

	n.kdht, err = dht.New(ctx, h, dht.Mode(dht.ModeServer), dht.ProtocolPrefix(protocolPrefix))
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("create dht: %w", err)
	}

	n.ps, err = pubsub.NewGossipSub(ctx, h,
		pubsub.WithMessageIdFn(messageID),
		pubsub.WithMaxMessageSize(cfg.MaxMessageSize),
	)
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("create gossipsub: %w", err)
	}

	for _, name := range cfg.Topics {
		if cfg.Validator != nil {
			if err := n.registerValidator(name, cfg.Validator); err != nil {
				n.Close()
				return nil, err
			}
		}

		topic, err := n.ps.Join(name)
		if err != nil {
			n.Close()
			return nil, fmt.Errorf("join topic %s: %w", name, err)
		}
		n.topics[name] = topic
	}

	if cfg.EnableMDNS {
		n.mdns = mdns.NewMdnsService(h, cfg.Rendezvous, &mdnsNotifee{node: &n})
		if err := n.mdns.Start(); err != nil {
			n.Close()
			return nil, fmt.Errorf("start mdns: %w", err)
		}
	}

	ev("p2p: New: peer id[%s]", h.ID())

	return &n, nil
}

// Close shuts down discovery, the subscriptions and the host.
func (n *Node) Close() error {
	n.cancel()

	n.mu.Lock()
	for _, sub := range n.subs {
		sub.Cancel()
	}
	for _, topic := range n.topics {
		topic.Close()
	}
	n.mu.Unlock()

	n.wg.Wait()

	if n.mdns != nil {
		n.mdns.Close()
	}

	if n.kdht != nil {
		n.kdht.Close()
	}

	return n.host.Close()
}

// =============================================================================

// PeerID returns the stable identifier of this node.
func (n *Node) PeerID() string {
	return n.host.ID().String()
}

// Addrs returns the full addresses other nodes can dial, including the
// peer id component.
func (n *Node) Addrs() []string {
	addrs, err := libp2ppeer.AddrInfoToP2pAddrs(&libp2ppeer.AddrInfo{
		ID:    n.host.ID(),
		Addrs: n.host.Addrs(),
	})
	if err != nil {
		return nil
	}

	out := make([]string, len(addrs))
	for i, addr := range addrs {
		out[i] = addr.String()
	}

	return out
}

// Listen accepts inbound connections on the TCP port for all interfaces.
// A port of zero picks a free port.
func (n *Node) Listen(port int) error {
	addr, err := multiaddr.NewMultiaddr(fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", port))
	if err != nil {
		return fmt.Errorf("listen address: %w", err)
	}

	if err := n.host.Network().Listen(addr); err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	n.evHandler("p2p: Listen: listening: addrs%v", n.Addrs())

	return nil
}

// Dial connects to the node at the address. The address must carry the
// peer id, as in /ip4/127.0.0.1/tcp/4001/p2p/<id>.
func (n *Node) Dial(ctx context.Context, addr string) error {
	info, err := libp2ppeer.AddrInfoFromString(addr)
	if err != nil {
		return fmt.Errorf("parse peer address %s: %w", addr, err)
	}

	return n.connect(ctx, *info, peer.SourceDial)
}

// ListPeers returns the peers this node is connected to.
func (n *Node) ListPeers() []peer.Peer {
	return n.peers.Copy(n.PeerID())
}

// =============================================================================

// connect records the peer with its source and opens the connection.
func (n *Node) connect(ctx context.Context, info libp2ppeer.AddrInfo, source string) error {
	if info.ID == n.host.ID() {
		return nil
	}

	n.peers.Add(peer.New(info.ID.String(), source, addrStrings(info.Addrs)...))

	if err := n.host.Connect(ctx, info); err != nil {
		n.peers.Remove(info.ID.String())
		return fmt.Errorf("connect to %s: %w", info.ID, err)
	}

	n.evHandler("p2p: connect: connected: peer[%s]: source[%s]", info.ID, source)

	return nil
}

func (n *Node) connected(_ network.Network, conn network.Conn) {
	source := peer.SourceDial
	if conn.Stat().Direction == network.DirInbound {
		source = peer.SourceInbound
	}

	id := conn.RemotePeer().String()
	if n.peers.Add(peer.New(id, source, conn.RemoteMultiaddr().String())) {
		n.evHandler("p2p: connected: peer[%s]: source[%s]", id, source)
	}
}

func (n *Node) disconnected(net network.Network, conn network.Conn) {
	id := conn.RemotePeer()
	if len(net.ConnsToPeer(id)) > 0 {
		return
	}

	n.peers.Remove(id.String())
	n.evHandler("p2p: disconnected: peer[%s]", id)
}

// messageID identifies a message by its origin, sequence number and data.
func messageID(msg *pb.Message) string {
	return string(ethcrypto.Keccak256(msg.GetFrom(), msg.GetSeqno(), msg.GetData()))
}

func addrStrings(addrs []multiaddr.Multiaddr) []string {
	out := make([]string, len(addrs))
	for i, addr := range addrs {
		out[i] = addr.String()
	}
	return out
}

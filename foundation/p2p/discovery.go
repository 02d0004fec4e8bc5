package p2p

import (
	"context"
	"fmt"

	"github.com/budlum/blockchain/foundation/blockchain/peer"
	libp2ppeer "github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	dutil "github.com/libp2p/go-libp2p/p2p/discovery/util"
)

// Bootstrap dials the seed node, joins the DHT through it and keeps
// advertising and searching the rendezvous namespace for other nodes in the
// background.
func (n *Node) Bootstrap(ctx context.Context, seed string) error {
	if err := n.Dial(ctx, seed); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	if err := n.kdht.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap dht: %w", err)
	}

	rd := drouting.NewRoutingDiscovery(n.kdht)
	dutil.Advertise(n.ctx, rd, n.rendezvous)

	peers, err := rd.FindPeers(n.ctx, n.rendezvous)
	if err != nil {
		return fmt.Errorf("find peers: %w", err)
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.evHandler("p2p: Bootstrap: G started: rendezvous[%s]", n.rendezvous)
		defer n.evHandler("p2p: Bootstrap: G completed")

		for info := range peers {
			if info.ID == n.host.ID() || len(info.Addrs) == 0 {
				continue
			}

			if err := n.connect(n.ctx, info, peer.SourceDHT); err != nil {
				n.evHandler("p2p: Bootstrap: WARNING: %s", err)
			}
		}
	}()

	return nil
}

// =============================================================================

// mdnsNotifee connects to nodes found on the local network.
type mdnsNotifee struct {
	node *Node
}

// HandlePeerFound implements the mdns.Notifee interface.
func (m *mdnsNotifee) HandlePeerFound(info libp2ppeer.AddrInfo) {
	n := m.node

	if info.ID == n.host.ID() {
		return
	}

	if err := n.connect(n.ctx, info, peer.SourceMDNS); err != nil {
		n.evHandler("p2p: HandlePeerFound: WARNING: %s", err)
	}
}

var _ mdns.Notifee = (*mdnsNotifee)(nil)

package gossip

import (
	"context"
	"fmt"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// Publisher represents the transport that delivers data to every peer
// subscribed to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte) error
}

// Broadcaster emits locally produced messages to the network.
type Broadcaster struct {
	pub Publisher
}

// NewBroadcaster constructs a broadcaster on top of the transport.
func NewBroadcaster(pub Publisher) *Broadcaster {
	return &Broadcaster{
		pub: pub,
	}
}

// BroadcastTx shares a transaction with the network.
func (b *Broadcaster) BroadcastTx(ctx context.Context, tx database.Tx) error {
	return b.publish(ctx, TypeTransaction, tx)
}

// BroadcastBlock shares a block with the network.
func (b *Broadcaster) BroadcastBlock(ctx context.Context, block database.Block) error {
	return b.publish(ctx, TypeBlock, block)
}

// RequestBlocks asks the peers to publish their chains.
func (b *Broadcaster) RequestBlocks(ctx context.Context) error {
	return b.publish(ctx, TypeGetBlocks, nil)
}

// SendChain publishes the full chain in answer to a request for blocks.
func (b *Broadcaster) SendChain(ctx context.Context, chain []database.Block) error {
	return b.publish(ctx, TypeChain, chain)
}

func (b *Broadcaster) publish(ctx context.Context, typ string, payload any) error {
	msg, err := NewMessage(typ, payload)
	if err != nil {
		return err
	}

	data, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}

	if err := b.pub.Publish(ctx, msg.Topic(), data); err != nil {
		return fmt.Errorf("publish %s: %w", typ, err)
	}

	return nil
}

package p2p

import (
	"context"
	"errors"
	"fmt"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	libp2ppeer "github.com/libp2p/go-libp2p/core/peer"
)

// ErrUnknownTopic is returned when a topic was not joined at construction.
var ErrUnknownTopic = errors.New("unknown topic")

// Subscribe starts receiving messages on the topic. Messages are delivered
// to the handler passed to Run.
func (n *Node) Subscribe(name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.subs[name]; exists {
		return nil
	}

	topic, exists := n.topics[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, name)
	}

	sub, err := topic.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", name, err)
	}
	n.subs[name] = sub

	n.evHandler("p2p: Subscribe: topic[%s]", name)

	return nil
}

// Publish sends the data to every peer subscribed to the topic.
func (n *Node) Publish(ctx context.Context, name string, data []byte) error {
	n.mu.Lock()
	topic, exists := n.topics[name]
	n.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, name)
	}

	return topic.Publish(ctx, data)
}

// Run dispatches messages from every subscription to the handler until the
// context is cancelled or the node is closed. Messages published by this
// node are skipped.
func (n *Node) Run(ctx context.Context, handler MessageHandler) {
	n.mu.Lock()
	subs := make([]*pubsub.Subscription, 0, len(n.subs))
	for _, sub := range n.subs {
		subs = append(subs, sub)
	}
	n.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-n.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	n.wg.Add(len(subs))
	for _, sub := range subs {
		go func(sub *pubsub.Subscription) {
			defer n.wg.Done()
			n.readLoop(ctx, sub, handler)
		}(sub)
	}

	<-ctx.Done()
}

func (n *Node) readLoop(ctx context.Context, sub *pubsub.Subscription, handler MessageHandler) {
	n.evHandler("p2p: readLoop: G started: topic[%s]", sub.Topic())
	defer n.evHandler("p2p: readLoop: G completed: topic[%s]", sub.Topic())

	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			return
		}

		if msg.ReceivedFrom == n.host.ID() {
			continue
		}

		from := msg.ReceivedFrom.String()
		if err := handler(ctx, from, msg.Data); err != nil {
			n.evHandler("p2p: readLoop: topic[%s]: from[%s]: WARNING: %s", sub.Topic(), from, err)
		}
	}
}

func (n *Node) registerValidator(name string, validate Validator) error {
	fn := func(ctx context.Context, from libp2ppeer.ID, msg *pubsub.Message) bool {
		return validate(name, msg.Data)
	}

	if err := n.ps.RegisterTopicValidator(name, fn); err != nil {
		return fmt.Errorf("register validator for %s: %w", name, err)
	}

	return nil
}

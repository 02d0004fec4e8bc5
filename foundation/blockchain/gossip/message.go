// Package gossip defines the messages exchanged between nodes and the
// handling of those messages against the local blockchain state.
package gossip

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/budlum/blockchain/foundation/blockchain/database"
)

// Set of topics every node subscribes to.
const (
	TopicBlocks       = "blocks"
	TopicTransactions = "transactions"
)

// Topics lists the topics in subscription order.
var Topics = []string{TopicBlocks, TopicTransactions}

// Set of message types.
const (
	TypeTransaction = "transaction"
	TypeBlock       = "block"
	TypeGetBlocks   = "get_blocks"
	TypeChain       = "chain"
)

// ErrUnknownType is returned when a message carries a type this node does
// not understand.
var ErrUnknownType = errors.New("unknown message type")

// =============================================================================

// Message is the envelope for everything published on a topic. The payload
// is decoded based on the type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage constructs a message of the specified type. A nil payload
// produces a message without one.
func NewMessage(typ string, payload any) (Message, error) {
	if _, exists := topicByType[typ]; !exists {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}

	msg := Message{Type: typ}
	if payload == nil {
		return msg, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	msg.Payload = data

	return msg, nil
}

// Decode parses the envelope and checks the type is known.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("unmarshal message: %w", err)
	}

	if _, exists := topicByType[msg.Type]; !exists {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	return msg, nil
}

// Encode returns the wire form of the message.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Topic returns the topic the message is published on.
func (m Message) Topic() string {
	return topicByType[m.Type]
}

// Tx decodes a transaction payload.
func (m Message) Tx() (database.Tx, error) {
	var tx database.Tx
	if err := m.decode(TypeTransaction, &tx); err != nil {
		return database.Tx{}, err
	}
	return tx, nil
}

// Block decodes a block payload.
func (m Message) Block() (database.Block, error) {
	var block database.Block
	if err := m.decode(TypeBlock, &block); err != nil {
		return database.Block{}, err
	}
	return block, nil
}

// Chain decodes a chain payload.
func (m Message) Chain() ([]database.Block, error) {
	var chain []database.Block
	if err := m.decode(TypeChain, &chain); err != nil {
		return nil, err
	}
	return chain, nil
}

func (m Message) decode(typ string, v any) error {
	if m.Type != typ {
		return fmt.Errorf("message type is %q, exp %q", m.Type, typ)
	}

	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", typ, err)
	}

	return nil
}

// =============================================================================

// topicByType maps every known type to the topic carrying it.
var topicByType = map[string]string{
	TypeTransaction: TopicTransactions,
	TypeBlock:       TopicBlocks,
	TypeGetBlocks:   TopicBlocks,
	TypeChain:       TopicBlocks,
}

// Validate reports whether the data is a known message that belongs on the
// specified topic. It is used to drop bad messages before they are relayed.
func Validate(topic string, data []byte) bool {
	msg, err := Decode(data)
	if err != nil {
		return false
	}

	return msg.Topic() == topic
}

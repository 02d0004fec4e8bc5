package gossip

import (
	"context"
	"errors"
	"fmt"

	"github.com/budlum/blockchain/foundation/blockchain/state"
)

// Handler feeds inbound messages into the blockchain state and answers the
// ones that need a reply.
type Handler struct {
	state     *state.State
	bcast     *Broadcaster
	evHandler state.EventHandler
}

// NewHandler constructs a handler for the state. Replies are published
// through the broadcaster.
func NewHandler(st *state.State, bcast *Broadcaster, evHandler state.EventHandler) *Handler {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Handler{
		state:     st,
		bcast:     bcast,
		evHandler: ev,
	}
}

// HandleMessage decodes the data received from the specified peer and
// applies it. Blocks that are already known are ignored.
func (h *Handler) HandleMessage(ctx context.Context, from string, data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		return err
	}

	h.evHandler("gossip: HandleMessage: received: type[%s]: from[%s]", msg.Type, from)

	switch msg.Type {
	case TypeTransaction:
		return h.handleTx(msg)

	case TypeBlock:
		return h.handleBlock(ctx, msg)

	case TypeGetBlocks:
		return h.handleGetBlocks(ctx)

	case TypeChain:
		return h.handleChain(msg)
	}

	return fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
}

func (h *Handler) handleTx(msg Message) error {
	tx, err := msg.Tx()
	if err != nil {
		return err
	}

	if err := h.state.UpsertNodeTransaction(tx); err != nil {
		return fmt.Errorf("tx[%s]: %w", tx, err)
	}

	return nil
}

func (h *Handler) handleBlock(ctx context.Context, msg Message) error {
	block, err := msg.Block()
	if err != nil {
		return err
	}

	err = h.state.ProcessProposedBlock(block)
	switch {
	case err == nil:
		return nil

	case errors.Is(err, state.ErrBlockKnown):
		return nil

	case errors.Is(err, state.ErrChainBehind), errors.Is(err, state.ErrChainForked):
		h.evHandler("gossip: handleBlock: blk[%d]: %s: requesting blocks", block.Index, err)
		if err := h.bcast.RequestBlocks(ctx); err != nil {
			return fmt.Errorf("request blocks: %w", err)
		}
		return nil
	}

	return err
}

func (h *Handler) handleGetBlocks(ctx context.Context) error {
	chain := h.state.Chain()

	h.evHandler("gossip: handleGetBlocks: sending chain: blocks[%d]", len(chain))

	return h.bcast.SendChain(ctx, chain)
}

func (h *Handler) handleChain(msg Message) error {
	chain, err := msg.Chain()
	if err != nil {
		return err
	}

	if _, err := h.state.ReplaceChain(chain); err != nil {
		return err
	}

	return nil
}

// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/budlum/blockchain/business/sys/validate"
	"github.com/budlum/blockchain/business/web/errs"
	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/peer"
	"github.com/budlum/blockchain/foundation/blockchain/state"
	"github.com/budlum/blockchain/foundation/events"
	"github.com/budlum/blockchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Miner represents the worker behavior the handlers trigger.
type Miner interface {
	SignalMineNow()
	SignalSync()
}

// Network represents the peer to peer node the handlers report on.
type Network interface {
	PeerID() string
	Addrs() []string
	ListPeers() []peer.Peer
}

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Miner Miner
	Net   Network
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Status returns the node identity and a summary of the chain.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := NodeStatus{
		PeerID: h.Net.PeerID(),
		Addrs:  h.Net.Addrs(),
		Peers:  len(h.Net.ListPeers()),
		Chain:  h.State.QueryStatus(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Genesis returns the genesis parameters and the block built from them.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := GenesisInfo{
		Genesis: h.State.Genesis(),
		Block:   h.State.GenesisBlock(),
	}

	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Blocks returns the full chain in order.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Chain(), http.StatusOK)
}

// BlockByHash returns the block with the specified hash.
func (h Handlers) BlockByHash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	block, err := h.State.QueryBlockByHash(hash)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(fmt.Errorf("block %s not found", hash), http.StatusNotFound)
		}
		return fmt.Errorf("query block %s: %w", hash, err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Mempool returns the set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Mempool(), http.StatusOK)
}

// SubmitTransaction creates a transaction, adds it to the mempool and shares
// it with the peers.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ntx NewTx
	if err := web.Decode(r, &ntx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(ntx); err != nil {
		return err
	}

	tx := database.NewTx(ntx.From, ntx.To, ntx.Amount, []byte(ntx.Data))

	h.Log.Infow("submit tx", "traceid", web.GetTraceID(ctx), "tx", tx.Hash, "from", tx.From, "to", tx.To, "amount", tx.Amount)

	if err := h.State.SubmitWalletTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, tx, http.StatusCreated)
}

// SignalMining starts a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.Miner.SignalMineNow()

	return web.Respond(ctx, w, signal{Status: "mining signaled"}, http.StatusAccepted)
}

// SignalSync asks the peers for their chains.
func (h Handlers) SignalSync(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.Miner.SignalSync()

	return web.Respond(ctx, w, signal{Status: "sync signaled"}, http.StatusAccepted)
}

// Peers returns the connected peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	list := PeerList{
		PeerID: h.Net.PeerID(),
		Peers:  h.Net.ListPeers(),
	}

	return web.Respond(ctx, w, list, http.StatusOK)
}

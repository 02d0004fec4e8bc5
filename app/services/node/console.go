package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/peer"
	"github.com/budlum/blockchain/foundation/blockchain/state"
)

// Defaults used by the tx command when arguments are omitted.
const (
	defaultTo     = "recipient"
	defaultAmount = 10
	defaultData   = "demo tx"
)

const consoleHelp = "Commands: tx [to] [amount] [data], block, chain, peers, sync, mine, help"

type consoleMiner interface {
	SignalMineNow()
	SignalSync()
}

type consoleBroadcaster interface {
	BroadcastBlock(ctx context.Context, block database.Block) error
}

type consoleNetwork interface {
	PeerID() string
	ListPeers() []peer.Peer
}

// console reads operator commands line by line and drives the node.
type console struct {
	state     *state.State
	worker    consoleMiner
	bcast     consoleBroadcaster
	net       consoleNetwork
	minerName string
	out       io.Writer
}

// run processes commands until the input is exhausted or the context
// is canceled.
func (c console) run(ctx context.Context, in io.Reader) {
	fmt.Fprintln(c.out, "Budlum Node - v0.1.0")
	fmt.Fprintln(c.out, consoleHelp)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		c.execute(ctx, scanner.Text())
	}
}

func (c console) execute(ctx context.Context, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "tx":
		c.submitTx(fields[1:])

	case "block":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		block := c.state.LatestBlock()
		if err := c.bcast.BroadcastBlock(ctx, block); err != nil {
			fmt.Fprintf(c.out, "block: broadcast failed: %s\n", err)
			return
		}
		fmt.Fprintf(c.out, "block: broadcast %d %s\n", block.Index, block.ShortHash())

	case "chain":
		status := c.state.QueryStatus()
		fmt.Fprintf(c.out, "chain: length[%d] difficulty[%d] latest[%d %s] pending[%d] loaded[%s] valid[%t]\n",
			status.Length, status.Difficulty, status.LatestIndex, status.LatestHash, status.Pending, status.Loaded, c.state.IsValid())

	case "peers":
		peers := c.net.ListPeers()
		fmt.Fprintf(c.out, "peers: self[%s] connected[%d]\n", c.net.PeerID(), len(peers))
		for _, p := range peers {
			fmt.Fprintf(c.out, "  %s (%s)\n", p.ID, p.Source)
		}

	case "sync":
		c.worker.SignalSync()
		fmt.Fprintln(c.out, "sync: requested blocks from peers")

	case "mine":
		c.worker.SignalMineNow()
		fmt.Fprintln(c.out, "mine: mining signaled")

	case "help":
		fmt.Fprintln(c.out, consoleHelp)

	default:
		fmt.Fprintf(c.out, "unknown command %q\n", fields[0])
		fmt.Fprintln(c.out, consoleHelp)
	}
}

func (c console) submitTx(args []string) {
	to := defaultTo
	amount := uint64(defaultAmount)
	data := defaultData

	if len(args) > 0 {
		to = args[0]
	}

	if len(args) > 1 {
		v, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(c.out, "tx: invalid amount %q\n", args[1])
			return
		}
		amount = v
	}

	if len(args) > 2 {
		data = strings.Join(args[2:], " ")
	}

	from := c.net.PeerID()
	if from == "" {
		from = c.minerName
	}

	tx := database.NewTx(from, to, amount, []byte(data))
	if err := c.state.SubmitWalletTransaction(tx); err != nil {
		fmt.Fprintf(c.out, "tx: %s\n", err)
		return
	}

	fmt.Fprintf(c.out, "tx: submitted %s\n", tx)
}

package worker

import (
	"context"
	"errors"
	"time"

	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/state"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case force := <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation(force)
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines the pending transactions into one block and
// announces it. Unless forced, an empty mempool mines nothing.
func (w *Worker) runMiningOperation(force bool) {
	pending := w.state.MempoolLength()
	if pending == 0 && !force {
		w.evHandler("worker: runMiningOperation: MINING: nothing to mine")
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: started: Txs[%d] forced[%t]", pending, force)

	// A cancel left over from an earlier block must not stop this one.
	select {
	case <-w.cancelMining:
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := w.watchCancel(ctx, cancel)

	start := time.Now()
	block, err := w.state.MinePendingTransactions(ctx, w.minerName)
	cancel()
	<-done

	switch {
	case err == nil:
		w.evHandler("worker: runMiningOperation: MINING: solved: blk[%d] hash[%s] txs[%d] duration[%v]",
			block.Index, block.ShortHash(), len(block.Transactions), time.Since(start))
		w.announce(block)

	case errors.Is(err, state.ErrStaleBlock):
		w.evHandler("worker: runMiningOperation: MINING: WARNING: chain moved on while mining")

	case errors.Is(err, database.ErrMaxAttempts):
		w.evHandler("worker: runMiningOperation: MINING: WARNING: gave up after the attempt limit")
		return

	case ctx.Err() != nil:
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")

	default:
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		return
	}

	// Transactions that arrived during mining or survived a stale
	// attempt get another round.
	if left := w.state.MempoolLength(); left > 0 {
		w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]", left)
		w.SignalStartMining()
	}
}

// watchCancel cancels the mining context when a cancel signal arrives or
// the worker shuts down. The returned channel closes once it stops watching.
func (w *Worker) watchCancel(ctx context.Context, cancel context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
			cancel()
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	return done
}

// announce proposes the new block to the network. Failures are only logged.
func (w *Worker) announce(block database.Block) {
	ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
	defer cancel()

	if err := w.bcast.BroadcastBlock(ctx, block); err != nil {
		w.evHandler("worker: runMiningOperation: MINING: BroadcastBlock: WARNING %s", err)
	}
}

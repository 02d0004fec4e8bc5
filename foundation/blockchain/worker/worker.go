// Package worker implements mining, transaction sharing and chain sync for
// the blockchain.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/state"
)

// defaultSyncInterval represents the interval of asking the peers for their
// chains when none is configured.
const defaultSyncInterval = time.Minute

// broadcastTimeout bounds a single publish to the network.
const broadcastTimeout = 5 * time.Second

// Broadcaster represents the behavior required to emit locally produced
// data to the peers.
type Broadcaster interface {
	BroadcastTx(ctx context.Context, tx database.Tx) error
	BroadcastBlock(ctx context.Context, block database.Block) error
	RequestBlocks(ctx context.Context) error
}

// Config represents the settings for the worker.
type Config struct {
	State        *state.State
	Broadcaster  Broadcaster
	MinerName    string
	AutoMine     bool
	SyncInterval time.Duration
	EvHandler    state.EventHandler
}

// =============================================================================

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state        *state.State
	bcast        Broadcaster
	minerName    string
	autoMine     bool
	wg           sync.WaitGroup
	ticker       *time.Ticker
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan bool
	txSharing    chan database.Tx
	syncing      chan bool
	evHandler    state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(cfg Config) *Worker {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.SyncInterval
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	w := Worker{
		state:        cfg.State,
		bcast:        cfg.Broadcaster,
		minerName:    cfg.MinerName,
		autoMine:     cfg.AutoMine,
		ticker:       time.NewTicker(interval),
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan bool, 1),
		txSharing:    make(chan database.Tx, maxTxShareRequests),
		syncing:      make(chan bool, 1),
		evHandler:    ev,
	}

	// Register this worker with the state package.
	cfg.State.RegisterWorker(&w)

	// Load the set of operations we need to run.
	operations := []func(){
		w.syncOperations,
		w.miningOperations,
		w.shareTxOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// Catch up with the network before mining anything.
	w.SignalSync()

	// Mine anything left in the pool from before.
	if w.state.MempoolLength() > 0 {
		w.SignalStartMining()
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation when auto mining is on. If
// there is already a signal pending in the channel, just return since a
// mining operation will start.
func (w *Worker) SignalStartMining() {
	if !w.autoMine {
		w.evHandler("worker: SignalStartMining: auto mining turned off")
		return
	}

	select {
	case w.startMining <- false:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalMineNow starts a mining operation even when the pool is empty or
// auto mining is off.
func (w *Worker) SignalMineNow() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalMineNow: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// SignalShareTx signals a share transaction operation. If
// maxTxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareTx(tx database.Tx) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transactions won't be shared.")
	}
}

// SignalSync asks the peers for their chains outside of the regular
// interval.
func (w *Worker) SignalSync() {
	select {
	case w.syncing <- true:
	default:
	}
	w.evHandler("worker: SignalSync: sync signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

package worker

import "context"

// syncOperations asks the peers for their chains on every tick and
// whenever a sync is signaled.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runSyncOperation()
			}
		case <-w.syncing:
			if !w.isShutdown() {
				w.runSyncOperation()
			}
		case <-w.shut:
			w.evHandler("worker: syncOperations: received shut signal")
			return
		}
	}
}

// runSyncOperation publishes a request for blocks. The replies arrive as
// chain messages and go through the fork choice rule.
func (w *Worker) runSyncOperation() {
	w.evHandler("worker: runSyncOperation: started: local blocks[%d]", w.state.Length())
	defer w.evHandler("worker: runSyncOperation: completed")

	ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
	defer cancel()

	if err := w.bcast.RequestBlocks(ctx); err != nil {
		w.evHandler("worker: runSyncOperation: WARNING: %s", err)
	}
}

package database

import (
	"context"
	"errors"
)

// ErrMaxAttempts is returned from POW when a configured attempt cap is reached
// before a solution is found.
var ErrMaxAttempts = errors.New("maximum mining attempts reached")

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Block       Block
	Difficulty  uint
	MaxAttempts uint64 // Zero means there is no limit.
	EvHandler   func(v string, args ...any)
}

// POW performs the work of mining to find a nonce that solves the proof of
// work puzzle for the specified block. The block provided is not changed, the
// solved copy is returned. The search can be cancelled through the context.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	ev("database: POW: MINING: started: blk[%d]: difficulty[%d]", args.Block.Index, args.Difficulty)
	defer ev("database: POW: MINING: completed: blk[%d]", args.Block.Index)

	b := args.Block
	b.Hash = b.CalculateHash()

	// Loop until we find a solution or we are told to stop.
	var attempts uint64
	for !b.IsSolved(args.Difficulty) {
		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED: attempts[%d]", attempts)
			return Block{}, ctx.Err()
		}

		attempts++
		if args.MaxAttempts > 0 && attempts > args.MaxAttempts {
			return Block{}, ErrMaxAttempts
		}
		if attempts%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", attempts)
		}

		b.Nonce++
		b.Hash = b.CalculateHash()
	}

	ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", shortHash(b.PreviousHash), b.Hash, attempts)

	return b, nil
}

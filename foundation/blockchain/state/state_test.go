package state_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/database/storage"
	"github.com/budlum/blockchain/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const miner = "miner-1"

func newState(t *testing.T, strg database.Storage) *state.State {
	return state.New(state.Config{
		Difficulty: 2,
		Storage:    strg,
		EvHandler: func(v string, args ...any) {
			t.Logf("\t\t"+v, args...)
		},
	})
}

func mine(t *testing.T, s *state.State, testID int) database.Block {
	block, err := s.MinePendingTransactions(context.Background(), miner)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to mine a block: %v", failed, testID, err)
	}
	return block
}

// countingStorage records how many blocks were written.
type countingStorage struct {
	*storage.Memory
	inserts int
}

func (c *countingStorage) InsertBlock(block database.Block) error {
	c.inserts++
	return c.Memory.InsertBlock(block)
}

// signalWorker counts the signals it receives.
type signalWorker struct {
	starts  atomic.Int64
	cancels atomic.Int64
	shares  atomic.Int64
}

func (w *signalWorker) Shutdown()                    {}
func (w *signalWorker) SignalStartMining()           { w.starts.Add(1) }
func (w *signalWorker) SignalCancelMining()          { w.cancels.Add(1) }
func (w *signalWorker) SignalShareTx(tx database.Tx) { w.shares.Add(1) }
func (w *signalWorker) SignalSync()                  {}

// =============================================================================

func Test_NewChain(t *testing.T) {
	t.Log("Given the need to start a node with no history.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen storage is empty.", testID)
		{
			strg := storage.NewMemory()
			s := newState(t, strg)

			if s.Length() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have a single block, got %d.", failed, testID, s.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould have a single block.", success, testID)

			if !s.LatestBlock().Equal(database.Genesis()) {
				t.Fatalf("\t%s\tTest %d:\tShould start with the genesis block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould start with the genesis block.", success, testID)

			if s.LoadStatus() != state.LoadFresh {
				t.Fatalf("\t%s\tTest %d:\tShould report a fresh chain, got %s.", failed, testID, s.LoadStatus())
			}
			t.Logf("\t%s\tTest %d:\tShould report a fresh chain.", success, testID)

			tip, err := strg.GetLastHash()
			if err != nil || tip != database.Genesis().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould persist the genesis block as the tip, got %q %v.", failed, testID, tip, err)
			}
			t.Logf("\t%s\tTest %d:\tShould persist the genesis block as the tip.", success, testID)

			if !s.IsValid() {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
		}
	}
}

func Test_MinePendingTransactions(t *testing.T) {
	t.Log("Given the need to mine pending transactions into a block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining a single transaction at difficulty 2.", testID)
		{
			s := newState(t, nil)

			tx := database.NewTx("alice", "bob", 50, nil)
			s.AddTransaction(tx)

			if s.MempoolLength() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have one pending transaction, got %d.", failed, testID, s.MempoolLength())
			}
			t.Logf("\t%s\tTest %d:\tShould have one pending transaction.", success, testID)

			block := mine(t, s, testID)

			if s.Length() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have two blocks, got %d.", failed, testID, s.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould have two blocks.", success, testID)

			if !strings.HasPrefix(block.Hash, "00") {
				t.Fatalf("\t%s\tTest %d:\tShould have a hash with two leading zeros, got %s.", failed, testID, block.Hash)
			}
			t.Logf("\t%s\tTest %d:\tShould have a hash with two leading zeros.", success, testID)

			if block.Index != 1 || block.PreviousHash != database.Genesis().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould link the block to genesis.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould link the block to genesis.", success, testID)

			if len(block.Transactions) != 1 || !block.Transactions[0].Equal(tx) {
				t.Fatalf("\t%s\tTest %d:\tShould carry the pending transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould carry the pending transaction.", success, testID)

			if s.MempoolLength() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have an empty mempool, got %d.", failed, testID, s.MempoolLength())
			}
			t.Logf("\t%s\tTest %d:\tShould have an empty mempool.", success, testID)

			if !s.IsValid() {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen mining with an empty mempool.", testID)
		{
			s := newState(t, nil)

			block := mine(t, s, testID)

			if len(block.Transactions) != 0 || s.Length() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould append an empty block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould append an empty block.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen the attempt cap is reached.", testID)
		{
			s := state.New(state.Config{
				Difficulty:        12,
				MaxMiningAttempts: 1,
			})
			s.AddTransaction(database.NewTx("alice", "bob", 1, nil))

			_, err := s.MinePendingTransactions(context.Background(), miner)
			if !errors.Is(err, database.ErrMaxAttempts) {
				t.Fatalf("\t%s\tTest %d:\tShould stop mining at the cap, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould stop mining at the cap.", success, testID)

			if s.Length() != 1 || s.MempoolLength() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain and mempool untouched.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain and mempool untouched.", success, testID)
		}
	}
}

func Test_Validation(t *testing.T) {
	t.Log("Given the need to detect tampered chains.")
	{
		s := newState(t, nil)
		s.AddTransaction(database.NewTx("alice", "bob", 50, nil))
		mine(t, s, 0)
		s.AddTransaction(database.NewTx("bob", "carol", 20, []byte("memo")))
		mine(t, s, 0)

		type table struct {
			name   string
			tamper func(chain []database.Block)
			check  string
		}

		tt := []table{
			{
				name:   "previous hash",
				tamper: func(chain []database.Block) { chain[1].PreviousHash = strings.Repeat("1", 64) },
				check:  state.CheckPreviousHash,
			},
			{
				name:   "transaction amount",
				tamper: func(chain []database.Block) { chain[2].Transactions[0].Amount = 1000 },
				check:  state.CheckHash,
			},
			{
				name: "unsolved hash",
				tamper: func(chain []database.Block) {
					chain[2].Nonce++
					for chain[2].Hash = chain[2].CalculateHash(); strings.HasPrefix(chain[2].Hash, "00"); chain[2].Hash = chain[2].CalculateHash() {
						chain[2].Nonce++
					}
				},
				check: state.CheckProofOfWork,
			},
			{
				name:   "index",
				tamper: func(chain []database.Block) { chain[2].Index = 7 },
				check:  state.CheckIndex,
			},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the %s is tampered with.", testID, tst.name)
			{
				f := func(t *testing.T) {
					chain := s.Chain()
					chain[2].Transactions = append([]database.Tx(nil), chain[2].Transactions...)
					tst.tamper(chain)

					err := state.ValidateChain(chain, s.Difficulty())

					var ve *state.ValidationError
					if !errors.As(err, &ve) {
						t.Fatalf("\t%s\tTest %d:\tShould get a validation error, got %v.", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get a validation error.", success, testID)

					if ve.Check != tst.check {
						t.Fatalf("\t%s\tTest %d:\tShould fail the %q check, got %q.", failed, testID, tst.check, ve.Check)
					}
					t.Logf("\t%s\tTest %d:\tShould fail the %q check.", success, testID, tst.check)

					if s.IsValidChain(chain) {
						t.Fatalf("\t%s\tTest %d:\tShould reject the candidate chain.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the candidate chain.", success, testID)

					if !s.IsValid() {
						t.Fatalf("\t%s\tTest %d:\tShould keep the local chain valid.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould keep the local chain valid.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_IsValidChain(t *testing.T) {
	t.Log("Given the need to check candidate chains from peers.")
	{
		s := newState(t, nil)
		mine(t, s, 0)

		testID := 0
		t.Logf("\tTest %d:\tWhen the candidate is empty.", testID)
		{
			if s.IsValidChain(nil) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an empty chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an empty chain.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the candidate does not start with genesis.", testID)
		{
			if s.IsValidChain(s.Chain()[1:]) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the chain.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen the candidate is the local chain.", testID)
		{
			if !s.IsValidChain(s.Chain()) {
				t.Fatalf("\t%s\tTest %d:\tShould accept the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the chain.", success, testID)
		}
	}
}

func Test_Reload(t *testing.T) {
	t.Log("Given the need to restart a node from storage.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a three block chain is stored in bolt.", testID)
		{
			dbPath := filepath.Join(t.TempDir(), "db")

			strg, err := storage.Open(storage.KindBolt, dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open storage: %v", failed, testID, err)
			}

			s := newState(t, strg)
			s.AddTransaction(database.NewTx("alice", "bob", 50, nil))
			mine(t, s, testID)
			s.AddTransaction(database.NewTx("bob", "carol", 25, nil))
			mine(t, s, testID)
			orig := s.Chain()

			if err := s.Shutdown(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to shutdown: %v", failed, testID, err)
			}

			strg, err = storage.Open(storage.KindBolt, dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reopen storage: %v", failed, testID, err)
			}
			defer strg.Close()

			s = newState(t, strg)

			if s.LoadStatus() != state.LoadExisting {
				t.Fatalf("\t%s\tTest %d:\tShould load the existing chain, got %s.", failed, testID, s.LoadStatus())
			}
			t.Logf("\t%s\tTest %d:\tShould load the existing chain.", success, testID)

			chain := s.Chain()
			if len(chain) != len(orig) {
				t.Fatalf("\t%s\tTest %d:\tShould have %d blocks, got %d.", failed, testID, len(orig), len(chain))
			}
			for i := range orig {
				if !chain[i].Equal(orig[i]) {
					t.Fatalf("\t%s\tTest %d:\tShould have identical block %d.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould have identical blocks in order.", success, testID)

			stored, err := state.ReadChain(strg)
			if err != nil || len(stored) != len(orig) {
				t.Fatalf("\t%s\tTest %d:\tShould read the stored chain directly: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould read the stored chain directly.", success, testID)

			if !s.IsValid() {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the stored tip points to a missing block.", testID)
		{
			strg := storage.NewMemory()
			if err := strg.SaveLastHash(strings.Repeat("a", 64)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to save a tip: %v", failed, testID, err)
			}

			s := newState(t, strg)

			if s.LoadStatus() != state.LoadRecovered {
				t.Fatalf("\t%s\tTest %d:\tShould report a recovered chain, got %s.", failed, testID, s.LoadStatus())
			}
			t.Logf("\t%s\tTest %d:\tShould report a recovered chain.", success, testID)

			if s.Length() != 1 || !s.LatestBlock().Equal(database.Genesis()) {
				t.Fatalf("\t%s\tTest %d:\tShould start over from genesis.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould start over from genesis.", success, testID)

			tip, err := strg.GetLastHash()
			if err != nil || tip != database.Genesis().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould move the stored tip to genesis, got %q %v.", failed, testID, tip, err)
			}
			t.Logf("\t%s\tTest %d:\tShould move the stored tip to genesis.", success, testID)
		}
	}
}

func Test_ProcessProposedBlock(t *testing.T) {
	t.Log("Given the need to accept blocks mined by peers.")
	{
		peer := newState(t, nil)
		peer.AddTransaction(database.NewTx("alice", "bob", 50, nil))
		block := mine(t, peer, 0)

		testID := 0
		t.Logf("\tTest %d:\tWhen the previous hash does not match the tip.", testID)
		{
			s := newState(t, nil)
			s.AddTransaction(database.NewTx("carol", "dave", 5, nil))

			bad := block
			bad.PreviousHash = strings.Repeat("f", 64)

			if err := s.ProcessProposedBlock(bad); !errors.Is(err, state.ErrBlockRejected) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the block, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the block.", success, testID)

			if s.Length() != 1 || s.MempoolLength() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain and mempool untouched.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain and mempool untouched.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the block extends the tip.", testID)
		{
			s := newState(t, nil)
			s.AddTransaction(block.Transactions[0])

			if err := s.ProcessProposedBlock(block); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the block.", success, testID)

			if s.Length() != 2 || s.LatestBlock().Hash != block.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould append the block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould append the block.", success, testID)

			if s.MempoolLength() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould remove the mined transaction from the mempool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould remove the mined transaction from the mempool.", success, testID)

			if err := s.ProcessProposedBlock(block); !errors.Is(err, state.ErrBlockKnown) {
				t.Fatalf("\t%s\tTest %d:\tShould report a known block, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report a known block.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen the block is ahead of the next index.", testID)
		{
			mine(t, peer, testID)
			ahead := mine(t, peer, testID)

			s := newState(t, nil)

			if err := s.ProcessProposedBlock(ahead); !errors.Is(err, state.ErrChainBehind) {
				t.Fatalf("\t%s\tTest %d:\tShould report the chain is behind, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the chain is behind.", success, testID)

			if s.Length() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain untouched.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain untouched.", success, testID)
		}

		testID = 3
		t.Logf("\tTest %d:\tWhen the block content was altered.", testID)
		{
			s := newState(t, nil)

			bad := block
			bad.Transactions = []database.Tx{database.NewTx("mallory", "mallory", 1000, nil)}

			if err := s.ProcessProposedBlock(bad); !errors.Is(err, state.ErrBlockRejected) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the block, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the block.", success, testID)
		}
	}
}

func Test_ReplaceChain(t *testing.T) {
	t.Log("Given the need to adopt the longest valid chain.")
	{
		tx := database.NewTx("alice", "bob", 50, nil)

		peer := newState(t, nil)
		peer.AddTransaction(tx)
		mine(t, peer, 0)
		mine(t, peer, 0)

		testID := 0
		t.Logf("\tTest %d:\tWhen the candidate is longer and valid.", testID)
		{
			s := newState(t, nil)
			s.AddTransaction(tx)

			replaced, err := s.ReplaceChain(peer.Chain())
			if err != nil || !replaced {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain, got %v %v.", failed, testID, replaced, err)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the chain.", success, testID)

			if s.Length() != 3 || s.LatestBlock().Hash != peer.LatestBlock().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould have the peer's tip.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have the peer's tip.", success, testID)

			if s.MempoolLength() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould drop transactions mined in the new chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould drop transactions mined in the new chain.", success, testID)

			replaced, err = s.ReplaceChain(peer.Chain())
			if err != nil || replaced {
				t.Fatalf("\t%s\tTest %d:\tShould keep the local chain of equal length, got %v %v.", failed, testID, replaced, err)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the local chain of equal length.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the candidate is shorter.", testID)
		{
			s := newState(t, nil)
			mine(t, s, testID)
			mine(t, s, testID)
			mine(t, s, testID)
			local := s.LatestBlock()

			replaced, err := s.ReplaceChain(peer.Chain())
			if err != nil || replaced {
				t.Fatalf("\t%s\tTest %d:\tShould keep the local chain, got %v %v.", failed, testID, replaced, err)
			}
			if s.LatestBlock().Hash != local.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould keep the local tip.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the local chain.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen the candidate is invalid.", testID)
		{
			s := newState(t, nil)

			chain := peer.Chain()
			chain[2].PreviousHash = chain[0].Hash

			replaced, err := s.ReplaceChain(chain)
			if !errors.Is(err, state.ErrInvalidChain) || replaced {
				t.Fatalf("\t%s\tTest %d:\tShould reject the chain, got %v %v.", failed, testID, replaced, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the chain.", success, testID)

			if s.Length() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain untouched.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain untouched.", success, testID)
		}

		testID = 3
		t.Logf("\tTest %d:\tWhen a forked local chain is replaced in bolt.", testID)
		{
			dbPath := filepath.Join(t.TempDir(), "db")

			strg, err := storage.Open(storage.KindBolt, dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open storage: %v", failed, testID, err)
			}

			s := newState(t, strg)
			local := database.NewTx("carol", "dave", 7, nil)
			s.AddTransaction(local)
			mine(t, s, testID)

			replaced, err := s.ReplaceChain(peer.Chain())
			if err != nil || !replaced {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain, got %v %v.", failed, testID, replaced, err)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the chain.", success, testID)

			pending := s.Mempool()
			if len(pending) != 1 || pending[0].Hash != local.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould return the dropped block's transaction to the mempool, got %v.", failed, testID, pending)
			}
			t.Logf("\t%s\tTest %d:\tShould return the dropped block's transaction to the mempool.", success, testID)

			if err := s.Shutdown(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to shutdown: %v", failed, testID, err)
			}

			strg, err = storage.Open(storage.KindBolt, dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reopen storage: %v", failed, testID, err)
			}
			defer strg.Close()

			s = newState(t, strg)

			exp := peer.Chain()
			got := s.Chain()
			if s.LoadStatus() != state.LoadExisting || len(got) != len(exp) {
				t.Fatalf("\t%s\tTest %d:\tShould reload the adopted chain, got %s with %d blocks.", failed, testID, s.LoadStatus(), len(got))
			}
			for i := range exp {
				if !got[i].Equal(exp[i]) {
					t.Fatalf("\t%s\tTest %d:\tShould reload identical block %d.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould reload the adopted chain.", success, testID)
		}

		testID = 4
		t.Logf("\tTest %d:\tWhen the candidate extends the local chain.", testID)
		{
			strg := &countingStorage{Memory: storage.NewMemory()}
			s := newState(t, strg)

			if _, err := s.ReplaceChain(peer.Chain()[:2]); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain: %v", failed, testID, err)
			}

			strg.inserts = 0
			if _, err := s.ReplaceChain(peer.Chain()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain: %v", failed, testID, err)
			}

			if strg.inserts != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould only store the blocks past the shared prefix, got %d.", failed, testID, strg.inserts)
			}
			t.Logf("\t%s\tTest %d:\tShould only store the blocks past the shared prefix.", success, testID)

			tip, err := strg.GetLastHash()
			if err != nil || tip != peer.LatestBlock().Hash {
				t.Fatalf("\t%s\tTest %d:\tShould move the stored tip, got %q %v.", failed, testID, tip, err)
			}
			t.Logf("\t%s\tTest %d:\tShould move the stored tip.", success, testID)
		}
	}
}

func Test_RegisterWorker(t *testing.T) {
	t.Log("Given the need to register a worker while peers deliver transactions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen transactions arrive during registration.", testID)
		{
			s := state.New(state.Config{Difficulty: 1})
			w := &signalWorker{}

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 100 {
					s.UpsertNodeTransaction(database.NewTx("alice", "bob", uint64(i), nil))
				}
			}()

			s.RegisterWorker(w)
			wg.Wait()

			before := w.starts.Load()
			if err := s.UpsertNodeTransaction(database.NewTx("bob", "carol", 1, nil)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the transaction: %v", failed, testID, err)
			}

			if w.starts.Load() != before+1 {
				t.Fatalf("\t%s\tTest %d:\tShould signal the registered worker.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould signal the registered worker.", success, testID)

			if s.MempoolLength() != 101 {
				t.Fatalf("\t%s\tTest %d:\tShould keep every transaction, got %d.", failed, testID, s.MempoolLength())
			}
			t.Logf("\t%s\tTest %d:\tShould keep every transaction.", success, testID)
		}
	}
}

package database_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/genesis"
	"github.com/budlum/blockchain/foundation/blockchain/hashing"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Transactions(t *testing.T) {
	type table struct {
		name   string
		from   string
		to     string
		amount uint64
		data   []byte
	}

	tt := []table{
		{name: "basic", from: "alice", to: "bob", amount: 50},
		{name: "payload", from: "alice", to: "bob", amount: 100, data: []byte("test")},
		{name: "zero", from: "", to: "", amount: 0, data: []byte{}},
	}

	t.Log("Given the need to construct transactions with a content hash.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s transaction.", testID, tst.name)
			{
				f := func(t *testing.T) {
					tx := database.NewTx(tst.from, tst.to, tst.amount, tst.data)

					if tx.Hash != tx.CalculateHash() {
						t.Fatalf("\t%s\tTest %d:\tShould have a hash that matches the content.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have a hash that matches the content.", success, testID)

					if len(tx.Hash) != hashing.Size {
						t.Fatalf("\t%s\tTest %d:\tShould have a full length hash, got %d.", failed, testID, len(tx.Hash))
					}
					t.Logf("\t%s\tTest %d:\tShould have a full length hash.", success, testID)

					tampered := tx
					tampered.Amount++
					if tampered.IsHashValid() {
						t.Fatalf("\t%s\tTest %d:\tShould detect a change to the amount.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould detect a change to the amount.", success, testID)

					if tampered.Hash != tx.Hash {
						t.Fatalf("\t%s\tTest %d:\tShould not recompute the hash implicitly.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not recompute the hash implicitly.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_GenesisTx(t *testing.T) {
	t.Log("Given the need for a fixed genesis transaction.")
	{
		tx1 := database.GenesisTx(genesis.Default())
		tx2 := database.GenesisTx(genesis.Default())

		if tx1.From != database.GenesisAccount || tx1.To != database.GenesisAccount || tx1.Amount != 0 {
			t.Fatalf("\t%s\tShould be a transfer of 0 from genesis to genesis: %+v", failed, tx1)
		}
		t.Logf("\t%s\tShould be a transfer of 0 from genesis to genesis.", success)

		if !tx1.Equal(tx2) {
			t.Fatalf("\t%s\tShould be identical across constructions.", failed)
		}
		t.Logf("\t%s\tShould be identical across constructions.", success)

		if string(tx1.Data) != "Budlum Genesis Block" {
			t.Fatalf("\t%s\tShould carry the genesis payload, got %q.", failed, tx1.Data)
		}
		t.Logf("\t%s\tShould carry the genesis payload.", success)
	}
}

func Test_GenesisBlock(t *testing.T) {
	t.Log("Given the need for a reproducible genesis block.")
	{
		b1 := database.Genesis()
		b2 := database.Genesis()

		if b1.Index != 0 {
			t.Fatalf("\t%s\tShould have index 0, got %d.", failed, b1.Index)
		}
		t.Logf("\t%s\tShould have index 0.", success)

		if b1.PreviousHash != strings.Repeat("0", 64) {
			t.Fatalf("\t%s\tShould have a zero previous hash, got %s.", failed, b1.PreviousHash)
		}
		t.Logf("\t%s\tShould have a zero previous hash.", success)

		if len(b1.Transactions) != 1 || !b1.Transactions[0].Equal(database.GenesisTx(genesis.Default())) {
			t.Fatalf("\t%s\tShould contain exactly the genesis transaction.", failed)
		}
		t.Logf("\t%s\tShould contain exactly the genesis transaction.", success)

		if !b1.Equal(b2) {
			t.Fatalf("\t%s\tShould be bit for bit identical across constructions.", failed)
		}
		t.Logf("\t%s\tShould be bit for bit identical across constructions.", success)

		if !b1.IsGenesis() || !b1.IsHashValid() {
			t.Fatalf("\t%s\tShould be a valid genesis block.", failed)
		}
		t.Logf("\t%s\tShould be a valid genesis block.", success)

		other := genesis.Default()
		other.Payload = "another network"
		if database.GenesisBlock(other).Hash == b1.Hash {
			t.Fatalf("\t%s\tShould produce a different genesis for different parameters.", failed)
		}
		t.Logf("\t%s\tShould produce a different genesis for different parameters.", success)
	}
}

func Test_POW(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
	}

	tt := []table{
		{name: "zero", difficulty: 0},
		{name: "one", difficulty: 1},
		{name: "two", difficulty: 2},
	}

	t.Log("Given the need to mine blocks.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				tx := database.NewTx("alice", "bob", 50, nil)
				block := database.NewBlock(1, database.Genesis().Hash, []database.Tx{tx})

				if block.Nonce != 0 || !block.IsHashValid() {
					t.Fatalf("\t%s\tTest %d:\tShould construct with nonce 0 and a matching hash.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould construct with nonce 0 and a matching hash.", success, testID)

				mined, err := database.POW(context.Background(), database.POWArgs{
					Block:      block,
					Difficulty: tst.difficulty,
				})
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

				if !strings.HasPrefix(mined.Hash, strings.Repeat("0", int(tst.difficulty))) {
					t.Fatalf("\t%s\tTest %d:\tShould have %d leading zeros: %s", failed, testID, tst.difficulty, mined.Hash)
				}
				t.Logf("\t%s\tTest %d:\tShould have %d leading zeros.", success, testID, tst.difficulty)

				if mined.Hash != mined.CalculateHash() {
					t.Fatalf("\t%s\tTest %d:\tShould have a hash that matches the content.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould have a hash that matches the content.", success, testID)

				if block.Nonce != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould not change the block provided.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould not change the block provided.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_POWCancel(t *testing.T) {
	t.Log("Given the need to stop a mining operation.")
	{
		block := database.NewBlock(1, database.Genesis().Hash, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := database.POW(ctx, database.POWArgs{Block: block, Difficulty: 64})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("\t%s\tShould be cancelled by the context, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould be cancelled by the context.", success)

		_, err = database.POW(context.Background(), database.POWArgs{Block: block, Difficulty: 64, MaxAttempts: 100})
		if !errors.Is(err, database.ErrMaxAttempts) {
			t.Fatalf("\t%s\tShould stop at the attempt cap, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould stop at the attempt cap.", success)
	}
}

func Test_BlockRoundTrip(t *testing.T) {
	t.Log("Given the need to serialize blocks for storage and the network.")
	{
		trans := []database.Tx{
			database.NewTx("alice", "bob", 50, nil),
			database.NewTx("bob", "carol", 25, []byte{0xde, 0xad}),
		}
		block, err := database.POW(context.Background(), database.POWArgs{
			Block:      database.NewBlock(1, database.Genesis().Hash, trans),
			Difficulty: 1,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
		}

		data, err := json.Marshal(block)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to marshal the block.", success)

		var got database.Block
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("\t%s\tShould be able to unmarshal the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to unmarshal the block.", success)

		if got.CalculateHash() != block.Hash {
			t.Logf("\t%s\tgot: %s", failed, got.CalculateHash())
			t.Logf("\t%s\texp: %s", failed, block.Hash)
			t.Fatalf("\t%s\tShould recompute the original hash.", failed)
		}
		t.Logf("\t%s\tShould recompute the original hash.", success)

		if !got.Equal(block) {
			t.Fatalf("\t%s\tShould be equal to the original.", failed)
		}
		t.Logf("\t%s\tShould be equal to the original.", success)
	}
}

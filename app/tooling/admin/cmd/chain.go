package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/database/storage"
	"github.com/budlum/blockchain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain held in the node database.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := printChain(os.Stdout, storageKind, dbPath); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
}

// printChain opens the storage and writes every block with its
// transactions.
func printChain(w io.Writer, kind string, path string) error {
	chain, err := readStoredChain(kind, path)
	if err != nil {
		return err
	}

	for _, block := range chain {
		fmt.Fprintf(w, "Block: %d  Hash: %s  Prev: %s  Nonce: %d  Txs: %d\n",
			block.Index, block.Hash, block.PreviousHash, block.Nonce, len(block.Transactions))

		for _, tx := range block.Transactions {
			fmt.Fprintf(w, "    Tx: %s  From: %s  To: %s  Amount: %d  Data: %s\n",
				tx.Hash, tx.From, tx.To, tx.Amount, string(tx.Data))
		}
	}

	return nil
}

func readStoredChain(kind string, path string) ([]database.Block, error) {
	if kind == storage.KindMemory {
		return nil, fmt.Errorf("storage kind %q has nothing to read", kind)
	}

	strg, err := storage.Open(kind, path)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	defer strg.Close()

	return state.ReadChain(strg)
}

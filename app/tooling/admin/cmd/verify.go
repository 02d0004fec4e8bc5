package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/budlum/blockchain/foundation/blockchain/genesis"
	"github.com/budlum/blockchain/foundation/blockchain/hashing"
	"github.com/budlum/blockchain/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

var (
	genesisPath string
	difficulty  int
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate the chain held in the node database.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := verifyChain(os.Stdout, storageKind, dbPath); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&genesisPath, "genesis", "g", "", "Optional genesis file the chain must start with.")
	verifyCmd.Flags().IntVarP(&difficulty, "difficulty", "d", -1, "Difficulty to check, -1 uses the genesis value.")
}

// verifyChain reads the stored chain and runs the full validation over it.
func verifyChain(w io.Writer, kind string, path string) error {
	gen := genesis.Default()
	if genesisPath != "" {
		var err error
		if gen, err = genesis.Load(genesisPath); err != nil {
			return err
		}
	}

	diff := uint(gen.Difficulty)
	if difficulty >= 0 {
		diff = uint(difficulty)
	}
	if err := hashing.CheckDifficulty(diff); err != nil {
		return err
	}

	chain, err := readStoredChain(kind, path)
	if err != nil {
		return err
	}

	if !chain[0].Equal(database.GenesisBlock(gen)) {
		return fmt.Errorf("chain starts with a different genesis block %s", chain[0].Hash)
	}

	if err := state.ValidateChain(chain, diff); err != nil {
		return fmt.Errorf("chain invalid: %w", err)
	}

	fmt.Fprintf(w, "Chain valid: %d blocks, difficulty %d, tip %s\n", len(chain), diff, chain[len(chain)-1].Hash)

	return nil
}

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/budlum/blockchain/app/services/node/handlers/v1/public"
	"github.com/budlum/blockchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	from   string
	to     string
	amount uint64
	data   string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a transaction to a node.",
	Run: func(cmd *cobra.Command, args []string) {
		nt := public.NewTx{
			From:   from,
			To:     to,
			Amount: amount,
			Data:   data,
		}

		if err := sendTx(os.Stdout, url, nt); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&from, "from", "f", "", "Account sending the value.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account receiving the value.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "a", 0, "Value to send.")
	sendCmd.Flags().StringVarP(&data, "data", "d", "", "Data to send.")
}

// sendTx posts the transaction to the node and prints what was accepted.
func sendTx(w io.Writer, url string, nt public.NewTx) error {
	body, err := json.Marshal(nt)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("node rejected transaction: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var tx database.Tx
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return err
	}

	fmt.Fprintf(w, "Transaction submitted: %s\n", tx.Hash)

	return nil
}

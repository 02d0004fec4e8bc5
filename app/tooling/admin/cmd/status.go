package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/budlum/blockchain/app/services/node/handlers/v1/public"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of a running node.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := printStatus(os.Stdout, url); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func printStatus(w io.Writer, url string) error {
	resp, err := http.Get(fmt.Sprintf("%s/v1/status", url))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status request failed: %s", resp.Status)
	}

	var status public.NodeStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return err
	}

	fmt.Fprintf(w, "PeerID: %s\n", status.PeerID)
	fmt.Fprintf(w, "Peers: %d\n", status.Peers)
	fmt.Fprintf(w, "Length: %d  Difficulty: %d  Pending: %d\n", status.Chain.Length, status.Chain.Difficulty, status.Chain.Pending)
	fmt.Fprintf(w, "Latest: %d %s\n", status.Chain.LatestIndex, status.Chain.LatestHash)

	return nil
}

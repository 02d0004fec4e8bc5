// Package cmd contains the admin commands for inspecting a node's chain
// offline and talking to a running node over its public API.
package cmd

import (
	"os"

	"github.com/budlum/blockchain/foundation/blockchain/database/storage"
	"github.com/spf13/cobra"
)

var (
	dbPath      string
	storageKind string
	url         string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "p", "zblock/budlum_db", "Path to the node database.")
	rootCmd.PersistentFlags().StringVarP(&storageKind, "storage", "s", storage.KindBolt, "Storage kind: bolt or disk.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Budlum node administration",
}

// Execute runs the admin command line.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

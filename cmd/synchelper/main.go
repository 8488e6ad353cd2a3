// Package main implements the sync helper: the process that runs next
// to Anki, polls the queue server for pending cards, delivers them
// through AnkiConnect and reports the outcomes back.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "synchelper",
	Short: "Deliver queued flashcards into the local Anki collection",
	Long: `synchelper polls the card queue server for pending cards, adds them
to the local Anki collection through AnkiConnect and reports each
outcome back to the server.

Configuration is read from config.yaml in the working directory and
from ANKIQUEUE_* environment variables. The helper keeps a small local
state file so outcomes that were delivered but not yet acknowledged
survive restarts.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

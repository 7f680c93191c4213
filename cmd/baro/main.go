package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "baro",
	Short: "Conversational ledger: track money from plain chat",
	Long: `Baro turns natural-language chat into a financial ledger. It extracts
transactions and commands from messages, tracks balances, budgets and
accounts per user, and gates every destructive operation behind an
explicit confirmation.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to TOML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

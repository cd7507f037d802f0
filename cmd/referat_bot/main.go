// Package main provides the entry point for the referat bot and its CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "referat_bot",
	Short: "Telegram bot for academic documents",
	Long:  "referat_bot generates presentations, referats and independent-work documents in Uzbek from a topic, and serves them through a Telegram bot with prepaid billing.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package main provides the dealradar command line interface, used for
// one-shot pipeline runs from a terminal or cron when the HTTP trigger
// surface is not deployed.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dealradar",
	Short: "Woot deal alert pipeline",
	Long:  "dealradar polls the Woot affiliate feed for offers matching a keyword list and emails new matches exactly once.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Netrod is a troubleshooting service for network infrastructure.
//
// It answers problem descriptions by retrieving similar resolved issues
// from an indexed corpus and routing on retrieval confidence: strong
// matches return the recorded solution verbatim, weaker matches ground
// a generated answer, and unknown problems get general guidance.
//
// Usage:
//
//	# Build the corpus index from CSV exports
//	netrod index --tech-docs docs.csv --incidents tickets.csv
//
//	# Start the query server
//	netrod serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "netrod",
	Short:   "Network troubleshooting service with confidence-routed retrieval",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/netrod/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the base command for the confluence service
var rootCmd = &cobra.Command{
	Use:   "market-confluence",
	Short: "Temporal confluence engine for exchange sessions",
	Long: `market-confluence computes which intraday candles and macro cycles close
together for any instant, detects tight clusters of upcoming closes and
serves the result over HTTP, WebSocket and gRPC.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (built-in defaults when empty)")
}

// -----------------------------------------------------------------------------

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

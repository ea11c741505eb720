package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "tabletalk",
		Short: "Chat with your CSV and Parquet file schemas",
		Long: `TableTalk scans local CSV and Parquet files into a SQLite metadata
store and answers natural-language questions about their schemas
through a local LLM with function calling.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the config file")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

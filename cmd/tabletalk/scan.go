package main

import (
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Scan CSV/Parquet files into the metadata store",
	Long: `Walk a directory recursively, extract column-level schema metadata
from every CSV and Parquet file and store it in the SQLite metadata
store. Unsupported or oversized files are skipped with a note.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		a.runScan(cmd.Context(), args[0])
		return nil
	},
}

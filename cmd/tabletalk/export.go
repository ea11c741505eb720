package main

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write a schema report without starting a chat session",
	Long: `Render the metadata store as a schema report. The format follows the
file extension: .json, .yaml/.yml or .md/.markdown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.exporter.ExportFile(cmd.Context(), args[0]); err != nil {
			return err
		}
		okColor.Printf("wrote %s\n", args[0])
		return nil
	},
}

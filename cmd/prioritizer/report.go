package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report <report-id>",
	Short: "Show a previously generated analysis report",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		report, err := store.GetReport(cmd.Context(), orgID, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if reportJSON {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			return
		}

		printReport(report)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output the full report as JSON")
	rootCmd.AddCommand(reportCmd)
}

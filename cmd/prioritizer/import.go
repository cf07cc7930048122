package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sprintdeck/prioritizer/internal/signals"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import story signal rows from a JSON file",
	Long: `Import seeds the signal store from a JSON file containing an array of
story signal rows. Existing rows for the same story are replaced.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var rows []signals.RawStorySignals
		if err := json.Unmarshal(data, &rows); err != nil {
			fmt.Fprintf(os.Stderr, "Error: parsing %s: %v\n", args[0], err)
			os.Exit(1)
		}

		for i := range rows {
			if rows[i].StoryID == "" {
				fmt.Fprintf(os.Stderr, "Error: row %d has no story_id\n", i)
				os.Exit(1)
			}
			if err := store.SaveStorySignals(cmd.Context(), orgID, &rows[i]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: saving %s: %v\n", rows[i].StoryID, err)
				os.Exit(1)
			}
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s imported %d story signal rows\n", green("✓"), len(rows))
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

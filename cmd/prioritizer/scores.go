package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var scoresCmd = &cobra.Command{
	Use:   "scores <story-id>",
	Short: "Show persisted scores for a story across all frameworks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storyID := args[0]

		records, err := eng.GetStoryScores(cmd.Context(), orgID, storyID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Printf("No scores recorded for %s\n", storyID)
			return
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("%s\n", cyan(storyID))
		for _, r := range records {
			value := "-"
			switch {
			case r.Unscoreable:
				value = gray("unscoreable: " + r.UnscoreableReason)
			case r.Category != nil:
				value = string(*r.Category)
			case r.Score != nil:
				value = fmt.Sprintf("%.2f", *r.Score)
			}

			line := fmt.Sprintf("  %-13s %-34s rank %d", r.Framework, value, r.Rank)
			if r.IsManualOverride {
				line += "  " + yellow(fmt.Sprintf("manual %v", r.ManualFields))
			}
			fmt.Println(line)
			fmt.Printf("    %s\n", gray("updated "+r.UpdatedAt.Format("2006-01-02 15:04:05")))
		}
	},
}

func init() {
	rootCmd.AddCommand(scoresCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sprintdeck/prioritizer/internal/types"
)

var (
	overrideFramework string
	overrideScore     float64
	overrideCategory  string
)

var overrideCmd = &cobra.Command{
	Use:   "override <story-id>",
	Short: "Set a manual score for a story",
	Long: `Override writes a manual score for one (story, framework) pair. The
fields it sets become protected: automatic recomputes will not touch
them until the override is lifted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storyID := args[0]

		framework := types.Framework(overrideFramework)
		if !framework.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: unknown framework: %q\n", overrideFramework)
			os.Exit(1)
		}

		var fields types.ManualScoreFields
		if cmd.Flags().Changed("score") {
			fields.Score = &overrideScore
		}
		if overrideCategory != "" {
			cat := types.MoscowCategory(overrideCategory)
			if !cat.IsValid() {
				fmt.Fprintf(os.Stderr, "Error: unknown category: %q\n", overrideCategory)
				os.Exit(1)
			}
			fields.Category = &cat
		}
		if len(fields.FieldNames()) == 0 {
			fmt.Fprintf(os.Stderr, "Error: nothing to set; pass --score and/or --category\n")
			os.Exit(1)
		}

		if err := eng.UpsertManualScore(cmd.Context(), orgID, storyID, framework, fields); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s manual %s score set for %s (protected fields: %v)\n",
			green("✓"), framework, storyID, fields.FieldNames())
	},
}

func init() {
	overrideCmd.Flags().StringVar(&overrideFramework, "framework", "", "Framework the score belongs to (required)")
	overrideCmd.Flags().Float64Var(&overrideScore, "score", 0, "Manual numeric score")
	overrideCmd.Flags().StringVar(&overrideCategory, "category", "", "Manual MoSCoW category: must, should, could, wont")
	overrideCmd.MarkFlagRequired("framework")
	rootCmd.AddCommand(overrideCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sprintdeck/prioritizer/internal/signals"
	"github.com/sprintdeck/prioritizer/internal/types"
)

var (
	signalFramework string
	signalValues    = map[string]*float64{}
	signalMoscow    string
)

// signalFlags maps flag names to override fields. Confidence is entered
// as a 0-1 fraction.
var signalFlags = []struct {
	flag  string
	usage string
	set   func(o *signals.ManualOverride, v *float64)
}{
	{"business-value", "Business value signal", func(o *signals.ManualOverride, v *float64) { o.BusinessValue = v }},
	{"time-criticality", "Time criticality signal", func(o *signals.ManualOverride, v *float64) { o.TimeCriticality = v }},
	{"risk-reduction", "Risk reduction signal", func(o *signals.ManualOverride, v *float64) { o.RiskReduction = v }},
	{"job-size", "Job size in cost units", func(o *signals.ManualOverride, v *float64) { o.JobSize = v }},
	{"reach", "Reach signal", func(o *signals.ManualOverride, v *float64) { o.Reach = v }},
	{"impact", "Impact signal", func(o *signals.ManualOverride, v *float64) { o.Impact = v }},
	{"confidence", "Confidence as a 0-1 fraction", func(o *signals.ManualOverride, v *float64) { o.Confidence = v }},
	{"effort", "Effort in cost units", func(o *signals.ManualOverride, v *float64) { o.Effort = v }},
	{"wsjf", "Precomputed WSJF score", func(o *signals.ManualOverride, v *float64) { o.ManualWSJF = v }},
	{"rice", "Precomputed RICE score", func(o *signals.ManualOverride, v *float64) { o.ManualRICE = v }},
	{"revenue", "Projected quarterly revenue", func(o *signals.ManualOverride, v *float64) { o.QuarterlyRevenue = v }},
}

var signalCmd = &cobra.Command{
	Use:   "signal <project-id> <story-id>",
	Short: "Set manual signal overrides for a story",
	Long: `Signal records human-entered signal values for a story. Override
values win over estimator output and label heuristics the next time an
analysis runs for the given framework.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		projectID, storyID := args[0], args[1]

		framework := types.Framework(signalFramework)
		if !framework.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: unknown framework: %q\n", signalFramework)
			os.Exit(1)
		}

		override := &signals.ManualOverride{}
		set := 0
		for _, sf := range signalFlags {
			if cmd.Flags().Changed(sf.flag) {
				sf.set(override, signalValues[sf.flag])
				set++
			}
		}
		if signalMoscow != "" {
			cat := types.MoscowCategory(signalMoscow)
			if !cat.IsValid() {
				fmt.Fprintf(os.Stderr, "Error: unknown category: %q\n", signalMoscow)
				os.Exit(1)
			}
			override.Moscow = &cat
			set++
		}
		if set == 0 {
			fmt.Fprintf(os.Stderr, "Error: no signal flags given\n")
			os.Exit(1)
		}

		if err := store.SaveManualOverride(cmd.Context(), orgID, projectID, storyID, framework, override); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s recorded %d signal override(s) for %s\n", green("✓"), set, storyID)
	},
}

func init() {
	signalCmd.Flags().StringVar(&signalFramework, "framework", "", "Framework the overrides apply to (required)")
	for _, sf := range signalFlags {
		v := new(float64)
		signalValues[sf.flag] = v
		signalCmd.Flags().Float64Var(v, sf.flag, 0, sf.usage)
	}
	signalCmd.Flags().StringVar(&signalMoscow, "moscow", "", "Manual MoSCoW category: must, should, could, wont")
	signalCmd.MarkFlagRequired("framework")
	rootCmd.AddCommand(signalCmd)
}

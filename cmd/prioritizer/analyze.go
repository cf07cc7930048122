package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sprintdeck/prioritizer/internal/types"
)

var (
	analyzeFramework string
	analyzeFocus     string
	analyzeSegment   string
	analyzePressure  string
	analyzeBudget    float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <project-id>",
	Short: "Run a prioritization analysis for a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		projectID := args[0]

		framework := types.Framework(analyzeFramework)
		if analyzeFramework == "" {
			framework = cfg.DefaultFramework
		}

		analysisCfg := types.AnalysisConfig{
			Framework:           framework,
			StrategicFocus:      analyzeFocus,
			MarketSegment:       analyzeSegment,
			CompetitivePressure: types.CompetitivePressure(analyzePressure),
		}
		if cmd.Flags().Changed("budget") {
			analysisCfg.QuarterlyBudget = &analyzeBudget
		}

		report, err := eng.RunAnalysis(cmd.Context(), orgID, projectID, analysisCfg)

		var perr *types.PersistenceError
		if errors.As(err, &perr) {
			// Computation succeeded; warn and still show the report.
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s report was not durably saved: %v\n", yellow("warning:"), perr)
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		printReport(report)
	},
}

func printReport(report *types.AnalysisReport) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan("=== Backlog Analysis Report ==="))
	fmt.Printf("Report:    %s\n", report.ReportID)
	fmt.Printf("Project:   %s\n", report.ProjectID)
	fmt.Printf("Framework: %s\n", report.Config.Framework)
	if !report.Persisted {
		fmt.Printf("Saved:     %s\n", red("no (retry persistence)"))
	}
	fmt.Println()

	fmt.Printf("%s\n", yellow("Ranked stories:"))
	if len(report.Ranked) == 0 {
		fmt.Printf("  %s\n", gray("none"))
	}
	for _, entry := range report.Ranked {
		marker := " "
		if entry.HeuristicDerived {
			marker = "~" // heuristic-derived classification
		}
		if entry.Category != nil {
			fmt.Printf("  %2d. %-24s %s%s\n", entry.Rank, entry.Story.StoryID, marker, *entry.Category)
		} else {
			fmt.Printf("  %2d. %-24s %s%.2f\n", entry.Rank, entry.Story.StoryID, marker, entry.Score)
		}
	}

	if len(report.Unscoreable) > 0 {
		fmt.Printf("\n%s\n", yellow("Unscoreable:"))
		for _, entry := range report.Unscoreable {
			fmt.Printf("  %-26s %s\n", entry.Story.StoryID, gray(entry.Reason))
		}
	}

	fmt.Printf("\n%s\n", yellow("Conflicts:"))
	if len(report.Conflicts) == 0 {
		fmt.Printf("  %s\n", green("none detected"))
	}
	for _, c := range report.Conflicts {
		sev := gray(string(c.Severity))
		switch c.Severity {
		case types.SeverityHigh:
			sev = red(string(c.Severity))
		case types.SeverityMedium:
			sev = yellow(string(c.Severity))
		}
		fmt.Printf("  [%s] team %s: stories %v need %.1f units, capacity %.1f\n",
			sev, c.SharedConstraint, c.StoryIDs, c.CombinedCost, c.TeamCapacity)
	}

	fmt.Printf("\n%s\n", yellow("Capacity:"))
	if report.Capacity.ConstraintApplied {
		fmt.Printf("  %d included / %d excluded (budget %.1f, consumed %.1f)\n",
			len(report.Capacity.IncludedIDs), len(report.Capacity.ExcludedIDs),
			report.Capacity.Ceiling, report.Capacity.ConsumedCost)
	} else {
		fmt.Printf("  no constraint applied; all %d items included\n", len(report.Capacity.IncludedIDs))
	}

	fmt.Printf("\n%s\n", yellow("Alignment:"))
	fmt.Printf("  %d of top %d aligned (%.0f%%)\n",
		report.Alignment.AlignedCount, report.Alignment.TopN, report.Alignment.Proportion*100)
	fmt.Printf("  %s\n", report.Alignment.Narrative)

	fmt.Printf("\n%s\n", yellow("Confidence:"))
	fmt.Printf("  high %d / medium %d / low %d / unknown %d\n",
		report.Confidence.Counts[types.BandHigh],
		report.Confidence.Counts[types.BandMedium],
		report.Confidence.Counts[types.BandLow],
		report.Confidence.Counts[types.BandUnknown])

	if len(report.Diagnostics) > 0 {
		fmt.Printf("\n%s\n", yellow("Diagnostics:"))
		for _, d := range report.Diagnostics {
			fmt.Printf("  %s %s\n", gray(d.StoryID+":"), d.Message)
		}
	}

	fmt.Printf("\n%s\n%s\n", yellow("Summary:"), report.Summary)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFramework, "framework", "", "Framework: wsjf, rice, moscow, value_effort (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeFocus, "focus", "", "Strategic focus (growth, retention, compliance, ...)")
	analyzeCmd.Flags().StringVar(&analyzeSegment, "segment", "", "Market segment")
	analyzeCmd.Flags().StringVar(&analyzePressure, "pressure", "", "Competitive pressure: low, medium, high")
	analyzeCmd.Flags().Float64Var(&analyzeBudget, "budget", 0, "Quarterly budget ceiling in cost units")
	rootCmd.AddCommand(analyzeCmd)
}

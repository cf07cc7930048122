package engine

import (
	"fmt"
	"strings"

	"github.com/sprintdeck/prioritizer/internal/types"
)

// Summarize builds the executive summary for a report. It is
// deterministic given the same inputs - no randomness, no model calls -
// so reports stay reproducible and testable.
func Summarize(report *types.AnalysisReport) string {
	var b strings.Builder

	total := len(report.Ranked) + len(report.Unscoreable)
	fmt.Fprintf(&b, "Analyzed %d %s under %s: %d ranked",
		total, plural(total, "story", "stories"), frameworkName(report.Config.Framework), len(report.Ranked))
	if len(report.Unscoreable) > 0 {
		fmt.Fprintf(&b, ", %d unscoreable", len(report.Unscoreable))
	}
	b.WriteString(". ")

	if report.Alignment.TopN > 0 && report.Config.StrategicFocus != "" {
		fmt.Fprintf(&b, "%d of the top %d items support the %s focus. ",
			report.Alignment.AlignedCount, report.Alignment.TopN, report.Config.StrategicFocus)
	}

	switch len(report.Conflicts) {
	case 0:
		b.WriteString("No delivery conflicts detected. ")
	case 1:
		fmt.Fprintf(&b, "1 delivery conflict detected (%s severity, team %s). ",
			report.Conflicts[0].Severity, report.Conflicts[0].SharedConstraint)
	default:
		fmt.Fprintf(&b, "%d delivery conflicts detected (worst: %s severity). ",
			len(report.Conflicts), report.Conflicts[0].Severity)
	}

	if report.Capacity.ConstraintApplied {
		fmt.Fprintf(&b, "Capacity: %d of %d ranked items fit within the %.0f-unit budget",
			len(report.Capacity.IncludedIDs), len(report.Ranked), report.Capacity.Ceiling)
		if len(report.Capacity.ExcludedIDs) > 0 {
			fmt.Fprintf(&b, " (cut line at rank %d)", report.Capacity.CutLine+1)
		}
		b.WriteString(".")
		if report.Capacity.ValueSpendRatio != nil {
			fmt.Fprintf(&b, " Included work returns %.2f revenue units per cost unit.", *report.Capacity.ValueSpendRatio)
		}
	} else {
		b.WriteString("No capacity constraint was applied; all ranked items are included.")
	}

	unknown := report.Confidence.Counts[types.BandUnknown] + report.Confidence.Counts[types.BandLow]
	if report.Confidence.Total > 0 && unknown*2 > report.Confidence.Total {
		b.WriteString(" Note: over half the ranking rests on low or unknown confidence estimates.")
	}

	return b.String()
}

func frameworkName(f types.Framework) string {
	switch f {
	case types.FrameworkWSJF:
		return "WSJF"
	case types.FrameworkRICE:
		return "RICE"
	case types.FrameworkMoscow:
		return "MoSCoW"
	case types.FrameworkValueEffort:
		return "Value/Effort"
	}
	return string(f)
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

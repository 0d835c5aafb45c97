package cli

import (
	"fmt"

	"commutesurvey/internal/survey"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewAggregateCommand creates the 'surveyctl aggregate' command
func NewAggregateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate <record.json>",
		Short: "Show commute frequency aggregates for a record",
		Long: `Compute the per-mode commute frequencies of a record, whether any
journey combines modes, and the dominant mode.`,
		Args: cobra.ExactArgs(1),
		RunE: runAggregate,
	}
}

func runAggregate(cmd *cobra.Command, args []string) error {
	record, err := readRecord(args[0])
	if err != nil {
		return err
	}
	output := cmd.OutOrStdout()
	summary := survey.Summarize(&record.Data, nil)

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(output, "Commute frequencies\n")
	for _, mode := range survey.CandidateModes {
		days := summary.FreqMod[mode]
		if days == 0 {
			gray.Fprintf(output, "  %-9s %d\n", mode, days)
			continue
		}
		green.Fprintf(output, "  %-9s %d\n", mode, days)
	}
	fmt.Fprintf(output, "Total days:   %d\n", summary.TotalDays)
	fmt.Fprintf(output, "Combined:     %t\n", summary.Combined)
	fmt.Fprintf(output, "Multimodal:   %t\n", summary.Multimodality)
	mainMode := summary.MainMode
	if mainMode == "" {
		mainMode = "-"
	}
	fmt.Fprintf(output, "Main mode:    %s\n", mainMode)
	return nil
}

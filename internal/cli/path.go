package cli

import (
	"fmt"

	"commutesurvey/internal/model"
	"commutesurvey/internal/survey"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewPathCommand creates the 'surveyctl path' command
func NewPathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <record.json>",
		Short: "List the steps a record would walk through",
		Long: `Replay the questionnaire from the first step with the given answers
and show which steps are asked and which are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runPath,
	}
	cmd.Flags().String("flow", "default", "step sequence: default or breakdown")
	return cmd
}

func runPath(cmd *cobra.Command, args []string) error {
	flowName, _ := cmd.Flags().GetString("flow")
	flow, err := survey.FlowByName(flowName)
	if err != nil {
		return err
	}
	record, err := readRecord(args[0])
	if err != nil {
		return err
	}

	visited := walk(flow, record)
	output := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	asked := 0
	for pos := 1; pos <= flow.Len(); pos++ {
		step := flow.At(pos)
		if visited[step] {
			asked++
			green.Fprintf(output, "%2d  %s\n", pos, step)
			continue
		}
		gray.Fprintf(output, "%2d  %s (skipped)\n", pos, step)
	}
	fmt.Fprintf(output, "%d of %d steps asked (flow %s)\n", asked, flow.Len(), flow.Name())
	return nil
}

// walk advances a fresh engine to the end and reports the steps it stopped on
func walk(flow *survey.Flow, record *model.Record) map[survey.Step]bool {
	engine := survey.NewEngine(survey.WithFlow(flow))
	engine.Init(record)

	visited := map[survey.Step]bool{engine.Current(): true}
	for {
		prev := engine.Current()
		next := engine.Advance()
		if next == prev {
			return visited
		}
		visited[next] = true
	}
}

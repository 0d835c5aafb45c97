package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"commutesurvey/internal/model"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the surveyctl command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "surveyctl",
		Short:         "Inspect commute survey records and sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			noColor, _ := cmd.Flags().GetBool("no-color")
			if noColor || !isTerminal(cmd.OutOrStdout()) {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().String("config", "config.yaml", "path to the service configuration file")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")

	root.AddCommand(NewAggregateCommand())
	root.AddCommand(NewPathCommand())
	root.AddCommand(NewSessionCommand())
	return root
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// readRecord loads a record file. Both a full record ({"token","data"}) and
// a bare data object are accepted; missing fields take their defaults.
func readRecord(path string) (*model.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	var envelope struct {
		Token string          `json:"token"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", path, err)
	}
	payload := envelope.Data
	if len(payload) == 0 {
		payload = raw
	}

	data, err := model.MergeRecordData(payload)
	if err != nil {
		return nil, fmt.Errorf("parse record %s: %w", path, err)
	}
	return &model.Record{Token: envelope.Token, Data: data}, nil
}

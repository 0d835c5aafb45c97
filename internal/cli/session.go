package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"commutesurvey/internal/config"
	"commutesurvey/internal/model"
	"commutesurvey/internal/repository"
	"commutesurvey/internal/survey"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// openRepo connects to the session store named by the configuration file
var openRepo = func(ctx context.Context, cfgPath string) (repository.SessionRepo, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	client, err := repository.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}
	closeFn := func() { client.Disconnect(context.Background()) }
	return repository.NewSessionRepo(client.Database(cfg.MongoDB)), closeFn, nil
}

// NewSessionCommand creates the 'surveyctl session' command group
func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect stored survey sessions",
	}

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show where a session stands",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionShow,
	}

	list := &cobra.Command{
		Use:   "list <token-or-slug>",
		Short: "List the latest sessions opened with a token or slug",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionList,
	}
	list.Flags().Int64("limit", 10, "maximum number of sessions")

	cmd.AddCommand(show, list)
	return cmd
}

func withRepo(cmd *cobra.Command, fn func(ctx context.Context, repo repository.SessionRepo) error) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	repo, closeFn, err := openRepo(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, repo)
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	return withRepo(cmd, func(ctx context.Context, repo repository.SessionRepo) error {
		snap, err := repo.GetByID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if snap == nil {
			return fmt.Errorf("session %s: %w", args[0], model.ErrSessionNotFound)
		}
		return printSession(cmd.OutOrStdout(), snap)
	})
}

func runSessionList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt64("limit")
	return withRepo(cmd, func(ctx context.Context, repo repository.SessionRepo) error {
		snaps, err := repo.ListByTokenOrSlug(ctx, args[0], limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		output := cmd.OutOrStdout()
		if len(snaps) == 0 {
			fmt.Fprintf(output, "No sessions found for %s\n", args[0])
			return nil
		}
		for _, snap := range snaps {
			state := "closed"
			if snap.Started {
				state = snap.StepName
			}
			fmt.Fprintf(output, "%s  %s  %s\n", snap.ID, snap.Timestamp.Format(time.RFC3339), state)
		}
		return nil
	})
}

func printSession(output io.Writer, snap *model.SessionSnapshot) error {
	engine, err := survey.Restore(snap)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(output, "Session %s\n", snap.ID)
	fmt.Fprintf(output, "Token/slug:  %s\n", snap.TokenOrSlug)
	fmt.Fprintf(output, "Flow:        %s\n", engine.Flow().Name())
	fmt.Fprintf(output, "Updated:     %s\n", snap.Timestamp.Format(time.RFC3339))
	if !engine.Started() {
		yellow.Fprintf(output, "Not in progress\n")
		return nil
	}
	green.Fprintf(output, "Step:        %d/%d %s\n", engine.StepIndex(), engine.Flow().Len(), engine.StepName())

	summary := engine.Summary()
	fmt.Fprintf(output, "Main mode:   %s\n", orDash(summary.MainMode))
	fmt.Fprintf(output, "Combined:    %t\n", summary.Combined)
	if len(summary.RecoModes) > 0 {
		fmt.Fprintf(output, "Recommended: %v\n", summary.RecoModes)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

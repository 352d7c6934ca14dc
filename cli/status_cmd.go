package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/phase-tracker/cli/formatter"
	"github.com/warp/phase-tracker/tracker"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show progress of every phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter.FormatStatus(app.Book.Phases(), app.Book.Pending(), app.Book.Global(), app.Currency)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PHASE",
		Short: "Show every day of a phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Book.Phase(tracker.PhaseKey(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatPhase(p, app.Currency))
			return nil
		},
	}
}

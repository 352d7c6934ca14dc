package cli

import (
	"github.com/spf13/cobra"
	"github.com/warp/phase-tracker/tracker"
	"github.com/warp/phase-tracker/tradelog"
)

// App holds the services CLI commands work against.
type App struct {
	Book     *tracker.Book
	Journal  *tradelog.Journal
	Currency string
}

// NewRootCmd creates the top-level "trackerctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "trackerctl",
		Short:         "Challenge phase progress tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStatusCmd(app),
		newShowCmd(app),
		newSetCmd(app),
		newTemplateCmd(app),
		newTradeCmd(app),
	)

	return root
}

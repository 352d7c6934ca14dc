package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/phase-tracker/cli/formatter"
)

func newTemplateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "List the phase templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTemplates(app.Book.Templates().All(), app.Currency))
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/phase-tracker/format"
	"github.com/warp/phase-tracker/tracker"
)

func newSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set PHASE DAY AMOUNT",
		Short: "Record the achieved amount of one day",
		Long: "Record the achieved amount of one day. AMOUNT may be negative.\n" +
			"The write is flushed to storage before the command exits.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := tracker.PhaseKey(args[0])
			day, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid day %q: %w", args[1], err)
			}
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}

			p, err := app.Book.SetAchieved(key, day, amount)
			if err != nil {
				return err
			}
			if q := app.Book.Queue(); q != nil {
				if err := q.Flush(cmd.Context()); err != nil {
					return fmt.Errorf("saving %s: %w", key, err)
				}
				if st, ok := q.Status(key); ok && st.Stale {
					return fmt.Errorf("saving %s: %w, another writer stored a newer edit", key, tracker.ErrStaleWrite)
				}
			}

			rec, _ := p.Day(day)
			s := p.Summary()
			fmt.Fprintf(cmd.OutOrStdout(), "%s day %d (%s): %s of %s. Phase at %s.\n",
				p.Name, rec.Day, rec.Label,
				format.Money(rec.Achieved, app.Currency),
				format.Money(rec.Target, app.Currency),
				format.Percent(s.Percent))
			return nil
		},
	}
}

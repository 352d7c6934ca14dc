package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/phase-tracker/cli/formatter"
	"github.com/warp/phase-tracker/format"
	"github.com/warp/phase-tracker/tradelog"
)

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Record trades and check the loss limits",
	}

	cmd.AddCommand(
		newTradeAddCmd(app),
		newTradeListCmd(app),
		newTradeStatsCmd(app),
	)

	return cmd
}

func newTradeAddCmd(app *App) *cobra.Command {
	var date, note string

	cmd := &cobra.Command{
		Use:   "add PROFIT",
		Short: "Record a trade (negative PROFIT for a loss)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profit, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid profit %q: %w", args[0], err)
			}
			if date == "" {
				date = time.Now().Format(tradelog.DateLayout)
			}

			t, err := app.Journal.Record(cmd.Context(), date, profit, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s\n",
				format.Signed(format.Money(t.Profit, app.Currency), t.Profit),
				t.Date.Format(tradelog.DateLayout))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Trade date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note")

	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			trades, err := app.Journal.Trades(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTrades(trades, app.Currency))
			return nil
		},
	}
}

func newTradeStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show PnL, drawdown and loss-limit breaches",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Journal.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStats(stats, app.Journal.Policy(), app.Currency))
			return nil
		},
	}
}

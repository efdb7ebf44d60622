package cli

import (
	"fmt"

	"github.com/habitlog/internal/period"
	"github.com/habitlog/internal/service"
	"github.com/spf13/cobra"
)

func newPeriodsCmd(app *App) *cobra.Command {
	var year int
	var kind string

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List the weekly or monthly periods of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, ok := period.ParseKind(kind)
			if !ok {
				return fmt.Errorf("unsupported kind %q (weekly|monthly)", kind)
			}
			if year == 0 {
				year = app.today().Year()
			}

			out := cmd.OutOrStdout()
			for _, p := range period.ForKind(k, year) {
				fmt.Fprintf(out, "%-9s %s ~ %s  %s\n", p.Key, period.FormatDate(p.Start), period.FormatDate(p.End), p.Label)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year (defaults to the current year)")
	cmd.Flags().StringVar(&kind, "kind", string(period.Weekly), "Period kind: weekly or monthly")
	return cmd
}

func newRecomputeFinesCmd(app *App) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "recompute-fines",
		Short: "Re-evaluate all fines of a year from the tracking records",
		RunE: func(cmd *cobra.Command, args []string) error {
			today := app.today()
			if year == 0 {
				year = today.Year()
			}

			result, err := service.NewFineService(app.DB).Recompute(app.context(), year, today)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "year %d: %d periods evaluated, %d created, %d updated, %d removed\n",
				result.Year, result.Periods, result.Created, result.Updated, result.Removed)
			for _, f := range result.Fines {
				fmt.Fprintf(out, "  %-9s habit=%d %-8s %s  %d (%s)\n", f.PeriodKey, f.HabitID, f.Status, f.Cause, f.FineAmount, f.ID)
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(out, "  ! %s\n", w.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year (defaults to the current year)")
	return cmd
}

func newRebuildProgressCmd(app *App) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "rebuild-progress",
		Short: "Recount yearly goal progress of every habit from its records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = app.today().Year()
			}

			ctx := app.context()
			habits, err := service.NewHabitService(app.DB).List(ctx, service.HabitFilter{})
			if err != nil {
				return err
			}

			tracking := service.NewTrackingService(app.DB)
			out := cmd.OutOrStdout()
			for _, h := range habits {
				if !h.IsTracking() {
					continue
				}
				count, err := tracking.RebuildProgress(ctx, h.ID, year)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d\n", h.Name, count)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year (defaults to the current year)")
	return cmd
}

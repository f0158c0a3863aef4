package main

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/agropulse/internal/dashboard"
)

func newDashboardCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the leaderboard, advisories and achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := opts.client()

			var (
				snap *dashboard.Snapshot
				ach  *dashboard.Achievements
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() (err error) {
				snap, err = api.Dashboard(ctx)
				return err
			})
			g.Go(func() (err error) {
				ach, err = api.Achievements(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Level %d  %d / %d XP  Rank #%d\n", ach.Level, ach.XP, ach.XPNextLevel, ach.Rank)

			fmt.Fprintln(out, "\nToday's Tasks")
			for _, q := range ach.Quests {
				mark := " "
				if q.Completed {
					mark = "x"
				}
				fmt.Fprintf(out, "  [%s] %s\n", mark, q.Text)
			}

			fmt.Fprintln(out, "\nLeaderboard")
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for i, e := range snap.Leaderboard {
				fmt.Fprintf(tw, "  %d.\t%s\t%d\n", i+1, e.Name, e.Yield)
			}
			tw.Flush()

			if len(snap.Advisories) > 0 {
				fmt.Fprintln(out, "\nAdvisories")
				for _, lang := range slices.Sorted(maps.Keys(snap.Advisories)) {
					fmt.Fprintf(out, "  [%s] %s\n", lang, snap.Advisories[lang])
				}
			}
			return nil
		},
	}
}

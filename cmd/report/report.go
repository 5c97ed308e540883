package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/datastore"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/tracker"
)

// Command creates the command that prints the game history.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the game history and win record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := datastore.Connect(settings, logger.Global().Module("datastore"), nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			report, err := tracker.NewService(store, logger.Global().Module("tracker")).Report(cmd.Context())
			if err != nil {
				return err
			}
			return Render(cmd.OutOrStdout(), report)
		},
	}
}

// Render writes report as an aligned table followed by the totals.
func Render(w io.Writer, report tracker.Report) error {
	if report.Empty() {
		_, err := fmt.Fprintln(w, tracker.EmptyMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDate\tOpponent\tScore\tResult\tNotes")
	for _, game := range report.Games {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", game.ID, game.Date, game.Opponent, game.Score, game.Result, game.Notes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nTotal Games: %d\nWins: %d\nWin Percentage: %s\n",
		report.Total, report.Wins, tracker.FormatPercentage(report.WinPercentage))
	return err
}

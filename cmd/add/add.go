package add

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/datastore"
	"github.com/courtside/wintracker/internal/logger"
	"github.com/courtside/wintracker/internal/tracker"
)

// Command creates the command that records one game from the terminal.
func Command(settings *conf.Settings) *cobra.Command {
	var sub tracker.Submission

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a game",
		Long:  "Record a game. Opponent and score are required; the date defaults to today.",
		Example: `  wintracker add --opponent Lakers --score 85-82
  wintracker add --date 2024-01-10 --opponent Celtics --score 90-99 --result Loss --notes "Rough night"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := datastore.Connect(settings, logger.Global().Module("datastore"), nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			service := tracker.NewService(store, logger.Global().Module("tracker"))
			game, err := service.Submit(cmd.Context(), sub)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (#%d %s vs %s, %s %s)\n",
				tracker.SuccessMessage, game.ID, game.Date, game.Opponent, game.Result, game.Score)
			return nil
		},
	}

	cmd.Flags().StringVar(&sub.Date, "date", "", "Game date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&sub.Opponent, "opponent", "", "Opponent name")
	cmd.Flags().StringVar(&sub.Score, "score", "", "Final score, e.g. 85-82")
	cmd.Flags().StringVar(&sub.Result, "result", string(datastore.ResultWin), "Win or Loss")
	cmd.Flags().StringVar(&sub.Notes, "notes", "", "Free-form notes")

	return cmd
}

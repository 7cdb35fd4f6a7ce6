package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jakechorley/dance-matcher/pkg/core/services"
	"github.com/jakechorley/dance-matcher/pkg/db"
)

// ListRunsCmd creates the listRuns command
func ListRunsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listRuns",
		Short: "List persisted match runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := app.Database()
			if err != nil {
				return err
			}

			runs, err := services.ListRuns(app.Ctx, database, app.Logger)
			if err != nil {
				return err
			}

			printRuns(os.Stdout, runs)
			return nil
		},
	}
}

func printRuns(w io.Writer, runs []db.MatchRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No match runs found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSOURCE\tSEED\tMATCHED\tUNMATCHED")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Source,
			run.Seed,
			run.Matched,
			run.Unmatched(),
		)
	}
	tw.Flush()
}
